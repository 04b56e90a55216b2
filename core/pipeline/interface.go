package pipeline

// EntityCandidate is one named-entity span produced by a recognizer.
// Offsets are UTF-8 byte positions within the scanned fragment; the run
// converts them into the owning part's declared offset unit.
type EntityCandidate struct {
	Text     string // normalized surface string
	Label    string // NER category tag
	IsPerson bool
	Start    int    // byte offset of Text within the fragment
	Sentence string // surrounding sentence, used as fallback footnote quote
}

// LemmaCandidate is one dictionary hit produced by a lemma matcher.
// Offsets are UTF-8 byte positions within the scanned fragment.
type LemmaCandidate struct {
	Lemma string // dictionary key
	Start int
	End   int
	Word  string // original text matched
}

// RecognizeFunc extracts named-entity candidates from a text fragment.
type RecognizeFunc func(text string) ([]EntityCandidate, error)

// LemmaMatchFunc extracts lemma candidates from a text fragment.
type LemmaMatchFunc func(text string) ([]LemmaCandidate, error)

// Pipeline combines the candidate producers for one annotation run. Either
// function may be nil when that annotation kind is disabled.
type Pipeline struct {
	Recognizer   RecognizeFunc
	LemmaMatcher LemmaMatchFunc
}

// NewPipeline creates a new candidate pipeline
func NewPipeline(recognizer RecognizeFunc, lemmaMatcher LemmaMatchFunc) *Pipeline {
	return &Pipeline{
		Recognizer:   recognizer,
		LemmaMatcher: lemmaMatcher,
	}
}

// SetRecognizer sets the named-entity recognizer.
func (p *Pipeline) SetRecognizer(recognizer RecognizeFunc) {
	p.Recognizer = recognizer
}

// SetLemmaMatcher sets the lemma matcher.
func (p *Pipeline) SetLemmaMatcher(matcher LemmaMatchFunc) {
	p.LemmaMatcher = matcher
}
