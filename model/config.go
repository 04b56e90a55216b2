package model

// CJKLangs are the language codes treated as scripts without inter-word
// spacing. They get a wider inline-gloss length tolerance and a shorter
// minimum entity length.
var CJKLangs = map[string]bool{
	"zh": true,
	"ja": true,
	"ko": true,
}

// PersonLabels are the NER labels treated as person-like for footnote
// filtering and fuller-name promotion.
var PersonLabels = map[string]bool{
	"PERSON":   true,
	"PER":      true,
	"persName": true,
}

// AnnotateConfig represents configuration for one annotation run.
type AnnotateConfig struct {
	// Lang is the book's language code (BCP 47 primary subtag).
	Lang string `json:"lang"`

	// FuzzThreshold is the token-set ratio (0-100) a candidate must reach
	// to be merged into an existing entity record.
	FuzzThreshold float64 `json:"fuzz_threshold"`

	// MinMentionCount suppresses entities mentioned fewer times, unless
	// pinned or backed by a cached description. Values <= 1 disable pruning.
	MinMentionCount int `json:"min_mention_count"`

	// SearchPeople includes knowledge-base summaries for person-like
	// entities; when false, people fall back to their first-seen quote.
	SearchPeople bool `json:"search_people"`

	// XRay and WordWise select which annotation kinds to produce.
	XRay     bool `json:"x_ray"`
	WordWise bool `json:"word_wise"`

	// CustomEntities are caller-pinned overrides keyed by surface name.
	CustomEntities map[string]CustomEntity `json:"custom_entities,omitempty"`

	// CitationSources resolves CustomEntity.Source keys.
	CitationSources map[string]CitationSource `json:"citation_sources,omitempty"`
}

// DefaultAnnotateConfig returns a sensible default configuration
func DefaultAnnotateConfig() AnnotateConfig {
	return AnnotateConfig{
		Lang:            "en",
		FuzzThreshold:   90,
		MinMentionCount: 1,
		SearchPeople:    false,
		XRay:            true,
		WordWise:        true,
	}
}

// IsCJK reports whether the configured language uses a CJK script.
func (c AnnotateConfig) IsCJK() bool {
	return CJKLangs[c.Lang]
}
