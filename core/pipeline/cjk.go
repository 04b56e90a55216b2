package pipeline

import (
	"fmt"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// NewCJKLemmaMatcher creates a lemma matcher for Japanese text. CJK scripts
// have no inter-word spacing, so whole-word automaton matching does not
// apply; instead the text is segmented into morphemes and each morpheme's
// base form is looked up in the lemma set.
func NewCJKLemmaMatcher(lemmas []string) (LemmaMatchFunc, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer: %w", err)
	}

	set := make(map[string]struct{}, len(lemmas))
	for _, lemma := range lemmas {
		set[lemma] = struct{}{}
	}

	return func(text string) ([]LemmaCandidate, error) {
		var candidates []LemmaCandidate
		for _, token := range t.Analyze(text, tokenizer.Normal) {
			lemma := token.Surface
			if base, ok := token.BaseForm(); ok && base != "*" {
				lemma = base
			}
			if _, known := set[lemma]; !known {
				continue
			}

			// Token.Position is the byte offset of the surface form.
			candidates = append(candidates, LemmaCandidate{
				Lemma: lemma,
				Start: token.Position,
				End:   token.Position + len(token.Surface),
				Word:  token.Surface,
			})
		}
		return candidates, nil
	}, nil
}
