package pipeline

import (
	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
)

// NewLemmaMatcher creates a dictionary matcher over the given lemma list.
// Matching is leftmost-longest on whole words, case-insensitive for ASCII,
// so "Apples" at a sentence start still hits the lemma "apples" while
// "applesauce" does not.
func NewLemmaMatcher(lemmas []string) LemmaMatchFunc {
	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  true,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
	})
	ac := builder.Build(lemmas)

	return func(text string) ([]LemmaCandidate, error) {
		matches := ac.FindAll(text)
		if len(matches) == 0 {
			return nil, nil
		}

		candidates := make([]LemmaCandidate, 0, len(matches))
		for _, m := range matches {
			candidates = append(candidates, LemmaCandidate{
				Lemma: lemmas[m.Pattern()],
				Start: m.Start(),
				End:   m.End(),
				Word:  text[m.Start():m.End()],
			})
		}
		return candidates, nil
	}
}
