package splice

import (
	"unicode/utf8"

	"github.com/siherrmann/annotator/model"
)

// GlossFitsInline reports whether a short gloss is compact enough to render
// inline above the word. Scripts without inter-word spacing tolerate longer
// glosses (ratio 5.0) than space-delimited scripts (2.5); a gloss over the
// threshold is deferred to the footnote document.
func GlossFitsInline(word string, shortGloss string, lang string) bool {
	wordLen := utf8.RuneCountInString(word)
	if wordLen == 0 {
		return false
	}
	threshold := 2.5
	if model.CJKLangs[lang] {
		threshold = 5.0
	}
	ratio := float64(utf8.RuneCountInString(shortGloss)) / float64(wordLen)
	return ratio <= threshold
}
