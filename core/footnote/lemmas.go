package footnote

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/siherrmann/annotator/model"
)

// GlossLookup resolves a lemma to cached dictionary data. A (nil, nil)
// return is a cache miss.
type GlossLookup interface {
	GetGloss(lemma string) (*model.Gloss, error)
}

// BuildLemmaFootnotes emits the Word Wise footnote document in table
// insertion order. Each entry carries the full gloss, an example sentence
// when available, and a fixed citation link keyed by the lemma string. A
// gloss cache miss keeps the entry with the citation only.
func BuildLemmaFootnotes(lang string, lemmas []model.LemmaRecord, glosses GlossLookup) (string, error) {
	var s strings.Builder
	s.WriteString(documentHead(lang, "Word Wise"))

	for _, lemma := range lemmas {
		fmt.Fprintf(&s, `<aside id="%v" epub:type="footnote">`, lemma.ID)

		var gloss *model.Gloss
		if glosses != nil {
			var err error
			gloss, err = glosses.GetGloss(lemma.Lemma)
			if err != nil {
				gloss = nil
			}
		}
		if gloss != nil {
			fmt.Fprintf(&s, "<p>%v</p>", html.EscapeString(gloss.Full))
			if gloss.Example != "" {
				fmt.Fprintf(&s, "<p><i>%v</i></p>", html.EscapeString(gloss.Example))
			}
		}

		fmt.Fprintf(&s, `<p>Source: <a href='https://en.wiktionary.org/wiki/%v'>Wiktionary</a></p></aside>`,
			url.PathEscape(lemma.Lemma))
	}

	s.WriteString("</body></html>")
	return s.String(), nil
}
