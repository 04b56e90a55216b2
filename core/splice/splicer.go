// Package splice rewrites document parts by inserting annotation markup at
// recorded offsets. Spans always address the original, pre-annotation
// buffer; the splicer walks them in strictly increasing offset order and
// copies untouched regions verbatim, so surrounding structural markup is
// never disturbed.
package splice

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/siherrmann/annotator/helper"
	"github.com/siherrmann/annotator/model"
)

const (
	// XHTMLNamespace is the XHTML document namespace.
	XHTMLNamespace = "http://www.w3.org/1999/xhtml"
	// OpsNamespace is the EPUB ops namespace required by noteref anchors.
	OpsNamespace = "http://www.idpf.org/2007/ops"

	// EntityDoc and LemmaDoc are the hrefs of the generated footnote
	// documents, fixed by the packaging naming contract.
	EntityDoc = "x_ray.xhtml"
	LemmaDoc  = "word_wise.xhtml"
)

// wordWiseStyle raises line height so inline ruby glosses do not collide
// with the line above.
const wordWiseStyle = "<style>body {line-height: 2.5;} ruby {text-decoration:overline;} ruby a {text-decoration:none;}</style>"

// Splicer rewrites part buffers. All lookups are read-only, so one Splicer
// may serve concurrent part rewrites.
type Splicer struct {
	// Unit declares how span offsets count positions in part buffers.
	Unit model.OffsetUnit
	// Lang selects the inline-gloss length tolerance.
	Lang string
	// LemmaID resolves a lemma key to its footnote identifier.
	LemmaID func(lemma string) (int, bool)
	// Gloss resolves a lemma to its dictionary data; a miss is not an
	// error and produces a plain reference anchor.
	Gloss func(lemma string) (*model.Gloss, bool)

	log *slog.Logger
}

// NewSplicer creates a splicer for one annotation run.
func NewSplicer(unit model.OffsetUnit, lang string, lemmaID func(string) (int, bool), gloss func(string) (*model.Gloss, bool), logger *slog.Logger) *Splicer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Splicer{
		Unit:    unit,
		Lang:    lang,
		LemmaID: lemmaID,
		Gloss:   gloss,
		log:     logger,
	}
}

// SortSpans orders spans ascending by start offset. Needed only when entity
// and lemma spans were collected separately for the same part; spans from a
// single source are already in scan order.
func SortSpans(spans []model.Occurrence) {
	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].Start < spans[j].Start
	})
}

// Splice rewrites one part buffer. Suppressed entity spans are skipped
// without advancing the cursor, so their original text survives untouched.
// A span outside the buffer or overlapping its predecessor is a data error
// and fails the whole part; partial output is never returned.
func (s *Splicer) Splice(partName string, buffer string, spans []model.Occurrence, suppressed model.SuppressionSet) (string, error) {
	var runes []rune
	length := len(buffer)
	if s.Unit == model.OffsetRunes {
		runes = []rune(buffer)
		length = len(runes)
	}

	var out strings.Builder
	out.Grow(len(buffer) + len(spans)*64)

	cursor := 0
	for _, span := range spans {
		if span.Ref.Kind == model.RefEntity && suppressed.Contains(span.Ref.EntityID) {
			continue
		}

		end := span.Start + s.Unit.Len(span.Display)
		if span.End != nil {
			end = *span.End
		}

		if span.Start < cursor {
			return "", helper.NewError(fmt.Sprintf("splice %v", partName),
				fmt.Errorf("span [%d,%d) overlaps previous span ending at %d", span.Start, end, cursor))
		}
		if end > length || span.Start > end {
			return "", helper.NewError(fmt.Sprintf("splice %v", partName),
				fmt.Errorf("span [%d,%d) outside buffer of %d %v", span.Start, end, length, s.Unit))
		}

		if runes != nil {
			out.WriteString(string(runes[cursor:span.Start]))
		} else {
			out.WriteString(buffer[cursor:span.Start])
		}
		out.WriteString(s.markup(span))
		cursor = end
	}

	if runes != nil {
		out.WriteString(string(runes[cursor:]))
	} else {
		out.WriteString(buffer[cursor:])
	}
	return out.String(), nil
}

// markup generates the inline wrapper for one span.
func (s *Splicer) markup(span model.Occurrence) string {
	if span.Ref.Kind == model.RefEntity {
		return fmt.Sprintf(`<a epub:type="noteref" href="%v#%v">%v</a>`, EntityDoc, span.Ref.EntityID, span.Display)
	}
	return s.wordWiseTag(span.Ref.Lemma, span.Display)
}

// wordWiseTag builds the Word Wise wrapper for one lemma occurrence: a ruby
// annotation carrying the short gloss when it fits inline, otherwise a
// plain reference anchor with the full gloss deferred to the footnote.
func (s *Splicer) wordWiseTag(lemma string, origin string) string {
	id, ok := s.LemmaID(lemma)
	if !ok {
		// Unregistered lemma occurrence, leave the text as it was.
		return origin
	}

	anchor := fmt.Sprintf(`<a epub:type="noteref" href="%v#%v">%v</a>`, LemmaDoc, id, origin)

	gloss, ok := s.Gloss(lemma)
	if !ok || gloss == nil || gloss.Short == "" {
		return anchor
	}
	if !GlossFitsInline(lemma, gloss.Short, s.Lang) {
		return anchor
	}
	// rp markers keep the gloss readable in parentheses on renderers
	// without ruby support.
	return fmt.Sprintf("<ruby>%v<rp>(</rp><rt>%v</rt><rp>)</rp></ruby>", anchor, gloss.Short)
}

// InjectNamespace adds the EPUB ops namespace declaration to the root
// element when the document does not declare it yet. noteref anchors are
// invalid without it.
func InjectNamespace(doc string) string {
	if strings.Contains(doc, OpsNamespace) {
		return doc
	}
	return strings.Replace(doc,
		fmt.Sprintf(`xmlns="%v"`, XHTMLNamespace),
		fmt.Sprintf(`xmlns="%v" xmlns:epub="%v"`, XHTMLNamespace, OpsNamespace),
		1)
}

// InjectStyle adds the Word Wise style block before the closing head
// element, once. Only needed for parts carrying lemma annotations.
func InjectStyle(doc string) string {
	if strings.Contains(doc, wordWiseStyle) {
		return doc
	}
	return strings.Replace(doc, "</head>", wordWiseStyle+"</head>", 1)
}
