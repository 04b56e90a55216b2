package epub

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	bodyBlock = regexp.MustCompile(`(?s)<body.{3,}?</body>`)
	textRun   = regexp.MustCompile(`>[^<]{2,}<`)
)

// Fragment is one annotatable text run of a spine document: the raw
// characters between a closing and an opening angle bracket inside <body>.
// Text is the entity-unescaped form handed to recognizers; runeMap maps each
// rune of Text back to its rune offset within Raw, so recognizer offsets can
// be converted to document offsets even when "&amp;" collapsed to "&".
type Fragment struct {
	// Text is the unescaped run, newlines folded to spaces.
	Text string
	// Raw is the run exactly as it appears in the document.
	Raw string
	// Start is the rune offset of Raw within the document.
	Start int

	runeMap []int
}

// Fragments scans a spine document and returns its text runs in document
// order. Offsets are rune offsets within the full document.
func Fragments(doc string) []Fragment {
	var fragments []Fragment
	conv := newRuneOffsetConverter(doc)

	for _, body := range bodyBlock.FindAllStringIndex(doc, -1) {
		block := doc[body[0]:body[1]]
		for _, run := range textRun.FindAllStringIndex(block, -1) {
			// Trim the enclosing angle brackets from the match.
			rawStart := body[0] + run[0] + 1
			rawEnd := body[0] + run[1] - 1
			raw := doc[rawStart:rawEnd]
			if strings.TrimSpace(raw) == "" {
				continue
			}

			text, runeMap := UnescapeWithMap(strings.ReplaceAll(raw, "\n", " "))
			fragments = append(fragments, Fragment{
				Text:    text,
				Raw:     raw,
				Start:   conv.runeOffset(rawStart),
				runeMap: runeMap,
			})
		}
	}
	return fragments
}

// MapOffset converts a rune index within Text to a rune offset within the
// document.
func (f Fragment) MapOffset(textRuneIndex int) int {
	if textRuneIndex < 0 {
		return f.Start
	}
	if textRuneIndex >= len(f.runeMap) {
		return f.Start + utf8.RuneCountInString(f.Raw)
	}
	return f.Start + f.runeMap[textRuneIndex]
}

// RawRange converts a half-open rune range within Text to a half-open rune
// range within the document. Every rune of an unescaped entity maps to the
// entity's start, so a range ending inside an entity covers the whole
// entity.
func (f Fragment) RawRange(textStart int, textEnd int) (int, int) {
	return f.MapOffset(textStart), f.MapOffset(textEnd)
}

// RawSlice returns the raw document characters covering a rune range of
// Text, preserving any character references the range touches.
func (f Fragment) RawSlice(textStart int, textEnd int) string {
	start, end := f.RawRange(textStart, textEnd)
	runes := []rune(f.Raw)
	return string(runes[start-f.Start : end-f.Start])
}

// UnescapeWithMap unescapes XML/HTML character references in raw and returns
// the unescaped text together with a per-rune map from text rune index to
// the rune offset of the originating character within raw. All runes
// produced by one reference map to the reference's first rune.
func UnescapeWithMap(raw string) (string, []int) {
	if !strings.ContainsRune(raw, '&') {
		runeMap := make([]int, 0, len(raw))
		for i := range utf8.RuneCountInString(raw) {
			runeMap = append(runeMap, i)
		}
		return raw, runeMap
	}

	var text strings.Builder
	var runeMap []int
	runes := []rune(raw)

	for i := 0; i < len(runes); {
		if runes[i] == '&' {
			if length, unescaped, ok := referenceAt(runes[i:]); ok {
				for _, r := range unescaped {
					text.WriteRune(r)
					runeMap = append(runeMap, i)
				}
				i += length
				continue
			}
		}
		text.WriteRune(runes[i])
		runeMap = append(runeMap, i)
		i++
	}
	return text.String(), runeMap
}

// referenceAt reports whether runes start with a character reference, and if
// so its rune length and unescaped value. References longer than 32 runes
// are treated as literal text.
func referenceAt(runes []rune) (int, string, bool) {
	limit := min(len(runes), 32)
	for i := 1; i < limit; i++ {
		if runes[i] == ';' {
			candidate := string(runes[:i+1])
			unescaped := html.UnescapeString(candidate)
			if unescaped != candidate {
				return i + 1, unescaped, true
			}
			return 0, "", false
		}
		if runes[i] == '&' {
			return 0, "", false
		}
	}
	return 0, "", false
}

// runeOffsetConverter converts increasing byte offsets within a string to
// rune offsets in a single pass.
type runeOffsetConverter struct {
	s       string
	byteOff int
	runeOff int
}

func newRuneOffsetConverter(s string) *runeOffsetConverter {
	return &runeOffsetConverter{s: s}
}

func (c *runeOffsetConverter) runeOffset(byteOffset int) int {
	if byteOffset < c.byteOff {
		c.byteOff = 0
		c.runeOff = 0
	}
	c.runeOff += utf8.RuneCountInString(c.s[c.byteOff:byteOffset])
	c.byteOff = byteOffset
	return c.runeOff
}
