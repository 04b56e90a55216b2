package pipeline

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// nerLabels are the recognizer labels accepted as annotatable entities,
// covering the label schemes of the supported models.
var nerLabels = map[string]bool{
	"EVENT": true, "FAC": true, "GPE": true, "LANGUAGE": true, "LAW": true,
	"LOC": true, "NORP": true, "ORG": true, "PERSON": true, "PRODUCT": true,
	"WORK_OF_ART": true, "MISC": true, "PER": true, "FACILITY": true,
	"ORGANIZATION": true, "NAT_REL_POL": true,
	"geogName": true, "orgName": true, "persName": true, "placeName": true,
}

// personLabels are the recognizer labels marking person-like entities.
var personLabels = map[string]bool{
	"PERSON": true, "PER": true, "persName": true,
}

var (
	leadingNonWord  = regexp.MustCompile(`^[^\p{L}\p{N}]+`)
	trailingNonWord = regexp.MustCompile(`[^\p{L}\p{N}]+$`)
	chapterHeading  = regexp.MustCompile(`(?i)^c?hapter`)
	possessive      = regexp.MustCompile(`(?:'s|’s)$`)
	leadingArticle  = regexp.MustCompile(`(?i)^(?:the |an |a )`)
	onlyNonLetters  = regexp.MustCompile(`^[^\p{L}]+$`)
)

// NormalizeEntity cleans a raw recognizer span: surrounding punctuation is
// stripped, and for English the possessive suffix and leading articles are
// dropped and chapter headings rejected. It returns the cleaned surface
// string, the byte offset of the cleaned string within the raw span, and
// whether the span survives at all (too-short and letterless spans are
// rejected).
func NormalizeEntity(raw string, lang string) (string, int, bool) {
	text := leadingNonWord.ReplaceAllString(raw, "")
	text = trailingNonWord.ReplaceAllString(text, "")

	if lang == "en" {
		if chapterHeading.MatchString(text) {
			return "", 0, false
		}
		text = possessive.ReplaceAllString(text, "")
		text = leadingArticle.ReplaceAllString(text, "")
	}

	lenLimit := 3
	if lang != "en" {
		lenLimit = 2
	}
	if utf8.RuneCountInString(text) < lenLimit || onlyNonLetters.MatchString(text) {
		return "", 0, false
	}

	offset := strings.Index(raw, text)
	if offset < 0 {
		// Article stripping is case-insensitive, so the cleaned string may
		// not literally occur in the raw span. Fall back to the raw span.
		return raw, 0, true
	}
	return text, offset, true
}

// SentenceAround returns the sentence containing byte position pos,
// bounded by sentence-final punctuation (ASCII or fullwidth CJK). Used as
// the fallback footnote quote for an entity's first mention.
func SentenceAround(text string, pos int) string {
	if pos < 0 || pos > len(text) {
		return strings.TrimSpace(text)
	}
	start := 0
	for i := pos; i > 0; {
		r, size := utf8.DecodeLastRuneInString(text[:i])
		if isSentenceEnd(r) {
			start = i
			break
		}
		i -= size
	}
	end := len(text)
	for i := pos; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		if isSentenceEnd(r) {
			end = i
			break
		}
	}
	return strings.TrimSpace(text[start:end])
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}
