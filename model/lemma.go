package model

// LemmaRecord maps a lemma string to its stable footnote identifier.
// Unlike entities, lemmas are exact-keyed and not frequency-weighted.
type LemmaRecord struct {
	ID    int    `json:"id"`
	Lemma string `json:"lemma"`
}

// Gloss holds the dictionary data for one lemma.
type Gloss struct {
	Short   string `json:"short"`
	Full    string `json:"full"`
	Example string `json:"example,omitempty"`
}
