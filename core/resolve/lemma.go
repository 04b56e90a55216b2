package resolve

import "github.com/siherrmann/annotator/model"

// LemmaTable maps lemma strings to stable footnote identifiers. Lemma
// footnotes are not frequency-weighted, so registration is idempotent and
// tracks no counter.
type LemmaTable struct {
	ids   map[string]int
	order []string
}

// NewLemmaTable creates an empty lemma table.
func NewLemmaTable() *LemmaTable {
	return &LemmaTable{ids: map[string]int{}}
}

// Register returns the stable ID for a lemma, assigning the next unused ID
// on first registration.
func (t *LemmaTable) Register(lemma string) int {
	if id, ok := t.ids[lemma]; ok {
		return id
	}
	id := len(t.order)
	t.ids[lemma] = id
	t.order = append(t.order, lemma)
	return id
}

// ID looks up a lemma without registering it.
func (t *LemmaTable) ID(lemma string) (int, bool) {
	id, ok := t.ids[lemma]
	return id, ok
}

// Records returns all lemmas in insertion order.
func (t *LemmaTable) Records() []model.LemmaRecord {
	records := make([]model.LemmaRecord, len(t.order))
	for i, lemma := range t.order {
		records[i] = model.LemmaRecord{ID: i, Lemma: lemma}
	}
	return records
}

// Len returns the number of registered lemmas.
func (t *LemmaTable) Len() int {
	return len(t.order)
}
