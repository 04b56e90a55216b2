package model

// EntityRecord is the canonical, deduplicated representation of all mentions
// judged to refer to the same real-world entity. The record is owned by the
// resolver; occurrence spans reference it by ID only.
type EntityRecord struct {
	// ID is assigned monotonically in first-occurrence order and is stable
	// once assigned, even if the surface string is later merged away.
	ID int `json:"id"`
	// Name is the canonical surface name. It is mutable: a fuller form of a
	// person's name may replace it while the record identity is kept.
	Name string `json:"name"`
	// Label is the NER category tag (e.g. PERSON, GPE, ORG).
	Label string `json:"label"`
	// Quote is the first-seen sentence, used as fallback footnote text.
	Quote string `json:"quote"`
	// Count is the number of mentions merged into this record.
	Count int `json:"count"`
}

// CustomEntity is a caller-pinned override for a surface name. Pinned names
// bypass fuzzy matching and are exempt from pruning.
type CustomEntity struct {
	Description string `json:"description"`
	// Source keys into the caller's citation source table; empty means the
	// description is emitted without a citation.
	Source string `json:"source,omitempty"`
}

// CitationSource names an external source and its lookup URL prefix.
type CitationSource struct {
	Name string `json:"name"`
	// Link is a URL prefix the entity name is appended to; empty means the
	// source is cited by name only.
	Link string `json:"link,omitempty"`
}

// SuppressionSet holds the entity IDs removed by the pruning pass. The
// records themselves stay in the table so IDs are never reassigned.
type SuppressionSet map[int]struct{}

// Add marks an entity ID as suppressed.
func (s SuppressionSet) Add(id int) {
	s[id] = struct{}{}
}

// Contains reports whether an entity ID is suppressed.
func (s SuppressionSet) Contains(id int) bool {
	_, ok := s[id]
	return ok
}
