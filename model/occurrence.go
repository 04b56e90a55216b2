package model

import "unicode/utf8"

// RefKind discriminates the annotation reference union.
type RefKind int

const (
	// RefEntity references an EntityRecord by integer ID.
	RefEntity RefKind = iota
	// RefLemma references a LemmaRecord by its lemma key.
	RefLemma
)

// Ref is a tagged union: an occurrence points either at an entity record
// (by ID) or at a lemma record (by key), never both.
type Ref struct {
	Kind     RefKind `json:"kind"`
	EntityID int     `json:"entity_id,omitempty"`
	Lemma    string  `json:"lemma,omitempty"`
}

// EntityRef creates a reference to an entity record.
func EntityRef(id int) Ref {
	return Ref{Kind: RefEntity, EntityID: id}
}

// LemmaRef creates a reference to a lemma record.
func LemmaRef(lemma string) Ref {
	return Ref{Kind: RefLemma, Lemma: lemma}
}

// Occurrence is a half-open span in the original, pre-annotation text buffer
// of one document part, slated for markup replacement. Offsets use the unit
// declared for the part (runes or UTF-8 bytes) and must never be recomputed
// against a partially rewritten buffer.
type Occurrence struct {
	Start int `json:"start"`
	// End is optional for single-token entity spans: the markup then wraps
	// exactly Display and the cursor advances by its length. Multi-token
	// lemma spans must carry an explicit End.
	End *int `json:"end,omitempty"`
	// Display is the original substring being wrapped.
	Display string `json:"display"`
	Ref     Ref    `json:"ref"`
}

// OffsetUnit declares how span offsets count positions in a part's buffer.
// EPUB and KFX-style sources count characters, MOBI-style sources count
// UTF-8 bytes. All arithmetic for one part must use one unit.
type OffsetUnit int

const (
	OffsetRunes OffsetUnit = iota
	OffsetBytes
)

// Len returns the length of s in this unit.
func (u OffsetUnit) Len(s string) int {
	if u == OffsetRunes {
		return utf8.RuneCountInString(s)
	}
	return len(s)
}

func (u OffsetUnit) String() string {
	if u == OffsetRunes {
		return "runes"
	}
	return "bytes"
}
