package model

import "time"

// Description is a cached knowledge-base summary for a canonical entity name.
// A nil Description from a lookup is a cache miss, not an error; the footnote
// builder then falls back to the first-seen quote.
type Description struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
	// ItemID is the knowledge-base item identifier (e.g. a Wikidata Q-id)
	// used to look up auxiliary facts.
	ItemID     string `json:"item_id,omitempty"`
	SourceName string `json:"source_name"`
	SourceLink string `json:"source_link,omitempty"`
}

// WikidataFacts holds auxiliary facts cached per knowledge-base item.
type WikidataFacts struct {
	ItemID string `json:"item_id"`
	// DemocracyIndex is a numeric index translated into a regime
	// classification label in the footnote.
	DemocracyIndex *float64   `json:"democracy_index,omitempty"`
	Inception      *time.Time `json:"inception,omitempty"`
	// MapFilename names an illustrative image to copy into the package's
	// image store.
	MapFilename string `json:"map_filename,omitempty"`
}
