// Package resolve implements the streaming entity and lemma tables built
// during the single forward scan of a document: fuzzy clustering of named-
// entity mentions into canonical records and exact-keyed lemma registration.
package resolve

import (
	"log/slog"

	"github.com/siherrmann/annotator/model"
)

// ResolverFunctions defines the interface for entity resolution operations.
type ResolverFunctions interface {
	Resolve(surface string, label string, sentence string, isPerson bool) int
	Record(id int) *model.EntityRecord
	Records() []*model.EntityRecord
	Prune(minCount int, hasCachedDescription func(name string) bool) model.SuppressionSet
}

// Resolver clusters entity mentions into canonical records as the document
// is scanned left to right. There is exactly one writer by construction;
// once the scan is finished the table is read-only.
type Resolver struct {
	// records is indexed by entity ID; ids are assigned in first-occurrence
	// order and never reused, even when a surface string is merged away.
	records []*model.EntityRecord
	byName  map[string]*model.EntityRecord
	// names keeps canonical names in a stable order so fuzzy tie-breaking
	// is deterministic (first encountered wins).
	names []string

	custom    map[string]model.CustomEntity
	threshold float64
	policy    FullNamePolicy
	log       *slog.Logger
}

// DefaultFuzzThreshold is the merge threshold used when a caller passes a
// zero or negative one, matching model.DefaultAnnotateConfig.
const DefaultFuzzThreshold = 90

// NewResolver creates a resolver. Pinned custom entities bypass fuzzy
// matching so a caller-supplied name always gets its own record. A nil
// policy falls back to DefaultFullNamePolicy; a threshold <= 0 (e.g. from a
// zero-value config) falls back to DefaultFuzzThreshold, since a zero
// threshold would merge every mention into the earliest record.
func NewResolver(threshold float64, custom map[string]model.CustomEntity, policy FullNamePolicy, logger *slog.Logger) *Resolver {
	if policy == nil {
		policy = DefaultFullNamePolicy()
	}
	if threshold <= 0 {
		threshold = DefaultFuzzThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		byName:    map[string]*model.EntityRecord{},
		custom:    custom,
		threshold: threshold,
		policy:    policy,
		log:       logger,
	}
}

// Resolve merges one mention into the table and returns its entity ID.
// Lookup order: exact canonical name, fuzzy token-set match at or above the
// threshold (skipped for pinned names), then a fresh record. A fuzzy match
// may promote the new surface string to canonical name when the policy
// judges it a fuller form; the record keeps its ID, count and quote.
func (r *Resolver) Resolve(surface string, label string, sentence string, isPerson bool) int {
	// Some NER models emit language-specific person labels (persName, PER).
	// Normalizing here keeps the promotion policy and the footnote person
	// filter working on one label.
	if isPerson && !model.PersonLabels[label] {
		label = "PERSON"
	}

	if record, ok := r.byName[surface]; ok {
		record.Count++
		return record.ID
	}

	if _, pinned := r.custom[surface]; !pinned {
		if record, matchedName, score, ok := r.bestMatch(surface); ok {
			record.Count++
			if r.policy.IsFullName(matchedName, record.Label, surface, label) {
				r.rename(matchedName, surface, record)
				r.log.Debug("Promoted canonical name",
					slog.String("from", matchedName),
					slog.String("to", surface),
					slog.Int("entity_id", record.ID))
			}
			r.log.Debug("Merged mention",
				slog.String("surface", surface),
				slog.Int("entity_id", record.ID),
				slog.Float64("score", score))
			return record.ID
		}
	}

	record := &model.EntityRecord{
		ID:    len(r.records),
		Name:  surface,
		Label: label,
		Quote: sentence,
		Count: 1,
	}
	r.records = append(r.records, record)
	r.byName[surface] = record
	r.names = append(r.names, surface)
	return record.ID
}

// bestMatch scans canonical names in stable order and returns the first
// name reaching the highest score at or above the threshold.
func (r *Resolver) bestMatch(surface string) (*model.EntityRecord, string, float64, bool) {
	var (
		bestName  string
		bestScore float64
		found     bool
	)
	for _, name := range r.names {
		score := TokenSetRatio(surface, name)
		if score >= r.threshold && score > bestScore {
			bestName = name
			bestScore = score
			found = true
		}
	}
	if !found {
		return nil, "", 0, false
	}
	return r.byName[bestName], bestName, bestScore, true
}

// rename replaces the canonical name key in place, keeping both the record
// identity and the table iteration order intact.
func (r *Resolver) rename(oldName, newName string, record *model.EntityRecord) {
	delete(r.byName, oldName)
	r.byName[newName] = record
	record.Name = newName
	for i, name := range r.names {
		if name == oldName {
			r.names[i] = newName
			break
		}
	}
}

// Record returns the record for an entity ID, or nil for unknown ids.
func (r *Resolver) Record(id int) *model.EntityRecord {
	if id < 0 || id >= len(r.records) {
		return nil
	}
	return r.records[id]
}

// Records returns all records in first-occurrence order, including records
// that were later suppressed by pruning.
func (r *Resolver) Records() []*model.EntityRecord {
	return r.records
}

// Len returns the number of canonical records.
func (r *Resolver) Len() int {
	return len(r.records)
}

// Prune computes the suppression set: every record mentioned fewer than
// minCount times is suppressed unless its name is pinned or
// hasCachedDescription reports an external summary for it (evidence of
// significance regardless of in-book frequency). Records are kept in the
// table so footnote numbering stays stable. minCount <= 1 disables pruning.
func (r *Resolver) Prune(minCount int, hasCachedDescription func(name string) bool) model.SuppressionSet {
	suppressed := model.SuppressionSet{}
	if minCount <= 1 {
		return suppressed
	}
	for _, record := range r.records {
		if record.Count >= minCount {
			continue
		}
		if _, pinned := r.custom[record.Name]; pinned {
			continue
		}
		if hasCachedDescription != nil && hasCachedDescription(record.Name) {
			continue
		}
		suppressed.Add(record.ID)
	}
	if len(suppressed) > 0 {
		r.log.Info("Pruned low-mention entities",
			slog.Int("suppressed", len(suppressed)),
			slog.Int("min_count", minCount))
	}
	return suppressed
}
