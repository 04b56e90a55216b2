package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/siherrmann/annotator/helper"
	"github.com/siherrmann/annotator/model"
	annotatorSql "github.com/siherrmann/annotator/sql"
)

// DescriptionsDBHandlerFunctions defines the interface for the description
// cache database operations.
type DescriptionsDBHandlerFunctions interface {
	InsertDescription(description *model.Description) error
	GetDescription(name string) (*model.Description, error)
	InsertWikidata(facts *model.WikidataFacts) error
	GetWikidata(itemID string) (*model.WikidataFacts, error)
	HasDescription(name string) bool
}

// DescriptionsDBHandler handles the per-book knowledge-base cache: entity
// summaries and auxiliary facts, written by whoever fills the cache and read
// during footnote generation. A lookup miss is (nil, nil), never an error.
type DescriptionsDBHandler struct {
	db *helper.Database
}

// NewDescriptionsDBHandler creates a new descriptions cache handler.
// It initializes the database connection and creates the cache tables.
// If force is true, it will reload the schema even if the tables exist.
func NewDescriptionsDBHandler(db *helper.Database, force bool) (*DescriptionsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	descriptionsDbHandler := &DescriptionsDBHandler{
		db: db,
	}

	err := annotatorSql.LoadDescriptionsSql(descriptionsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load descriptions sql", err)
	}

	db.Logger.Info("Initialized DescriptionsDBHandler")

	return descriptionsDbHandler, nil
}

// InsertDescription inserts a description (or updates if exists)
func (h *DescriptionsDBHandler) InsertDescription(description *model.Description) error {
	_, err := h.db.Instance.Exec(
		`INSERT INTO descriptions (name, summary, item_id, source_name, source_link)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			summary = excluded.summary,
			item_id = excluded.item_id,
			source_name = excluded.source_name,
			source_link = excluded.source_link`,
		description.Name,
		description.Summary,
		description.ItemID,
		description.SourceName,
		description.SourceLink,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// GetDescription retrieves a description by canonical entity name.
// A cache miss returns (nil, nil).
func (h *DescriptionsDBHandler) GetDescription(name string) (*model.Description, error) {
	description := &model.Description{}
	row := h.db.Instance.QueryRow(
		`SELECT name, summary, item_id, source_name, source_link FROM descriptions WHERE name = ?`,
		name,
	)

	err := row.Scan(
		&description.Name,
		&description.Summary,
		&description.ItemID,
		&description.SourceName,
		&description.SourceLink,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return description, nil
}

// HasDescription reports whether a description is cached for the name.
// Used by the pruning pass to exempt described entities.
func (h *DescriptionsDBHandler) HasDescription(name string) bool {
	description, err := h.GetDescription(name)
	return err == nil && description != nil
}

// InsertWikidata inserts auxiliary facts (or updates if exists)
func (h *DescriptionsDBHandler) InsertWikidata(facts *model.WikidataFacts) error {
	var inception *string
	if facts.Inception != nil {
		formatted := facts.Inception.Format(time.RFC3339)
		inception = &formatted
	}

	_, err := h.db.Instance.Exec(
		`INSERT INTO wikidata (item_id, democracy_index, inception, map_filename)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			democracy_index = excluded.democracy_index,
			inception = excluded.inception,
			map_filename = excluded.map_filename`,
		facts.ItemID,
		facts.DemocracyIndex,
		inception,
		facts.MapFilename,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// GetWikidata retrieves auxiliary facts by knowledge-base item ID.
// A cache miss returns (nil, nil).
func (h *DescriptionsDBHandler) GetWikidata(itemID string) (*model.WikidataFacts, error) {
	facts := &model.WikidataFacts{}
	var democracyIndex sql.NullFloat64
	var inception sql.NullString

	row := h.db.Instance.QueryRow(
		`SELECT item_id, democracy_index, inception, map_filename FROM wikidata WHERE item_id = ?`,
		itemID,
	)

	err := row.Scan(
		&facts.ItemID,
		&democracyIndex,
		&inception,
		&facts.MapFilename,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, helper.NewError("scan", err)
	}

	if democracyIndex.Valid {
		facts.DemocracyIndex = &democracyIndex.Float64
	}
	if inception.Valid && inception.String != "" {
		parsed, err := time.Parse(time.RFC3339, inception.String)
		if err != nil {
			return nil, helper.NewError("parse inception", err)
		}
		facts.Inception = &parsed
	}

	return facts, nil
}
