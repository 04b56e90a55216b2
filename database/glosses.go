package database

import (
	"database/sql"
	"fmt"

	"github.com/siherrmann/annotator/helper"
	"github.com/siherrmann/annotator/model"
	annotatorSql "github.com/siherrmann/annotator/sql"
)

// GlossesDBHandlerFunctions defines the interface for the gloss cache
// database operations.
type GlossesDBHandlerFunctions interface {
	InsertGloss(lemma string, gloss *model.Gloss) error
	GetGloss(lemma string) (*model.Gloss, error)
	SelectAllLemmas() ([]string, error)
}

// GlossesDBHandler handles the Word Wise gloss cache: one row per lemma,
// read both to build the match dictionary and during splicing and footnote
// generation. A lookup miss is (nil, nil), never an error.
type GlossesDBHandler struct {
	db *helper.Database
}

// NewGlossesDBHandler creates a new gloss cache handler.
// It initializes the database connection and creates the cache table.
// If force is true, it will reload the schema even if the table exists.
func NewGlossesDBHandler(db *helper.Database, force bool) (*GlossesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	glossesDbHandler := &GlossesDBHandler{
		db: db,
	}

	err := annotatorSql.LoadGlossesSql(glossesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load glosses sql", err)
	}

	db.Logger.Info("Initialized GlossesDBHandler")

	return glossesDbHandler, nil
}

// InsertGloss inserts a gloss for a lemma (or updates if exists)
func (h *GlossesDBHandler) InsertGloss(lemma string, gloss *model.Gloss) error {
	_, err := h.db.Instance.Exec(
		`INSERT INTO glosses (lemma, short_gloss, full_gloss, example)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(lemma) DO UPDATE SET
			short_gloss = excluded.short_gloss,
			full_gloss = excluded.full_gloss,
			example = excluded.example`,
		lemma,
		gloss.Short,
		gloss.Full,
		gloss.Example,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// GetGloss retrieves the gloss for a lemma.
// A cache miss returns (nil, nil).
func (h *GlossesDBHandler) GetGloss(lemma string) (*model.Gloss, error) {
	gloss := &model.Gloss{}
	row := h.db.Instance.QueryRow(
		`SELECT short_gloss, full_gloss, example FROM glosses WHERE lemma = ?`,
		lemma,
	)

	err := row.Scan(
		&gloss.Short,
		&gloss.Full,
		&gloss.Example,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return gloss, nil
}

// SelectAllLemmas returns every cached lemma in insertion order. The result
// is the match dictionary handed to the lemma matcher.
func (h *GlossesDBHandler) SelectAllLemmas() ([]string, error) {
	rows, err := h.db.Instance.Query(
		`SELECT lemma FROM glosses ORDER BY rowid`,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var lemmas []string
	for rows.Next() {
		var lemma string
		err := rows.Scan(&lemma)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		lemmas = append(lemmas, lemma)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return lemmas, nil
}
