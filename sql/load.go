package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed descriptions.sql
var descriptionsSQL string

//go:embed glosses.sql
var glossesSQL string

// Table lists for verification
var DescriptionsTables = []string{
	"descriptions",
	"wikidata",
}

var GlossesTables = []string{
	"glosses",
}

// LoadDescriptionsSql creates the description cache tables
func LoadDescriptionsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkTables(db, DescriptionsTables)
		if err != nil {
			return fmt.Errorf("error checking existing descriptions tables: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(descriptionsSQL)
	if err != nil {
		return fmt.Errorf("error executing descriptions SQL: %w", err)
	}

	exist, err := checkTables(db, DescriptionsTables)
	if err != nil {
		return fmt.Errorf("error checking existing tables: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required tables were created")
	}

	log.Println("SQL descriptions tables loaded successfully")
	return nil
}

// LoadGlossesSql creates the gloss cache table
func LoadGlossesSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkTables(db, GlossesTables)
		if err != nil {
			return fmt.Errorf("error checking existing glosses tables: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(glossesSQL)
	if err != nil {
		return fmt.Errorf("error executing glosses SQL: %w", err)
	}

	exist, err := checkTables(db, GlossesTables)
	if err != nil {
		return fmt.Errorf("error checking existing tables: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required tables were created")
	}

	log.Println("SQL glosses tables loaded successfully")
	return nil
}

// LoadAllSql creates all cache tables
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadDescriptionsSql(db, force); err != nil {
		return err
	}

	if err := LoadGlossesSql(db, force); err != nil {
		return err
	}

	return nil
}

// checkTables verifies that all required tables exist in the database
func checkTables(db *sql.DB, tables []string) (bool, error) {
	var allExist bool
	for _, t := range tables {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?);`,
			t,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of table %s: %w", t, err)
		}
		if !allExist {
			log.Printf("Table %s does not exist", t)
			break
		}
	}
	return allExist, nil
}
