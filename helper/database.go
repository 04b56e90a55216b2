package helper

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"testing"

	_ "modernc.org/sqlite"
)

// DatabaseConfiguration holds the location of the cache database. The caches
// are per-book SQLite files (":memory:" is accepted for tests).
type DatabaseConfiguration struct {
	Path string
}

// NewDatabaseConfiguration creates a configuration from the environment.
// ANNOTATOR_CACHE_PATH names the SQLite file; call godotenv.Load first if
// the value lives in a .env file.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	path := os.Getenv("ANNOTATOR_CACHE_PATH")
	if path == "" {
		return nil, fmt.Errorf("ANNOTATOR_CACHE_PATH is not set")
	}
	return &DatabaseConfiguration{Path: path}, nil
}

// Database wraps the SQLite connection shared by the cache handlers.
type Database struct {
	Name     string
	Path     string
	Instance *sql.DB
	Logger   *slog.Logger
}

// NewDatabase opens (or creates) the SQLite database at the configured path.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) (*Database, error) {
	if config == nil || config.Path == "" {
		return nil, NewError("database configuration validation", fmt.Errorf("database path is empty"))
	}

	instance, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, NewError("open database", err)
	}

	// modernc.org/sqlite connections do not tolerate concurrent writers.
	instance.SetMaxOpenConns(1)

	if err := instance.Ping(); err != nil {
		return nil, NewError("ping database", err)
	}

	logger.Info("Opened cache database", slog.String("name", name), slog.String("path", config.Path))

	return &Database{
		Name:     name,
		Path:     config.Path,
		Instance: instance,
		Logger:   logger,
	}, nil
}

// Close closes the underlying connection.
func (d *Database) Close() error {
	if d.Instance != nil {
		return d.Instance.Close()
	}
	return nil
}

// SetTestDatabaseConfigEnvs points the cache at an in-memory database for
// the duration of a test.
func SetTestDatabaseConfigEnvs(t *testing.T) {
	t.Setenv("ANNOTATOR_CACHE_PATH", ":memory:")
}
