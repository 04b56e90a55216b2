package database

import (
	"io"
	"log/slog"
	"testing"

	"github.com/siherrmann/annotator/helper"
	"github.com/stretchr/testify/require"
)

// newTestDatabase opens an in-memory cache for one test.
func newTestDatabase(t *testing.T) *helper.Database {
	t.Helper()
	helper.SetTestDatabaseConfigEnvs(t)

	config, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := helper.NewDatabase("annotator_test", config, logger)
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })
	return db
}
