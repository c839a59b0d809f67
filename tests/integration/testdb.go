// Package integration exercises the full stack against a real database:
// repositories, transaction scopes and application services together,
// with no mocks between the workflow and the rows it writes.
package integration

import (
	"path/filepath"
	"testing"

	"github.com/stockledger/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
)

// newTestDB opens a file-backed SQLite database in a per-test temp
// directory and applies the full schema. The file is removed with the
// temp dir when the test finishes.
func newTestDB(t *testing.T) *persistence.Database {
	t.Helper()

	db, err := persistence.NewSQLiteDatabase(filepath.Join(t.TempDir(), "stockledger_test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate())

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}
