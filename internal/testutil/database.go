package testutil

import (
	"testing"

	"si-go/internal/database"
)

// NewTestSQLiteStore creates a cache store on a migrated in-memory SQLite
// database. The database is closed when the test completes.
func NewTestSQLiteStore(t *testing.T, profile string) *database.SQLiteStore {
	t.Helper()

	store, err := database.NewSQLiteStore(":memory:", profile)
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}
