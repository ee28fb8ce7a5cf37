package testutil

import (
	"testing"

	"wombatdb/internal/database"
)

// NewTestStore creates a new in-memory SQLite store with the schema migrated.
// The store is automatically closed when the test completes.
func NewTestStore(t *testing.T) *database.SQLiteStore {
	t.Helper()

	store, err := database.NewSQLiteStore(":memory:", nil)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	if err := store.CreateSchema(); err != nil {
		store.Close()
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}
