// Package testutil opens throwaway databases for tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"rimloc/internal/adapters/db/sqlite"
	"rimloc/internal/domain"
)

// NewTestDB creates a migrated SQLite database in a temp dir, closed on cleanup.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.Init(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// SeedEntries stores entries for mod and returns them as read back, in id order.
func SeedEntries(t *testing.T, db *sql.DB, mod string, entries ...*domain.Entry) []*domain.Entry {
	t.Helper()
	repo := sqlite.NewEntryRepo(db)
	for _, e := range entries {
		e.ModName = mod
		if e.FilePath == "" {
			e.FilePath = "Languages/English/Keyed/Misc.xml"
		}
	}
	ctx := context.Background()
	if _, err := repo.SaveBatch(ctx, entries); err != nil {
		t.Fatalf("seed entries: %v", err)
	}
	out, err := repo.List(ctx, domain.EntryFilter{ModName: mod})
	if err != nil {
		t.Fatalf("list seeded entries: %v", err)
	}
	return out
}
