// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/roach88/mine/internal/store"
)

// OpenDB opens a fresh database file under t.TempDir() with the default
// engine flags. The handle is closed when the test ends.
func OpenDB(t testing.TB) *sqlx.DB {
	t.Helper()
	return OpenPath(t, filepath.Join(t.TempDir(), "test.db"))
}

// OpenPath opens the database at path, creating it if needed. The handle
// is closed when the test ends.
func OpenPath(t testing.TB, path string) *sqlx.DB {
	t.Helper()
	db, err := store.Open(context.Background(), store.DefaultOptions(path))
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// DBPath returns a database path under t.TempDir() without opening it.
func DBPath(t testing.TB) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

// TableExists reports whether table exists in db.
func TableExists(t testing.TB, db *sqlx.DB, table string) bool {
	t.Helper()
	var n int
	err := db.Get(&n, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table)
	if err != nil {
		t.Fatalf("lookup table %s: %v", table, err)
	}
	return n > 0
}
