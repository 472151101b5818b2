package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
)

// openTestDB opens a fresh database file under t.TempDir().
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(context.Background(), DefaultOptions(path))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// verifyPragma checks that a pragma is set to the expected value.
func verifyPragma(db *sqlx.DB, name, expected string) error {
	var value string
	if err := db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

// testTable is a hand-written Table for exercising the initializer without
// an entity mapping.
type testTable struct {
	name string
	ddl  string
}

func (t testTable) Table() string          { return t.name }
func (t testTable) CreateTableSQL() string { return t.ddl }

func notesTable() testTable {
	return testTable{
		name: "notes",
		ddl:  `CREATE TABLE IF NOT EXISTS "notes" ("id" TEXT PRIMARY KEY NOT NULL, "body" TEXT NOT NULL)`,
	}
}
