package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmoiron/sqlx"
)

// Table is the schema metadata the initializer needs for one entity type.
// entity.Mapping satisfies it.
type Table interface {
	Table() string
	// CreateTableSQL must be create-if-absent.
	CreateTableSQL() string
}

// Initializer creates entity tables once per process.
//
// Each table name has its own gate. The first caller for a table checks
// sqlite_master and creates the table if it is missing; concurrent callers
// for the same table wait for it and then return without touching the
// database. A failed attempt leaves the gate open, so the error reaches the
// caller that triggered it and the next caller tries again.
type Initializer struct {
	db *sqlx.DB

	mu    sync.Mutex
	gates map[string]*gate
}

type gate struct {
	mu   sync.Mutex
	done bool
}

// NewInitializer creates an initializer over the shared handle.
func NewInitializer(db *sqlx.DB) *Initializer {
	return &Initializer{
		db:    db,
		gates: make(map[string]*gate),
	}
}

func (in *Initializer) gate(table string) *gate {
	in.mu.Lock()
	defer in.mu.Unlock()

	g, ok := in.gates[table]
	if !ok {
		g = &gate{}
		in.gates[table] = g
	}
	return g
}

// Ensure makes sure t's table exists.
func (in *Initializer) Ensure(ctx context.Context, t Table) error {
	g := in.gate(t.Table())
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.done {
		return nil
	}

	mapped, err := in.Mapped(ctx, t.Table())
	if err != nil {
		return fmt.Errorf("ensure schema %s: %w", t.Table(), err)
	}
	if !mapped {
		if _, err := in.db.ExecContext(ctx, t.CreateTableSQL()); err != nil {
			return fmt.Errorf("ensure schema %s: create table: %w", t.Table(), err)
		}
		slog.Debug("table created", "table", t.Table())
	}

	g.done = true
	return nil
}

// Initialized reports whether Ensure has completed for table in this process.
func (in *Initializer) Initialized(table string) bool {
	g := in.gate(table)
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.done
}

// Mapped reports whether a table with the given name exists in the database.
func (in *Initializer) Mapped(ctx context.Context, table string) (bool, error) {
	var name string
	err := in.db.GetContext(ctx, &name,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup table %s: %w", table, err)
	}
	return true, nil
}
