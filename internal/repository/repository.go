package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/roach88/mine/internal/entity"
	"github.com/roach88/mine/internal/store"
)

// Store implements create/read/update/delete/index for entity type T.
//
// Business outcomes are booleans (or a nil entity): nil input, an unknown
// id and a duplicate id all come back as false without an error. Any error
// returned is an infrastructure failure from the database.
//
// Thread-safety: a Store holds no mutable state and is safe for concurrent
// use. Concurrent calls are serialised only by the shared connection.
type Store[T any] struct {
	db      *sqlx.DB
	mapping *entity.Mapping[T]

	insertSQL string
	updateSQL string
	deleteSQL string
	readSQL   string
	indexSQL  string
}

// New returns a store for m once its table exists. Schema setup runs
// through in, which is shared by every store on the same handle; a failure
// is returned and no store is built.
func New[T any](ctx context.Context, db *sqlx.DB, in *store.Initializer, m *entity.Mapping[T]) (*Store[T], error) {
	if err := in.Ensure(ctx, m); err != nil {
		return nil, fmt.Errorf("new %s store: %w", m.TypeName(), err)
	}

	s := &Store[T]{db: db, mapping: m}
	s.buildStatements()
	return s, nil
}

func (s *Store[T]) buildStatements() {
	table := entity.Quote(s.mapping.Table())
	key := entity.Quote(s.mapping.Key())
	names := s.mapping.ColumnNames()

	cols := make([]string, len(names))
	params := make([]string, len(names))
	var sets []string
	for i, name := range names {
		cols[i] = entity.Quote(name)
		params[i] = ":" + name
		if name != s.mapping.Key() {
			sets = append(sets, fmt.Sprintf("%s = :%s", entity.Quote(name), name))
		}
	}
	if len(sets) == 0 {
		// Key-only entity: the update still has to match a row to report it.
		sets = []string{fmt.Sprintf("%s = :%s", key, s.mapping.Key())}
	}
	colList := strings.Join(cols, ", ")

	s.insertSQL = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(%s) DO NOTHING",
		table, colList, strings.Join(params, ", "), key)
	s.updateSQL = fmt.Sprintf("UPDATE %s SET %s WHERE %s = :%s",
		table, strings.Join(sets, ", "), key, s.mapping.Key())
	s.deleteSQL = fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, key)
	s.readSQL = fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? LIMIT 1", colList, table, key)
	s.indexSQL = fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid ASC", colList, table)
}

// Mapping returns the table mapping the store was built with.
func (s *Store[T]) Mapping() *entity.Mapping[T] {
	return s.mapping
}

// Create inserts item. It returns false without touching the database for
// a nil item or an empty id, and false when the insert affects no rows,
// which happens when the id is already taken. The existing row is left
// unchanged.
func (s *Store[T]) Create(ctx context.Context, item *T) (bool, error) {
	if item == nil || s.mapping.ID(item) == "" {
		return false, nil
	}

	result, err := s.db.NamedExecContext(ctx, s.insertSQL, item)
	if err != nil {
		return false, fmt.Errorf("create %s: %w", s.mapping.Table(), err)
	}
	return affected(result, "create", s.mapping.Table())
}

// Read returns the entity with the given id, or nil if there is none.
// An empty id is treated as absent and returns nil without a query.
func (s *Store[T]) Read(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return nil, nil
	}

	var item T
	err := s.db.GetContext(ctx, &item, s.readSQL, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s %q: %w", s.mapping.Table(), id, err)
	}
	return &item, nil
}

// Update replaces every column of the row whose id matches item's id.
// It returns false for a nil item or an empty id (without a query) and
// when no row has that id.
func (s *Store[T]) Update(ctx context.Context, item *T) (bool, error) {
	if item == nil || s.mapping.ID(item) == "" {
		return false, nil
	}

	result, err := s.db.NamedExecContext(ctx, s.updateSQL, item)
	if err != nil {
		return false, fmt.Errorf("update %s: %w", s.mapping.Table(), err)
	}
	return affected(result, "update", s.mapping.Table())
}

// Delete resolves id with Read and deletes that record. It returns false
// when the id is absent, and also when the row disappeared between the read
// and the delete; the two steps are not atomic.
func (s *Store[T]) Delete(ctx context.Context, id string) (bool, error) {
	item, err := s.Read(ctx, id)
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, nil
	}

	result, err := s.db.ExecContext(ctx, s.deleteSQL, s.mapping.ID(item))
	if err != nil {
		return false, fmt.Errorf("delete %s %q: %w", s.mapping.Table(), id, err)
	}
	return affected(result, "delete", s.mapping.Table())
}

// Index returns every row in the table, in insertion order.
//
// forceRefresh is accepted for callers written against a caching store and
// has no effect: every call reads the table.
//
// Returns an empty slice (not nil) when the table is empty.
func (s *Store[T]) Index(ctx context.Context, forceRefresh bool) ([]T, error) {
	items := []T{}
	if err := s.db.SelectContext(ctx, &items, s.indexSQL); err != nil {
		return nil, fmt.Errorf("index %s: %w", s.mapping.Table(), err)
	}
	return items, nil
}

func affected(result sql.Result, op, table string) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s %s: rows affected: %w", op, table, err)
	}
	return n > 0, nil
}
