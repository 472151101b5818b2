package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// DriverName is the database/sql driver registered by go-sqlite3.
const DriverName = "sqlite3"

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// ErrClosed is returned by Provider.DB after Close.
var ErrClosed = errors.New("store: provider closed")

// Options are the fixed engine flags a connection is opened with.
type Options struct {
	Path        string
	JournalMode string        // "WAL", "DELETE", ...; ignored for read-only and in-memory databases
	Synchronous string        // "NORMAL", "FULL", ...
	BusyTimeout time.Duration // how long a statement waits on a locked database
	ForeignKeys bool
	ReadOnly    bool
}

// DefaultOptions returns the flags used unless configuration says otherwise:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func DefaultOptions(path string) Options {
	return Options{
		Path:        path,
		JournalMode: "WAL",
		Synchronous: "NORMAL",
		BusyTimeout: 5 * time.Second,
		ForeignKeys: true,
	}
}

// Open opens the database at opts.Path and applies the engine flags.
//
// The returned handle is limited to a single physical connection: SQLite
// allows one writer at a time and every store in the process shares it.
// The caller owns the handle and closes it on shutdown.
func Open(ctx context.Context, opts Options) (*sqlx.DB, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("open database: empty path")
	}

	db, err := sqlx.ConnectContext(ctx, DriverName, dsn(opts))
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", opts.Path, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	// An in-memory database lives only as long as its connection.
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := applyPragmas(ctx, db, opts); err != nil {
		db.Close()
		return nil, fmt.Errorf("open database %s: %w", opts.Path, err)
	}

	slog.Debug("database opened", "path", opts.Path, "read_only", opts.ReadOnly)
	return db, nil
}

// uriPathEscaper escapes the characters that end or alter the path part of
// a SQLite file: URI. SQLite decodes %HH before opening the file.
var uriPathEscaper = strings.NewReplacer("%", "%25", "?", "%3F", "#", "%23")

// dsn builds the go-sqlite3 data source name. Read-only databases need the
// file: URI form for mode=ro to take effect. go-sqlite3 cuts a plain path
// at '?', so such paths also use the URI form.
func dsn(opts Options) string {
	if opts.Path == MemoryPath {
		return opts.Path
	}
	if !opts.ReadOnly && !strings.Contains(opts.Path, "?") {
		return opts.Path
	}

	uri := "file:" + uriPathEscaper.Replace(opts.Path)
	if opts.ReadOnly {
		uri += "?mode=ro"
	}
	return uri
}

// applyPragmas sets the configured SQLite flags on the single connection.
func applyPragmas(ctx context.Context, db *sqlx.DB, opts Options) error {
	var pragmas []string
	if opts.JournalMode != "" && !opts.ReadOnly && opts.Path != MemoryPath {
		pragmas = append(pragmas, "PRAGMA journal_mode = "+strings.ToUpper(opts.JournalMode))
	}
	if opts.Synchronous != "" {
		pragmas = append(pragmas, "PRAGMA synchronous = "+strings.ToUpper(opts.Synchronous))
	}
	if opts.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA busy_timeout = %d", opts.BusyTimeout.Milliseconds()))
	}
	if opts.ForeignKeys {
		pragmas = append(pragmas, "PRAGMA foreign_keys = ON")
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Provider hands out one shared handle, opened on the first call to DB.
//
// Thread-safety: concurrent first callers block until the single open
// attempt finishes. An open failure is kept and returned to every caller;
// it is not retried.
type Provider struct {
	opts Options

	once sync.Once
	db   *sqlx.DB
	err  error
}

// NewProvider creates a provider. Nothing is opened until DB is called.
func NewProvider(opts Options) *Provider {
	return &Provider{opts: opts}
}

// DB returns the shared handle, opening it on first use.
func (p *Provider) DB(ctx context.Context) (*sqlx.DB, error) {
	p.once.Do(func() {
		p.db, p.err = Open(ctx, p.opts)
	})
	return p.db, p.err
}

// Options returns the flags the provider opens with.
func (p *Provider) Options() Options {
	return p.opts
}

// Close closes the handle if it was opened. It waits for an open already
// in progress; after Close, DB returns ErrClosed if it had never opened.
func (p *Provider) Close() error {
	p.once.Do(func() {
		p.err = ErrClosed
	})
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}
