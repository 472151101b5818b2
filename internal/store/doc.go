// Package store owns the connection to the embedded SQLite database and the
// one-time creation of entity tables.
//
// # Connection
//
// Open returns a *sqlx.DB limited to one physical connection. Every entity
// store in the process shares that handle; SQLite serialises access to it.
// Provider wraps Open for callers that want the handle built on first use:
// it opens exactly once and returns the same handle (or the same open
// failure) to every caller.
//
//	p := store.NewProvider(store.DefaultOptions("mine.db"))
//	db, err := p.DB(ctx)
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// # Schema
//
// Initializer.Ensure creates a table if sqlite_master has no table by that
// name. The statement it runs is CREATE TABLE IF NOT EXISTS, so a second
// process racing on the same file cannot fail with "table already exists".
// Within a process a per-table gate makes concurrent callers wait for the
// first one. There are no migrations: a table either exists or it does not.
package store
