// Package entity describes how a Go struct maps onto a table in the
// embedded store.
//
// A Mapping is registered explicitly per entity type. Columns come from the
// struct's `db` tags (the same tags sqlx uses to scan rows), the table name
// defaults to the snake_cased type name, and the key column defaults to "id".
//
//	type Item struct {
//		ID   string `db:"id"`
//		Name string `db:"name"`
//	}
//
//	var itemMapping = entity.MustMapping[Item]()
//	itemMapping.Table()          // "item"
//	itemMapping.CreateTableSQL() // CREATE TABLE IF NOT EXISTS "item" (...)
//
// # Column Types
//
//   - string             TEXT
//   - bool, ints, uints  INTEGER
//   - float32, float64   REAL
//   - []byte             BLOB
//   - time.Time          DATETIME
//
// Pointer fields map to the same affinity without NOT NULL. The key column
// must be a non-pointer string and becomes the PRIMARY KEY.
package entity
