package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID     string  `db:"id"`
	Label  string  `db:"label"`
	Count  int     `db:"count"`
	Weight float64 `db:"weight"`
	Note   *string `db:"note"`
	hidden string
	Skip   string `db:"-"`
}

type Audited struct {
	CreatedAt time.Time `db:"created_at"`
}

type ledgerEntry struct {
	Audited
	Code   string `db:"code"`
	Amount int64  `db:"amount"`
	Raw    []byte `db:"raw"`
}

type ItemModel struct {
	ID   string `db:"id"`
	Text string `db:"text"`
}

func TestNewMapping_DerivesColumnsFromTags(t *testing.T) {
	m, err := NewMapping[widget](WithTable("widgets"))
	require.NoError(t, err)

	assert.Equal(t, "widgets", m.Table())
	assert.Equal(t, "id", m.Key())
	assert.Equal(t, []string{"id", "label", "count", "weight", "note"}, m.ColumnNames())

	cols := m.Columns()
	require.Len(t, cols, 5)
	assert.True(t, cols[0].Key)
	assert.Equal(t, "TEXT", cols[0].Type)
	assert.Equal(t, "INTEGER", cols[2].Type)
	assert.Equal(t, "REAL", cols[3].Type)
	assert.True(t, cols[4].Nullable)
	assert.False(t, cols[1].Nullable)
}

func TestNewMapping_DefaultTableFromTypeName(t *testing.T) {
	m, err := NewMapping[ItemModel]()
	require.NoError(t, err)
	assert.Equal(t, "item_model", m.Table())
	assert.Equal(t, "ItemModel", m.TypeName())
}

func TestNewMapping_FlattensEmbeddedStructs(t *testing.T) {
	m, err := NewMapping[ledgerEntry](WithTable("ledger"), WithKey("code"))
	require.NoError(t, err)

	assert.Equal(t, []string{"created_at", "code", "amount", "raw"}, m.ColumnNames())
	cols := m.Columns()
	assert.Equal(t, "DATETIME", cols[0].Type)
	assert.Equal(t, "BLOB", cols[3].Type)
	assert.True(t, cols[3].Nullable)
	assert.Equal(t, "X-1", m.ID(&ledgerEntry{Code: "X-1"}))
}

func TestNewMapping_Errors(t *testing.T) {
	type noKey struct {
		Name string `db:"name"`
	}
	type intKey struct {
		ID int `db:"id"`
	}
	type unsupported struct {
		ID   string         `db:"id"`
		Tags map[string]int `db:"tags"`
	}
	type dup struct {
		ID string `db:"id"`
		A  string `db:"name"`
		B  string `db:"name"`
	}

	tests := []struct {
		name string
		fn   func() error
	}{
		{"missing key", func() error { _, err := NewMapping[noKey](); return err }},
		{"non-string key", func() error { _, err := NewMapping[intKey](); return err }},
		{"unsupported field", func() error { _, err := NewMapping[unsupported](); return err }},
		{"duplicate column", func() error { _, err := NewMapping[dup](); return err }},
		{"bad table name", func() error { _, err := NewMapping[widget](WithTable("drop table;")); return err }},
		{"not a struct", func() error { _, err := NewMapping[string](); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidMapping)
		})
	}
}

func TestMustMapping_Panics(t *testing.T) {
	assert.Panics(t, func() { MustMapping[string]() })
}

func TestMapping_ID(t *testing.T) {
	m := MustMapping[widget]()
	assert.Equal(t, "w-1", m.ID(&widget{ID: "w-1", Label: "x"}))
}

func TestMapping_CreateTableSQL(t *testing.T) {
	m := MustMapping[widget](WithTable("widgets"))

	want := "CREATE TABLE IF NOT EXISTS \"widgets\" (\n" +
		"\t\"id\" TEXT PRIMARY KEY NOT NULL,\n" +
		"\t\"label\" TEXT NOT NULL,\n" +
		"\t\"count\" INTEGER NOT NULL,\n" +
		"\t\"weight\" REAL NOT NULL,\n" +
		"\t\"note\" TEXT\n" +
		")"
	assert.Equal(t, want, m.CreateTableSQL())
}

func TestTableName(t *testing.T) {
	tests := map[string]string{
		"Item":      "item",
		"ItemModel": "item_model",
		"HTTPRoute": "http_route",
		"V2Record":  "v2_record",
		"user":      "user",
	}
	for in, want := range tests {
		assert.Equal(t, want, TableName(in), in)
	}
}
