package entity

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/jmoiron/sqlx/reflectx"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrInvalidMapping is returned when a type cannot be mapped onto a table.
var ErrInvalidMapping = errors.New("invalid entity mapping")

// DefaultKey is the key column used when no WithKey option is given.
const DefaultKey = "id"

// identPattern restricts table and column names so they can be quoted into
// statements without escaping.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// tagMapper mirrors the mapper sqlx installs on every DB handle, so column
// names derived here are the names sqlx scans into.
var tagMapper = reflectx.NewMapperFunc("db", strings.ToLower)

var timeType = reflect.TypeOf(time.Time{})

// Column describes one mapped struct field.
type Column struct {
	Name     string // column name from the db tag
	Type     string // SQLite type affinity
	Key      bool
	Nullable bool
}

// Mapping is the table metadata for entity type T.
//
// A Mapping is immutable after construction and safe for concurrent use.
type Mapping[T any] struct {
	typeName string
	table    string
	key      string
	columns  []Column
	keyIndex []int
}

type options struct {
	table string
	key   string
}

// Option customises NewMapping.
type Option func(*options)

// WithTable overrides the table name derived from the type name.
func WithTable(name string) Option {
	return func(o *options) { o.table = name }
}

// WithKey sets the key column. Defaults to DefaultKey.
func WithKey(column string) Option {
	return func(o *options) { o.key = column }
}

// NewMapping builds the table mapping for T, which must be a struct type.
func NewMapping[T any](opts ...Option) (*Mapping[T], error) {
	o := options{key: DefaultKey}
	for _, opt := range opts {
		opt(&o)
	}

	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrInvalidMapping, t)
	}

	table := o.table
	if table == "" {
		table = TableName(t.Name())
	}
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("%w: table name %q", ErrInvalidMapping, table)
	}

	m := &Mapping[T]{
		typeName: t.Name(),
		table:    table,
		key:      o.key,
	}

	sm := tagMapper.TypeMap(t)
	if err := m.collect(sm.Tree); err != nil {
		return nil, err
	}
	if len(m.columns) == 0 {
		return nil, fmt.Errorf("%w: %s has no mapped fields", ErrInvalidMapping, t)
	}
	if m.keyIndex == nil {
		return nil, fmt.Errorf("%w: %s has no %q column", ErrInvalidMapping, t, o.key)
	}

	return m, nil
}

// MustMapping is NewMapping for package-level registration. It panics on error.
func MustMapping[T any](opts ...Option) *Mapping[T] {
	m, err := NewMapping[T](opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// collect walks the sqlx field tree depth-first in declaration order,
// flattening untagged embedded structs the same way sqlx does.
func (m *Mapping[T]) collect(node *reflectx.FieldInfo) error {
	for _, fi := range node.Children {
		if fi == nil {
			continue
		}
		ft := fi.Field.Type
		if fi.Embedded {
			if ft.Kind() != reflect.Struct || ft == timeType || fi.Field.Tag.Get("db") != "" {
				return fmt.Errorf("%w: embedded field %s must be an untagged struct", ErrInvalidMapping, fi.Field.Name)
			}
			if err := m.collect(fi); err != nil {
				return err
			}
			continue
		}

		if !identPattern.MatchString(fi.Name) {
			return fmt.Errorf("%w: column name %q", ErrInvalidMapping, fi.Name)
		}
		for _, c := range m.columns {
			if c.Name == fi.Name {
				return fmt.Errorf("%w: duplicate column %q", ErrInvalidMapping, fi.Name)
			}
		}

		nullable := false
		if ft.Kind() == reflect.Pointer {
			nullable = true
			ft = ft.Elem()
		}
		affinity, ok := affinityOf(ft)
		if !ok {
			return fmt.Errorf("%w: field %s has unsupported type %s", ErrInvalidMapping, fi.Field.Name, fi.Field.Type)
		}
		if affinity == "BLOB" {
			// nil slices are stored as NULL
			nullable = true
		}

		col := Column{
			Name:     fi.Name,
			Type:     affinity,
			Nullable: nullable,
		}
		if fi.Name == m.key {
			if nullable || ft.Kind() != reflect.String {
				return fmt.Errorf("%w: key %q must be a string field", ErrInvalidMapping, fi.Name)
			}
			col.Key = true
			m.keyIndex = fi.Index
		}
		m.columns = append(m.columns, col)
	}
	return nil
}

func affinityOf(t reflect.Type) (string, bool) {
	if t == timeType {
		return "DATETIME", true
	}
	switch t.Kind() {
	case reflect.String:
		return "TEXT", true
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "INTEGER", true
	case reflect.Float32, reflect.Float64:
		return "REAL", true
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return "BLOB", true
		}
	}
	return "", false
}

// TableName converts a Go type name into a snake_case table name:
// "ItemModel" becomes "item_model", "HTTPRoute" becomes "http_route".
func TableName(typeName string) string {
	runes := []rune(typeName)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (unicode.IsUpper(runes[i-1]) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(r)
	}
	return cases.Lower(language.Und).String(b.String())
}

// TypeName returns the Go type name the mapping was built from.
func (m *Mapping[T]) TypeName() string { return m.typeName }

// Table returns the table name.
func (m *Mapping[T]) Table() string { return m.table }

// Key returns the key column name.
func (m *Mapping[T]) Key() string { return m.key }

// Columns returns a copy of the mapped columns in declaration order.
func (m *Mapping[T]) Columns() []Column {
	out := make([]Column, len(m.columns))
	copy(out, m.columns)
	return out
}

// ColumnNames returns the mapped column names in declaration order.
func (m *Mapping[T]) ColumnNames() []string {
	names := make([]string, len(m.columns))
	for i, c := range m.columns {
		names[i] = c.Name
	}
	return names
}

// ID reads the key field from v.
func (m *Mapping[T]) ID(v *T) string {
	return reflect.ValueOf(v).Elem().FieldByIndex(m.keyIndex).String()
}

// CreateTableSQL returns a create-if-absent statement for the table, so
// running it against an existing table is a no-op.
func (m *Mapping[T]) CreateTableSQL() string {
	defs := make([]string, len(m.columns))
	for i, c := range m.columns {
		def := Quote(c.Name) + " " + c.Type
		switch {
		case c.Key:
			def += " PRIMARY KEY NOT NULL"
		case !c.Nullable:
			def += " NOT NULL"
		}
		defs[i] = def
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", Quote(m.table), strings.Join(defs, ",\n\t"))
}

// Quote quotes an identifier for use in a statement.
func Quote(ident string) string {
	return `"` + ident + `"`
}
