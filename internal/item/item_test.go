package item

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapping(t *testing.T) {
	assert.Equal(t, "item", Mapping.Table())
	assert.Equal(t, "id", Mapping.Key())
	assert.Equal(t, []string{"id", "name", "description", "value"}, Mapping.ColumnNames())
	assert.Equal(t, "a1", Mapping.ID(&Item{ID: "a1"}))
}

func TestNormalize(t *testing.T) {
	// "e" followed by a combining acute accent (NFD) becomes a single rune.
	it := Item{
		ID:          "  a1 ",
		Name:        " Cafe\u0301 Sword ",
		Description: "\tsharp\n",
		Value:       3,
	}
	Normalize(&it)

	assert.Equal(t, "a1", it.ID)
	assert.Equal(t, "Caf\u00e9 Sword", it.Name)
	assert.Equal(t, "sharp", it.Description)
	assert.Equal(t, 3, it.Value)
}

func TestUUIDv7Generator(t *testing.T) {
	id := UUIDv7Generator{}.NewID()

	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.NotEqual(t, id, UUIDv7Generator{}.NewID())
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("a1", "a2")
	assert.Equal(t, "a1", gen.NewID())
	assert.Equal(t, "a2", gen.NewID())
	assert.Panics(t, func() { gen.NewID() })
}
