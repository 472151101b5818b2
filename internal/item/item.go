// Package item defines the Item entity stored by mine.
package item

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/mine/internal/entity"
)

// Item is one thing a player owns.
type Item struct {
	ID          string `db:"id" json:"id" yaml:"id"`
	Name        string `db:"name" json:"name" yaml:"name"`
	Description string `db:"description" json:"description" yaml:"description"`
	Value       int    `db:"value" json:"value" yaml:"value"`
}

// Mapping stores items in the "item" table keyed by id.
var Mapping = entity.MustMapping[Item]()

// Normalize trims surrounding whitespace and converts text fields to NFC,
// so visually identical names compare equal once stored.
func Normalize(it *Item) {
	it.ID = strings.TrimSpace(it.ID)
	it.Name = norm.NFC.String(strings.TrimSpace(it.Name))
	it.Description = norm.NFC.String(strings.TrimSpace(it.Description))
}
