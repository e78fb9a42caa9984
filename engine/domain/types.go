// Package domain defines core domain types, constants, and validation for the
// Muse engine pipeline. It acts as the validation gate at pipeline entry points.
package domain

import "strings"

// Query represents a user project-idea prompt.
type Query struct {
	Prompt string `json:"prompt"`
}

// Category classifies a catalog project.
type Category string

const (
	CategorySoftware Category = "Software"
	CategoryHardware Category = "Hardware"
)

// KnownCategories is the set of recognised categories. The catalog may carry
// other values; they are tolerated everywhere and only matter to the intent
// filter, which never selects them.
var KnownCategories = map[Category]bool{
	CategorySoftware: true,
	CategoryHardware: true,
}

// EqualCategory reports whether an item's category string matches cat,
// ignoring case.
func EqualCategory(itemCategory string, cat Category) bool {
	return strings.EqualFold(itemCategory, string(cat))
}
