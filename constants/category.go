package constants

import (
	"strings"

	"golang.org/x/text/cases"
)

// DefaultCategory is the bucket for line items whose label is missing or unresolved.
const DefaultCategory = "Other"

// NormalizeCategoryName returns the comparison key for a category label.
// Every lookup and insert of a category goes through this function.
// A Caser holds state, so one is built per call.
func NormalizeCategoryName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// DisplayCategoryName trims a label for storage, falling back to DefaultCategory when blank.
func DisplayCategoryName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultCategory
	}
	return name
}
