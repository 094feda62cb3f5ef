package core

import "strings"

// OtherCategory is used when a custom category is left blank.
const OtherCategory = "Other"

// DefaultCategories is the suggested category list offered to users.
var DefaultCategories = []string{
	"Food",
	"Travel",
	"Shopping",
	"Bills",
	"Entertainment",
	"Health",
	"Groceries",
	"Education",
	"Rent",
	"Utilities",
	OtherCategory,
}

// NormalizeCategory trims c and falls back to OtherCategory when blank.
func NormalizeCategory(c string) string {
	c = strings.TrimSpace(c)
	if c == "" {
		return OtherCategory
	}
	return c
}

// Categories returns a copy of DefaultCategories.
func Categories() []string {
	out := make([]string, len(DefaultCategories))
	copy(out, DefaultCategories)
	return out
}
