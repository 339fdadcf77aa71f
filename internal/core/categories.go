package core

var defaultCategories = []string{
	"Food & Dining",
	"Transportation",
	"Shopping",
	"Entertainment",
	"Bills & Utilities",
	"Healthcare",
	"Travel",
	"Education",
	"Business",
	"Personal Care",
	"Groceries",
	"Housing",
	"Insurance",
	"Gifts & Donations",
	"Other",
}

// Categories returns a copy of the fixed category list.
func Categories() []string {
	return append([]string(nil), defaultCategories...)
}
