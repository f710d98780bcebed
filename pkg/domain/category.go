package domain

// Category is a row of the categories lookup table.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Categories is the fixed set of category names offered by the add form, in display order.
var Categories = []string{
	"Food",
	"Transportation",
	"Shopping",
	"Entertainment",
	"Bills",
	"Healthcare",
	"Education",
	"Other",
}

var categorySet = func() map[string]bool {
	m := make(map[string]bool, len(Categories))
	for _, c := range Categories {
		m[c] = true
	}
	return m
}()

// ValidCategory returns true if name is one of the fixed category names.
func ValidCategory(name string) bool {
	return categorySet[name]
}
