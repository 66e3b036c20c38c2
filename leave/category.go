package leave

import "strings"

// =============================================================================
// LEAVE CATEGORY - Closed enumeration
// =============================================================================

// Category identifies one of the fixed leave categories. The set is
// closed: a name outside the enumeration is a reportable error
// (UnknownCategoryError), never a silent no-op.
type Category string

const (
	CategoryAnnual    Category = "annualLeave"
	CategorySick      Category = "sickLeave"
	CategoryPersonal  Category = "personalLeave"
	CategoryStudy     Category = "studyLeave"
	CategoryMaternity Category = "maternityLeave"
	CategoryPaternity Category = "paternityLeave"
)

// Categories returns all categories in display order.
func Categories() []Category {
	return []Category{
		CategoryAnnual,
		CategorySick,
		CategoryPersonal,
		CategoryStudy,
		CategoryMaternity,
		CategoryPaternity,
	}
}

var categoryLabels = map[Category]string{
	CategoryAnnual:    "Annual Leave",
	CategorySick:      "Sick Leave",
	CategoryPersonal:  "Personal Leave",
	CategoryStudy:     "Study Leave",
	CategoryMaternity: "Maternity Leave",
	CategoryPaternity: "Paternity Leave",
}

// Label returns the human-readable name, e.g. "Annual Leave".
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// IsValid reports whether c is one of the fixed categories.
func (c Category) IsValid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// categoryLookup maps normalized names to categories. Both the ledger key
// ("annualLeave") and the display name ("Annual Leave") resolve, in any
// case, with or without the "Leave" suffix.
var categoryLookup = buildCategoryLookup()

func buildCategoryLookup() map[string]Category {
	lookup := make(map[string]Category)
	for c, label := range categoryLabels {
		lookup[normalizeCategoryName(string(c))] = c
		lookup[normalizeCategoryName(label)] = c
		lookup[normalizeCategoryName(strings.TrimSuffix(normalizeCategoryName(label), "leave"))] = c
	}
	return lookup
}

func normalizeCategoryName(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}

// ParseCategory resolves a category name case-insensitively against the
// fixed enumeration. Returns UnknownCategoryError for anything else.
func ParseCategory(name string) (Category, error) {
	if c, ok := categoryLookup[normalizeCategoryName(name)]; ok {
		return c, nil
	}
	return "", &UnknownCategoryError{Name: name}
}
