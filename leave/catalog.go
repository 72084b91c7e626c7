/*
catalog.go - The closed set of recognized leave categories

PURPOSE:
  A deployment configures its leave categories once, at construction time.
  After that the set is closed: every category reaching the engine is
  validated against it, and nothing is ever inferred from input.

SELECTOR:
  Balance queries take a Selector instead of a raw "string or list" value.
  The external intent's leave_type field (which can be "all", a single
  category, or a list) is resolved into a Selector exactly once at the
  boundary, so query logic never re-branches on input shape.

SEE ALSO:
  - intent.go: Resolves the wire-level leave_type into a Selector
  - engine.go: Validates categories against the catalog
*/
package leave

// Category is one recognized kind of leave.
type Category string

// Default categories, matching the shipped employee data.
const (
	CategorySick      Category = "Sick Leave"
	CategoryAnnual    Category = "Annual Leave"
	CategoryMaternity Category = "Maternity Leave"
	CategoryPaternity Category = "Paternity Leave"
)

// =============================================================================
// CATALOG - Closed category set
// =============================================================================

// Catalog is the closed, ordered set of leave categories for a deployment.
// Immutable once constructed.
type Catalog struct {
	categories []Category
	index      map[Category]bool
}

// NewCatalog builds a catalog from the given categories, preserving order
// and dropping duplicates.
func NewCatalog(categories ...Category) *Catalog {
	c := &Catalog{index: make(map[Category]bool, len(categories))}
	for _, cat := range categories {
		if c.index[cat] {
			continue
		}
		c.index[cat] = true
		c.categories = append(c.categories, cat)
	}
	return c
}

// DefaultCatalog returns the standard four-category catalog.
func DefaultCatalog() *Catalog {
	return NewCatalog(CategorySick, CategoryAnnual, CategoryMaternity, CategoryPaternity)
}

// Contains reports whether the category is part of the closed set.
func (c *Catalog) Contains(cat Category) bool { return c.index[cat] }

// Categories returns the categories in configuration order.
// The returned slice is a copy.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// Validate returns an UnknownCategoryError if the category is not in the
// catalog.
func (c *Catalog) Validate(cat Category) error {
	if !c.Contains(cat) {
		return &UnknownCategoryError{Category: cat, Available: c.Categories()}
	}
	return nil
}

// =============================================================================
// SELECTOR - Which balances a query asks for
// =============================================================================

type SelectorKind int

const (
	SelectAll SelectorKind = iota
	SelectSingle
	SelectMany
)

// Selector identifies which categories a balance query covers.
type Selector struct {
	Kind       SelectorKind
	Categories []Category // SelectSingle: one entry; SelectMany: several
}

// SelectAllCategories selects every catalog category.
func SelectAllCategories() Selector { return Selector{Kind: SelectAll} }

// SelectCategory selects a single category.
func SelectCategory(cat Category) Selector {
	return Selector{Kind: SelectSingle, Categories: []Category{cat}}
}

// SelectCategories selects a set of categories.
func SelectCategories(cats ...Category) Selector {
	return Selector{Kind: SelectMany, Categories: cats}
}

// Resolve expands the selector against a catalog, validating every named
// category. SelectAll expands to the full catalog in configuration order.
func (s Selector) Resolve(catalog *Catalog) ([]Category, error) {
	if s.Kind == SelectAll {
		return catalog.Categories(), nil
	}
	for _, cat := range s.Categories {
		if err := catalog.Validate(cat); err != nil {
			return nil, err
		}
	}
	return s.Categories, nil
}
