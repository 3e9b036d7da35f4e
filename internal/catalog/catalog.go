// Package catalog turns loosely-structured price-list CSV exports into a
// normalized, grouped product catalog.
//
// The package is pure: no I/O, no shared state between calls, and a
// deterministic result for a given input. Malformed rows, unparsable numeric
// cells, and duplicate SKUs degrade silently rather than failing the parse;
// the Stats returned alongside the catalog count what was dropped or
// defaulted so callers can surface data quality without losing the result.
package catalog

// Variant is one SKU's pricing row: a single purchasable unit/size/packaging
// of a product with its four price tiers.
//
// All numeric fields are non-negative. A blank or unparsable source cell
// becomes 0, never an error and never a negative value.
type Variant struct {
	ProductLine   string  `json:"productLine"`
	Family        string  `json:"family"`
	SKU           string  `json:"sku"`
	Description   string  `json:"description"`
	Unit          string  `json:"unit"`
	StandardPrice float64 `json:"standardPrice"`
	FloorPrice    float64 `json:"floorPrice"`
	GivePrice     float64 `json:"givePrice"`
	GSAPrice      float64 `json:"gsaPrice"`
	Weight        float64 `json:"weight"`
}

// Group aggregates the variants sharing a parent product name.
//
// Family is taken from the first row that created the group; later rows with
// a different family for the same parent do not overwrite it. Variants keep
// their first-seen source order and are unique by SKU within the group.
type Group struct {
	ParentName string    `json:"parentName"`
	Family     string    `json:"family"`
	Variants   []Variant `json:"variants"`
}

// Catalog is the parse result: groups sorted by parent name, one group per
// distinct parent. It owns all of its data and holds no references back into
// the source text.
type Catalog []Group

// Stats counts the silent-degradation events of a single parse. The counts
// are diagnostic only; they never change the catalog contents.
type Stats struct {
	Lines          int  `json:"lines"`          // data lines examined (header excluded)
	Variants       int  `json:"variants"`       // variant rows accepted
	ShortRows      int  `json:"shortRows"`      // rows dropped for too few fields
	DuplicateSKUs  int  `json:"duplicateSkus"`  // rows dropped as repeat SKUs
	DefaultedCells int  `json:"defaultedCells"` // numeric cells that fell back to 0
	SkippedLines   int  `json:"skippedLines"`   // blank lines and repeated header rows
	Truncated      bool `json:"truncated"`      // a section sentinel cut the document short
}

// Find returns the group with the given parent name, or false if the catalog
// has no such group.
func (c Catalog) Find(parentName string) (Group, bool) {
	for _, g := range c {
		if g.ParentName == parentName {
			return g, true
		}
	}
	return Group{}, false
}

// VariantCount returns the total number of variants across all groups.
func (c Catalog) VariantCount() int {
	n := 0
	for _, g := range c {
		n += len(g.Variants)
	}
	return n
}
