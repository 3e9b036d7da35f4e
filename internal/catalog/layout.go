package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Layout describes where each catalog field lives in a row of the export.
//
// The report this package ingests is a fixed-position layout inherited from
// a legacy reporting tool; columns 7, 11 and 12 carry data the catalog does
// not use. Keeping the mapping in one struct means format drift is a config
// change, not a parser rewrite.
type Layout struct {
	// Field positions within a tokenized row.
	ProductLine int `yaml:"product_line"`
	Family      int `yaml:"family"`
	ParentKey   int `yaml:"parent_key"`
	SKU         int `yaml:"sku"`
	Description int `yaml:"description"`
	Unit        int `yaml:"unit"`
	Standard    int `yaml:"standard_price"`
	Floor       int `yaml:"floor_price"`
	Give        int `yaml:"give_price"`
	GSA         int `yaml:"gsa_price"`
	Weight      int `yaml:"weight"`

	// MinFields is the minimum tokenized field count for a row to be kept.
	MinFields int `yaml:"min_fields"`

	// SectionSentinel terminates the product table. A line whose trimmed
	// text starts with this token (case-insensitive) marks the beginning of
	// an unrelated secondary section; everything after it is discarded.
	SectionSentinel string `yaml:"section_sentinel"`

	// HeaderPrefix identifies repeated header rows embedded mid-document,
	// matched case-insensitively as a prefix of the trimmed line.
	HeaderPrefix string `yaml:"header_prefix"`

	// FallbackParent and FallbackFamily substitute for blank cells.
	FallbackParent string `yaml:"fallback_parent"`
	FallbackFamily string `yaml:"fallback_family"`
}

// DefaultLayout is the column mapping of the stock price-list export.
func DefaultLayout() Layout {
	return Layout{
		ProductLine:     0,
		Family:          1,
		ParentKey:       2,
		SKU:             3,
		Description:     4,
		Unit:            5,
		Standard:        6,
		Floor:           8,
		Give:            9,
		GSA:             10,
		Weight:          13,
		MinFields:       11,
		SectionSentinel: "scsclass",
		HeaderPrefix:    "productlinedescription",
		FallbackParent:  "Uncategorized",
		FallbackFamily:  "General",
	}
}

// LoadLayout reads a layout override from a YAML file. Fields absent from
// the file keep their default values, so a minimal override like
//
//	section_sentinel: endofsection
//	weight: 12
//
// is enough to adapt to a drifted export format.
func LoadLayout(path string) (Layout, error) {
	layout := DefaultLayout()

	data, err := os.ReadFile(path)
	if err != nil {
		return layout, fmt.Errorf("read layout file: %w", err)
	}

	if err := yaml.Unmarshal(data, &layout); err != nil {
		return layout, fmt.Errorf("parse layout file: %w", err)
	}

	if err := layout.Validate(); err != nil {
		return layout, fmt.Errorf("layout file %s: %w", path, err)
	}

	return layout, nil
}

// Validate checks the layout for positions the parser cannot work with.
func (l Layout) Validate() error {
	positions := map[string]int{
		"product_line":   l.ProductLine,
		"family":         l.Family,
		"parent_key":     l.ParentKey,
		"sku":            l.SKU,
		"description":    l.Description,
		"unit":           l.Unit,
		"standard_price": l.Standard,
		"floor_price":    l.Floor,
		"give_price":     l.Give,
		"gsa_price":      l.GSA,
		"weight":         l.Weight,
	}
	for name, pos := range positions {
		if pos < 0 {
			return fmt.Errorf("%s index must be non-negative, got %d", name, pos)
		}
	}

	if l.MinFields < 1 {
		return fmt.Errorf("min_fields must be at least 1, got %d", l.MinFields)
	}
	if l.SectionSentinel == "" {
		return fmt.Errorf("section_sentinel must not be empty")
	}
	if l.FallbackParent == "" {
		return fmt.Errorf("fallback_parent must not be empty")
	}
	return nil
}
