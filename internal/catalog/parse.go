package catalog

import (
	"sort"
	"strings"
)

// Parser drives the row tokenizer over a full document and aggregates the
// result into a Catalog. A Parser is cheap, carries no per-call state, and
// is safe for concurrent use.
type Parser struct {
	layout Layout
}

// NewParser creates a parser for the given column layout.
func NewParser(layout Layout) *Parser {
	return &Parser{layout: layout}
}

// Parse converts a full CSV document into a sorted catalog.
//
// The first line is always treated as the header and skipped. Blank lines
// and repeated header rows are ignored, a section-sentinel line terminates
// processing, rows with too few fields are dropped, and duplicate SKUs
// within a group keep the first occurrence. Nothing the document contains
// can make Parse fail; bad cells become zero values and bad rows are
// counted in the returned Stats.
func (p *Parser) Parse(document string) (Catalog, Stats) {
	var stats Stats

	if document == "" {
		return Catalog{}, stats
	}

	lines := splitLines(document)
	if len(lines) < 2 {
		// Header only, or nothing at all: no data to aggregate.
		return Catalog{}, stats
	}

	groups := make(map[string]*Group)
	order := make([]string, 0, 16)
	seen := make(map[string]map[string]struct{})

	for _, line := range lines[1:] {
		trimmed := strings.TrimSpace(line)
		lowered := strings.ToLower(trimmed)

		if strings.HasPrefix(lowered, strings.ToLower(p.layout.SectionSentinel)) {
			// Start of the unrelated secondary section; the product
			// table is over.
			stats.Truncated = true
			break
		}
		if trimmed == "" || (p.layout.HeaderPrefix != "" && strings.HasPrefix(lowered, strings.ToLower(p.layout.HeaderPrefix))) {
			stats.SkippedLines++
			continue
		}

		stats.Lines++

		fields := SplitRow(line)
		if len(fields) < p.layout.MinFields {
			stats.ShortRows++
			continue
		}

		parent := fieldAt(fields, p.layout.ParentKey)
		if parent == "" {
			parent = p.layout.FallbackParent
		}
		family := fieldAt(fields, p.layout.Family)
		if family == "" {
			family = p.layout.FallbackFamily
		}

		group, ok := groups[parent]
		if !ok {
			group = &Group{ParentName: parent, Family: family}
			groups[parent] = group
			order = append(order, parent)
			seen[parent] = make(map[string]struct{})
		}

		sku := fieldAt(fields, p.layout.SKU)
		if _, dup := seen[parent][sku]; dup {
			stats.DuplicateSKUs++
			continue
		}
		seen[parent][sku] = struct{}{}

		group.Variants = append(group.Variants, p.buildVariant(fields, family, sku, &stats))
		stats.Variants++
	}

	catalog := make(Catalog, 0, len(order))
	for _, parent := range order {
		catalog = append(catalog, *groups[parent])
	}
	sort.Slice(catalog, func(i, j int) bool {
		return catalog[i].ParentName < catalog[j].ParentName
	})

	return catalog, stats
}

// buildVariant extracts and normalizes one row's fields per the layout.
func (p *Parser) buildVariant(fields []string, family, sku string, stats *Stats) Variant {
	num := func(raw string, clean func(string) (float64, bool)) float64 {
		v, ok := clean(raw)
		if !ok {
			stats.DefaultedCells++
		}
		return v
	}

	return Variant{
		ProductLine:   fieldAt(fields, p.layout.ProductLine),
		Family:        family,
		SKU:           sku,
		Description:   fieldAt(fields, p.layout.Description),
		Unit:          fieldAt(fields, p.layout.Unit),
		StandardPrice: num(fieldAt(fields, p.layout.Standard), cleanPrice),
		FloorPrice:    num(fieldAt(fields, p.layout.Floor), cleanPrice),
		GivePrice:     num(fieldAt(fields, p.layout.Give), cleanPrice),
		GSAPrice:      num(fieldAt(fields, p.layout.GSA), cleanPrice),
		Weight:        num(fieldAt(fields, p.layout.Weight), parseWeight),
	}
}

// splitLines normalizes line endings, splits the document, and strips
// leading and trailing blank lines so a file padded with newlines still
// puts the header at index 0.
func splitLines(document string) []string {
	lines := strings.Split(strings.ReplaceAll(document, "\r\n", "\n"), "\n")

	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}

	return lines[start:end]
}

// fieldAt returns the trimmed field at idx, or "" when the row is too
// short to have one. The weight column in particular sits past the minimum
// field count and is often absent.
func fieldAt(fields []string, idx int) string {
	if idx >= len(fields) {
		return ""
	}
	return fields[idx]
}
