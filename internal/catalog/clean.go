package catalog

// clean.go normalizes the numeric cells of a price-list export.
//
// Export cells arrive as display text: "$1,234.50", " 12.5 ", "n/a", or
// simply blank. The catalog model wants plain non-negative numbers, so
// cleaning strips currency decoration before parsing and every failure
// collapses to 0 instead of an error.

import (
	"strconv"
	"strings"
)

// priceReplacer drops the decoration found in price cells: the currency
// symbol, thousands separators, and stray spaces.
var priceReplacer = strings.NewReplacer("$", "", ",", "", " ", "", "\t", "")

// CleanPrice parses a price cell into a non-negative amount.
// Blank cells, non-numeric text, and negative amounts all yield 0.
func CleanPrice(raw string) float64 {
	v, _ := cleanPrice(raw)
	return v
}

// ParseWeight parses a weight cell as a plain decimal with the same zero
// fallback as CleanPrice but without symbol stripping; weight cells never
// carry currency decoration.
func ParseWeight(raw string) float64 {
	v, _ := parseWeight(raw)
	return v
}

// cleanPrice reports ok=false when the cell fell back to 0 instead of
// parsing cleanly; the parser uses this to count defaulted cells.
func cleanPrice(raw string) (float64, bool) {
	return parseNonNegative(priceReplacer.Replace(strings.TrimSpace(raw)))
}

func parseWeight(raw string) (float64, bool) {
	return parseNonNegative(strings.TrimSpace(raw))
}

func parseNonNegative(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
