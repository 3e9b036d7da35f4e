package catalog

import "strings"

// SplitRow tokenizes one line of CSV text into its field values.
//
// Quoting follows the usual CSV rules: a double quote toggles quoted mode,
// a doubled quote inside a quoted region is a literal quote, and commas
// inside quotes are ordinary characters. Fields are returned with
// surrounding whitespace trimmed and quote escaping already resolved.
//
// SplitRow never fails. An unterminated quote simply swallows the rest of
// the line into the open field, which matches how the legacy exports behave
// when a cell is cut off mid-quote. Every line yields at least one field,
// even an empty line.
func SplitRow(line string) []string {
	fields := make([]string, 0, 16)
	var buf strings.Builder
	inQuotes := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				// Escaped quote: emit one literal quote, consume both.
				buf.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(buf.String()))
			buf.Reset()
		default:
			buf.WriteRune(ch)
		}
	}

	fields = append(fields, strings.TrimSpace(buf.String()))
	return fields
}
