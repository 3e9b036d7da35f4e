// Package currency renders catalog prices as localized currency strings.
//
// It is a display-only collaborator: the catalog model keeps plain float64
// amounts and nothing here ever writes back into it. The UI asks for
// formatted strings alongside the raw values and the two never mix.
package currency

import (
	"fmt"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter formats amounts in one currency for one locale.
// A Formatter is immutable and safe for concurrent use.
type Formatter struct {
	printer *message.Printer
	unit    currency.Unit
}

// NewFormatter builds a formatter for a BCP 47 locale tag ("en-US") and an
// ISO 4217 currency code ("USD").
func NewFormatter(locale, code string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}

	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("parse currency code %q: %w", code, err)
	}

	return &Formatter{
		printer: message.NewPrinter(tag),
		unit:    unit,
	}, nil
}

// Format renders an amount with the currency's narrow symbol, e.g. "$ 1234.50".
func (f *Formatter) Format(amount float64) string {
	return f.printer.Sprint(currency.NarrowSymbol(f.unit.Amount(amount)))
}

// Code returns the ISO 4217 code the formatter renders.
func (f *Formatter) Code() string {
	return f.unit.String()
}
