// Package money renders report amounts for display.
package money

import (
	"strconv"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultCurrency is used when a report carries no valid ISO code.
const DefaultCurrency = "USD"

// Formatter converts minor-unit amounts to localized strings.
type Formatter struct {
	printer *message.Printer
	decimal string
}

// NewFormatter builds a Formatter for the given BCP 47 tag. Unknown tags fall back to English.
func NewFormatter(tag string) *Formatter {
	lang, err := language.Parse(tag)
	if err != nil {
		lang = language.English
	}
	printer := message.NewPrinter(lang)
	// Locale decimal separator, taken from a rendered 0.5.
	sep := strings.Trim(printer.Sprint(number.Decimal(0.5, number.Scale(1))), "05")
	if sep == "" {
		sep = "."
	}
	return &Formatter{printer: printer, decimal: sep}
}

// Unit resolves an ISO 4217 code, falling back to DefaultCurrency.
func Unit(code string) currency.Unit {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return currency.MustParseISO(DefaultCurrency)
	}
	return unit
}

// Scale returns the number of minor digits of the currency.
func Scale(code string) int {
	scale, _ := currency.Standard.Rounding(Unit(code))
	return scale
}

// Format renders amount, expressed in minor units of code, with the currency
// symbol. Negative amounts carry the sign in front of the symbol.
func (f *Formatter) Format(amount int64, code string) string {
	if f == nil {
		f = NewFormatter("en")
	}
	unit := Unit(code)
	scale, _ := currency.Standard.Rounding(unit)

	var b strings.Builder
	abs := uint64(amount)
	if amount < 0 {
		b.WriteByte('-')
		abs = -abs
	}
	b.WriteString(f.printer.Sprint(currency.Symbol(unit)))

	pow := uint64(1)
	for i := 0; i < scale; i++ {
		pow *= 10
	}
	b.WriteString(f.printer.Sprint(number.Decimal(abs / pow)))
	if scale > 0 {
		frac := strconv.FormatUint(abs%pow, 10)
		b.WriteString(f.decimal)
		b.WriteString(strings.Repeat("0", scale-len(frac)))
		b.WriteString(frac)
	}
	return b.String()
}
