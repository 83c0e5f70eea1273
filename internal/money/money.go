// Package money converts provider minor units into display amounts and
// validates ISO currency and region codes.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// Scale returns the number of decimal digits used by the currency code
// (2 for eur, 0 for jpy).
func Scale(code string) (int, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return 0, fmt.Errorf("unknown currency %q: %w", code, err)
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale, nil
}

// Decimal converts an amount in minor units into its major-unit value.
func Decimal(amount int64, code string) (decimal.Decimal, error) {
	scale, err := Scale(code)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.New(amount, -int32(scale)), nil
}

// Format renders amount like "24.99 EUR". Unknown currencies fall back to the
// raw minor units.
func Format(amount int64, code string) string {
	scale, err := Scale(code)
	if err != nil {
		return fmt.Sprintf("%d %s", amount, strings.ToUpper(code))
	}
	return fmt.Sprintf("%s %s", decimal.New(amount, -int32(scale)).StringFixed(int32(scale)), strings.ToUpper(code))
}

func ValidCurrency(code string) bool {
	code = strings.TrimSpace(code)
	if len(code) != 3 {
		return false
	}
	_, err := currency.ParseISO(strings.ToUpper(code))
	return err == nil
}

// ValidCountry reports whether code is a two-letter region naming a country.
func ValidCountry(code string) bool {
	code = strings.TrimSpace(code)
	if len(code) != 2 {
		return false
	}
	region, err := language.ParseRegion(strings.ToUpper(code))
	if err != nil {
		return false
	}
	return region.IsCountry()
}
