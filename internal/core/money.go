// Package core provides money parsing and handling utilities.
//
// This file contains the conversion between user entered decimal strings and
// integer minor units (cents), plus display formatting of decimal amounts.
package core

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MonetaryScale is the number of fractional digits kept for amounts.
const MonetaryScale = 2

var amountPattern = regexp.MustCompile(`^\d*(?:\.\d{0,2})?$`)

// ParseToMinorUnits converts a decimal string to minor units (cents).
//
// A comma is accepted as decimal separator and a leading dot gets a "0"
// prefix. Inputs with more than two fractional digits, non-numeric content or
// a value that does not fit in int64 cents return ErrInvalidAmount. The value
// is rounded half-up to two decimals before scaling.
//
// Zero is returned without error: positivity is checked by Money.Validate.
//
// Examples:
//
//	ParseToMinorUnits("12.34") -> 1234, nil
//	ParseToMinorUnits("12,5")  -> 1250, nil
//	ParseToMinorUnits(".5")    -> 50, nil
//	ParseToMinorUnits("12.345") -> 0, ErrInvalidAmount
func ParseToMinorUnits(input string) (int64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(input), ",", ".")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	if !amountPattern.MatchString(s) {
		return 0, ErrInvalidAmount
	}
	s = strings.TrimSuffix(s, ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	scaled := d.Round(MonetaryScale).Shift(MonetaryScale)
	bi := scaled.BigInt()
	if !bi.IsInt64() {
		return 0, ErrInvalidAmount
	}
	return bi.Int64(), nil
}

// FormatMinorUnits renders cents as a plain decimal string with exactly two
// fractional digits and no grouping, e.g. 1234 -> "12.34".
func FormatMinorUnits(cents int64) string {
	return MinorUnitsToDecimal(cents).StringFixed(MonetaryScale)
}

// MinorUnitsToDecimal reinterprets cents as a decimal with scale 2.
func MinorUnitsToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -MonetaryScale)
}

// String implements fmt.Stringer using the canonical two-digit form.
func (m Money) String() string {
	return FormatMinorUnits(m.Cents)
}

// Decimal returns the amount as a decimal in major units.
func (m Money) Decimal() decimal.Decimal {
	return MinorUnitsToDecimal(m.Cents)
}

// FormatDisplay formats amount for people: locale grouping, two decimals and
// the currency code, e.g. "1,234.50 USD" for English.
// Only used at the presentation boundary; never parse its output.
func FormatDisplay(amount decimal.Decimal, currency string, tag language.Tag) string {
	p := message.NewPrinter(tag)

	fixed := amount.StringFixed(MonetaryScale)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")

	// only the integer part goes through the printer so no digit is lost to float64
	grouped := whole
	if n, err := strconv.ParseInt(whole, 10, 64); err == nil {
		grouped = p.Sprintf("%d", n)
	}
	return sign + grouped + decimalSeparator(p) + frac + " " + NormalizeCurrency(currency)
}

func decimalSeparator(p *message.Printer) string {
	return strings.TrimFunc(p.Sprintf("%.1f", 1.5), unicode.IsDigit)
}
