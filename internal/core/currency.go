package core

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/currency"
)

// DefaultCurrencies is the built-in list of selectable currencies. It matches
// the set quoted by the default rate provider and can be replaced through
// configuration.
var DefaultCurrencies = []string{
	"AUD", "BGN", "BRL", "CAD", "CHF", "CNY", "CZK", "DKK",
	"EUR", "GBP", "HKD", "HUF", "IDR", "ILS", "INR", "ISK",
	"JPY", "KRW", "MXN", "MYR", "NOK", "NZD", "PHP", "PLN",
	"RON", "SEK", "SGD", "THB", "TRY", "USD", "ZAR",
}

// NormalizeCurrency trims and upper-cases a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func isCurrencyShape(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// CurrencyRegistry is the set of currency codes accepted at the edit boundary.
type CurrencyRegistry struct {
	codes map[string]struct{}
}

// NewCurrencyRegistry builds a registry from codes. Every code must be a
// known ISO 4217 code.
func NewCurrencyRegistry(codes []string) (*CurrencyRegistry, error) {
	r := &CurrencyRegistry{codes: make(map[string]struct{}, len(codes))}
	for _, c := range codes {
		c = NormalizeCurrency(c)
		if c == "" {
			continue
		}
		if !isCurrencyShape(c) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCurrency, c)
		}
		if _, err := currency.ParseISO(c); err != nil {
			return nil, fmt.Errorf("%w: %q is not an ISO 4217 code", ErrInvalidCurrency, c)
		}
		r.codes[c] = struct{}{}
	}
	if len(r.codes) == 0 {
		return nil, fmt.Errorf("%w: empty currency list", ErrInvalidCurrency)
	}
	return r, nil
}

// MustCurrencyRegistry is NewCurrencyRegistry for static lists.
func MustCurrencyRegistry(codes []string) *CurrencyRegistry {
	r, err := NewCurrencyRegistry(codes)
	if err != nil {
		panic(err)
	}
	return r
}

// Validate normalizes code and checks it is supported.
func (r *CurrencyRegistry) Validate(code string) (string, error) {
	c := NormalizeCurrency(code)
	if !isCurrencyShape(c) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	if _, ok := r.codes[c]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedCurrency, c)
	}
	return c, nil
}

// Codes returns the supported codes sorted alphabetically.
func (r *CurrencyRegistry) Codes() []string {
	out := make([]string, 0, len(r.codes))
	for c := range r.codes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Filter returns the supported codes containing query, case-insensitive.
func (r *CurrencyRegistry) Filter(query string) []string {
	q := NormalizeCurrency(query)
	if q == "" {
		return r.Codes()
	}
	var out []string
	for _, c := range r.Codes() {
		if strings.Contains(c, q) {
			out = append(out, c)
		}
	}
	return out
}
