package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

func TestParseToMinorUnits(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{".5", 50, true},
		{",75", 75, true},
		{"12.", 1200, true},
		{" 2.50 ", 250, true},
		{"0", 0, true}, // positivity is the caller's concern
		{".", 0, true},
		{"92233720368547758.07", 9223372036854775807, true},
		{"92233720368547758.08", 0, false},
		{"99999999999999999999", 0, false},
		{"12.345", 0, false},
		{"1.005", 0, false},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1e3", 0, false},
		{"", 0, false},
		{"   ", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseToMinorUnits(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %d", tc.in, got)
		}
	}
}

func TestFormatMinorUnits(t *testing.T) {
	cases := map[int64]string{
		0:       "0.00",
		1:       "0.01",
		50:      "0.50",
		1234:    "12.34",
		100000:  "1000.00",
		-250:    "-2.50",
		1234567: "12345.67",
	}
	for in, want := range cases {
		if got := FormatMinorUnits(in); got != want {
			t.Errorf("FormatMinorUnits(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestMinorUnitsRoundTrip(t *testing.T) {
	cases := map[string]string{
		"12":     "12.00",
		"12.5":   "12.50",
		"12,50":  "12.50",
		".5":     "0.50",
		"0.01":   "0.01",
		"1000.1": "1000.10",
	}
	for in, canonical := range cases {
		cents, err := ParseToMinorUnits(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if got := FormatMinorUnits(cents); got != canonical {
			t.Errorf("round trip %q = %q, want %q", in, got, canonical)
		}
	}
}

func TestMoneyDecimal(t *testing.T) {
	m := Money{Cents: 10000}
	if !m.Decimal().Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected 100, got %s", m.Decimal())
	}
	if m.String() != "100.00" {
		t.Fatalf("expected 100.00, got %s", m.String())
	}
}

func TestFormatDisplay(t *testing.T) {
	got := FormatDisplay(decimal.RequireFromString("1234.5"), "usd", language.English)
	if got != "1,234.50 USD" {
		t.Fatalf("FormatDisplay = %q", got)
	}
	got = FormatDisplay(decimal.RequireFromString("12.345"), "EUR", language.English)
	if got != "12.35 EUR" {
		t.Fatalf("FormatDisplay rounding = %q", got)
	}
	got = FormatDisplay(MinorUnitsToDecimal(9007199254740993), "USD", language.English)
	if got != "90,071,992,547,409.93 USD" {
		t.Fatalf("FormatDisplay large amount = %q", got)
	}
	got = FormatDisplay(decimal.RequireFromString("-1234.5"), "EUR", language.English)
	if got != "-1,234.50 EUR" {
		t.Fatalf("FormatDisplay negative = %q", got)
	}
	got = FormatDisplay(decimal.RequireFromString("1234.5"), "EUR", language.German)
	if got != "1.234,50 EUR" {
		t.Fatalf("FormatDisplay german = %q", got)
	}
}
