package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// DateLayout is the ISO-8601 calendar date format used for Expense.Date.
	DateLayout = "2006-01-02"

	DefaultCategory = "Uncategorized"
	DefaultCurrency = "USD"
)

type (
	// Expense is a single recorded expense. Cost is always in minor units of
	// the expense's own Currency.
	Expense struct {
		ID       int64
		Title    string
		Category string
		Cost     Money
		Store    string
		Date     string
		Currency string
	}

	// ExpenseFields holds the user supplied attributes of a new expense.
	ExpenseFields struct {
		Title    string
		Category string
		Cost     Money
		Store    string
		Date     string
		Currency string
	}

	Money struct {
		Cents int64
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyTitle          = errors.New("empty title")
	ErrTitleTooLong        = errors.New("title too long (max 200 characters)")
	ErrEmptyStore          = errors.New("empty store")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidCurrency     = errors.New("invalid currency code")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrNotFound            = errors.New("expense not found")
)

// IsValidationError reports whether err comes from input validation.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrEmptyTitle, ErrTitleTooLong, ErrEmptyStore,
		ErrInvalidDate, ErrInvalidCurrency, ErrUnsupportedCurrency,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Normalize applies the edit-boundary defaults: trimmed text, "Uncategorized"
// for a blank category, "USD" for a blank currency, upper-case currency.
func (f ExpenseFields) Normalize() ExpenseFields {
	f.Title = strings.TrimSpace(f.Title)
	f.Store = strings.TrimSpace(f.Store)
	f.Date = strings.TrimSpace(f.Date)
	f.Category = strings.TrimSpace(f.Category)
	if f.Category == "" {
		f.Category = DefaultCategory
	}
	f.Currency = NormalizeCurrency(f.Currency)
	if f.Currency == "" {
		f.Currency = DefaultCurrency
	}
	return f
}

func (f ExpenseFields) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return ErrEmptyTitle
	}
	if len(f.Title) > 200 {
		return ErrTitleTooLong
	}
	if strings.TrimSpace(f.Store) == "" {
		return ErrEmptyStore
	}
	if err := f.Cost.Validate(); err != nil {
		return err
	}
	if _, err := time.Parse(DateLayout, f.Date); err != nil {
		return ErrInvalidDate
	}
	if !isCurrencyShape(f.Currency) {
		return ErrInvalidCurrency
	}
	return nil
}

// Fields returns the mutable attributes of e.
func (e Expense) Fields() ExpenseFields {
	return ExpenseFields{
		Title:    e.Title,
		Category: e.Category,
		Cost:     e.Cost,
		Store:    e.Store,
		Date:     e.Date,
		Currency: e.Currency,
	}
}

// WithFields replaces every attribute of e except its identity.
func (e Expense) WithFields(f ExpenseFields) Expense {
	return Expense{
		ID:       e.ID,
		Title:    f.Title,
		Category: f.Category,
		Cost:     f.Cost,
		Store:    f.Store,
		Date:     f.Date,
		Currency: f.Currency,
	}
}

func (e Expense) Validate() error {
	return e.Fields().Validate()
}

// Today returns the current local date in DateLayout.
func Today() string {
	return time.Now().Format(DateLayout)
}
