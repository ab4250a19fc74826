// Package ports declares the storage collaborators the application depends
// on. Implementations live in internal/storage and internal/storage/memory.
package ports

import (
	"context"

	"expensetracker/internal/core"
)

// ExpenseStore persists expenses. Observe* and FindByTitle return a channel
// that emits the current result immediately and again after every write,
// until ctx is done; the channel is then closed.
type ExpenseStore interface {
	Create(ctx context.Context, f core.ExpenseFields) (core.Expense, error)
	Update(ctx context.Context, e core.Expense) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (core.Expense, error)

	ObserveAll(ctx context.Context) <-chan []core.Expense
	ObserveByCategory(ctx context.Context, category string) <-chan []core.Expense
	ObserveDistinctCategories(ctx context.Context) <-chan []string

	// FindByTitle matches titles against a SQL LIKE pattern: % is any run of
	// characters, _ is one character, ASCII letters match case-insensitively.
	FindByTitle(ctx context.Context, pattern string) <-chan []core.Expense
}

// PreferenceStore holds user settings. The home currency is always an
// upper-case code and defaults to core.DefaultCurrency.
type PreferenceStore interface {
	HomeCurrency(ctx context.Context) (string, error)
	ObserveHomeCurrency(ctx context.Context) <-chan string
	SetHomeCurrency(ctx context.Context, code string) error
}
