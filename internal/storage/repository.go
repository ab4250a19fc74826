// Package storage implements the expense and preference stores on SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/ports"
	"expensetracker/internal/watch"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the SQLite-backed ExpenseStore and PreferenceStore.
// Every successful write bumps a revision counter; observers re-run their
// query on each revision.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries

	expenses    *watch.Value[uint64]
	preferences *watch.Value[uint64]
}

var (
	_ ports.ExpenseStore    = (*SQLiteRepository)(nil)
	_ ports.PreferenceStore = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:          db,
		queries:     New(db),
		expenses:    watch.NewValue[uint64](0),
		preferences: watch.NewValue[uint64](0),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) bump(v *watch.Value[uint64]) {
	v.Update(func(n uint64) uint64 { return n + 1 })
}

func (r *SQLiteRepository) Create(ctx context.Context, f core.ExpenseFields) (core.Expense, error) {
	row, err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		Title:     f.Title,
		Category:  f.Category,
		CostCents: f.Cost.Cents,
		Store:     f.Store,
		Date:      f.Date,
		Currency:  f.Currency,
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	r.bump(r.expenses)

	slog.InfoContext(ctx, "Expense saved to SQLite",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldExpenseID, row.ID,
		applog.FieldAmountCents, row.CostCents,
		applog.FieldCurrency, row.Currency)

	return toCore(row), nil
}

func (r *SQLiteRepository) Update(ctx context.Context, e core.Expense) error {
	n, err := r.queries.UpdateExpense(ctx, UpdateExpenseParams{
		ID:        e.ID,
		Title:     e.Title,
		Category:  e.Category,
		CostCents: e.Cost.Cents,
		Store:     e.Store,
		Date:      e.Date,
		Currency:  e.Currency,
	})
	if err != nil {
		return fmt.Errorf("update expense %d: %w", e.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update expense %d: %w", e.ID, core.ErrNotFound)
	}
	r.bump(r.expenses)
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete expense %d: %w", id, core.ErrNotFound)
	}
	r.bump(r.expenses)
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return toCore(row), nil
}

func (r *SQLiteRepository) ObserveAll(ctx context.Context) <-chan []core.Expense {
	return watch.Query(ctx, r.expenses, func(ctx context.Context) ([]core.Expense, error) {
		rows, err := r.queries.ListExpenses(ctx)
		return toCoreList(rows), err
	})
}

func (r *SQLiteRepository) ObserveByCategory(ctx context.Context, category string) <-chan []core.Expense {
	return watch.Query(ctx, r.expenses, func(ctx context.Context) ([]core.Expense, error) {
		rows, err := r.queries.ListExpensesByCategory(ctx, category)
		return toCoreList(rows), err
	})
}

func (r *SQLiteRepository) ObserveDistinctCategories(ctx context.Context) <-chan []string {
	return watch.Query(ctx, r.expenses, r.queries.ListCategories)
}

func (r *SQLiteRepository) FindByTitle(ctx context.Context, pattern string) <-chan []core.Expense {
	return watch.Query(ctx, r.expenses, func(ctx context.Context) ([]core.Expense, error) {
		rows, err := r.queries.FindExpensesByTitle(ctx, pattern)
		return toCoreList(rows), err
	})
}

func toCore(e Expense) core.Expense {
	return core.Expense{
		ID:       e.ID,
		Title:    e.Title,
		Category: e.Category,
		Cost:     core.Money{Cents: e.CostCents},
		Store:    e.Store,
		Date:     e.Date,
		Currency: e.Currency,
	}
}

func toCoreList(rows []Expense) []core.Expense {
	if rows == nil {
		return nil
	}
	out := make([]core.Expense, len(rows))
	for i, e := range rows {
		out[i] = toCore(e)
	}
	return out
}
