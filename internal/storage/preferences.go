package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"expensetracker/internal/core"
	"expensetracker/internal/watch"
)

const prefHomeCurrency = "home_currency"

// HomeCurrency returns the stored home currency, core.DefaultCurrency when
// none was set.
func (r *SQLiteRepository) HomeCurrency(ctx context.Context) (string, error) {
	v, err := r.queries.GetPreference(ctx, prefHomeCurrency)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DefaultCurrency, nil
	}
	if err != nil {
		return "", fmt.Errorf("get home currency: %w", err)
	}
	if v = core.NormalizeCurrency(v); v == "" {
		return core.DefaultCurrency, nil
	}
	return v, nil
}

func (r *SQLiteRepository) ObserveHomeCurrency(ctx context.Context) <-chan string {
	return watch.Query(ctx, r.preferences, r.HomeCurrency)
}

// SetHomeCurrency stores code trimmed and upper-cased. Membership in the
// supported set is checked by the caller.
func (r *SQLiteRepository) SetHomeCurrency(ctx context.Context, code string) error {
	code = core.NormalizeCurrency(code)
	if code == "" {
		return fmt.Errorf("set home currency: %w", core.ErrInvalidCurrency)
	}
	if err := r.queries.UpsertPreference(ctx, prefHomeCurrency, code); err != nil {
		return fmt.Errorf("set home currency: %w", err)
	}
	r.bump(r.preferences)
	return nil
}
