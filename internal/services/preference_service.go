package services

import (
	"context"
	"fmt"

	"expensetracker/internal/core"
	"expensetracker/internal/ports"
)

// PreferenceService guards the home currency preference: only supported
// codes are stored.
type PreferenceService struct {
	store      ports.PreferenceStore
	currencies *core.CurrencyRegistry
}

func NewPreferenceService(store ports.PreferenceStore, currencies *core.CurrencyRegistry) *PreferenceService {
	if currencies == nil {
		currencies = core.MustCurrencyRegistry(core.DefaultCurrencies)
	}
	return &PreferenceService{store: store, currencies: currencies}
}

func (s *PreferenceService) HomeCurrency(ctx context.Context) (string, error) {
	return s.store.HomeCurrency(ctx)
}

func (s *PreferenceService) ObserveHomeCurrency(ctx context.Context) <-chan string {
	return s.store.ObserveHomeCurrency(ctx)
}

// SetHomeCurrency trims, upper-cases and validates code before storing it.
func (s *PreferenceService) SetHomeCurrency(ctx context.Context, code string) (string, error) {
	c, err := s.currencies.Validate(code)
	if err != nil {
		return "", err
	}
	if err := s.store.SetHomeCurrency(ctx, c); err != nil {
		return "", fmt.Errorf("save home currency: %w", err)
	}
	return c, nil
}
