// Package services holds the application use cases: editing and browsing
// expenses, and the home currency preference.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/ports"
)

// EventPublisher announces expense changes. *amqp.Client implements it.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, ev *amqp.ExpenseEvent) error
}

// ExpenseInput is an expense as entered by the user: every field is raw text.
type ExpenseInput struct {
	Title    string
	Category string
	Cost     string
	Store    string
	Date     string
	Currency string
}

// ExpenseService validates and stores expenses, then publishes a change
// event. A failed publish is logged and never fails the write.
type ExpenseService struct {
	storage    ports.ExpenseStore
	currencies *core.CurrencyRegistry
	publisher  EventPublisher
	today      func() string
}

// NewExpenseService wires the service. publisher may be nil.
func NewExpenseService(storage ports.ExpenseStore, currencies *core.CurrencyRegistry, publisher EventPublisher) *ExpenseService {
	if currencies == nil {
		currencies = core.MustCurrencyRegistry(core.DefaultCurrencies)
	}
	return &ExpenseService{
		storage:    storage,
		currencies: currencies,
		publisher:  publisher,
		today:      core.Today,
	}
}

// ParseInput applies the edit defaults and validates in. Blank category
// becomes "Uncategorized", blank currency "USD", blank date today.
func (s *ExpenseService) ParseInput(in ExpenseInput) (core.ExpenseFields, error) {
	cents, err := core.ParseToMinorUnits(in.Cost)
	if err != nil {
		return core.ExpenseFields{}, fmt.Errorf("cost %q: %w", in.Cost, err)
	}

	f := core.ExpenseFields{
		Title:    in.Title,
		Category: in.Category,
		Cost:     core.Money{Cents: cents},
		Store:    in.Store,
		Date:     in.Date,
		Currency: in.Currency,
	}.Normalize()
	if f.Date == "" {
		f.Date = s.today()
	}

	if err := f.Validate(); err != nil {
		return core.ExpenseFields{}, err
	}
	if f.Currency, err = s.currencies.Validate(f.Currency); err != nil {
		return core.ExpenseFields{}, err
	}
	return f, nil
}

func (s *ExpenseService) Create(ctx context.Context, in ExpenseInput) (core.Expense, error) {
	f, err := s.ParseInput(in)
	if err != nil {
		return core.Expense{}, err
	}

	e, err := s.storage.Create(ctx, f)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publish(ctx, amqp.EventCreated, e)
	return e, nil
}

// Update replaces every field of expense id.
func (s *ExpenseService) Update(ctx context.Context, id int64, in ExpenseInput) (core.Expense, error) {
	f, err := s.ParseInput(in)
	if err != nil {
		return core.Expense{}, err
	}

	e := core.Expense{ID: id}.WithFields(f)
	if err := s.storage.Update(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	s.publish(ctx, amqp.EventUpdated, e)
	return e, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	e, err := s.storage.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.publish(ctx, amqp.EventDeleted, e)
	return nil
}

func (s *ExpenseService) Get(ctx context.Context, id int64) (core.Expense, error) {
	return s.storage.Get(ctx, id)
}

// ObserveExpenses streams the expense list. A blank category selects every
// expense, otherwise only that category.
func (s *ExpenseService) ObserveExpenses(ctx context.Context, category string) <-chan []core.Expense {
	category = strings.TrimSpace(category)
	if category == "" {
		return s.storage.ObserveAll(ctx)
	}
	return s.storage.ObserveByCategory(ctx, category)
}

func (s *ExpenseService) ObserveCategories(ctx context.Context) <-chan []string {
	return s.storage.ObserveDistinctCategories(ctx)
}

// SearchByTitle streams expenses whose title contains query.
func (s *ExpenseService) SearchByTitle(ctx context.Context, query string) <-chan []core.Expense {
	return s.storage.FindByTitle(ctx, "%"+strings.TrimSpace(query)+"%")
}

// Currencies returns the supported currency registry.
func (s *ExpenseService) Currencies() *core.CurrencyRegistry {
	return s.currencies
}

func (s *ExpenseService) publish(ctx context.Context, t amqp.EventType, e core.Expense) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping expense event",
			applog.FieldComponent, applog.ComponentExpense,
			applog.FieldExpenseID, e.ID)
		return
	}

	ev := amqp.NewExpenseEvent(t, e)
	if err := s.publisher.PublishExpenseEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			applog.FieldComponent, applog.ComponentExpense,
			applog.FieldExpenseID, e.ID,
			applog.FieldEventType, string(t),
			applog.FieldError, err.Error())
	}
}

// Close releases the storage and publisher when they hold resources.
func (s *ExpenseService) Close() error {
	var errs []error

	if c, ok := s.storage.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}
	return nil
}
