// Package memory is an in-process ExpenseStore and PreferenceStore. Data is
// lost on restart; it backs DATA_BACKEND=memory and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"expensetracker/internal/core"
	"expensetracker/internal/ports"
	"expensetracker/internal/watch"
)

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]core.Expense

	expenses *watch.Value[uint64]
	home     *watch.Value[string]
}

var (
	_ ports.ExpenseStore    = (*Store)(nil)
	_ ports.PreferenceStore = (*Store)(nil)
)

func New() *Store {
	return &Store{
		items:    make(map[int64]core.Expense),
		expenses: watch.NewValue[uint64](0),
		home:     watch.NewValue(core.DefaultCurrency),
	}
}

// NewWithExpenses returns a Store pre-filled with fields, in order.
func NewWithExpenses(fields ...core.ExpenseFields) *Store {
	s := New()
	for _, f := range fields {
		s.nextID++
		s.items[s.nextID] = core.Expense{ID: s.nextID}.WithFields(f)
	}
	return s
}

func (s *Store) changed() {
	s.expenses.Update(func(n uint64) uint64 { return n + 1 })
}

func (s *Store) Create(_ context.Context, f core.ExpenseFields) (core.Expense, error) {
	s.mu.Lock()
	s.nextID++
	e := core.Expense{ID: s.nextID}.WithFields(f)
	s.items[e.ID] = e
	s.mu.Unlock()

	s.changed()
	return e, nil
}

func (s *Store) Update(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	if _, ok := s.items[e.ID]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("update expense %d: %w", e.ID, core.ErrNotFound)
	}
	s.items[e.ID] = e
	s.mu.Unlock()

	s.changed()
	return nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	if _, ok := s.items[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("delete expense %d: %w", id, core.ErrNotFound)
	}
	delete(s.items, id)
	s.mu.Unlock()

	s.changed()
	return nil
}

func (s *Store) Get(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, core.ErrNotFound)
	}
	return e, nil
}

// snapshot returns the expenses accepted by keep, newest date first.
func (s *Store) snapshot(keep func(core.Expense) bool) []core.Expense {
	s.mu.Lock()
	out := make([]core.Expense, 0, len(s.items))
	for _, e := range s.items {
		if keep(e) {
			out = append(out, e)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Store) observe(ctx context.Context, keep func(core.Expense) bool) <-chan []core.Expense {
	return watch.Query(ctx, s.expenses, func(context.Context) ([]core.Expense, error) {
		return s.snapshot(keep), nil
	})
}

func (s *Store) ObserveAll(ctx context.Context) <-chan []core.Expense {
	return s.observe(ctx, func(core.Expense) bool { return true })
}

func (s *Store) ObserveByCategory(ctx context.Context, category string) <-chan []core.Expense {
	return s.observe(ctx, func(e core.Expense) bool { return e.Category == category })
}

func (s *Store) FindByTitle(ctx context.Context, pattern string) <-chan []core.Expense {
	return s.observe(ctx, func(e core.Expense) bool { return Like(pattern, e.Title) })
}

func (s *Store) ObserveDistinctCategories(ctx context.Context) <-chan []string {
	return watch.Query(ctx, s.expenses, func(context.Context) ([]string, error) {
		s.mu.Lock()
		seen := make(map[string]struct{})
		for _, e := range s.items {
			seen[e.Category] = struct{}{}
		}
		s.mu.Unlock()

		out := make([]string, 0, len(seen))
		for c := range seen {
			out = append(out, c)
		}
		sort.Strings(out)
		return out, nil
	})
}

func (s *Store) HomeCurrency(context.Context) (string, error) {
	return s.home.Get(), nil
}

func (s *Store) ObserveHomeCurrency(ctx context.Context) <-chan string {
	return s.home.Observe(ctx)
}

func (s *Store) SetHomeCurrency(_ context.Context, code string) error {
	code = core.NormalizeCurrency(code)
	if code == "" {
		return fmt.Errorf("set home currency: %w", core.ErrInvalidCurrency)
	}
	s.home.Set(code)
	return nil
}

// Like reports whether s matches the SQL LIKE pattern, with SQLite's default
// semantics: % matches any run, _ matches one rune, ASCII is case-insensitive.
func Like(pattern, s string) bool {
	p := []rune(asciiOnlyLower(pattern))
	r := []rune(asciiOnlyLower(s))

	// last positions to resume from after a %
	star, match := -1, 0
	i, j := 0, 0
	for j < len(r) {
		switch {
		case i < len(p) && (p[i] == '_' || p[i] == r[j]):
			i++
			j++
		case i < len(p) && p[i] == '%':
			star, match = i, j
			i++
		case star >= 0:
			match++
			i, j = star+1, match
		default:
			return false
		}
	}
	for i < len(p) && p[i] == '%' {
		i++
	}
	return i == len(p)
}

func asciiOnlyLower(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}
