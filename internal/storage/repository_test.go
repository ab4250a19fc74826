package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func fields(title, category string, cents int64, date, currency string) core.ExpenseFields {
	return core.ExpenseFields{
		Title:    title,
		Category: category,
		Cost:     core.Money{Cents: cents},
		Store:    "Shop",
		Date:     date,
		Currency: currency,
	}
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func TestCreateGetUpdateDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, fields("Coffee", "Food", 350, "2024-05-01", "EUR"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Coffee", created.Title)
	assert.Equal(t, int64(350), created.Cost.Cents)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	got.Title = "Espresso"
	got.Currency = "USD"
	require.NoError(t, repo.Update(ctx, got))

	updated, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Espresso", updated.Title)
	assert.Equal(t, "USD", updated.Currency)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestMissingRowsReportNotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assert.ErrorIs(t, repo.Update(ctx, core.Expense{ID: 42, Title: "x", Category: "c", Cost: core.Money{Cents: 1}, Store: "s", Date: "2024-01-01", Currency: "USD"}), core.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, 42), core.ErrNotFound)
	_, err := repo.Get(ctx, 42)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestObserveAllReemitsAfterWrites(t *testing.T) {
	repo := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := repo.ObserveAll(ctx)
	assert.Empty(t, recv(t, ch))

	_, err := repo.Create(ctx, fields("Coffee", "Food", 350, "2024-05-01", "EUR"))
	require.NoError(t, err)
	assert.Len(t, recv(t, ch), 1)

	_, err = repo.Create(ctx, fields("Book", "Fun", 1299, "2024-05-03", "USD"))
	require.NoError(t, err)
	list := recv(t, ch)
	require.Len(t, list, 2)
	assert.Equal(t, "Book", list[0].Title, "newest date first")

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestObserveByCategoryAndDistinct(t *testing.T) {
	repo := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, f := range []core.ExpenseFields{
		fields("Coffee", "Food", 350, "2024-05-01", "EUR"),
		fields("Lunch", "Food", 1200, "2024-05-02", "EUR"),
		fields("Cinema", "Fun", 900, "2024-05-02", "USD"),
	} {
		_, err := repo.Create(ctx, f)
		require.NoError(t, err)
	}

	food := recv(t, repo.ObserveByCategory(ctx, "Food"))
	require.Len(t, food, 2)
	for _, e := range food {
		assert.Equal(t, "Food", e.Category)
	}

	cats := repo.ObserveDistinctCategories(ctx)
	assert.Equal(t, []string{"Food", "Fun"}, recv(t, cats))

	_, err := repo.Create(ctx, fields("Bus", "Travel", 250, "2024-05-04", "EUR"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Food", "Fun", "Travel"}, recv(t, cats))
}

func TestFindByTitle(t *testing.T) {
	repo := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, title := range []string{"Coffee beans", "Iced coffee", "Tea"} {
		_, err := repo.Create(ctx, fields(title, "Food", 100, "2024-05-01", "EUR"))
		require.NoError(t, err)
	}

	got := recv(t, repo.FindByTitle(ctx, "%COFFEE%"))
	assert.Len(t, got, 2)

	got = recv(t, repo.FindByTitle(ctx, "T_a"))
	require.Len(t, got, 1)
	assert.Equal(t, "Tea", got[0].Title)
}

func TestHomeCurrency(t *testing.T) {
	repo := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	code, err := repo.HomeCurrency(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.DefaultCurrency, code)

	ch := repo.ObserveHomeCurrency(ctx)
	assert.Equal(t, "USD", recv(t, ch))

	require.NoError(t, repo.SetHomeCurrency(ctx, " eur "))
	assert.Equal(t, "EUR", recv(t, ch))

	code, err = repo.HomeCurrency(ctx)
	require.NoError(t, err)
	assert.Equal(t, "EUR", code)

	assert.ErrorIs(t, repo.SetHomeCurrency(ctx, "  "), core.ErrInvalidCurrency)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keep.db")
	ctx := context.Background()

	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	created, err := repo.Create(ctx, fields("Coffee", "Food", 350, "2024-05-01", "EUR"))
	require.NoError(t, err)
	require.NoError(t, repo.SetHomeCurrency(ctx, "GBP"))
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(path)
	require.NoError(t, err)
	defer repo.Close()

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	code, err := repo.HomeCurrency(ctx)
	require.NoError(t, err)
	assert.Equal(t, "GBP", code)
}
