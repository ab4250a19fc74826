package exchange

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"expensetracker/internal/cache"
	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/watch"
)

// FetchFailedNotice is the user facing message published when a rate cannot
// be obtained.
const FetchFailedNotice = "Unable to fetch the latest rates. Please check your internet or try again later."

var (
	// ErrRateUnavailable wraps every rate fetch failure: transport error,
	// non-2xx response or a quote currency absent from the response.
	ErrRateUnavailable = errors.New("exchange rate unavailable")

	errMissingQuote = errors.New("quote currency missing from response")
)

// Pair identifies a directional rate. (EUR, USD) and (USD, EUR) are distinct.
type Pair struct {
	From string
	To   string
}

func (p Pair) String() string {
	return p.From + "->" + p.To
}

// Result is the outcome of an asynchronous conversion.
type Result struct {
	ExpenseID int64
	Amount    decimal.Decimal
	Currency  string
	Err       error
}

// OK reports whether the conversion produced an amount.
func (r Result) OK() bool {
	return r.Err == nil
}

// Converter converts minor-unit amounts between currencies. Rates are cached
// per Pair for the lifetime of the Converter and never expire. A failed fetch
// publishes FetchFailedNotice and switches home-currency display off.
type Converter struct {
	rates    RateFetcher
	cache    cache.Cache[Pair, decimal.Decimal]
	inflight singleflight.Group
	logger   *slog.Logger

	showHome *watch.Value[bool]
	notice   *watch.Value[string]

	// bounds the fan-out of ConvertAll
	concurrency int
}

type Option func(*Converter)

// WithCache uses c as rate cache instead of a fresh in-memory one.
func WithCache(c cache.Cache[Pair, decimal.Decimal]) Option {
	return func(conv *Converter) { conv.cache = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(conv *Converter) { conv.logger = l }
}

// WithConcurrency sets how many rows ConvertAll converts at once.
func WithConcurrency(n int) Option {
	return func(conv *Converter) {
		if n > 0 {
			conv.concurrency = n
		}
	}
}

func NewConverter(rates RateFetcher, opts ...Option) *Converter {
	c := &Converter{
		rates:       rates,
		cache:       cache.NewMemo[Pair, decimal.Decimal](),
		logger:      slog.Default(),
		showHome:    watch.NewValue(false),
		notice:      watch.NewValue(""),
		concurrency: 8,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(applog.FieldComponent, applog.ComponentExchange)
	return c
}

// Convert converts amountCents, expressed in minor units of from, into to.
//
// Identical currencies (case-insensitive) short-circuit to amountCents/100
// without touching cache or network. Otherwise the cached rate is used, or
// fetched once and cached. The product is not rounded.
//
// On fetch failure the error wraps ErrRateUnavailable and the display state
// is reset. If ctx ends first, ctx.Err() is returned and the display state is
// left alone; the fetch still completes in the background and fills the cache.
func (c *Converter) Convert(ctx context.Context, amountCents int64, from, to string) (decimal.Decimal, error) {
	pair := Pair{From: core.NormalizeCurrency(from), To: core.NormalizeCurrency(to)}
	amount := core.MinorUnitsToDecimal(amountCents)
	if pair.From == pair.To {
		return amount, nil
	}

	rate, err := c.rate(ctx, pair)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}

func (c *Converter) rate(ctx context.Context, pair Pair) (decimal.Decimal, error) {
	if r, ok := c.cache.Get(pair); ok {
		c.logger.DebugContext(ctx, "Rate lookup",
			applog.NewFields().WithConversion(pair.From, pair.To, true).ToSlice()...)
		return r, nil
	}

	c.logger.DebugContext(ctx, "Rate lookup",
		applog.NewFields().WithConversion(pair.From, pair.To, false).ToSlice()...)

	// Detached from ctx: a caller that goes away must not abort a fetch other
	// callers are waiting on.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.inflight.DoChan(pair.String(), func() (any, error) {
		if r, ok := c.cache.Get(pair); ok {
			return r, nil
		}
		resp, err := c.rates.Latest(fetchCtx, LatestRequest{From: pair.From, To: pair.To})
		if err != nil {
			return nil, err
		}
		r, ok := resp.Rates[pair.To]
		if !ok {
			return nil, fmt.Errorf("%w: %s", errMissingQuote, pair.To)
		}
		c.cache.Set(pair, r)
		c.logger.InfoContext(fetchCtx, "Rate cached",
			applog.FieldRatePair, pair.String(),
			applog.FieldRate, r.String(),
			"as_of", resp.Date)
		return r, nil
	})

	select {
	case <-ctx.Done():
		return decimal.Zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			c.fail(ctx, pair, res.Err)
			return decimal.Zero, fmt.Errorf("%w: %s: %w", ErrRateUnavailable, pair, res.Err)
		}
		return res.Val.(decimal.Decimal), nil
	}
}

func (c *Converter) fail(ctx context.Context, pair Pair, err error) {
	c.logger.ErrorContext(ctx, "Currency conversion failed",
		applog.FieldRatePair, pair.String(),
		applog.FieldError, err.Error())
	c.notice.Set(FetchFailedNotice)
	c.showHome.Set(false)
}

// ConvertExpense converts the cost of e into home.
func (c *Converter) ConvertExpense(ctx context.Context, e core.Expense, home string) (decimal.Decimal, error) {
	return c.Convert(ctx, e.Cost.Cents, e.Currency, home)
}

// ConvertAsync converts e into home in the background. The returned channel
// is buffered and receives exactly one Result; a receiver that is no longer
// interested can simply drop it. The conversion ignores ctx cancellation so
// that a discarded consumer never counts as a failed fetch.
func (c *Converter) ConvertAsync(ctx context.Context, e core.Expense, home string) <-chan Result {
	out := make(chan Result, 1)
	detached := context.WithoutCancel(ctx)
	go func() {
		amount, err := c.ConvertExpense(detached, e, home)
		out <- Result{
			ExpenseID: e.ID,
			Amount:    amount,
			Currency:  core.NormalizeCurrency(home),
			Err:       err,
		}
	}()
	return out
}

// ConvertAll converts every expense into home concurrently. Expenses whose
// conversion failed are absent from the result; callers show them in their
// original currency. Only cancellation of ctx is returned as an error.
func (c *Converter) ConvertAll(ctx context.Context, expenses []core.Expense, home string) (map[int64]decimal.Decimal, error) {
	var (
		mu  sync.Mutex
		out = make(map[int64]decimal.Decimal, len(expenses))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, e := range expenses {
		g.Go(func() error {
			amount, err := c.ConvertExpense(gctx, e, home)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				return nil
			}
			mu.Lock()
			out[e.ID] = amount
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// CachedRate returns the cached rate for pair, if any.
func (c *Converter) CachedRate(from, to string) (decimal.Decimal, bool) {
	return c.cache.Get(Pair{From: core.NormalizeCurrency(from), To: core.NormalizeCurrency(to)})
}

// ShowInHomeCurrency reports whether amounts should be displayed converted.
func (c *Converter) ShowInHomeCurrency() bool {
	return c.showHome.Get()
}

func (c *Converter) SetShowInHomeCurrency(show bool) {
	c.showHome.Set(show)
}

// ToggleHomeCurrency flips the display flag and returns the new value.
func (c *Converter) ToggleHomeCurrency() bool {
	return c.showHome.Update(func(b bool) bool { return !b })
}

func (c *Converter) ObserveShowInHomeCurrency(ctx context.Context) <-chan bool {
	return c.showHome.Observe(ctx)
}

// Notice returns the pending user facing error message, "" if none.
func (c *Converter) Notice() string {
	return c.notice.Get()
}

func (c *Converter) ClearNotice() {
	c.notice.Set("")
}

func (c *Converter) ObserveNotice(ctx context.Context) <-chan string {
	return c.notice.Observe(ctx)
}
