package ratelimit

import (
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	applog "expensetracker/internal/log"
)

// Config holds rate limiter configuration
type Config struct {
	// Rate in ulule format, e.g. "300-M" or "10-S".
	Rate string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{Rate: "300-M"}
}

// Limiter limits requests per client IP using an in-memory store.
type Limiter struct {
	limiter *limiter.Limiter
	hits    int64
}

// NewLimiter creates a new rate limiter
func NewLimiter(config Config) (*Limiter, error) {
	if config.Rate == "" {
		config = DefaultConfig()
	}
	rate, err := limiter.NewRateFromFormatted(config.Rate)
	if err != nil {
		return nil, fmt.Errorf("parse rate limit %q: %w", config.Rate, err)
	}
	return &Limiter{limiter: limiter.New(memory.NewStore(), rate)}, nil
}

// Middleware creates HTTP middleware for rate limiting. Responses carry the
// X-RateLimit-* headers; a client over its limit gets 429.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string) func(http.Handler) http.Handler {
	mw := stdlib.NewMiddleware(rl.limiter,
		stdlib.WithKeyGetter(extractIP),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt64(&rl.hits, 1)
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
				applog.FieldClientIP, extractIP(r),
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"Too many requests. Please try again later."}`))
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to get rate limit context",
				applog.FieldClientIP, extractIP(r),
				applog.FieldError, err.Error())
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"Internal server error during rate limit check"}`))
		}),
	)
	return mw.Handler
}

// Hits returns how many requests were rejected so far.
func (rl *Limiter) Hits() int64 {
	return atomic.LoadInt64(&rl.hits)
}
