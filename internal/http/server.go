// Package http exposes the expense tracker as a JSON API with a
// Server-Sent Events stream of the expense list.
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/text/language"

	"expensetracker/internal/core"
	"expensetracker/internal/exchange"
	applog "expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	"expensetracker/internal/services"
)

// snapshotTimeout bounds how long a handler waits for the first result of a
// reactive query.
const snapshotTimeout = 5 * time.Second

// Deps are the collaborators the server needs.
type Deps struct {
	Expenses    *services.ExpenseService
	Preferences *services.PreferenceService
	Converter   *exchange.Converter
	Logger      *applog.Logger

	// RateLimit in ulule format; empty uses the limiter default.
	RateLimit string
	Language  language.Tag
}

type Server struct {
	http.Server
	expenses    *services.ExpenseService
	preferences *services.PreferenceService
	converter   *exchange.Converter
	parser      *RequestParser
	logger      *applog.Logger
	lang        language.Tag

	tracer   *trace.Middleware
	detector *security.Detector
	limiter  *ratelimit.Limiter

	// closed on Shutdown so open event streams end
	done         chan struct{}
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Expenses == nil || deps.Preferences == nil || deps.Converter == nil {
		return nil, errors.New("http server: expenses, preferences and converter are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	limiter, err := ratelimit.NewLimiter(ratelimit.Config{Rate: deps.RateLimit})
	if err != nil {
		return nil, err
	}

	lang := deps.Language
	if lang == language.Und {
		lang = language.English
	}

	detector := security.NewDetector()
	s := &Server{
		expenses:    deps.Expenses,
		preferences: deps.Preferences,
		converter:   deps.Converter,
		parser:      NewRequestParser(),
		logger:      logger,
		lang:        lang,
		tracer:      trace.NewMiddleware(logger, detector.ExtractClientIP),
		detector:    detector,
		limiter:     limiter,
		done:        make(chan struct{}),
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /api/expenses", s.handleListExpenses)
	api.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	api.HandleFunc("GET /api/expenses/stream", s.handleExpenseStream)
	api.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	api.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	api.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	api.HandleFunc("GET /api/expenses/{id}/converted", s.handleConvertedExpense)
	api.HandleFunc("GET /api/categories", s.handleCategories)
	api.HandleFunc("GET /api/currencies", s.handleCurrencies)
	api.HandleFunc("GET /api/convert", s.handleConvert)
	api.HandleFunc("GET /api/settings/home-currency", s.handleGetHomeCurrency)
	api.HandleFunc("PUT /api/settings/home-currency", s.handleSetHomeCurrency)
	api.HandleFunc("GET /api/settings/display", s.handleGetDisplay)
	api.HandleFunc("PUT /api/settings/display", s.handleSetDisplay)
	api.HandleFunc("POST /api/settings/display/toggle", s.handleToggleDisplay)
	api.HandleFunc("GET /api/notice", s.handleGetNotice)
	api.HandleFunc("DELETE /api/notice", s.handleClearNotice)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.Handle("/api/", s.limiter.Middleware(s.detector.ExtractClientIP)(api))

	var h http.Handler = mux
	h = s.detector.Middleware(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = s.tracer.Middleware(h)
	return h
}

// Shutdown ends open event streams, then shuts the HTTP server down.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.done)
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// first returns the first value delivered on the channel produced by open,
// which is the current state of a reactive query.
func first[T any](ctx context.Context, open func(context.Context) <-chan T) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	var zero T
	select {
	case v, ok := <-open(ctx):
		if !ok {
			if err := ctx.Err(); err != nil {
				return zero, err
			}
			return zero, errors.New("query closed without a result")
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// withConversions attaches home currency amounts when the display flag is on.
// Rows whose conversion failed keep their original currency only.
func (s *Server) withConversions(ctx context.Context, expenses []core.Expense) ([]expenseResponse, error) {
	out := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		out[i] = newExpenseResponse(e, s.lang)
	}
	if !s.converter.ShowInHomeCurrency() || len(expenses) == 0 {
		return out, nil
	}

	home, err := s.preferences.HomeCurrency(ctx)
	if err != nil {
		return nil, err
	}
	converted, err := s.converter.ConvertAll(ctx, expenses, home)
	if err != nil {
		return nil, err
	}
	for i, e := range expenses {
		if amount, ok := converted[e.ID]; ok {
			out[i].Converted = newConvertedAmount(amount, home, s.lang)
		}
	}
	return out, nil
}
