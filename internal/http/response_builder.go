package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"expensetracker/internal/core"
	"expensetracker/internal/exchange"
	applog "expensetracker/internal/log"
)

type (
	expenseResponse struct {
		ID        int64            `json:"id"`
		Title     string           `json:"title"`
		Category  string           `json:"category"`
		Cost      string           `json:"cost"`
		CostCents int64            `json:"cost_cents"`
		Store     string           `json:"store"`
		Date      string           `json:"date"`
		Currency  string           `json:"currency"`
		Display   string           `json:"display"`
		Converted *convertedAmount `json:"converted,omitempty"`
	}

	// convertedAmount carries the exact product and its rounded display form.
	convertedAmount struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}

	errorResponse struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields,omitempty"`
	}
)

func newExpenseResponse(e core.Expense, lang language.Tag) expenseResponse {
	return expenseResponse{
		ID:        e.ID,
		Title:     e.Title,
		Category:  e.Category,
		Cost:      e.Cost.String(),
		CostCents: e.Cost.Cents,
		Store:     e.Store,
		Date:      e.Date,
		Currency:  e.Currency,
		Display:   core.FormatDisplay(e.Cost.Decimal(), e.Currency, lang),
	}
}

func newConvertedAmount(amount decimal.Decimal, currency string, lang language.Tag) *convertedAmount {
	return &convertedAmount{
		Amount:   amount.String(),
		Currency: core.NormalizeCurrency(currency),
		Display:  core.FormatDisplay(amount, currency, lang),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error to its HTTP status and client facing body.
func statusFor(err error) (int, errorResponse) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, errorResponse{Error: reqErr.msg, Fields: reqErr.fields}
	case core.IsValidationError(err):
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: core.ErrNotFound.Error()}
	case errors.Is(err, exchange.ErrRateUnavailable):
		return http.StatusBadGateway, errorResponse{Error: exchange.FetchFailedNotice}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, errorResponse{Error: "request cancelled"}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
	}
}

// writeError logs err and writes the mapped response. Only server side
// failures are logged at error level.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, body := statusFor(err)
	logger := applog.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed",
			applog.FieldOperation, op,
			applog.FieldStatusCode, status,
			applog.FieldError, err.Error())
	} else {
		logger.DebugContext(r.Context(), "Request rejected",
			applog.FieldOperation, op,
			applog.FieldStatusCode, status,
			applog.FieldError, err.Error())
	}
	writeJSON(w, status, body)
}
