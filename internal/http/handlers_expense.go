package http

import (
	"context"
	"net/http"
	"strings"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

// handleListExpenses serves GET /api/expenses. ?title= searches by title,
// otherwise ?category= filters, blank meaning every category.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	title := sanitizeInput(q.Get("title"))
	category := sanitizeInput(q.Get("category"))

	expenses, err := first(r.Context(), func(ctx context.Context) <-chan []core.Expense {
		if title != "" {
			return s.expenses.SearchByTitle(ctx, title)
		}
		return s.expenses.ObserveExpenses(ctx, category)
	})
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}

	out, err := s.withConversions(r.Context(), expenses)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := s.parser.DecodeJSON(r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}

	e, err := s.expenses.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}

	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogExpenseWritten(r.Context(), applog.OpCreate, e.ID, e.Title, e.Category, e.Cost.Cents, e.Currency)
	w.Header().Set("Location", "/api/expenses/"+itoa(e.ID))
	writeJSON(w, http.StatusCreated, newExpenseResponse(e, s.lang))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	e, err := s.expenses.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, newExpenseResponse(e, s.lang))
}

// handleUpdateExpense replaces every field of the expense.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	var req expenseRequest
	if err := s.parser.DecodeJSON(r, &req); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}

	e, err := s.expenses.Update(r.Context(), id, req.input())
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}

	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogExpenseWritten(r.Context(), applog.OpUpdate, e.ID, e.Title, e.Category, e.Cost.Cents, e.Currency)
	writeJSON(w, http.StatusOK, newExpenseResponse(e, s.lang))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.expenses.Delete(r.Context(), id); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldExpenseID, id)
	w.WriteHeader(http.StatusNoContent)
}

// handleConvertedExpense converts one expense into the home currency,
// regardless of the display flag.
func (s *Server) handleConvertedExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpConvert, err)
		return
	}
	e, err := s.expenses.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, applog.OpConvert, err)
		return
	}
	home, err := s.preferences.HomeCurrency(r.Context())
	if err != nil {
		writeError(w, r, applog.OpConvert, err)
		return
	}

	amount, err := s.converter.ConvertExpense(r.Context(), e, home)
	if err != nil {
		writeError(w, r, applog.OpConvert, err)
		return
	}

	resp := newExpenseResponse(e, s.lang)
	resp.Converted = newConvertedAmount(amount, home, s.lang)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := first(r.Context(), s.expenses.ObserveCategories)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	if cats == nil {
		cats = []string{}
	}
	writeJSON(w, http.StatusOK, cats)
}

// handleCurrencies lists supported codes; ?q= filters by substring.
func (s *Server) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	codes := s.expenses.Currencies().Filter(strings.TrimSpace(r.URL.Query().Get("q")))
	if codes == nil {
		codes = []string{}
	}
	writeJSON(w, http.StatusOK, codes)
}
