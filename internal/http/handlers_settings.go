package http

import (
	"net/http"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

type (
	homeCurrencyResponse struct {
		Currency string `json:"currency"`
	}

	displayResponse struct {
		ShowInHomeCurrency bool `json:"show_in_home_currency"`
	}

	noticeResponse struct {
		Notice string `json:"notice"`
	}

	convertResponse struct {
		Amount  string `json:"amount"`
		From    string `json:"from"`
		To      string `json:"to"`
		Result  string `json:"result"`
		Display string `json:"display"`
	}
)

// handleConvert serves GET /api/convert?amount=&from=&to=. amount is decimal
// text parsed by the monetary codec; the result is not rounded.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	q, err := s.parser.ParseConvertQuery(r)
	if err != nil {
		writeError(w, r, applog.OpConvert, err)
		return
	}
	cents, err := core.ParseToMinorUnits(q.Amount)
	if err != nil {
		writeError(w, r, applog.OpConvert, err)
		return
	}
	registry := s.expenses.Currencies()
	from, err := registry.Validate(q.From)
	if err != nil {
		writeError(w, r, applog.OpConvert, err)
		return
	}
	to, err := registry.Validate(q.To)
	if err != nil {
		writeError(w, r, applog.OpConvert, err)
		return
	}

	result, err := s.converter.Convert(r.Context(), cents, from, to)
	if err != nil {
		writeError(w, r, applog.OpConvert, err)
		return
	}
	writeJSON(w, http.StatusOK, convertResponse{
		Amount:  core.FormatMinorUnits(cents),
		From:    from,
		To:      to,
		Result:  result.String(),
		Display: core.FormatDisplay(result, to, s.lang),
	})
}

func (s *Server) handleGetHomeCurrency(w http.ResponseWriter, r *http.Request) {
	home, err := s.preferences.HomeCurrency(r.Context())
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, homeCurrencyResponse{Currency: home})
}

func (s *Server) handleSetHomeCurrency(w http.ResponseWriter, r *http.Request) {
	var req homeCurrencyRequest
	if err := s.parser.DecodeJSON(r, &req); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	home, err := s.preferences.SetHomeCurrency(r.Context(), req.Currency)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Home currency changed",
		applog.FieldHomeCurrency, home)
	writeJSON(w, http.StatusOK, homeCurrencyResponse{Currency: home})
}

func (s *Server) handleGetDisplay(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, displayResponse{ShowInHomeCurrency: s.converter.ShowInHomeCurrency()})
}

func (s *Server) handleSetDisplay(w http.ResponseWriter, r *http.Request) {
	var req displayRequest
	if err := s.parser.DecodeJSON(r, &req); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	s.converter.SetShowInHomeCurrency(*req.ShowInHomeCurrency)
	writeJSON(w, http.StatusOK, displayResponse{ShowInHomeCurrency: *req.ShowInHomeCurrency})
}

func (s *Server) handleToggleDisplay(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, displayResponse{ShowInHomeCurrency: s.converter.ToggleHomeCurrency()})
}

func (s *Server) handleGetNotice(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, noticeResponse{Notice: s.converter.Notice()})
}

func (s *Server) handleClearNotice(w http.ResponseWriter, r *http.Request) {
	s.converter.ClearNotice()
	w.WriteHeader(http.StatusNoContent)
}
