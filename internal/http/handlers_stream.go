package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

const keepAliveInterval = 30 * time.Second

// handleExpenseStream serves GET /api/expenses/stream?category= as
// Server-Sent Events. An "expenses" event carries the full list; it is sent on
// connect, after every write and when the display flag or the home currency
// changes. A "notice" event carries the pending conversion error message.
func (s *Server) handleExpenseStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, applog.OpList, fmt.Errorf("streaming unsupported by %T", w))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	// read before subscribing so a change in between is not missed
	lastShow := s.converter.ShowInHomeCurrency()
	lastHome, _ := s.preferences.HomeCurrency(ctx)

	category := sanitizeInput(r.URL.Query().Get("category"))
	expenses := s.expenses.ObserveExpenses(ctx, category)
	notices := s.converter.ObserveNotice(ctx)
	display := s.converter.ObserveShowInHomeCurrency(ctx)
	homes := s.preferences.ObserveHomeCurrency(ctx)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logger := applog.FromContext(ctx)
	logger.DebugContext(ctx, "Expense stream opened", applog.FieldCategory, category)
	defer logger.DebugContext(ctx, "Expense stream closed", applog.FieldCategory, category)

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	var (
		latest   []core.Expense
		haveList bool
	)
	sendList := func() bool {
		out, err := s.withConversions(ctx, latest)
		if err != nil {
			return false
		}
		return writeEvent(w, flusher, "expenses", out) == nil
	}

	for {
		select {
		case <-ctx.Done():
			return
		case list, ok := <-expenses:
			if !ok {
				return
			}
			latest, haveList = list, true
			if !sendList() {
				return
			}
		case n, ok := <-notices:
			if !ok {
				return
			}
			if writeEvent(w, flusher, "notice", noticeResponse{Notice: n}) != nil {
				return
			}
		case v, ok := <-display:
			if !ok {
				return
			}
			changed := v != lastShow
			lastShow = v
			if changed && haveList && !sendList() {
				return
			}
		case v, ok := <-homes:
			if !ok {
				return
			}
			changed := v != lastHome
			lastHome = v
			if changed && haveList && !sendList() {
				return
			}
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, f http.Flusher, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	f.Flush()
	return nil
}
