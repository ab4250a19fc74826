package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func clientIP(r *http.Request) string {
	return r.Header.Get("X-Test-Client")
}

func TestNewLimiterRejectsBadRate(t *testing.T) {
	if _, err := NewLimiter(Config{Rate: "often"}); err == nil {
		t.Fatal("expected error for malformed rate")
	}
}

func TestNewLimiterDefaults(t *testing.T) {
	if _, err := NewLimiter(Config{}); err != nil {
		t.Fatalf("default config: %v", err)
	}
}

func TestMiddlewareLimitsPerClient(t *testing.T) {
	rl, err := NewLimiter(Config{Rate: "2-M"})
	if err != nil {
		t.Fatal(err)
	}
	h := rl.Middleware(clientIP)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(client string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
		req.Header.Set("X-Test-Client", client)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := do("a"); rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: status = %d, want 204", i, rec.Code)
		}
	}

	rec := do("a")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit") != "2" {
		t.Errorf("X-RateLimit-Limit = %q, want 2", rec.Header().Get("X-RateLimit-Limit"))
	}
	if rl.Hits() != 1 {
		t.Errorf("Hits() = %d, want 1", rl.Hits())
	}

	if rec := do("b"); rec.Code != http.StatusNoContent {
		t.Errorf("other client: status = %d, want 204", rec.Code)
	}
}
