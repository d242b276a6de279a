package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllow(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	l := NewLimiter(Config{RequestsPerMinute: 2})
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := l.Allow("u1"); !ok {
			t.Fatalf("request %d rejected", i+1)
		}
	}
	ok, retry := l.Allow("u1")
	if ok || retry != time.Minute {
		t.Fatalf("third request = %v, %v", ok, retry)
	}
	if ok, _ := l.Allow("u2"); !ok {
		t.Fatal("other key limited")
	}

	now = now.Add(time.Minute)
	if ok, _ := l.Allow("u1"); !ok {
		t.Fatal("window did not reset")
	}

	now = now.Add(5 * time.Minute)
	if n := l.sweep(); n != 2 || l.ActiveClients() != 0 {
		t.Fatalf("sweep removed %d, %d left", n, l.ActiveClients())
	}
}

func TestMiddleware(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 1})
	h := l.Middleware(func(*http.Request) string { return "k" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests && rec.Header().Get("Retry-After") == "" {
			t.Error("missing Retry-After")
		}
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
}

func TestStopIdempotent(t *testing.T) {
	l := NewLimiter(DefaultConfig())
	l.Start()
	l.Stop()
	l.Stop()
}
