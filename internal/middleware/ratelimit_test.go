package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiter_Limit(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login/email", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("10.0.0.1:5000"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, code)
		}
	}
	if code := send("10.0.0.1:5001"); code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429 once the burst is spent", code)
	}
	if code := send("10.0.0.2:5000"); code != http.StatusOK {
		t.Errorf("other clients keep their own budget, got %d", code)
	}
}

func TestRateLimiter_Prune(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	rl.GetLimiter("idle")
	rl.GetLimiter("busy").Allow()

	rl.prune()

	if _, ok := rl.visitors["idle"]; ok {
		t.Error("idle visitor should be pruned")
	}
	if _, ok := rl.visitors["busy"]; !ok {
		t.Error("busy visitor should be kept")
	}
}
