package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Lixing-Zhang/storefront/pkg/logger"
)

func TestHealthHandler(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h := NewHealthHandler(logger.Discard(), "test").
			AddCheck("redis", func(context.Context) error { return nil })

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
		resp := decodeBody[HealthResponse](t, w)
		if resp.Status != "healthy" || resp.Checks["redis"] != "ok" || resp.Version != "test" {
			t.Errorf("unexpected response: %+v", resp)
		}
	})

	t.Run("degraded", func(t *testing.T) {
		h := NewHealthHandler(logger.Discard(), "test").
			AddCheck("redis", func(context.Context) error { return errors.New("connection refused") })

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected status 503, got %d", w.Code)
		}
		resp := decodeBody[HealthResponse](t, w)
		if resp.Status != "degraded" || resp.Checks["redis"] != "unavailable" {
			t.Errorf("unexpected response: %+v", resp)
		}
	})
}
