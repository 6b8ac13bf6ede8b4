package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Lixing-Zhang/storefront/internal/service"
	"github.com/Lixing-Zhang/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
)

var basketJSON = map[string]any{
	"items": []map[string]any{{
		"id":         1,
		"product_id": 10,
		"type":       "courserun",
		"price":      "100.00",
		"courses": []map[string]any{{
			"id":         3,
			"title":      "Intro",
			"courseruns": []map[string]any{{"id": 31}, {"id": 32}},
		}},
		"run_ids": []int{31},
	}},
	"coupons": []map[string]any{{
		"code":    "SAVE20",
		"amount":  "0.20",
		"targets": []int{1},
	}},
	"data_consents": []any{},
}

func newCartRouter(t *testing.T, routes func(r chi.Router)) http.Handler {
	t.Helper()

	api := newUpstream(t, routes)
	h := NewCartHandler(service.NewCheckoutService(api, nil, logger.Discard()), logger.Discard())

	r := chi.NewRouter()
	r.Get("/api/cart", h.GetCart)
	r.Post("/api/cart/coupon", h.ApplyCoupon)
	r.Post("/api/cart/run", h.SelectRun)
	r.Post("/api/checkout", h.Checkout)
	return r
}

func TestCartHandler_GetCart(t *testing.T) {
	router := newCartRouter(t, func(r chi.Router) {
		r.Get("/api/basket/", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, basketJSON)
		})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cart", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	cart := decodeBody[service.Cart](t, w)
	if cart.Summary.FormattedTotal != "$80" {
		t.Errorf("total = %s, want $80", cart.Summary.FormattedTotal)
	}
	if cart.Summary.FormattedDiscount != "$20" {
		t.Errorf("discount = %s, want $20", cart.Summary.FormattedDiscount)
	}
}

func TestCartHandler_ApplyCoupon(t *testing.T) {
	router := newCartRouter(t, func(r chi.Router) {
		r.Patch("/api/basket/", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Coupons []map[string]string `json:"coupons"`
			}
			_ = decodeJSONBody(r, &body)
			if len(body.Coupons) == 1 && body.Coupons[0]["code"] == "BAD" {
				respondJSON(w, http.StatusBadRequest, map[string]any{
					"errors": map[string]string{"coupons": "Enter a valid coupon code"},
				})
				return
			}
			respondJSON(w, http.StatusOK, basketJSON)
		})
	})

	tests := []struct {
		name           string
		code           string
		expectedStatus int
		expectedError  string
	}{
		{name: "valid code", code: "SAVE20", expectedStatus: http.StatusOK},
		{name: "clear code", code: "", expectedStatus: http.StatusOK},
		{name: "rejected code", code: "BAD", expectedStatus: http.StatusUnprocessableEntity, expectedError: "Enter a valid coupon code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, jsonRequest(t, http.MethodPost, "/api/cart/coupon", map[string]string{"code": tt.code}))

			if w.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.expectedStatus, w.Body.String())
			}
			if tt.expectedError != "" {
				resp := decodeBody[ErrorResponse](t, w)
				if resp.FieldErrors["coupons"] != tt.expectedError {
					t.Errorf("field errors = %v", resp.FieldErrors)
				}
			}
		})
	}
}

func TestCartHandler_SelectRun(t *testing.T) {
	router := newCartRouter(t, func(r chi.Router) {
		r.Get("/api/basket/", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, basketJSON)
		})
		r.Patch("/api/basket/", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, basketJSON)
		})
	})

	tests := []struct {
		name           string
		body           map[string]int64
		expectedStatus int
	}{
		{name: "valid run", body: map[string]int64{"item_id": 1, "run_id": 32}, expectedStatus: http.StatusOK},
		{name: "foreign run", body: map[string]int64{"item_id": 1, "run_id": 99}, expectedStatus: http.StatusUnprocessableEntity},
		{name: "unknown item", body: map[string]int64{"item_id": 7, "run_id": 32}, expectedStatus: http.StatusNotFound},
		{name: "missing run", body: map[string]int64{"item_id": 1}, expectedStatus: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, jsonRequest(t, http.MethodPost, "/api/cart/run", tt.body))

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.expectedStatus, w.Body.String())
			}
		})
	}
}

func TestCartHandler_Checkout(t *testing.T) {
	router := newCartRouter(t, func(r chi.Router) {
		r.Get("/api/basket/", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, basketJSON)
		})
		r.Post("/api/checkout/", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, map[string]any{
				"method":  "POST",
				"url":     "https://pay.example.com/pay",
				"payload": map[string]string{"signature": "a<b"},
			})
		})
	})

	t.Run("json", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/checkout", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
		action := decodeBody[service.PaymentAction](t, w)
		if action.URL != "https://pay.example.com/pay" || action.Fields["signature"] != "a<b" {
			t.Errorf("unexpected action: %+v", action)
		}
	})

	t.Run("html", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/checkout?format=html", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
		body := w.Body.String()
		if !strings.Contains(body, `action="https://pay.example.com/pay"`) {
			t.Errorf("form does not post to the gateway: %s", body)
		}
		if !strings.Contains(body, `name="signature" value="a&lt;b"`) {
			t.Errorf("payload not escaped into hidden input: %s", body)
		}
	})
}

func TestCartHandler_CheckoutEmptyBasket(t *testing.T) {
	router := newCartRouter(t, func(r chi.Router) {
		r.Get("/api/basket/", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, map[string]any{"items": []any{}, "coupons": []any{}})
		})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/checkout", nil))

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
}
