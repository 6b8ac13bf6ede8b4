package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, r http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return New(srv.URL, 2*time.Second, logger.Discard())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_LoginEmail(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/login/email/", func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginEmailRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ada@example.com", req.Email)
		assert.Equal(t, "login", req.Flow)
		assert.Equal(t, "sessionid=abc", r.Header.Get("Cookie"))

		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "xyz"})
		writeJSON(w, http.StatusOK, map[string]any{
			"flow":          "login",
			"state":         "login/password",
			"partial_token": "tok-1",
			"errors":        []string{},
			"field_errors":  map[string]string{},
			"extra_data":    map[string]string{"name": "Ada"},
		})
	})
	c := newTestClient(t, r)

	browser := httptest.NewRequest(http.MethodPost, "/", nil)
	browser.Header.Set("Cookie", "sessionid=abc")
	ctx := WithForwardedHeaders(context.Background(), browser)

	resp, err := c.LoginEmail(ctx, models.LoginEmailRequest{Email: "ada@example.com", Flow: "login"})
	require.NoError(t, err)
	assert.Equal(t, "login/password", resp.State)
	assert.Equal(t, "tok-1", resp.PartialToken)
	assert.Equal(t, "Ada", resp.ExtraData.Name)
	require.Len(t, resp.Cookies, 1)
	assert.Equal(t, "csrftoken", resp.Cookies[0].Name)
}

func TestClient_AuthStepDecodesClientErrors(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/login/password/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"state":        "error",
			"field_errors": map[string]string{"password": "Invalid password"},
		})
	})
	c := newTestClient(t, r)

	resp, err := c.LoginPassword(context.Background(), models.LoginPasswordRequest{PartialToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, "Invalid password", resp.FieldErrors["password"])
}

func TestClient_TransportErrors(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/register/email/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	r.Post("/api/register/details/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	})
	c := newTestClient(t, r)

	t.Run("5xx", func(t *testing.T) {
		_, err := c.RegisterEmail(context.Background(), models.RegisterEmailRequest{Email: "a@b.co"})
		assert.ErrorIs(t, err, ErrTransport)

		var te *TransportError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, http.StatusBadGateway, te.StatusCode)
	})

	t.Run("unreadable body", func(t *testing.T) {
		_, err := c.RegisterDetails(context.Background(), models.RegisterDetailsRequest{})
		assert.ErrorIs(t, err, ErrTransport)
	})

	t.Run("connection refused", func(t *testing.T) {
		dead := New("http://127.0.0.1:1", 500*time.Millisecond, logger.Discard())
		_, err := dead.RegisterExtra(context.Background(), models.RegisterExtraRequest{})
		assert.ErrorIs(t, err, ErrTransport)
	})
}

func TestClient_Basket(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/basket/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"items": []map[string]any{
				{"id": 3, "product_id": 30, "type": "courserun", "price": "100.00", "courses": []any{}, "run_ids": []int{7}},
			},
			"coupons": []map[string]any{
				{"code": "SAVE20", "amount": "0.20", "targets": []int{3}},
			},
			"data_consents": []any{},
		})
	})
	r.Patch("/api/basket/", func(w http.ResponseWriter, r *http.Request) {
		var patch map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
		assert.NotContains(t, patch, "items")
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"errors": map[string]any{"coupons": []string{"Enter a valid coupon code"}},
		})
	})
	c := newTestClient(t, r)

	basket, err := c.GetBasket(context.Background())
	require.NoError(t, err)
	require.Len(t, basket.Items, 1)
	assert.True(t, basket.Items[0].Price.Equal(decimal.RequireFromString("100")))
	assert.True(t, basket.Coupons[0].AppliesTo(3))

	coupons := []models.CouponPatch{{Code: "NOPE"}}
	_, err = c.PatchBasket(context.Background(), models.BasketPatch{Coupons: &coupons})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "Enter a valid coupon code", ve.FieldErrors["coupons"])
}

func TestClient_Checkout(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/checkout/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.CheckoutResponse{
			Method:  "POST",
			URL:     "https://pay.example.com/pay",
			Payload: map[string]string{"signature": "abc"},
		})
	})
	r.Post("/api/b2b/checkout/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.CheckoutResponse{})
	})
	c := newTestClient(t, r)

	out, err := c.Checkout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", out.Payload["signature"])

	_, err = c.BulkCheckout(context.Background(), models.BulkCheckoutRequest{NumSeats: 1})
	assert.ErrorIs(t, err, ErrTransport, "a checkout answer without url is unusable")
}

func TestClient_B2B(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/b2b/coupon_status/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("code") != "BULK10" {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
			return
		}
		assert.Equal(t, "12", r.URL.Query().Get("product_id"))
		writeJSON(w, http.StatusOK, map[string]any{"code": "BULK10", "product_id": 12, "discount_percent": "0.1"})
	})
	r.Get("/api/b2b/orders/{hash}/status/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "fulfilled", "num_seats": 4, "item_price": "10", "total_price": "40"})
	})
	c := newTestClient(t, r)

	status, err := c.B2BCouponStatus(context.Background(), "BULK10", 12)
	require.NoError(t, err)
	assert.Equal(t, "0.1", status.DiscountPercent.String())

	_, err = c.B2BCouponStatus(context.Background(), "WRONG", 12)
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))

	order, err := c.B2BOrderStatus(context.Background(), "hash-1")
	require.NoError(t, err)
	assert.True(t, order.Done())
	assert.Equal(t, 4, order.NumSeats)
}

func TestClient_Unauthorized(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/products/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	c := newTestClient(t, r)

	_, err := c.ListProducts(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestParseFieldErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want map[string]string
	}{
		{"wrapped strings", `{"errors":{"items":"Invalid run"}}`, map[string]string{"items": "Invalid run"}},
		{"flat lists", `{"promo_code":["Already exists."]}`, map[string]string{"promo_code": "Already exists."}},
		{"list of strings", `{"errors":["Basket is empty"]}`, map[string]string{"non_field_errors": "Basket is empty"}},
		{"plain text", `nope`, map[string]string{"non_field_errors": "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseFieldErrors([]byte(tt.body)))
		})
	}
}
