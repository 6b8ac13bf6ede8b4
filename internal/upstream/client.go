// Package upstream is the JSON client for the e-commerce and auth API the
// storefront fronts.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/go-resty/resty/v2"
)

const maxErrorBody = 256

// Client calls the upstream API. It never retries; callers surface failures
// to the user, who retries by resubmitting.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// New creates a client for baseURL with a per-request timeout.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetCookieJar(nil)

	rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		for name, values := range forwardedFrom(r.Context()) {
			if len(values) > 0 {
				r.SetHeader(name, values[0])
			}
		}
		return nil
	})

	return &Client{http: rc, logger: logger}
}

func (c *Client) do(ctx context.Context, op, method, path string, body any, query map[string]string) (*resty.Response, error) {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.WarnContext(ctx, "upstream request failed", "op", op, "error", err)
		return nil, &TransportError{Op: op, Err: err}
	}

	c.logger.DebugContext(ctx, "upstream request",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode() >= http.StatusInternalServerError {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode(), Err: errors.New(snippet(resp.Body()))}
	}
	return resp, nil
}

// checkStatus maps non-2xx answers onto the package's error types.
func checkStatus(op string, resp *resty.Response) error {
	switch code := resp.StatusCode(); {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusBadRequest:
		return &ValidationError{Op: op, FieldErrors: parseFieldErrors(resp.Body())}
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	case code == http.StatusNotFound:
		return &NotFoundError{Op: op}
	default:
		return &TransportError{Op: op, StatusCode: code, Err: errors.New(snippet(resp.Body()))}
	}
}

func decode[T any](op string, resp *resty.Response, out *T) error {
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode(), Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

func snippet(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}

// authStep posts one step of the login/registration flow. The auth endpoints
// answer 4xx with a regular AuthResponse body, so those are decoded too.
func (c *Client) authStep(ctx context.Context, op, path string, body any) (*models.AuthResponse, error) {
	resp, err := c.do(ctx, op, http.MethodPost, path, body, nil)
	if err != nil {
		return nil, err
	}

	var out models.AuthResponse
	if err := decode(op, resp, &out); err != nil {
		return nil, err
	}
	if out.State == "" {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode(), Err: errors.New("response carries no auth state")}
	}
	out.Cookies = resp.Cookies()
	return &out, nil
}

// LoginEmail calls POST /api/login/email/.
func (c *Client) LoginEmail(ctx context.Context, req models.LoginEmailRequest) (*models.AuthResponse, error) {
	return c.authStep(ctx, "login email", "/api/login/email/", req)
}

// LoginPassword calls POST /api/login/password/.
func (c *Client) LoginPassword(ctx context.Context, req models.LoginPasswordRequest) (*models.AuthResponse, error) {
	return c.authStep(ctx, "login password", "/api/login/password/", req)
}

// RegisterEmail calls POST /api/register/email/.
func (c *Client) RegisterEmail(ctx context.Context, req models.RegisterEmailRequest) (*models.AuthResponse, error) {
	return c.authStep(ctx, "register email", "/api/register/email/", req)
}

// RegisterConfirm calls POST /api/register/confirm/.
func (c *Client) RegisterConfirm(ctx context.Context, req models.RegisterConfirmRequest) (*models.AuthResponse, error) {
	return c.authStep(ctx, "register confirm", "/api/register/confirm/", req)
}

// RegisterDetails calls POST /api/register/details/.
func (c *Client) RegisterDetails(ctx context.Context, req models.RegisterDetailsRequest) (*models.AuthResponse, error) {
	return c.authStep(ctx, "register details", "/api/register/details/", req)
}

// RegisterExtra calls POST /api/register/extra/.
func (c *Client) RegisterExtra(ctx context.Context, req models.RegisterExtraRequest) (*models.AuthResponse, error) {
	return c.authStep(ctx, "register extra", "/api/register/extra/", req)
}

// fetch performs a call whose 2xx body decodes into T.
func fetch[T any](ctx context.Context, c *Client, op, method, path string, body any, query map[string]string) (T, error) {
	var out T
	resp, err := c.do(ctx, op, method, path, body, query)
	if err != nil {
		return out, err
	}
	if err := checkStatus(op, resp); err != nil {
		return out, err
	}
	err = decode(op, resp, &out)
	return out, err
}

// GetBasket calls GET /api/basket/.
func (c *Client) GetBasket(ctx context.Context) (*models.Basket, error) {
	basket, err := fetch[models.Basket](ctx, c, "get basket", http.MethodGet, "/api/basket/", nil, nil)
	if err != nil {
		return nil, err
	}
	return &basket, nil
}

// PatchBasket calls PATCH /api/basket/ and returns the updated snapshot.
func (c *Client) PatchBasket(ctx context.Context, patch models.BasketPatch) (*models.Basket, error) {
	basket, err := fetch[models.Basket](ctx, c, "patch basket", http.MethodPatch, "/api/basket/", patch, nil)
	if err != nil {
		return nil, err
	}
	return &basket, nil
}

// Checkout calls POST /api/checkout/.
func (c *Client) Checkout(ctx context.Context) (*models.CheckoutResponse, error) {
	return c.checkout(ctx, "checkout", "/api/checkout/", struct{}{})
}

// BulkCheckout calls POST /api/b2b/checkout/.
func (c *Client) BulkCheckout(ctx context.Context, req models.BulkCheckoutRequest) (*models.CheckoutResponse, error) {
	return c.checkout(ctx, "bulk checkout", "/api/b2b/checkout/", req)
}

func (c *Client) checkout(ctx context.Context, op, path string, body any) (*models.CheckoutResponse, error) {
	out, err := fetch[models.CheckoutResponse](ctx, c, op, http.MethodPost, path, body, nil)
	if err != nil {
		return nil, err
	}
	if out.URL == "" {
		return nil, &TransportError{Op: op, Err: errors.New("checkout response has no url")}
	}
	return &out, nil
}

// B2BCouponStatus calls GET /api/b2b/coupon_status/. An unknown code is a NotFoundError.
func (c *Client) B2BCouponStatus(ctx context.Context, code string, productID int64) (*models.B2BCouponStatus, error) {
	out, err := fetch[models.B2BCouponStatus](ctx, c, "b2b coupon status", http.MethodGet, "/api/b2b/coupon_status/", nil,
		map[string]string{
			"code":       code,
			"product_id": strconv.FormatInt(productID, 10),
		})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// B2BOrderStatus calls GET /api/b2b/orders/{hash}/status/.
func (c *Client) B2BOrderStatus(ctx context.Context, hash string) (*models.B2BOrderStatus, error) {
	path := "/api/b2b/orders/" + url.PathEscape(hash) + "/status/"
	out, err := fetch[models.B2BOrderStatus](ctx, c, "b2b order status", http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProducts calls GET /api/products/.
func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	return fetch[[]models.Product](ctx, c, "list products", http.MethodGet, "/api/products/", nil, nil)
}

// ListCompanies calls GET /api/companies/.
func (c *Client) ListCompanies(ctx context.Context) ([]models.Company, error) {
	return fetch[[]models.Company](ctx, c, "list companies", http.MethodGet, "/api/companies/", nil, nil)
}

// CreateCoupons calls POST /api/coupons/.
func (c *Client) CreateCoupons(ctx context.Context, req models.CouponRequest) (*models.CouponPaymentVersion, error) {
	out, err := fetch[models.CouponPaymentVersion](ctx, c, "create coupons", http.MethodPost, "/api/coupons/", req, nil)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
