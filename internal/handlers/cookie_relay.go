package handlers

import (
	"context"
	"net/http"

	"github.com/Lixing-Zhang/storefront/internal/authflow"
	"github.com/Lixing-Zhang/storefront/internal/models"
)

// cookieRelay passes the upstream's Set-Cookie headers from auth calls back
// to the browser, so a successful login leaves the user signed in.
type cookieRelay struct {
	api authflow.API
	w   http.ResponseWriter
}

func (c *cookieRelay) relay(resp *models.AuthResponse, err error) (*models.AuthResponse, error) {
	if resp != nil {
		for _, cookie := range resp.Cookies {
			http.SetCookie(c.w, cookie)
		}
	}
	return resp, err
}

func (c *cookieRelay) LoginEmail(ctx context.Context, req models.LoginEmailRequest) (*models.AuthResponse, error) {
	return c.relay(c.api.LoginEmail(ctx, req))
}

func (c *cookieRelay) LoginPassword(ctx context.Context, req models.LoginPasswordRequest) (*models.AuthResponse, error) {
	return c.relay(c.api.LoginPassword(ctx, req))
}

func (c *cookieRelay) RegisterEmail(ctx context.Context, req models.RegisterEmailRequest) (*models.AuthResponse, error) {
	return c.relay(c.api.RegisterEmail(ctx, req))
}

func (c *cookieRelay) RegisterConfirm(ctx context.Context, req models.RegisterConfirmRequest) (*models.AuthResponse, error) {
	return c.relay(c.api.RegisterConfirm(ctx, req))
}

func (c *cookieRelay) RegisterDetails(ctx context.Context, req models.RegisterDetailsRequest) (*models.AuthResponse, error) {
	return c.relay(c.api.RegisterDetails(ctx, req))
}

func (c *cookieRelay) RegisterExtra(ctx context.Context, req models.RegisterExtraRequest) (*models.AuthResponse, error) {
	return c.relay(c.api.RegisterExtra(ctx, req))
}
