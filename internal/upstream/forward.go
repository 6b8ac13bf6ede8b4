package upstream

import (
	"context"
	"net/http"
)

type forwardKey struct{}

// HeaderCSRFToken carries the upstream's CSRF token from the browser.
const HeaderCSRFToken = "X-CSRFToken"

// Headers forwarded from the browser request to the upstream.
var forwardedHeaders = []string{"Cookie", HeaderCSRFToken, "Accept-Language"}

// WithForwardedHeaders copies the browser's session headers into ctx so the
// client can act on the user's behalf.
func WithForwardedHeaders(ctx context.Context, r *http.Request) context.Context {
	h := make(http.Header, len(forwardedHeaders))
	for _, name := range forwardedHeaders {
		if v := r.Header.Get(name); v != "" {
			h.Set(name, v)
		}
	}
	return context.WithValue(ctx, forwardKey{}, h)
}

func forwardedFrom(ctx context.Context) http.Header {
	h, _ := ctx.Value(forwardKey{}).(http.Header)
	return h
}
