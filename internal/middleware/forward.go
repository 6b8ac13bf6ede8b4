package middleware

import (
	"net/http"

	"github.com/Lixing-Zhang/storefront/internal/upstream"
)

// ForwardSession makes the browser's session headers available to upstream
// calls made while serving the request.
func ForwardSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(upstream.WithForwardedHeaders(r.Context(), r)))
	})
}
