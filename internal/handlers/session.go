package handlers

import (
	"net/http"

	"github.com/google/uuid"
)

// SessionCookieName holds the id the auth flow state is stored under.
const SessionCookieName = "storefront_session"

// sessionID returns the caller's session id, issuing a new cookie when the
// request has none or carries a malformed one.
func sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
