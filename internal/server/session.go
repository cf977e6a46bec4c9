// Package server issues the anonymous session identity every HTTP and
// WebSocket request is associated with.
package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// SessionCookieName is the cookie carrying the session identity.
const SessionCookieName = "USERSESSION"

type sessionKey struct{}

// withSession ensures every request carries a session identity. Requests
// without a cookie get a fresh one, set on the response and stored in the
// request context.
func withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityFromCookie(r)
		if !ok {
			identity = uuid.NewString()
			http.SetCookie(w, sessionCookie(identity))
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, identity)))
	})
}

// SessionIdentity returns the identity attached to r by the session middleware.
func SessionIdentity(r *http.Request) (string, bool) {
	identity, ok := r.Context().Value(sessionKey{}).(string)
	return identity, ok && identity != ""
}

func identityFromCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

func sessionCookie(identity string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    identity,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
