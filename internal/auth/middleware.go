package auth

import (
	"context"
	"net/http"
)

// contextKey is an unexported type for this package's context keys, so no
// other package can read or shadow the values we store in a request context.
type contextKey string

const usernameKey contextKey = "username"

// CookieName is the session cookie. HttpOnly keeps it out of reach of
// page scripts.
const CookieName = "token"

// RequireAuth enforces the Anonymous → Authenticated gate on protected
// routes. It reads the session JWT from the cookie, validates it, and puts
// the username in the request context. Missing or invalid tokens stop the
// chain with 401 — anonymous requests never reach playlist or profile
// handlers.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, err := extractUsername(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
				return
			}

			ctx := context.WithValue(r.Context(), usernameKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UsernameFromContext retrieves the authenticated username from the request
// context. Returns ("", false) for anonymous requests.
func UsernameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(usernameKey).(string)
	return name, ok && name != ""
}

// extractUsername reads the session cookie and validates the JWT inside it.
func extractUsername(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", err
	}
	return tokens.Validate(cookie.Value)
}
