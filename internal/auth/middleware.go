package auth

import (
	"context"
	"net/http"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. With a plain string key, ANY
// package that knows the string could read or shadow the value. A
// package-private type means only this package can put usernames into (or
// read them out of) a request context.
type contextKey string

const usernameKey contextKey = "username"

// Anonymous is what CurrentUser reports for a request with no valid session.
const Anonymous = "anonymous"

// RequireAuth enforces authentication on protected routes.
//
// It reads the session JWT from the cookie, validates it, and stores the
// username in the request context. Missing or invalid token → 401 and the
// chain stops.
func RequireAuth(sessions *SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, err := extractUsername(r, sessions)
			if err != nil {
				http.Error(w, `{"error":"unauthorized","message":"login required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), usernameKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth extracts the user identity if a valid session is present but
// never blocks the request. Used on public routes like GET /api/informations
// where anonymous users can read but logged-in users get a per-viewer
// `liked` flag.
func OptionalAuth(sessions *SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if username, err := extractUsername(r, sessions); err == nil && username != "" {
				ctx := context.WithValue(r.Context(), usernameKey, username)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UsernameFromContext retrieves the authenticated username.
// Returns ("", false) for an anonymous request.
func UsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey).(string)
	return username, ok && username != ""
}

// CurrentUser returns the bound username, or Anonymous. Never fails.
func CurrentUser(ctx context.Context) string {
	if username, ok := UsernameFromContext(ctx); ok {
		return username
	}
	return Anonymous
}

// extractUsername reads the session cookie and validates it.
func extractUsername(r *http.Request, sessions *SessionService) (string, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		// http.ErrNoCookie — not an error, just anonymous
		return "", err
	}

	return sessions.Validate(cookie.Value)
}
