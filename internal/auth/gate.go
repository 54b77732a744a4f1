package auth

import (
	"context"
	"net/http"
	"strings"
)

// SessionCookie is the cookie carrying the admin session token.
const SessionCookie = "cjk_session"

type contextKey string

const userKey contextKey = "authUser"

// Gate protects admin routes. While the manager is still resolving it asks
// the client to retry; once resolved, unauthenticated callers get a one-way
// 303 redirect to signInPath with caching disabled so a back-navigation
// cannot re-enter the protected view. Authenticated callers proceed with
// their identity in the request context.
func Gate(m *Manager, signInPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.Loading() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "session state resolving", http.StatusServiceUnavailable)
				return
			}

			sess := m.Resolve(r.Context(), TokenFromRequest(r))
			if sess == nil {
				w.Header().Set("Cache-Control", "no-store")
				http.Redirect(w, r, signInPath, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), sess.User)))
		})
	}
}

// TokenFromRequest extracts the session token from the session cookie or an
// Authorization bearer header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// WithUser attaches the authenticated user to ctx.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFrom returns the authenticated user attached by Gate.
func UserFrom(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey).(User)
	return u, ok
}
