package session

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

type contextKey struct{}

// FromContext returns the Session injected by Middleware.
func FromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(contextKey{}).(Session)
	return sess, ok
}

// WithSession returns a context carrying the given session. Exposed for
// tests and internal callers that bypass HTTP.
func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// Middleware validates the Bearer token on every request and injects
// the resulting Session into the request context.
func (m *Manager) Middleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				http.Error(w, "authorization required", http.StatusUnauthorized)
				return
			}

			parts := strings.Fields(header)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				http.Error(w, "invalid auth header", http.StatusUnauthorized)
				return
			}

			claims, err := m.ParseToken(parts[1])
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := WithSession(r.Context(), Session{UserID: claims.UserID, Handle: claims.Handle})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
