package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/kartik7310/ProductHub/internal/modules/user"
)

// Middleware validates bearer tokens and attaches the principal to the
// request context.
type Middleware struct {
	accessSecret []byte
}

func NewMiddleware(cfg Config) *Middleware {
	return &Middleware{accessSecret: cfg.AccessSecret}
}

// RequireAuth rejects requests without a valid access token.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
			return
		}
		c, err := parseToken(strings.TrimPrefix(header, "Bearer "), m.accessSecret)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}
		id, err := uuid.Parse(c.Subject)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}
		p := user.Principal{ID: id, Role: user.Role(c.Role)}
		next.ServeHTTP(w, r.WithContext(user.WithPrincipal(r.Context(), p)))
	})
}

// RequireAdmin rejects authenticated requests whose principal is not an admin.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := user.PrincipalFrom(r.Context())
		if !ok || !p.IsAdmin() {
			http.Error(w, `{"error":"admin access required"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
