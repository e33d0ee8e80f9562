package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kartik7310/ProductHub/internal/modules/user"
)

func testConfig() Config {
	return Config{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}
}

func TestRequireAuth_AttachesPrincipal(t *testing.T) {
	cfg := testConfig()
	u := &user.User{ID: uuid.New(), Role: user.RoleAdmin}
	token, err := signToken(u, cfg.AccessSecret, cfg.AccessTTL)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	var got user.Principal
	var ok bool
	handler := NewMiddleware(cfg).RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = user.PrincipalFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !ok {
		t.Fatal("Expected a principal on the request context")
	}
	if got.ID != u.ID || !got.IsAdmin() {
		t.Errorf("Unexpected principal: %+v", got)
	}
}

func TestRequireAuth_RejectsBadTokens(t *testing.T) {
	cfg := testConfig()
	u := &user.User{ID: uuid.New(), Role: user.RoleUser}

	expired, err := signToken(u, cfg.AccessSecret, -time.Minute)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	wrongKey, err := signToken(u, []byte("some-other-secret"), time.Minute)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc"},
		{"garbage", "Bearer not.a.token"},
		{"expired", "Bearer " + expired},
		{"wrong key", "Bearer " + wrongKey},
	}

	handler := NewMiddleware(cfg).RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler must not run without a valid token")
	}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := NewMiddleware(testConfig()).RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	adminCtx := user.WithPrincipal(httptest.NewRequest(http.MethodGet, "/", nil).Context(),
		user.Principal{ID: uuid.New(), Role: user.RoleAdmin})
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(adminCtx)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected admin through, got %d", rec.Code)
	}

	userCtx := user.WithPrincipal(httptest.NewRequest(http.MethodGet, "/", nil).Context(),
		user.Principal{ID: uuid.New(), Role: user.RoleUser})
	req = httptest.NewRequest(http.MethodGet, "/", nil).WithContext(userCtx)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-admin, got %d", rec.Code)
	}
}
