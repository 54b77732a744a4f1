package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"carikerja/listing-service/internal/auth"
)

func protected(t *testing.T, m *auth.Manager) http.Handler {
	t.Helper()
	return auth.Gate(m, "/login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.UserFrom(r.Context()); !ok {
			t.Error("gate passed a request without a user in context")
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func TestGate_WaitsWhileLoading(t *testing.T) {
	m := auth.NewManager(newFakeAuth(), nil) // not started: still loading

	rec := httptest.NewRecorder()
	protected(t, m).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/jobs", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 while loading", rec.Code)
	}
}

func TestGate_RedirectsUnauthenticated(t *testing.T) {
	m, _ := startedManager(t)

	rec := httptest.NewRecorder()
	protected(t, m).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/jobs", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store so back-navigation cannot re-enter", cc)
	}
}

func TestGate_PassesAuthenticated(t *testing.T) {
	m, _ := startedManager(t)

	sess, err := m.SignIn(context.Background(), "admin@carikerja.id", "s3cret")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/jobs", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: sess.Token})

	rec := httptest.NewRecorder()
	protected(t, m).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for an authenticated request", rec.Code)
	}
}

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := auth.TokenFromRequest(req); got != "" {
		t.Errorf("no credentials should yield empty token, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc123")
	if got := auth.TokenFromRequest(req); got != "abc123" {
		t.Errorf("bearer token = %q, want abc123", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: "cookie-tok"})
	req.Header.Set("Authorization", "Bearer header-tok")
	if got := auth.TokenFromRequest(req); got != "cookie-tok" {
		t.Errorf("cookie must win over header, got %q", got)
	}
}
