package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ledgerline/invoiceadmin/internal/errors"
)

type fakeVerifier struct {
	userID string
	err    error
	seen   string
}

func (f *fakeVerifier) Verify(_ context.Context, token string) (string, error) {
	f.seen = token
	if f.err != nil {
		return "", f.err
	}
	return f.userID, nil
}

func authedHandler(t *testing.T, wantUser string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := GetUserID(r.Context()); got != wantUser {
			t.Errorf("expected user %q in context, got %q", wantUser, got)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddlewareBearerToken(t *testing.T) {
	verifier := &fakeVerifier{userID: "user-1"}
	handler := NewAuthMiddleware(verifier, nil, nil).Handler(authedHandler(t, "user-1"))

	req := httptest.NewRequest(http.MethodGet, "/api/invoices", nil)
	req.Header.Set("Authorization", "Bearer token-abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if verifier.seen != "token-abc" {
		t.Fatalf("expected bearer token to reach verifier, got %q", verifier.seen)
	}
}

func TestAuthMiddlewareCookieFallback(t *testing.T) {
	verifier := &fakeVerifier{userID: "user-1"}
	handler := NewAuthMiddleware(verifier, nil, nil).Handler(authedHandler(t, "user-1"))

	req := httptest.NewRequest(http.MethodGet, "/api/invoices", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: "cookie-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if verifier.seen != "cookie-token" {
		t.Fatalf("expected cookie token to reach verifier, got %q", verifier.seen)
	}
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	handler := NewAuthMiddleware(&fakeVerifier{}, nil, nil).Handler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/invoices", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareRejectedToken(t *testing.T) {
	verifier := &fakeVerifier{err: errors.Unauthorized("Invalid token.")}
	handler := NewAuthMiddleware(verifier, nil, nil).Handler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/invoices", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareSkipPaths(t *testing.T) {
	called := false
	handler := NewAuthMiddleware(&fakeVerifier{}, nil, []string{"/healthz"}).Handler(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || !called {
		t.Fatalf("expected skip path to pass through, got %d", rec.Code)
	}
}
