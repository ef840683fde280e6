// Package middleware provides HTTP middleware for the invoice admin API.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ledgerline/invoiceadmin/internal/errors"
	"github.com/ledgerline/invoiceadmin/internal/httputil"
	"github.com/ledgerline/invoiceadmin/pkg/logger"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"
	tokenKey  contextKey = "token"
)

// TokenCookieName is the cookie consulted when no Authorization header is set.
const TokenCookieName = "auth_token"

// TokenVerifier validates a session token and returns the user id.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// AuthMiddleware authenticates requests with a bearer token or session cookie.
type AuthMiddleware struct {
	verifier  TokenVerifier
	logger    *logger.Logger
	skipPaths map[string]bool
}

// NewAuthMiddleware creates an authentication middleware. Requests to
// skipPaths pass through unauthenticated.
func NewAuthMiddleware(verifier TokenVerifier, log *logger.Logger, skipPaths []string) *AuthMiddleware {
	if log == nil {
		log = logger.NewDefault("auth-middleware")
	}
	skip := make(map[string]bool)
	for _, path := range skipPaths {
		skip[path] = true
	}
	return &AuthMiddleware{verifier: verifier, logger: log, skipPaths: skip}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		token := extractToken(r)
		if token == "" {
			m.respondError(w, r, errors.Unauthorized("Missing authorization."))
			return
		}

		userID, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			m.logger.WithError(err).WithField("path", r.URL.Path).Warn("token verification failed")
			m.respondError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		ctx = context.WithValue(ctx, tokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if cookie, err := r.Cookie(TokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

func (m *AuthMiddleware) respondError(w http.ResponseWriter, r *http.Request, err error) {
	serviceErr := errors.GetServiceError(err)
	if serviceErr == nil {
		serviceErr = errors.Unauthorized("Authentication failed.")
	}
	httputil.WriteServiceError(w, serviceErr)
}

// GetUserID extracts the authenticated user id from context.
func GetUserID(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// GetToken extracts the raw session token from context, for logout.
func GetToken(ctx context.Context) string {
	if v, ok := ctx.Value(tokenKey).(string); ok {
		return v
	}
	return ""
}
