// Package auth implements credential checking and session token management.
package auth

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ledgerline/invoiceadmin/internal/domain/user"
	"github.com/ledgerline/invoiceadmin/internal/errors"
	"github.com/ledgerline/invoiceadmin/internal/storage"
	"github.com/ledgerline/invoiceadmin/pkg/logger"
)

// Claims are the JWT claims embedded in issued session tokens.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Service authenticates users and manages session records.
type Service struct {
	users    storage.UserStore
	sessions storage.SessionStore
	secret   []byte
	tokenTTL time.Duration
	issuer   string
	log      *logger.Logger
}

// New constructs an auth service. The secret signs session JWTs (HS256).
func New(users storage.UserStore, sessions storage.SessionStore, secret []byte, tokenTTL time.Duration, issuer string, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	if issuer == "" {
		issuer = "invoice-admin"
	}
	return &Service{
		users:    users,
		sessions: sessions,
		secret:   secret,
		tokenTTL: tokenTTL,
		issuer:   issuer,
		log:      log,
	}
}

// Login verifies the credentials and issues a session token. Every failure
// mode reports the same user-facing message so credentials cannot be probed.
func (s *Service) Login(ctx context.Context, email, password string) (user.User, string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return user.User{}, "", errors.Unauthorized("Invalid credentials.")
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return user.User{}, "", errors.Unauthorized("Invalid credentials.")
		}
		return user.User{}, "", errors.Database("Something went wrong.", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.log.WithField("email", email).Warn("password mismatch")
		return user.User{}, "", errors.Unauthorized("Invalid credentials.")
	}

	token, err := s.generateToken(u.ID)
	if err != nil {
		return user.User{}, "", errors.Internal("Something went wrong.", err)
	}

	_, err = s.sessions.CreateSession(ctx, user.Session{
		UserID:    u.ID,
		TokenHash: HashToken(token),
		ExpiresAt: time.Now().UTC().Add(s.tokenTTL),
	})
	if err != nil {
		return user.User{}, "", errors.Database("Something went wrong.", err)
	}

	s.log.WithField("user_id", u.ID).Info("user logged in")
	return u, token, nil
}

// Verify validates a token and its backing session, returning the user id.
// The session's last-seen timestamp is refreshed on success.
func (s *Service) Verify(ctx context.Context, token string) (string, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return "", errors.Unauthorized("Invalid token.")
	}

	sess, err := s.sessions.GetSessionByTokenHash(ctx, HashToken(token))
	if err != nil {
		return "", errors.Unauthorized("Session expired.")
	}
	if sess.UserID != claims.UserID {
		return "", errors.Unauthorized("Invalid token.")
	}

	_ = s.sessions.TouchSession(ctx, sess.ID)
	return claims.UserID, nil
}

// Logout deletes the session behind the token. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.DeleteSession(ctx, HashToken(token))
}

// User fetches a user record by id.
func (s *Service) User(ctx context.Context, id string) (user.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return user.User{}, errors.NotFound("User not found.")
		}
		return user.User{}, errors.Database("Something went wrong.", err)
	}
	return u, nil
}

// UserByEmail fetches a user record by email.
func (s *Service) UserByEmail(ctx context.Context, email string) (user.User, error) {
	u, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return user.User{}, errors.NotFound("User not found.")
		}
		return user.User{}, errors.Database("Something went wrong.", err)
	}
	return u, nil
}

// SeedUser creates a user with a freshly hashed password. Existing emails
// surface as storage errors from the underlying store.
func (s *Service) SeedUser(ctx context.Context, name, email, password string) (user.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}
	return s.users.CreateUser(ctx, user.User{
		Name:         name,
		Email:        strings.TrimSpace(email),
		PasswordHash: string(hash),
	})
}

// SweepExpired removes sessions past their expiry.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	removed, err := s.sessions.DeleteExpiredSessions(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.log.WithField("removed", removed).Info("expired sessions swept")
	}
	return removed, nil
}

func (s *Service) generateToken(userID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) parseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// HashToken returns the hex SHA-256 of a token. Only hashes are persisted.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
