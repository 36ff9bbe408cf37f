// Package auth resolves the authenticated session: the stored bearer
// token, its expiry, and the current user with the privilege flag
// that gates destructive UI affordances.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bissquit/incident-console/internal/api"
	"github.com/bissquit/incident-console/internal/domain"
)

// ErrTokenExpired means the stored token's exp claim has passed and a
// new login is required.
var ErrTokenExpired = errors.New("access token expired, log in again")

// ErrNoToken means no token is stored yet.
var ErrNoToken = errors.New("no access token stored, log in first")

// Session holds the resolved identity for the lifetime of the
// process. The privilege flag comes from the server, not the token;
// UI gating is defense in depth on top of server-side checks.
type Session struct {
	user  domain.User
	token string
}

// Establish checks the token's expiry claim and resolves the current
// user from the API. The token signature is not verified here; only
// the server holds the signing key, and it re-checks every request.
func Establish(ctx context.Context, client *api.Client, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	if err := checkExpiry(token); err != nil {
		return nil, err
	}

	user, err := client.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("resolve current user: %w", err)
	}

	return &Session{user: *user, token: token}, nil
}

// User returns the authenticated user.
func (s *Session) User() domain.User { return s.user }

// IsPrivileged reports whether the user may act on entities they do
// not own.
func (s *Session) IsPrivileged() bool { return s.user.IsSuperuser }

// Token returns the bearer token for API calls.
func (s *Session) Token() string { return s.token }

// checkExpiry parses the token's claims without verifying the
// signature and rejects an expired token before any network call.
func checkExpiry(token string) error {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return fmt.Errorf("parse access token: %w", err)
	}

	expiry, err := claims.GetExpirationTime()
	if err != nil {
		return fmt.Errorf("read token expiry: %w", err)
	}
	if expiry != nil && expiry.Before(time.Now()) {
		return ErrTokenExpired
	}
	return nil
}
