package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/flyingbingbong/jubsok-backend/internal/auth"
	"github.com/flyingbingbong/jubsok-backend/internal/store"
)

// Handshake query parameters.
const (
	queryAccessToken  = "x-auth-token"
	queryRefreshToken = "refreshToken"
)

// TokenVerifier checks an access token and returns the provider id it was
// issued for. *auth.Tokens satisfies it.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Authenticator validates a websocket handshake against the user store.
type Authenticator struct {
	users  store.UserStore
	tokens TokenVerifier
}

// NewAuthenticator wires the handshake validator.
func NewAuthenticator(users store.UserStore, tokens TokenVerifier) *Authenticator {
	return &Authenticator{users: users, tokens: tokens}
}

// Authenticate inspects the handshake query and returns the authenticated
// (userID, sessionID) pair. An expected failure is reported as a non-empty
// symbolic reason; a non-nil error is an infrastructure failure. The checks
// short-circuit in order: credentials present, access token valid and
// unexpired, user exists, session owns the refresh token.
func (a *Authenticator) Authenticate(ctx context.Context, query url.Values) (userID, sessionID, reason string, err error) {
	accessToken := query.Get(queryAccessToken)
	refreshToken := query.Get(queryRefreshToken)
	if accessToken == "" || refreshToken == "" {
		return "", "", ReasonInsufficientQuery, nil
	}

	providerID, verr := a.tokens.Verify(accessToken)
	switch {
	case errors.Is(verr, auth.ErrTokenExpired):
		return "", "", ReasonAccessTokenExpired, nil
	case errors.Is(verr, auth.ErrTokenInvalid):
		return "", "", ReasonInvalidToken, nil
	case verr != nil:
		return "", "", "", fmt.Errorf("verify access token: %w", verr)
	}

	user, ferr := a.users.FindByProviderID(ctx, providerID)
	switch {
	case errors.Is(ferr, store.ErrNotFound):
		return "", "", ReasonUserNotExist, nil
	case ferr != nil:
		return "", "", "", fmt.Errorf("find user by provider id: %w", ferr)
	}

	session := user.SessionByRefreshToken(refreshToken)
	if session == nil {
		return "", "", ReasonSessionNotExist, nil
	}
	return user.ID, session.ID, "", nil
}
