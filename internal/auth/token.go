// Package auth issues and verifies the HS256 access tokens carried by API
// requests and by the websocket handshake.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failure kinds the callers branch on.
var (
	ErrTokenExpired = errors.New("auth: access token expired")
	ErrTokenInvalid = errors.New("auth: invalid access token")
)

// Tokens signs and parses access tokens. The subject claim carries the user's
// external provider id, matching the stored facebookProvider identity.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

// NewTokens builds a Tokens helper around the shared HMAC secret.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

// Issue signs a new access token for the given provider id.
func (t *Tokens) Issue(providerID string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   providerID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Verify parses the token and returns the provider id from its subject.
// Expiry is reported as ErrTokenExpired, every other verification failure as
// ErrTokenInvalid.
func (t *Tokens) Verify(tokenStr string) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", tok.Method.Alg())
		}
		return t.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrTokenExpired
	case err != nil:
		return "", ErrTokenInvalid
	case !token.Valid:
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}
