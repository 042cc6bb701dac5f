package gateway

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flyingbingbong/jubsok-backend/internal/auth"
	"github.com/flyingbingbong/jubsok-backend/internal/store"
)

const testSecret = "test-secret"

func seedUser(t *testing.T, m *store.Memory) *store.User {
	t.Helper()
	u := &store.User{
		ID:         "u1",
		Nickname:   "mira",
		ProviderID: "fb-1",
		Sessions: []store.Session{
			{ID: "sess-1", RefreshToken: "refresh-1", LastSeen: time.Now()},
		},
	}
	m.PutUser(u)
	return u
}

func handshakeQuery(accessToken, refreshToken string) url.Values {
	q := url.Values{}
	if accessToken != "" {
		q.Set("x-auth-token", accessToken)
	}
	if refreshToken != "" {
		q.Set("refreshToken", refreshToken)
	}
	return q
}

func TestAuthenticateSuccess(t *testing.T) {
	m := store.NewMemory()
	seedUser(t, m)
	tokens := auth.NewTokens(testSecret, time.Minute)
	accessToken, err := tokens.Issue("fb-1", time.Now())
	require.NoError(t, err)

	a := NewAuthenticator(m, tokens)
	userID, sessionID, reason, err := a.Authenticate(context.Background(), handshakeQuery(accessToken, "refresh-1"))

	require.NoError(t, err)
	assert.Empty(t, reason)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, "sess-1", sessionID)
}

func TestAuthenticateMissingCredentials(t *testing.T) {
	m := store.NewMemory()
	tokens := auth.NewTokens(testSecret, time.Minute)
	a := NewAuthenticator(m, tokens)

	for _, q := range []url.Values{
		handshakeQuery("", ""),
		handshakeQuery("some-token", ""),
		handshakeQuery("", "refresh-1"),
	} {
		_, _, reason, err := a.Authenticate(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, ReasonInsufficientQuery, reason)
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	m := store.NewMemory()
	seedUser(t, m)
	expired := auth.NewTokens(testSecret, time.Minute)
	accessToken, err := expired.Issue("fb-1", time.Now().Add(-time.Hour))
	require.NoError(t, err)

	a := NewAuthenticator(m, auth.NewTokens(testSecret, time.Minute))
	_, _, reason, err := a.Authenticate(context.Background(), handshakeQuery(accessToken, "refresh-1"))

	require.NoError(t, err)
	assert.Equal(t, ReasonAccessTokenExpired, reason)
}

func TestAuthenticateInvalidToken(t *testing.T) {
	m := store.NewMemory()
	seedUser(t, m)
	a := NewAuthenticator(m, auth.NewTokens(testSecret, time.Minute))

	_, _, reason, err := a.Authenticate(context.Background(), handshakeQuery("not-a-jwt", "refresh-1"))
	require.NoError(t, err)
	assert.Equal(t, ReasonInvalidToken, reason)

	// Signed with the wrong secret.
	other, err := auth.NewTokens("other-secret", time.Minute).Issue("fb-1", time.Now())
	require.NoError(t, err)
	_, _, reason, err = a.Authenticate(context.Background(), handshakeQuery(other, "refresh-1"))
	require.NoError(t, err)
	assert.Equal(t, ReasonInvalidToken, reason)
}

func TestAuthenticateUnknownUser(t *testing.T) {
	m := store.NewMemory()
	tokens := auth.NewTokens(testSecret, time.Minute)
	accessToken, err := tokens.Issue("fb-unknown", time.Now())
	require.NoError(t, err)

	a := NewAuthenticator(m, tokens)
	_, _, reason, err := a.Authenticate(context.Background(), handshakeQuery(accessToken, "refresh-1"))

	require.NoError(t, err)
	assert.Equal(t, ReasonUserNotExist, reason)
}

func TestAuthenticateUnknownSession(t *testing.T) {
	m := store.NewMemory()
	seedUser(t, m)
	tokens := auth.NewTokens(testSecret, time.Minute)
	accessToken, err := tokens.Issue("fb-1", time.Now())
	require.NoError(t, err)

	a := NewAuthenticator(m, tokens)
	_, _, reason, err := a.Authenticate(context.Background(), handshakeQuery(accessToken, "no-such-refresh"))

	require.NoError(t, err)
	assert.Equal(t, ReasonSessionNotExist, reason)
}
