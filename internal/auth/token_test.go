package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Minute)

	signed, err := tokens.Issue("fb-123", time.Now())
	require.NoError(t, err)

	providerID, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "fb-123", providerID)
}

func TestVerifyExpired(t *testing.T) {
	tokens := NewTokens("secret", time.Minute)

	signed, err := tokens.Issue("fb-123", time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = tokens.Verify(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyWrongSecret(t *testing.T) {
	signed, err := NewTokens("secret-a", time.Minute).Issue("fb-123", time.Now())
	require.NoError(t, err)

	_, err = NewTokens("secret-b", time.Minute).Verify(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyGarbage(t *testing.T) {
	tokens := NewTokens("secret", time.Minute)

	for _, s := range []string{"", "garbage", "a.b.c"} {
		_, err := tokens.Verify(s)
		assert.ErrorIs(t, err, ErrTokenInvalid, "token %q", s)
	}
}
