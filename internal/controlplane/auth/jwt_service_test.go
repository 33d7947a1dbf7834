package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydoc/relaydoc/internal/controlplane/auth"
)

func newService(t *testing.T) *auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(auth.Config{Secret: "0123456789abcdef0123456789abcdef"})
	require.NoError(t, err)
	return svc
}

func TestNewJWTServiceRejectsShortSecret(t *testing.T) {
	_, err := auth.NewJWTService(auth.Config{Secret: "too-short"})
	assert.ErrorIs(t, err, auth.ErrInvalidSecretLength)
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	svc := newService(t)
	pair, err := svc.GenerateTokenPair("client-1", []string{"doc-a", "doc-b"})
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "client-1", claims.ClientID)
	assert.True(t, claims.CanAccessDoc("doc-a"))
	assert.False(t, claims.CanAccessDoc("doc-c"))
}

func TestWildcardScopeGrantsEveryDoc(t *testing.T) {
	svc := newService(t)
	pair, err := svc.GenerateTokenPair("operator", nil)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.CanAccessDoc("anything"))
}

func TestValidateAccessTokenRejectsRefreshToken(t *testing.T) {
	svc := newService(t)
	pair, err := svc.GenerateTokenPair("client-1", []string{"doc-a"})
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidTokenType)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc, err := auth.NewJWTService(auth.Config{
		Secret:              "0123456789abcdef0123456789abcdef",
		AccessTokenDuration: time.Nanosecond,
	})
	require.NoError(t, err)

	pair, err := svc.GenerateTokenPair("client-1", []string{"doc-a"})
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	_, err = svc.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}
