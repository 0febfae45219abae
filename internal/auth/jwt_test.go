package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthenticator() *JWTAuthenticator {
	return NewJWTAuthenticator("access-secret", "refresh-secret", "paginaflex", "paginaflex")
}

func TestGenerateAndValidate(t *testing.T) {
	a := newTestAuthenticator()

	access, refresh, err := a.GenerateTokens(42, "admin")
	require.NoError(t, err)

	claims, err := a.ValidateAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	rc, err := a.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Empty(t, rc.Role)

	// tokens are not interchangeable
	_, err = a.ValidateAccessToken(refresh)
	assert.Error(t, err)
	_, err = a.ValidateRefreshToken(access)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	a := newTestAuthenticator()
	a.now = func() time.Time { return time.Now().Add(-AccessTokenTTL - time.Hour) }
	access, _, err := a.GenerateTokens(1, "cliente")
	require.NoError(t, err)

	a.now = time.Now
	_, err = a.ValidateAccessToken(access)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestWrongAudience(t *testing.T) {
	a := newTestAuthenticator()
	access, _, err := a.GenerateTokens(1, "cliente")
	require.NoError(t, err)

	other := NewJWTAuthenticator("access-secret", "refresh-secret", "otra-app", "paginaflex")
	_, err = other.ValidateAccessToken(access)
	assert.Error(t, err)
}

func TestClaimsUserID(t *testing.T) {
	_, err := (&Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "abc"}}).UserID()
	assert.ErrorIs(t, err, ErrInvalidSubject)
	_, err = (&Claims{}).UserID()
	assert.ErrorIs(t, err, ErrInvalidSubject)
}
