package jwtinfra

import (
	"testing"
	"time"

	"github.com/go-api-ledger/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := NewProvider(&config.Config{
		JWTSecret:          "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: time.Hour,
	})
	require.NoError(t, err)
	return p
}

func TestNewProvider_MissingSecret(t *testing.T) {
	_, err := NewProvider(&config.Config{})
	assert.Error(t, err)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	p := newTestProvider(t)

	tok, err := p.IssueAccessToken("u1", "customer")
	require.NoError(t, err)

	claims, err := p.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "customer", claims.Role)
	assert.False(t, claims.IsRefresh())
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestRefreshToken_CarriesType(t *testing.T) {
	p := newTestProvider(t)

	tok, exp, err := p.IssueRefreshToken("u1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := p.Verify(tok)
	require.NoError(t, err)
	assert.True(t, claims.IsRefresh())
	assert.Empty(t, claims.Role)
}

func TestTokens_UniqueWithinSameSecond(t *testing.T) {
	p := newTestProvider(t)
	fixed := time.Unix(1_700_000_000, 0)
	p.now = func() time.Time { return fixed }

	a, _, err := p.IssueRefreshToken("u1")
	require.NoError(t, err)
	b, _, err := p.IssueRefreshToken("u1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerify_Expired(t *testing.T) {
	p := newTestProvider(t)
	p.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := p.IssueAccessToken("u1", "customer")
	require.NoError(t, err)

	p.now = time.Now
	_, err = p.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_WrongSecret(t *testing.T) {
	other, err := NewProvider(&config.Config{JWTSecret: "other", AccessTokenExpiry: time.Minute})
	require.NoError(t, err)
	tok, err := other.IssueAccessToken("u1", "customer")
	require.NoError(t, err)

	_, err = newTestProvider(t).Verify(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestProvider(t).Verify(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_Garbage(t *testing.T) {
	_, err := newTestProvider(t).Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
