package jwtinfra

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/storefront-api/internal/config"
	"github.com/storefront-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := NewProvider(&config.Config{JWTSecret: testSecret, JWTExpiry: time.Hour})
	require.NoError(t, err)
	return p
}

func TestNewProvider_RejectsShortSecret(t *testing.T) {
	_, err := NewProvider(&config.Config{JWTSecret: "short", JWTExpiry: time.Hour})
	assert.Error(t, err)
}

func TestSignVerify_RoundTrip(t *testing.T) {
	p := newTestProvider(t)
	tok, err := p.Sign("u1", domain.RoleUser)
	require.NoError(t, err)

	c, err := p.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UserID)
	assert.Equal(t, domain.RoleUser, c.Role)
}

func TestSignAdmin(t *testing.T) {
	p := newTestProvider(t)
	tok, err := p.SignAdmin("admin@shop.com")
	require.NoError(t, err)

	c, err := p.Verify(tok)
	require.NoError(t, err)
	assert.Empty(t, c.UserID)
	assert.Equal(t, domain.RoleAdmin, c.Role)
	assert.Equal(t, "admin@shop.com", c.Subject)
}

func TestVerify_Expired(t *testing.T) {
	p := newTestProvider(t)
	p.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := p.Sign("u1", domain.RoleUser)
	require.NoError(t, err)

	p.now = time.Now
	_, err = p.Verify(tok)
	assert.True(t, errors.Is(err, domain.ErrCredentialExpired))
	assert.False(t, errors.Is(err, domain.ErrInvalidCredential))
}

func TestVerify_Garbage(t *testing.T) {
	_, err := newTestProvider(t).Verify("not-a-token")
	assert.True(t, errors.Is(err, domain.ErrInvalidCredential))
}

func TestVerify_WrongSecret(t *testing.T) {
	other, err := NewProvider(&config.Config{JWTSecret: "ffffffffffffffffffffffffffffffff", JWTExpiry: time.Hour})
	require.NoError(t, err)
	tok, err := other.Sign("u1", domain.RoleUser)
	require.NoError(t, err)

	_, err = newTestProvider(t).Verify(tok)
	assert.True(t, errors.Is(err, domain.ErrInvalidCredential))
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1", Role: domain.RoleAdmin}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestProvider(t).Verify(tok)
	assert.True(t, errors.Is(err, domain.ErrInvalidCredential))
}
