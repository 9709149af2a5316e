package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/storefront-api/internal/config"
	"github.com/storefront-api/internal/domain"
)

// minSecretLen is the shortest HMAC secret the provider accepts.
const minSecretLen = 32

// Claims holds the JWT payload fields. Admin credentials carry no UserID;
// their Subject is the configured admin email.
type Claims struct {
	UserID string `json:"id,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 JWTs with a secret held only by this process.
type Provider struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	if len(cfg.JWTSecret) < minSecretLen {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLen)
	}
	if cfg.JWTExpiry <= 0 {
		return nil, errors.New("JWT expiry must be positive")
	}
	return &Provider{secret: []byte(cfg.JWTSecret), expiry: cfg.JWTExpiry, now: time.Now}, nil
}

// Sign issues a session credential for a stored user.
func (p *Provider) Sign(userID, role string) (string, error) {
	return p.sign(Claims{
		UserID:           userID,
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID},
	})
}

// SignAdmin issues the admin-panel credential.
func (p *Provider) SignAdmin(email string) (string, error) {
	return p.sign(Claims{
		Role:             domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: email},
	})
}

func (p *Provider) sign(c Claims) (string, error) {
	now := p.now()
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(p.expiry))
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, structure and expiry. It returns an error wrapping
// domain.ErrCredentialExpired for an expired credential and
// domain.ErrInvalidCredential for anything else.
func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("verify token: %w", domain.ErrCredentialExpired)
		}
		return nil, fmt.Errorf("verify token: %v: %w", err, domain.ErrInvalidCredential)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims: %w", domain.ErrInvalidCredential)
	}
	return claims, nil
}
