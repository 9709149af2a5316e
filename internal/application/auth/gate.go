package auth

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/storefront-api/internal/domain"
	jwtinfra "github.com/storefront-api/internal/infrastructure/jwt"
)

type credentialVerifier interface {
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

type userGetter interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// Gate turns a presented credential into an identity. Role checks are left
// to the caller.
type Gate struct {
	verifier   credentialVerifier
	users      userGetter
	adminEmail string
}

func NewGate(verifier credentialVerifier, users userGetter, adminEmail string) *Gate {
	return &Gate{verifier: verifier, users: users, adminEmail: domain.NormalizeEmail(adminEmail)}
}

// Authenticate resolves a bearer credential to the stored user with
// password and token fields stripped.
func (g *Gate) Authenticate(ctx context.Context, bearer string) (*domain.User, error) {
	claims, err := g.verify(bearer)
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, domain.NewError(domain.ErrInvalidCredential, "Not authorized, invalid token")
	}
	u, err := g.users.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.ErrNotFound, "User not found")
		}
		return nil, err
	}
	return u.Public(), nil
}

// AuthenticateAdmin checks an admin-panel credential. A valid credential for
// anyone other than the configured admin is forbidden.
func (g *Gate) AuthenticateAdmin(raw string) (*jwtinfra.Claims, error) {
	claims, err := g.verify(raw)
	if err != nil {
		return nil, err
	}
	if claims.Role != domain.RoleAdmin || g.adminEmail == "" ||
		subtle.ConstantTimeCompare([]byte(claims.Subject), []byte(g.adminEmail)) != 1 {
		return nil, domain.NewError(domain.ErrForbidden, "Not authorized as an admin")
	}
	return claims, nil
}

func (g *Gate) verify(raw string) (*jwtinfra.Claims, error) {
	if raw == "" {
		return nil, domain.NewError(domain.ErrUnauthenticated, "Not authorized, no token")
	}
	claims, err := g.verifier.Verify(raw)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, domain.ErrCredentialExpired):
		return nil, domain.NewError(domain.ErrCredentialExpired, "Not authorized, token expired")
	default:
		return nil, domain.NewError(domain.ErrInvalidCredential, "Not authorized, invalid token")
	}
}
