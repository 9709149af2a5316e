package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/storefront-api/internal/domain"
	jwtinfra "github.com/storefront-api/internal/infrastructure/jwt"
)

type contextKey string

const (
	userKey  contextKey = "user"
	adminKey contextKey = "admin"
)

// AdminTokenHeader carries the admin-panel credential.
const AdminTokenHeader = "token"

type authenticator interface {
	Authenticate(ctx context.Context, bearer string) (*domain.User, error)
}

type adminAuthenticator interface {
	AuthenticateAdmin(raw string) (*jwtinfra.Claims, error)
}

// Gate is satisfied by auth.Gate.
type Gate interface {
	authenticator
	adminAuthenticator
}

// Auth returns middleware that resolves the Bearer credential to a user and
// injects it into the request context.
func Auth(gate authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := gate.Authenticate(r.Context(), bearerToken(r))
			if err != nil {
				writeGateError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), userKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminToken returns middleware that accepts only the admin-panel credential
// sent in the raw token header.
func AdminToken(gate adminAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := gate.AuthenticateAdmin(r.Header.Get(AdminTokenHeader))
			if err != nil {
				writeGateError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), adminKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOrRole accepts either the admin-panel token header or a Bearer
// credential whose user holds the admin role.
func AdminOrRole(gate Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		viaToken := AdminToken(gate)(next)
		viaBearer := Auth(gate)(RequireRole(domain.RoleAdmin)(next))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(AdminTokenHeader) != "" {
				viaToken.ServeHTTP(w, r)
				return
			}
			viaBearer.ServeHTTP(w, r)
		})
	}
}

// UserFromContext returns the user resolved by Auth.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey).(*domain.User)
	return u, ok
}

// AdminFromContext returns the admin claims resolved by AdminToken.
func AdminFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(adminKey).(*jwtinfra.Claims)
	return c, ok
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
