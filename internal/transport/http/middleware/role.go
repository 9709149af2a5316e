package middleware

import (
	"net/http"
)

// RequireRole returns middleware that allows access only to users whose
// stored role matches one of the provided role names (e.g. domain.RoleAdmin).
// It must run after Auth.
func RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, CodeMissingCredential, "Not authorized, no token")
				return
			}
			for _, role := range allowedRoles {
				if u.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeJSONError(w, http.StatusForbidden, CodeForbidden, "Not authorized as an admin")
		})
	}
}
