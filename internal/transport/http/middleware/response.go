package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/storefront-api/internal/domain"
)

// Machine-readable codes for gate failures. All three 401 causes stay distinguishable.
const (
	CodeMissingCredential = "missing_credential"
	CodeInvalidCredential = "invalid_credential"
	CodeCredentialExpired = "credential_expired"
	CodeUserNotFound      = "user_not_found"
	CodeForbidden         = "forbidden"
	CodeRateLimited       = "rate_limited"
)

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// writeJSONError writes a JSON-encoded error response with the correct Content-Type.
func writeJSONError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Success: false, Message: msg, Code: code})
}

// writeGateError translates an authentication failure into its status and code.
func writeGateError(w http.ResponseWriter, err error) {
	var de *domain.Error
	msg := "internal server error"
	if errors.As(err, &de) {
		msg = de.Message
	}
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		writeJSONError(w, http.StatusUnauthorized, CodeMissingCredential, msg)
	case errors.Is(err, domain.ErrCredentialExpired):
		writeJSONError(w, http.StatusUnauthorized, CodeCredentialExpired, msg)
	case errors.Is(err, domain.ErrInvalidCredential):
		writeJSONError(w, http.StatusUnauthorized, CodeInvalidCredential, msg)
	case errors.Is(err, domain.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, CodeUserNotFound, msg)
	case errors.Is(err, domain.ErrForbidden):
		writeJSONError(w, http.StatusForbidden, CodeForbidden, msg)
	default:
		slog.Error("authentication failed", "err", err)
		writeJSONError(w, http.StatusInternalServerError, "", "internal server error")
	}
}
