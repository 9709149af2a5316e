package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/storefront-api/internal/domain"
)

var errorStatus = []struct {
	kind   error
	status int
}{
	{domain.ErrValidation, http.StatusBadRequest},
	{domain.ErrBadRequest, http.StatusBadRequest},
	{domain.ErrInvalidOrExpired, http.StatusBadRequest},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrConflict, http.StatusConflict},
	{domain.ErrUnauthenticated, http.StatusUnauthorized},
	{domain.ErrInvalidCredential, http.StatusUnauthorized},
	{domain.ErrCredentialExpired, http.StatusUnauthorized},
	{domain.ErrUnauthorized, http.StatusUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrDeliveryFailed, http.StatusBadGateway},
}

// httpError maps a service error to a status code and a success:false body.
// Anything untagged is logged and reported as a 500 without detail.
func httpError(w http.ResponseWriter, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.kind) {
			writeError(w, e.status, clientMessage(err))
			return
		}
	}
	slog.Error("request failed", "err", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func clientMessage(err error) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
