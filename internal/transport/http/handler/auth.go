package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/storefront-api/internal/application/auth"
	"github.com/storefront-api/internal/domain"
	"github.com/storefront-api/internal/transport/http/middleware"
)

// AuthHandler serves account, password and email verification endpoints.
type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler { return &AuthHandler{svc: svc} }

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token, _, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, TokenEnvelope{Success: true, Token: token})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenEnvelope{Success: true, Token: token})
}

func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token, err := h.svc.AdminLogin(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenEnvelope{Success: true, Token: token})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized, no token")
		return
	}
	var body struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.svc.ChangePassword(r.Context(), u.UserID, body.OldPassword, body.NewPassword); err != nil {
		httpError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password updated successfully")
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.svc.ForgotPassword(r.Context(), body.Email); err != nil {
		httpError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password reset link sent to your email")
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NewPassword string `json:"newPassword"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.svc.ResetPassword(r.Context(), chi.URLParam(r, "token"), body.NewPassword); err != nil {
		httpError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password has been reset successfully")
}

func (h *AuthHandler) SendVerificationEmail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.svc.SendVerificationCode(r.Context(), body.Email); err != nil {
		httpError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Verification email sent successfully!")
}

// VerifyEmail redeems a numeric code sent by SendVerificationEmail.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.svc.VerifyEmailCode(r.Context(), body.Email, body.Code); err != nil {
		httpError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Email verified successfully")
}

// VerifyEmailLink redeems the link token mailed at registration.
func (h *AuthHandler) VerifyEmailLink(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.VerifyEmailLink(r.Context(), chi.URLParam(r, "token")); err != nil {
		httpError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Email verified successfully")
}
