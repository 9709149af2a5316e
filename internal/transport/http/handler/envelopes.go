package handler

import (
	"encoding/json"
	"net/http"

	"github.com/storefront-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper. Success is always present.
type MessageEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// TokenEnvelope wraps register/login responses.
type TokenEnvelope struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

// UserEnvelope wraps a single user.
type UserEnvelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	User    *domain.User `json:"user"`
}

// UsersEnvelope wraps a page of users.
type UsersEnvelope struct {
	Success    bool          `json:"success"`
	Users      []domain.User `json:"users"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

type ProductEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Product *domain.Product `json:"product"`
}

type ProductsEnvelope struct {
	Success  bool             `json:"success"`
	Products []domain.Product `json:"products"`
}

type OrderEnvelope struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Order   *domain.Order `json:"order"`
}

type OrdersEnvelope struct {
	Success bool           `json:"success"`
	Orders  []domain.Order `json:"orders"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Success: false, Message: msg})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Success: true, Message: msg})
}

// decodeJSON reads the request body into v and answers 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
