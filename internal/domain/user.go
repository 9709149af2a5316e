package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// TokenPurpose tags the single outstanding token on a user record.
type TokenPurpose string

const (
	PurposePasswordReset     TokenPurpose = "password_reset"
	PurposeEmailVerification TokenPurpose = "email_verification"
	PurposeEmailCode         TokenPurpose = "email_code"
)

// User is the credential record. The verification fields are either all set
// or all absent; they are omitted rather than stored as NULL so the
// verification_token GSI never sees a non-string key.
type User struct {
	UserID             string        `json:"id" dynamodbav:"user_id"`
	Name               string        `json:"name" dynamodbav:"name"`
	Email              string        `json:"email" dynamodbav:"email"`
	PasswordHash       string        `json:"-" dynamodbav:"password_hash"`
	Role               string        `json:"role" dynamodbav:"role"`
	EmailVerified      bool          `json:"email_verified" dynamodbav:"email_verified"`
	VerificationToken  *string       `json:"-" dynamodbav:"verification_token,omitempty"`
	VerificationExpiry *time.Time    `json:"-" dynamodbav:"verification_expiry,omitempty"`
	TokenPurpose       *TokenPurpose `json:"-" dynamodbav:"token_purpose,omitempty"`
	CreatedAt          time.Time     `json:"created" dynamodbav:"created_at"`
	UpdatedAt          time.Time     `json:"updated" dynamodbav:"updated_at"`
}

// PendingToken is what the issuer writes onto a user record.
type PendingToken struct {
	Token     string
	Purpose   TokenPurpose
	ExpiresAt time.Time
}

// Pending returns the outstanding token, if any.
func (u *User) Pending() (PendingToken, bool) {
	if u.VerificationToken == nil || u.VerificationExpiry == nil || u.TokenPurpose == nil {
		return PendingToken{}, false
	}
	return PendingToken{
		Token:     *u.VerificationToken,
		Purpose:   *u.TokenPurpose,
		ExpiresAt: *u.VerificationExpiry,
	}, true
}

// Public returns a copy with the password hash and token fields stripped.
func (u *User) Public() *User {
	c := *u
	c.PasswordHash = ""
	c.VerificationToken = nil
	c.VerificationExpiry = nil
	c.TokenPurpose = nil
	return &c
}

// Apply sets the fields named by their stored attribute names, the same
// update map the repositories accept.
func (u *User) Apply(updates map[string]interface{}) error {
	for k, v := range updates {
		var ok bool
		switch k {
		case "name":
			u.Name, ok = v.(string)
		case "email":
			var email string
			email, ok = v.(string)
			u.Email = NormalizeEmail(email)
		case "password_hash":
			u.PasswordHash, ok = v.(string)
		case "role":
			u.Role, ok = v.(string)
		case "email_verified":
			u.EmailVerified, ok = v.(bool)
		default:
			return fmt.Errorf("unsupported field %q", k)
		}
		if !ok {
			return fmt.Errorf("field %q: unexpected type %T", k, v)
		}
	}
	return nil
}

// NormalizeEmail is applied on every write and lookup so identity matching is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" validate:"omitempty,email"`
}
