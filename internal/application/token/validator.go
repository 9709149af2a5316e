package token

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/storefront-api/internal/domain"
)

// Transition returns the field updates applied together with the token
// removal. Returning an error aborts the redemption with no mutation.
type Transition func(u *domain.User) (map[string]interface{}, error)

type Validator struct {
	store CredentialStore
	now   func() time.Time
}

func NewValidator(store CredentialStore, now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{store: store, now: now}
}

// ErrInvalid is the single answer for every failed redemption.
func ErrInvalid() error {
	return domain.NewError(domain.ErrInvalidOrExpired, "Invalid or expired token")
}

// RedeemByToken finds the record holding tok and redeems it.
func (v *Validator) RedeemByToken(ctx context.Context, purpose domain.TokenPurpose, tok string, t Transition) (*domain.User, error) {
	if tok == "" {
		return nil, ErrInvalid()
	}
	u, err := v.store.GetByToken(ctx, tok)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalid()
		}
		return nil, err
	}
	return v.redeem(ctx, u, purpose, tok, t)
}

// RedeemForIdentity resolves email first and then compares tok with the stored token.
func (v *Validator) RedeemForIdentity(ctx context.Context, email string, purpose domain.TokenPurpose, tok string, t Transition) (*domain.User, error) {
	if tok == "" {
		return nil, ErrInvalid()
	}
	u, err := v.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalid()
		}
		return nil, err
	}
	return v.redeem(ctx, u, purpose, tok, t)
}

// redeem returns the record as it stands after the updates, with secrets stripped.
func (v *Validator) redeem(ctx context.Context, u *domain.User, purpose domain.TokenPurpose, tok string, t Transition) (*domain.User, error) {
	p, ok := u.Pending()
	if !ok ||
		subtle.ConstantTimeCompare([]byte(p.Token), []byte(tok)) != 1 ||
		p.Purpose != purpose ||
		!v.now().Before(p.ExpiresAt) {
		return nil, ErrInvalid()
	}

	updates := map[string]interface{}{}
	if t != nil {
		var err error
		if updates, err = t(u); err != nil {
			return nil, err
		}
	}
	if err := v.store.ClearToken(ctx, u.UserID, p.Token, updates); err != nil {
		if errors.Is(err, domain.ErrInvalidOrExpired) {
			return nil, ErrInvalid()
		}
		return nil, err
	}
	if err := u.Apply(updates); err != nil {
		return nil, err
	}
	return u.Public(), nil
}
