package token

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/storefront-api/internal/domain"
	pkgtoken "github.com/storefront-api/internal/pkg/token"
)

const codeDigits = 6

// CredentialStore is the slice of the user repository the token lifecycle needs.
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByToken(ctx context.Context, token string) (*domain.User, error)
	SetToken(ctx context.Context, userID string, p domain.PendingToken) error
	ClearToken(ctx context.Context, userID, expected string, updates map[string]interface{}) error
}

// Notifier delivers a single message. Implementations make one attempt.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Windows are the validity periods per purpose.
type Windows struct {
	PasswordReset     time.Duration
	EmailVerification time.Duration
	EmailCode         time.Duration
}

func (w Windows) For(p domain.TokenPurpose) time.Duration {
	switch p {
	case domain.PurposePasswordReset:
		return w.PasswordReset
	case domain.PurposeEmailVerification:
		return w.EmailVerification
	default:
		return w.EmailCode
	}
}

// Issued is the token that was written to the store.
type Issued struct {
	UserID    string
	Token     string
	Purpose   domain.TokenPurpose
	ExpiresAt time.Time
}

type IssuerDeps struct {
	Store     CredentialStore
	Notifier  Notifier
	Windows   Windows
	ClientURL string
	Now       func() time.Time
}

type Issuer struct {
	store     CredentialStore
	notifier  Notifier
	windows   Windows
	clientURL string
	now       func() time.Time
}

func NewIssuer(deps IssuerDeps) *Issuer {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Issuer{
		store:     deps.Store,
		notifier:  deps.Notifier,
		windows:   deps.Windows,
		clientURL: deps.ClientURL,
		now:       now,
	}
}

// Issue mints a token for the user owning email, overwrites any outstanding
// token on the record and notifies the user once. When delivery fails the
// token stays valid and is returned alongside an ErrDeliveryFailed error.
func (i *Issuer) Issue(ctx context.Context, email string, purpose domain.TokenPurpose) (*Issued, error) {
	u, err := i.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.ErrNotFound, "User not found")
		}
		return nil, err
	}
	return i.IssueFor(ctx, u, purpose)
}

// IssueFor issues a token for a record the caller has already resolved, such
// as one it has just created and cannot yet find through the email index.
func (i *Issuer) IssueFor(ctx context.Context, u *domain.User, purpose domain.TokenPurpose) (*Issued, error) {
	tok, err := mint(purpose)
	if err != nil {
		return nil, fmt.Errorf("mint token: %w", err)
	}
	p := domain.PendingToken{
		Token:     tok,
		Purpose:   purpose,
		ExpiresAt: i.now().UTC().Add(i.windows.For(purpose)),
	}
	if err := i.store.SetToken(ctx, u.UserID, p); err != nil {
		return nil, err
	}
	issued := &Issued{UserID: u.UserID, Token: tok, Purpose: purpose, ExpiresAt: p.ExpiresAt}

	subject, body := i.message(purpose, tok)
	if err := i.notifier.Send(ctx, u.Email, subject, body); err != nil {
		slog.Error("token delivery failed", "user_id", u.UserID, "purpose", purpose, "err", err)
		return issued, domain.NewError(domain.ErrDeliveryFailed, "Error sending email")
	}
	slog.Info("token issued", "user_id", u.UserID, "purpose", purpose)
	return issued, nil
}

func mint(purpose domain.TokenPurpose) (string, error) {
	if purpose == domain.PurposeEmailCode {
		return pkgtoken.NewNumericCode(codeDigits)
	}
	return pkgtoken.NewOpaque(pkgtoken.OpaqueBytes)
}

func (i *Issuer) message(purpose domain.TokenPurpose, tok string) (subject, body string) {
	switch purpose {
	case domain.PurposePasswordReset:
		link := i.clientURL + "/reset-password/" + tok
		return "Password Reset Request",
			"You requested a password reset for your account.\n\n" +
				"Open the link below to choose a new password. It expires in " + humanize(i.windows.PasswordReset) + ".\n\n" +
				link + "\n\nIf you did not request this, ignore this email and your password will stay the same.\n"
	case domain.PurposeEmailVerification:
		link := i.clientURL + "/verify-email/" + tok
		return "Verify your email",
			"Please confirm your email address by opening the link below. It expires in " +
				humanize(i.windows.EmailVerification) + ".\n\n" + link + "\n"
	default:
		return "Your verification code",
			"Your verification code is " + tok + ". It expires in " + humanize(i.windows.EmailCode) + ".\n"
	}
}

func humanize(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	m := int(d / time.Minute)
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}
