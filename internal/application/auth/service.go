package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/storefront-api/internal/application/token"
	"github.com/storefront-api/internal/domain"
	"github.com/storefront-api/internal/pkg/id"
	"github.com/storefront-api/internal/pkg/password"
	"github.com/storefront-api/internal/pkg/validate"
)

// Attribute names used in partial update maps.
const (
	fieldPasswordHash  = "password_hash"
	fieldEmailVerified = "email_verified"
)

// registerMinLength is the length check applied at sign-up. Change and reset
// use their own policies.
const registerMinLength = 8

type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (string, *domain.User, error)
	Login(ctx context.Context, req domain.LoginRequest) (string, error)
	AdminLogin(ctx context.Context, req domain.LoginRequest) (string, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, tok, newPassword string) error
	SendVerificationCode(ctx context.Context, email string) error
	VerifyEmailCode(ctx context.Context, email, code string) error
	VerifyEmailLink(ctx context.Context, tok string) error
}

type userStore interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type credentialSigner interface {
	Sign(userID, role string) (string, error)
	SignAdmin(email string) (string, error)
}

type tokenIssuer interface {
	Issue(ctx context.Context, email string, purpose domain.TokenPurpose) (*token.Issued, error)
	IssueFor(ctx context.Context, u *domain.User, purpose domain.TokenPurpose) (*token.Issued, error)
}

type tokenRedeemer interface {
	RedeemByToken(ctx context.Context, purpose domain.TokenPurpose, tok string, t token.Transition) (*domain.User, error)
	RedeemForIdentity(ctx context.Context, email string, purpose domain.TokenPurpose, tok string, t token.Transition) (*domain.User, error)
}

type service struct {
	repo         userStore
	signer       credentialSigner
	issuer       tokenIssuer
	redeemer     tokenRedeemer
	changePolicy password.Policy
	resetPolicy  password.Policy
	adminEmail   string
	adminHash    string
	now          func() time.Time
}

type ServiceDeps struct {
	UserRepo          userStore
	Signer            credentialSigner
	Issuer            tokenIssuer
	Redeemer          tokenRedeemer
	ChangePolicy      password.Policy
	ResetPolicy       password.Policy
	AdminEmail        string
	AdminPasswordHash string
	Now               func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:         deps.UserRepo,
		signer:       deps.Signer,
		issuer:       deps.Issuer,
		redeemer:     deps.Redeemer,
		changePolicy: deps.ChangePolicy,
		resetPolicy:  deps.ResetPolicy,
		adminEmail:   domain.NormalizeEmail(deps.AdminEmail),
		adminHash:    deps.AdminPasswordHash,
		now:          now,
	}
}

func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (string, *domain.User, error) {
	email := domain.NormalizeEmail(req.Email)
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return "", nil, domain.NewError(domain.ErrConflict, "User already exists")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return "", nil, err
	}
	if !validate.Email(email) {
		return "", nil, domain.NewError(domain.ErrValidation, "Please enter a valid email")
	}
	if len(req.Password) < registerMinLength {
		return "", nil, domain.NewError(domain.ErrValidation, "Please enter a strong password")
	}
	if strings.TrimSpace(req.Name) == "" {
		return "", nil, domain.NewError(domain.ErrValidation, "Please enter your name")
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return "", nil, err
	}
	now := s.now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return "", nil, domain.NewError(domain.ErrConflict, "User already exists")
		}
		return "", nil, err
	}
	bearer, err := s.signer.Sign(u.UserID, u.Role)
	if err != nil {
		return "", nil, err
	}

	// The account exists either way; a missed verification email can be re-requested.
	if _, err := s.issuer.IssueFor(ctx, u, domain.PurposeEmailVerification); err != nil {
		slog.Warn("verification email not sent at registration", "user_id", u.UserID, "err", err)
	}
	return bearer, u.Public(), nil
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (string, error) {
	u, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.NewError(domain.ErrNotFound, "User doesn't exist")
		}
		return "", err
	}
	ok, err := password.Matches(u.PasswordHash, req.Password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.NewError(domain.ErrUnauthorized, "Invalid credentials")
	}
	return s.signer.Sign(u.UserID, u.Role)
}

func (s *service) AdminLogin(_ context.Context, req domain.LoginRequest) (string, error) {
	if s.adminEmail == "" || s.adminHash == "" {
		slog.Warn("admin login attempted but ADMIN_EMAIL or ADMIN_PASSWORD_HASH is unset")
		return "", domain.NewError(domain.ErrUnauthorized, "Invalid credentials")
	}
	emailOK := subtle.ConstantTimeCompare([]byte(domain.NormalizeEmail(req.Email)), []byte(s.adminEmail)) == 1
	pwOK, err := password.Matches(s.adminHash, req.Password)
	if err != nil {
		return "", err
	}
	if !emailOK || !pwOK {
		return "", domain.NewError(domain.ErrUnauthorized, "Invalid credentials")
	}
	return s.signer.SignAdmin(s.adminEmail)
}

func (s *service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewError(domain.ErrNotFound, "User not found")
		}
		return err
	}
	ok, err := password.Matches(u.PasswordHash, oldPassword)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NewError(domain.ErrValidation, "Old password is incorrect")
	}
	if err := rejectReuse(u, newPassword, "New password cannot be the same as old password"); err != nil {
		return err
	}
	if err := s.changePolicy.Check(newPassword); err != nil {
		return err
	}
	hash, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, userID, map[string]interface{}{fieldPasswordHash: hash}); err != nil {
		return err
	}
	slog.Info("password changed", "user_id", userID)
	return nil
}

func (s *service) ForgotPassword(ctx context.Context, email string) error {
	_, err := s.issuer.Issue(ctx, email, domain.PurposePasswordReset)
	return err
}

func (s *service) ResetPassword(ctx context.Context, tok, newPassword string) error {
	u, err := s.redeemer.RedeemByToken(ctx, domain.PurposePasswordReset, tok, func(u *domain.User) (map[string]interface{}, error) {
		if err := s.resetPolicy.Check(newPassword); err != nil {
			return nil, err
		}
		if err := rejectReuse(u, newPassword, "New password cannot be the same as the old password"); err != nil {
			return nil, err
		}
		hash, err := password.Hash(newPassword)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{fieldPasswordHash: hash}, nil
	})
	if err != nil {
		return err
	}
	slog.Info("password reset", "user_id", u.UserID)
	return nil
}

func (s *service) SendVerificationCode(ctx context.Context, email string) error {
	if !validate.Email(domain.NormalizeEmail(email)) {
		return domain.NewError(domain.ErrValidation, "Invalid email address")
	}
	_, err := s.issuer.Issue(ctx, email, domain.PurposeEmailCode)
	return err
}

func (s *service) VerifyEmailCode(ctx context.Context, email, code string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(code) == "" {
		return domain.NewError(domain.ErrValidation, "Email and code are required")
	}
	_, err := s.redeemer.RedeemForIdentity(ctx, email, domain.PurposeEmailCode, strings.TrimSpace(code), markVerified)
	return err
}

func (s *service) VerifyEmailLink(ctx context.Context, tok string) error {
	_, err := s.redeemer.RedeemByToken(ctx, domain.PurposeEmailVerification, tok, markVerified)
	return err
}

func markVerified(*domain.User) (map[string]interface{}, error) {
	return map[string]interface{}{fieldEmailVerified: true}, nil
}

// rejectReuse compares against the stored hash, so only an exact plaintext match is refused.
func rejectReuse(u *domain.User, newPassword, msg string) error {
	same, err := password.Matches(u.PasswordHash, newPassword)
	if err != nil {
		return err
	}
	if same {
		return domain.NewError(domain.ErrValidation, msg)
	}
	return nil
}
