package user

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/storefront-api/internal/domain"
	"github.com/storefront-api/internal/pkg/validate"
)

// Attribute names used in partial update maps.
const (
	fieldName  = "name"
	fieldEmail = "email"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// Service is the admin-side user management API.
type Service interface {
	List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, userID string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	Delete(ctx context.Context, userID string) error
}

type service struct {
	repo userStore
}

type ServiceDeps struct {
	UserRepo userStore
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.UserRepo}
}

func (s *service) List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error) {
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	users, next, err := s.repo.ScanPage(ctx, int32(limit), cursor)
	if err != nil {
		return nil, "", err
	}
	for i := range users {
		users[i] = *users[i].Public()
	}
	return users, next, nil
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return u.Public(), nil
}

func (s *service) Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.NewError(domain.ErrValidation, "Name cannot be empty")
		}
		updates[fieldName] = name
	}
	if req.Email != nil {
		email := domain.NormalizeEmail(*req.Email)
		if !validate.Email(email) {
			return nil, domain.NewError(domain.ErrValidation, "Please enter a valid email")
		}
		owner, err := s.repo.GetByEmail(ctx, email)
		switch {
		case err == nil && owner.UserID != userID:
			return nil, domain.NewError(domain.ErrConflict, "Email already in use")
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
		updates[fieldEmail] = email
	}
	if len(updates) == 0 {
		return s.Get(ctx, userID)
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, notFound(err)
	}
	slog.Info("user updated", "user_id", userID)
	return s.Get(ctx, userID)
}

func (s *service) Delete(ctx context.Context, userID string) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		return notFound(err)
	}
	slog.Info("user deleted", "user_id", userID)
	return nil
}

func notFound(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewError(domain.ErrNotFound, "User not found")
	}
	return err
}
