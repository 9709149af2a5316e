package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/storefront-api/internal/domain"
)

// UserRepo is an in-process credential store with the same contract as the
// DynamoDB one. Records are copied on the way in and out.
type UserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
	now   func() time.Time
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[string]domain.User), now: time.Now}
}

func (r *UserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.UserID]; ok {
		return fmt.Errorf("user id already exists: %w", domain.ErrConflict)
	}
	u.Email = domain.NormalizeEmail(u.Email)
	r.users[u.UserID] = clone(*u)
	return nil
}

func (r *UserRepo) Get(_ context.Context, userID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	c := clone(u)
	return &c, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	return r.find(func(u domain.User) bool { return u.Email == email })
}

func (r *UserRepo) GetByToken(_ context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return r.find(func(u domain.User) bool {
		return u.VerificationToken != nil && *u.VerificationToken == token
	})
}

func (r *UserRepo) Update(_ context.Context, userID string, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	if err := u.Apply(updates); err != nil {
		return err
	}
	u.UpdatedAt = r.now().UTC()
	r.users[userID] = u
	return nil
}

func (r *UserRepo) SetToken(_ context.Context, userID string, p domain.PendingToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	tok, exp, purpose := p.Token, p.ExpiresAt.UTC(), p.Purpose
	u.VerificationToken, u.VerificationExpiry, u.TokenPurpose = &tok, &exp, &purpose
	u.UpdatedAt = r.now().UTC()
	r.users[userID] = u
	return nil
}

func (r *UserRepo) ClearToken(_ context.Context, userID, expected string, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || u.VerificationToken == nil || *u.VerificationToken != expected {
		return fmt.Errorf("token no longer outstanding: %w", domain.ErrInvalidOrExpired)
	}
	if err := u.Apply(updates); err != nil {
		return err
	}
	u.VerificationToken, u.VerificationExpiry, u.TokenPurpose = nil, nil, nil
	u.UpdatedAt = r.now().UTC()
	r.users[userID] = u
	return nil
}

func (r *UserRepo) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	delete(r.users, userID)
	return nil
}

// ScanPage pages through users ordered by id; cursor is the last id returned.
func (r *UserRepo) ScanPage(_ context.Context, limit int32, cursor string) ([]domain.User, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		if id > cursor {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	next := ""
	if int32(len(ids)) > limit {
		ids = ids[:limit]
		next = ids[len(ids)-1]
	}
	out := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, clone(r.users[id]))
	}
	return out, next, nil
}

func (r *UserRepo) find(match func(domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			c := clone(u)
			return &c, nil
		}
	}
	return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
}

func clone(u domain.User) domain.User {
	if u.VerificationToken != nil {
		t := *u.VerificationToken
		u.VerificationToken = &t
	}
	if u.VerificationExpiry != nil {
		e := *u.VerificationExpiry
		u.VerificationExpiry = &e
	}
	if u.TokenPurpose != nil {
		p := *u.TokenPurpose
		u.TokenPurpose = &p
	}
	return u
}
