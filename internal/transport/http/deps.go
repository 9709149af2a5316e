package http

import (
	"context"
	"io"

	"github.com/storefront-api/internal/domain"
)

// UserRepository is the credential store the router requires. Both the
// DynamoDB and the in-memory repos satisfy it.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByToken looks up the holder of an outstanding token via the
	// verification_token GSI.
	GetByToken(ctx context.Context, token string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SetToken(ctx context.Context, userID string, p domain.PendingToken) error
	// ClearToken applies updates and removes the token fields in one write,
	// provided the stored token still equals expected.
	ClearToken(ctx context.Context, userID, expected string, updates map[string]interface{}) error
	Delete(ctx context.Context, userID string) error
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
}

// ProductRepository is the minimal interface the router requires from a product store.
type ProductRepository interface {
	Put(ctx context.Context, p *domain.Product) error
	Get(ctx context.Context, productID string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Delete(ctx context.Context, productID string) error
}

// OrderRepository is the minimal interface the router requires from an order store.
type OrderRepository interface {
	Put(ctx context.Context, o *domain.Order) error
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, orderID, status string) error
	Delete(ctx context.Context, orderID string) error
}

// ObjectStore is the minimal interface the router requires from an object storage backend.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Notifier delivers account emails.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}
