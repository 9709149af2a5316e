package order

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/storefront-api/internal/domain"
	"github.com/storefront-api/internal/pkg/id"
	"github.com/storefront-api/internal/pkg/validate"
)

type Service interface {
	Place(ctx context.Context, userID string, req domain.PlaceOrderRequest) (*domain.Order, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, orderID, status string) error
	Delete(ctx context.Context, orderID string) error
}

type orderStore interface {
	Put(ctx context.Context, o *domain.Order) error
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, orderID, status string) error
	Delete(ctx context.Context, orderID string) error
}

type service struct {
	repo orderStore
	now  func() time.Time
}

type ServiceDeps struct {
	OrderRepo orderStore
	Now       func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: deps.OrderRepo, now: now}
}

// Place records a cash-on-delivery order for userID.
func (s *service) Place(ctx context.Context, userID string, req domain.PlaceOrderRequest) (*domain.Order, error) {
	if err := validate.Struct(req); err != nil {
		return nil, domain.NewError(domain.ErrValidation, err.Error())
	}
	now := s.now().UTC()
	o := &domain.Order{
		OrderID:       id.New(),
		UserID:        userID,
		Items:         req.Items,
		Amount:        req.Amount,
		Address:       req.Address,
		Status:        domain.OrderStatusPlaced,
		PaymentMethod: domain.PaymentMethodCOD,
		Payment:       false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Put(ctx, o); err != nil {
		return nil, err
	}
	slog.Info("order placed", "order_id", o.OrderID, "user_id", userID)
	return o, nil
}

func (s *service) ListForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) ListAll(ctx context.Context) ([]domain.Order, error) {
	return s.repo.List(ctx)
}

func (s *service) UpdateStatus(ctx context.Context, orderID, status string) error {
	if orderID == "" {
		return domain.NewError(domain.ErrValidation, "Order id is required")
	}
	if !slices.Contains(domain.OrderStatuses, status) {
		return domain.NewError(domain.ErrValidation, "Invalid order status")
	}
	if err := s.repo.UpdateStatus(ctx, orderID, status); err != nil {
		return notFound(err)
	}
	slog.Info("order status updated", "order_id", orderID, "status", status)
	return nil
}

func (s *service) Delete(ctx context.Context, orderID string) error {
	if orderID == "" {
		return domain.NewError(domain.ErrValidation, "Order id is required")
	}
	if err := s.repo.Delete(ctx, orderID); err != nil {
		return notFound(err)
	}
	slog.Info("order deleted", "order_id", orderID)
	return nil
}

func notFound(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewError(domain.ErrNotFound, "Order not found")
	}
	return err
}
