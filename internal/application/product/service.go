package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/storefront-api/internal/domain"
	"github.com/storefront-api/internal/pkg/id"
	"github.com/storefront-api/internal/pkg/validate"
)

// MaxImages is the number of image slots a product form carries.
const MaxImages = 4

// ImageInput is one uploaded image part.
type ImageInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
}

type Service interface {
	Add(ctx context.Context, req domain.CreateProductRequest, images []ImageInput) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, productID string) (*domain.Product, error)
	Remove(ctx context.Context, productID string) error
}

type productStore interface {
	Put(ctx context.Context, p *domain.Product) error
	Get(ctx context.Context, productID string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Delete(ctx context.Context, productID string) error
}

type imageStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	repo   productStore
	images imageStore
	now    func() time.Time
}

type ServiceDeps struct {
	ProductRepo productStore
	Images      imageStore
	Now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: deps.ProductRepo, images: deps.Images, now: now}
}

func (s *service) Add(ctx context.Context, req domain.CreateProductRequest, images []ImageInput) (*domain.Product, error) {
	if err := validate.Struct(req); err != nil {
		return nil, domain.NewError(domain.ErrValidation, err.Error())
	}
	if len(images) > MaxImages {
		return nil, domain.NewError(domain.ErrValidation, fmt.Sprintf("At most %d images are allowed", MaxImages))
	}

	p := &domain.Product{
		ProductID:   id.New(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		SubCategory: req.SubCategory,
		Sizes:       req.Sizes,
		Bestseller:  req.Bestseller,
		Images:      []string{},
		ImageKeys:   []string{},
		CreatedAt:   s.now().UTC(),
	}
	for i, img := range images {
		key := fmt.Sprintf("products/%s/%d-%s", p.ProductID, i+1, sanitizeFilename(img.Filename))
		url, err := s.images.Upload(ctx, key, img.Reader, img.ContentType)
		if err != nil {
			s.discard(ctx, p.ImageKeys)
			return nil, fmt.Errorf("upload image %d: %w", i+1, err)
		}
		p.Images = append(p.Images, url)
		p.ImageKeys = append(p.ImageKeys, key)
	}
	if err := s.repo.Put(ctx, p); err != nil {
		s.discard(ctx, p.ImageKeys)
		return nil, err
	}
	slog.Info("product added", "product_id", p.ProductID, "images", len(p.Images))
	return p, nil
}

func (s *service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

func (s *service) Get(ctx context.Context, productID string) (*domain.Product, error) {
	p, err := s.repo.Get(ctx, productID)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (s *service) Remove(ctx context.Context, productID string) error {
	p, err := s.repo.Get(ctx, productID)
	if err != nil {
		return notFound(err)
	}
	if err := s.repo.Delete(ctx, productID); err != nil {
		return notFound(err)
	}
	s.discard(ctx, p.ImageKeys)
	slog.Info("product removed", "product_id", productID)
	return nil
}

// discard deletes objects best-effort; an orphaned image is not worth failing the request for.
func (s *service) discard(ctx context.Context, keys []string) {
	for _, k := range keys {
		if err := s.images.Delete(ctx, k); err != nil {
			slog.Warn("failed to delete product image", "key", k, "err", err)
		}
	}
}

func notFound(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewError(domain.ErrNotFound, "Product not found")
	}
	return err
}

// sanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) so object keys cannot escape the product prefix.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." && result != ".." {
		return result
	}
	return "image"
}
