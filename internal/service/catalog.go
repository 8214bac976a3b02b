package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ekaraca/storefront/internal/domain"
	"github.com/ekaraca/storefront/internal/repository"
	"github.com/ekaraca/storefront/pkg/pagination"
	"github.com/ekaraca/storefront/pkg/slug"
)

// ProductCache is a read-through cache for single-product lookups.
type ProductCache interface {
	ProductCacheInvalidator
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, bool)
	Set(ctx context.Context, p *domain.Product)
}

type noopCache struct{ noopInvalidator }

func (noopCache) Get(context.Context, uuid.UUID) (*domain.Product, bool) { return nil, false }
func (noopCache) Set(context.Context, *domain.Product)                   {}

// CreateProductInput is the admin payload for a new catalog item.
type CreateProductInput struct {
	Name         string
	Description  string
	Category     string
	Price        int64
	Stock        int
	Featured     bool
	Customizable bool
	ImageURL     string
}

// UpdateProductInput mirrors CreateProductInput for full replacement.
type UpdateProductInput = CreateProductInput

// CatalogService implements product CRUD and catalog reads.
type CatalogService struct {
	products repository.ProductRepository
	cache    ProductCache
	logger   *slog.Logger
}

// NewCatalogService wires the catalog use cases. cache may be nil.
func NewCatalogService(products repository.ProductRepository, cache ProductCache, logger *slog.Logger) *CatalogService {
	if cache == nil {
		cache = noopCache{}
	}
	return &CatalogService{products: products, cache: cache, logger: logger}
}

func (s *CatalogService) Create(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	product := &domain.Product{
		ID:           uuid.New(),
		Name:         input.Name,
		Slug:         slug.Generate(input.Name),
		Description:  input.Description,
		Category:     input.Category,
		Price:        input.Price,
		Stock:        input.Stock,
		Featured:     input.Featured,
		Customizable: input.Customizable,
		ImageURL:     input.ImageURL,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("product created", "product_id", product.ID, "slug", product.Slug)
	return product, nil
}

// Get reads one product, preferring the cache.
func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	if cached, ok := s.cache.Get(ctx, id); ok {
		return cached, nil
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, product)
	return product, nil
}

func (s *CatalogService) GetBySlug(ctx context.Context, productSlug string) (*domain.Product, error) {
	return s.products.GetBySlug(ctx, productSlug)
}

func (s *CatalogService) List(ctx context.Context, filter repository.ProductFilter, page pagination.Params) ([]domain.Product, int, error) {
	return s.products.List(ctx, filter, page)
}

func (s *CatalogService) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*domain.Product, error) {
	product := &domain.Product{
		ID:           id,
		Name:         input.Name,
		Slug:         slug.Generate(input.Name),
		Description:  input.Description,
		Category:     input.Category,
		Price:        input.Price,
		Stock:        input.Stock,
		Featured:     input.Featured,
		Customizable: input.Customizable,
		ImageURL:     input.ImageURL,
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, id)
	s.logger.Info("product updated", "product_id", id)
	return product, nil
}

func (s *CatalogService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, id)
	s.logger.Info("product deleted", "product_id", id)
	return nil
}
