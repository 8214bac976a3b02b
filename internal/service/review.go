package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ekaraca/storefront/internal/domain"
	"github.com/ekaraca/storefront/internal/repository"
	apperrors "github.com/ekaraca/storefront/pkg/errors"
	"github.com/ekaraca/storefront/pkg/pagination"
)

// CreateReviewInput is the payload for a new product review.
type CreateReviewInput struct {
	ProductID uuid.UUID
	UserID    string
	Rating    int
	Title     string
	Body      string
}

// ReviewService implements product reviews with the running-average rating
// update.
type ReviewService struct {
	reviews  repository.ReviewRepository
	products repository.ProductRepository
	cache    ProductCacheInvalidator
	logger   *slog.Logger
}

// NewReviewService wires the review use cases. cache may be nil.
func NewReviewService(
	reviews repository.ReviewRepository,
	products repository.ProductRepository,
	cache ProductCacheInvalidator,
	logger *slog.Logger,
) *ReviewService {
	if cache == nil {
		cache = noopInvalidator{}
	}
	return &ReviewService{reviews: reviews, products: products, cache: cache, logger: logger}
}

// Create adds a review. One review per user per product.
func (s *ReviewService) Create(ctx context.Context, input CreateReviewInput) (*domain.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperrors.InvalidInput("rating must be between 1 and 5")
	}

	if _, err := s.products.GetByID(ctx, input.ProductID); err != nil {
		return nil, err
	}

	exists, err := s.reviews.ExistsForUser(ctx, input.ProductID, input.UserID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.AlreadyExists("review", "product", input.ProductID.String())
	}

	review := &domain.Review{
		ID:        uuid.New(),
		ProductID: input.ProductID,
		UserID:    input.UserID,
		Rating:    input.Rating,
		Title:     input.Title,
		Body:      input.Body,
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, input.ProductID)
	s.logger.Info("review created", "product_id", input.ProductID, "rating", input.Rating)
	return review, nil
}

// ListByProduct returns a product's reviews, newest first.
func (s *ReviewService) ListByProduct(ctx context.Context, productID uuid.UUID, page pagination.Params) ([]domain.Review, int, error) {
	return s.reviews.ListByProduct(ctx, productID, page)
}
