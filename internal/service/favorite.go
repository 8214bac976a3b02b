package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ekaraca/storefront/internal/domain"
	"github.com/ekaraca/storefront/internal/repository"
)

// FavoriteService manages per-user saved products.
type FavoriteService struct {
	favorites repository.FavoriteRepository
	products  repository.ProductRepository
	logger    *slog.Logger
}

// NewFavoriteService wires the favorites use cases.
func NewFavoriteService(favorites repository.FavoriteRepository, products repository.ProductRepository, logger *slog.Logger) *FavoriteService {
	return &FavoriteService{favorites: favorites, products: products, logger: logger}
}

// Add favorites a product. Adding twice is a no-op.
func (s *FavoriteService) Add(ctx context.Context, userID string, productID uuid.UUID) error {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return err
	}
	return s.favorites.Add(ctx, userID, productID)
}

// Remove unfavorites a product.
func (s *FavoriteService) Remove(ctx context.Context, userID string, productID uuid.UUID) error {
	return s.favorites.Remove(ctx, userID, productID)
}

// List returns the user's favorite products, most recently added first.
func (s *FavoriteService) List(ctx context.Context, userID string) ([]domain.Product, error) {
	return s.favorites.ListByUser(ctx, userID)
}
