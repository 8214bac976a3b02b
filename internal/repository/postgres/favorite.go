package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ekaraca/storefront/internal/domain"
	"github.com/ekaraca/storefront/internal/repository"
	"github.com/ekaraca/storefront/pkg/database"
	apperrors "github.com/ekaraca/storefront/pkg/errors"
)

type favoriteRepository struct {
	db database.DBTX
}

// NewFavoriteRepository creates a pgx-backed favorite repository.
func NewFavoriteRepository(db database.DBTX) repository.FavoriteRepository {
	return &favoriteRepository{db: db}
}

// Add is idempotent; favoriting the same product twice is a no-op.
func (r *favoriteRepository) Add(ctx context.Context, userID string, productID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO favorites (user_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, product_id) DO NOTHING`,
		userID, productID,
	)
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

func (r *favoriteRepository) Remove(ctx context.Context, userID string, productID uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("favorite", productID.String())
	}
	return nil
}

func (r *favoriteRepository) ListByUser(ctx context.Context, userID string) ([]domain.Product, error) {
	query := `
		SELECT p.id, p.name, p.slug, p.description, p.category, p.price,
			p.stock, p.stock > 0 AS is_available, p.featured, p.customizable,
			p.rating, p.num_reviews, p.image_url, p.created_at, p.updated_at
		FROM products p
		JOIN favorites f ON f.product_id = p.id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Slug, &p.Description, &p.Category, &p.Price,
			&p.Stock, &p.IsAvailable, &p.Featured, &p.Customizable, &p.Rating,
			&p.NumReviews, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan favorite product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
