package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ekaraca/storefront/internal/domain"
	"github.com/ekaraca/storefront/internal/repository"
	"github.com/ekaraca/storefront/pkg/database"
	apperrors "github.com/ekaraca/storefront/pkg/errors"
	"github.com/ekaraca/storefront/pkg/pagination"
)

type reviewRepository struct {
	db database.DBTX
}

// NewReviewRepository creates a pgx-backed review repository.
func NewReviewRepository(db database.DBTX) repository.ReviewRepository {
	return &reviewRepository{db: db}
}

// Create inserts the review and folds its rating into the product's running
// average in one transaction.
func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO reviews (id, product_id, user_id, rating, title, body)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		review.ID, review.ProductID, review.UserID, review.Rating,
		review.Title, review.Body,
	).Scan(&review.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("review", "product", review.ProductID.String())
		}
		return fmt.Errorf("insert review: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE products
		SET rating = (rating * num_reviews + $2) / (num_reviews + 1),
			num_reviews = num_reviews + 1,
			updated_at = now()
		WHERE id = $1`,
		review.ProductID, review.Rating,
	)
	if err != nil {
		return fmt.Errorf("update product rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("product", review.ProductID.String())
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit review: %w", err)
	}
	return nil
}

func (r *reviewRepository) ListByProduct(ctx context.Context, productID uuid.UUID, page pagination.Params) ([]domain.Review, int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, user_id, rating, title, body, created_at,
			count(*) OVER() AS total
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		productID, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var (
		reviews []domain.Review
		total   int
	)
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Rating,
			&rv.Title, &rv.Body, &rv.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate reviews: %w", err)
	}

	return reviews, total, nil
}

func (r *reviewRepository) ExistsForUser(ctx context.Context, productID uuid.UUID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM reviews WHERE product_id = $1 AND user_id = $2)`,
		productID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check review exists: %w", err)
	}
	return exists, nil
}
