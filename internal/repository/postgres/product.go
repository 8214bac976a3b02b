// Package postgres implements the repository contracts over pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ekaraca/storefront/internal/domain"
	"github.com/ekaraca/storefront/internal/repository"
	"github.com/ekaraca/storefront/pkg/database"
	apperrors "github.com/ekaraca/storefront/pkg/errors"
	"github.com/ekaraca/storefront/pkg/pagination"
)

const productColumns = `id, name, slug, description, category, price, stock,
	stock > 0 AS is_available, featured, customizable, rating, num_reviews,
	image_url, created_at, updated_at`

type productRepository struct {
	db database.DBTX
}

// NewProductRepository creates a pgx-backed product repository.
func NewProductRepository(db database.DBTX) repository.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (id, name, slug, description, category, price, stock,
			featured, customizable, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		p.ID, p.Name, p.Slug, p.Description, p.Category, p.Price, p.Stock,
		p.Featured, p.Customizable, p.ImageURL,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", p.Slug)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	p.IsAvailable = p.Stock > 0
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, id), id.String())
}

func (r *productRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE slug = $1`, productColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, slug), slug)
}

func (r *productRepository) List(ctx context.Context, filter repository.ProductFilter, page pagination.Params) ([]domain.Product, int, error) {
	var (
		conditions []string
		args       []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Category != "" {
		conditions = append(conditions, "category = "+arg(filter.Category))
	}
	if filter.Featured != nil {
		conditions = append(conditions, "featured = "+arg(*filter.Featured))
	}
	if filter.Search != "" {
		placeholder := arg("%" + filter.Search + "%")
		conditions = append(conditions, fmt.Sprintf("(name ILIKE %s OR description ILIKE %s)", placeholder, placeholder))
	}
	if filter.InStockOnly {
		conditions = append(conditions, "stock > 0")
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total
		FROM products
		%s
		ORDER BY created_at DESC
		LIMIT %s OFFSET %s`,
		productColumns, where, arg(page.Limit()), arg(page.Offset()))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var (
		products []domain.Product
		total    int
	)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Slug, &p.Description, &p.Category, &p.Price,
			&p.Stock, &p.IsAvailable, &p.Featured, &p.Customizable, &p.Rating,
			&p.NumReviews, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate products: %w", err)
	}

	return products, total, nil
}

func (r *productRepository) Update(ctx context.Context, p *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, slug = $3, description = $4, category = $5, price = $6,
			stock = $7, featured = $8, customizable = $9, image_url = $10,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		p.ID, p.Name, p.Slug, p.Description, p.Category, p.Price, p.Stock,
		p.Featured, p.Customizable, p.ImageURL,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("product", p.ID.String())
		}
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", p.Slug)
		}
		return fmt.Errorf("update product: %w", err)
	}

	p.IsAvailable = p.Stock > 0
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("product", id.String())
	}
	return nil
}

func (r *productRepository) scanOne(row pgx.Row, ref string) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Category, &p.Price,
		&p.Stock, &p.IsAvailable, &p.Featured, &p.Customizable, &p.Rating,
		&p.NumReviews, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", ref)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
