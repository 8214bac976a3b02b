package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaraca/storefront/internal/domain"
	"github.com/ekaraca/storefront/pkg/database"
	apperrors "github.com/ekaraca/storefront/pkg/errors"
)

func TestReviewCreate_UpdatesRunningAverage(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	review := &domain.Review{
		ID:        uuid.New(),
		ProductID: uuid.New(),
		UserID:    "user-1",
		Rating:    5,
		Title:     "Great",
		Body:      "Would buy again",
	}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO reviews").
		WithArgs(review.ID, review.ProductID, review.UserID, review.Rating,
			review.Title, review.Body).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec("UPDATE products").
		WithArgs(review.ProductID, review.Rating).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	repo := NewReviewRepository(mock)
	require.NoError(t, repo.Create(context.Background(), review))
	assert.False(t, review.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewCreate_MissingProductRollsBack(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	review := &domain.Review{
		ID:        uuid.New(),
		ProductID: uuid.New(),
		UserID:    "user-1",
		Rating:    4,
	}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO reviews").
		WithArgs(review.ID, review.ProductID, review.UserID, review.Rating,
			review.Title, review.Body).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec("UPDATE products").
		WithArgs(review.ProductID, review.Rating).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	repo := NewReviewRepository(mock)
	err = repo.Create(context.Background(), review)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewExistsForUser(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	productID := uuid.New()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(productID, "user-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	repo := NewReviewRepository(mock)
	exists, err := repo.ExistsForUser(context.Background(), productID, "user-1")
	require.NoError(t, err)
	assert.True(t, exists)
}
