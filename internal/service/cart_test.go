package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ekaraca/storefront/internal/domain"
	apperrors "github.com/ekaraca/storefront/pkg/errors"
)

func TestCartAddItem(t *testing.T) {
	carts := new(mockCartRepo)
	products := new(mockProductRepo)

	productID := uuid.New()
	products.On("GetByID", mock.Anything, productID).Return(availableProduct(productID, 2500, 5), nil)
	carts.On("Get", mock.Anything, "user-1").Return(&domain.Cart{UserID: "user-1"}, nil)
	carts.On("Save", mock.Anything, mock.Anything).Return(nil)

	svc := NewCartService(carts, products, testLogger())
	cart, err := svc.AddItem(context.Background(), "user-1", productID, 2)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(2500), cart.Items[0].UnitPrice)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestCartAddItem_Unavailable(t *testing.T) {
	carts := new(mockCartRepo)
	products := new(mockProductRepo)

	productID := uuid.New()
	products.On("GetByID", mock.Anything, productID).Return(availableProduct(productID, 2500, 0), nil)

	svc := NewCartService(carts, products, testLogger())
	_, err := svc.AddItem(context.Background(), "user-1", productID, 1)
	require.Error(t, err)
	carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCartGet_RefreshesPricesAndDropsMissing(t *testing.T) {
	carts := new(mockCartRepo)
	products := new(mockProductRepo)

	keptID, goneID := uuid.New(), uuid.New()
	stored := &domain.Cart{
		UserID: "user-1",
		Items: []domain.CartItem{
			{ProductID: keptID, Name: "Mug", UnitPrice: 2000, Quantity: 1},
			{ProductID: goneID, Name: "Bowl", UnitPrice: 900, Quantity: 2},
		},
	}
	carts.On("Get", mock.Anything, "user-1").Return(stored, nil)
	products.On("GetByID", mock.Anything, keptID).Return(availableProduct(keptID, 2500, 5), nil)
	products.On("GetByID", mock.Anything, goneID).
		Return(nil, apperrors.NotFound("product", goneID.String()))
	carts.On("Save", mock.Anything, mock.Anything).Return(nil)

	svc := NewCartService(carts, products, testLogger())
	cart, err := svc.Get(context.Background(), "user-1")
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, keptID, cart.Items[0].ProductID)
	assert.Equal(t, int64(2500), cart.Items[0].UnitPrice, "price refreshed from catalog")
	carts.AssertCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCartUpdateQuantity_ZeroRemoves(t *testing.T) {
	carts := new(mockCartRepo)
	products := new(mockProductRepo)

	productID := uuid.New()
	carts.On("Get", mock.Anything, "user-1").Return(&domain.Cart{
		UserID: "user-1",
		Items:  []domain.CartItem{{ProductID: productID, Quantity: 3}},
	}, nil)
	carts.On("Save", mock.Anything, mock.Anything).Return(nil)

	svc := NewCartService(carts, products, testLogger())
	cart, err := svc.UpdateQuantity(context.Background(), "user-1", productID, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartUpdateQuantity_MissingLine(t *testing.T) {
	carts := new(mockCartRepo)
	carts.On("Get", mock.Anything, "user-1").Return(&domain.Cart{UserID: "user-1"}, nil)

	svc := NewCartService(carts, new(mockProductRepo), testLogger())
	_, err := svc.UpdateQuantity(context.Background(), "user-1", uuid.New(), 2)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestReviewCreate_RejectsOutOfRangeRating(t *testing.T) {
	svc := NewReviewService(new(mockReviewRepo), new(mockProductRepo), nil, testLogger())

	for _, rating := range []int{0, -1, 6} {
		_, err := svc.Create(context.Background(), CreateReviewInput{
			ProductID: uuid.New(),
			UserID:    "user-1",
			Rating:    rating,
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput, "rating %d", rating)
	}
}

func TestReviewCreate_OnePerUser(t *testing.T) {
	reviews := new(mockReviewRepo)
	products := new(mockProductRepo)

	productID := uuid.New()
	products.On("GetByID", mock.Anything, productID).Return(availableProduct(productID, 1000, 1), nil)
	reviews.On("ExistsForUser", mock.Anything, productID, "user-1").Return(true, nil)

	svc := NewReviewService(reviews, products, nil, testLogger())
	_, err := svc.Create(context.Background(), CreateReviewInput{
		ProductID: productID,
		UserID:    "user-1",
		Rating:    4,
	})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
