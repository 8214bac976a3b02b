// Package repository defines the persistence contracts used by the service
// layer.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ekaraca/storefront/internal/domain"
	"github.com/ekaraca/storefront/pkg/pagination"
)

// ProductFilter narrows catalog list queries.
type ProductFilter struct {
	Category string
	Featured *bool
	// Search matches name and description, case insensitive.
	Search string
	// InStockOnly keeps only products with stock > 0.
	InStockOnly bool
}

// OrderSort is a whitelisted sort order for admin order listings.
type OrderSort string

const (
	SortDateDesc   OrderSort = "date_desc"
	SortDateAsc    OrderSort = "date_asc"
	SortAmountDesc OrderSort = "amount_desc"
	SortAmountAsc  OrderSort = "amount_asc"
)

// ParseOrderSort validates a raw sort value, defaulting to newest first.
func ParseOrderSort(raw string) (OrderSort, bool) {
	switch OrderSort(raw) {
	case SortDateDesc, SortDateAsc, SortAmountDesc, SortAmountAsc:
		return OrderSort(raw), true
	case "":
		return SortDateDesc, true
	}
	return SortDateDesc, false
}

// OrderFilter narrows order list queries.
type OrderFilter struct {
	UserID        string
	Status        domain.Status
	PaymentStatus domain.PaymentStatus
	// Search matches customer name, email and the address snapshot.
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
	Sort      OrderSort
}

// ProductRepository persists catalog items.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter, page pagination.Params) ([]domain.Product, int, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ReviewRepository persists product reviews. Create also folds the new
// rating into the product's running average inside the same transaction.
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	ListByProduct(ctx context.Context, productID uuid.UUID, page pagination.Params) ([]domain.Review, int, error)
	ExistsForUser(ctx context.Context, productID uuid.UUID, userID string) (bool, error)
}

// OrderRepository persists orders. Multi-row operations (creation,
// transitions, compensation) each run inside a single transaction.
type OrderRepository interface {
	// Create inserts the order, its items and the initial history row, and
	// conditionally decrements stock for every line item. If any product
	// has insufficient stock the whole transaction is rolled back and
	// ErrInsufficientStock is returned.
	Create(ctx context.Context, order *domain.Order) error

	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter, page pagination.Params) ([]domain.Order, int, error)
	History(ctx context.Context, orderID uuid.UUID) ([]domain.StatusChange, error)

	// ApplyTransition moves the order from one status to another with its
	// stock side effects (restore on entering canceled, re-deduct on
	// leaving it) and a history row, all in one transaction. The status
	// update is guarded by the expected current status.
	ApplyTransition(ctx context.Context, orderID uuid.UUID, from, to domain.Status, actor, note string) error

	// SetGatewayOrder stores the remote gateway order id after intent
	// creation.
	SetGatewayOrder(ctx context.Context, orderID uuid.UUID, gatewayOrderID string) error

	// MarkPaid records a successful payment: payment_status=paid, the
	// gateway payment id, the pending->confirmed flip and a history row.
	MarkPaid(ctx context.Context, orderID uuid.UUID, gatewayPaymentID, actor string) error

	// DeleteWithRestock removes the order, its items and history, and
	// restores the stock its creation deducted. Used to compensate a
	// failed gateway intent.
	DeleteWithRestock(ctx context.Context, orderID uuid.UUID) error
}

// FavoriteRepository persists user favorites.
type FavoriteRepository interface {
	Add(ctx context.Context, userID string, productID uuid.UUID) error
	Remove(ctx context.Context, userID string, productID uuid.UUID) error
	ListByUser(ctx context.Context, userID string) ([]domain.Product, error)
}

// CartRepository stores per-user carts.
type CartRepository interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}
