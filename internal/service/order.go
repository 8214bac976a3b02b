// Package service implements the application use cases on top of the
// repository and gateway contracts.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ekaraca/storefront/internal/domain"
	"github.com/ekaraca/storefront/internal/event"
	"github.com/ekaraca/storefront/internal/repository"
	apperrors "github.com/ekaraca/storefront/pkg/errors"
	"github.com/ekaraca/storefront/pkg/pagination"
)

// ProductCacheInvalidator drops cached product entries after stock or
// catalog mutations.
type ProductCacheInvalidator interface {
	Invalidate(ctx context.Context, id uuid.UUID)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context, uuid.UUID) {}

// CreateOrderItemInput is one requested line item.
type CreateOrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrderInput carries everything needed to place an order.
type CreateOrderInput struct {
	UserID          string
	CustomerName    string
	CustomerEmail   string
	Items           []CreateOrderItemInput
	ShippingAddress domain.Address
	PaymentMethod   domain.PaymentMethod
}

// OrderService implements order creation, lifecycle transitions and
// listings.
type OrderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	cache    ProductCacheInvalidator
	events   event.Publisher
	currency string
	logger   *slog.Logger
}

// NewOrderService wires the order use cases. cache may be nil when no
// product cache is configured.
func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	cache ProductCacheInvalidator,
	events event.Publisher,
	currency string,
	logger *slog.Logger,
) *OrderService {
	if cache == nil {
		cache = noopInvalidator{}
	}
	return &OrderService{
		orders:   orders,
		products: products,
		cache:    cache,
		events:   events,
		currency: currency,
		logger:   logger,
	}
}

// Create places an order: prices are frozen at current catalog values and
// stock for every line is deducted atomically. Any failed line rejects the
// whole order.
func (s *OrderService) Create(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	if len(input.Items) == 0 {
		return nil, apperrors.InvalidInput("order must contain at least one item")
	}

	order := &domain.Order{
		ID:            uuid.New(),
		UserID:        input.UserID,
		CustomerName:  input.CustomerName,
		CustomerEmail: input.CustomerEmail,
		Currency:      s.currency,
		ShippingAddress: input.ShippingAddress,
		Status:        domain.StatusPending,
		PaymentStatus: domain.PaymentPending,
		PaymentMethod: input.PaymentMethod,
	}

	for _, line := range input.Items {
		if line.Quantity < 1 {
			return nil, apperrors.InvalidInput("item quantity must be at least 1")
		}

		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.IsAvailable {
			return nil, apperrors.ProductUnavailable(product.ID.String())
		}
		if product.Stock < line.Quantity {
			return nil, apperrors.InsufficientStock(product.ID.String())
		}

		order.Items = append(order.Items, domain.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  line.Quantity,
			Subtotal:  product.Price * int64(line.Quantity),
		})
	}
	order.TotalAmount = order.Total()

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	for _, item := range order.Items {
		s.cache.Invalidate(ctx, item.ProductID)
	}
	s.events.OrderCreated(ctx, order)

	s.logger.Info("order created",
		"order_id", order.ID,
		"user_id", order.UserID,
		"total_amount", order.TotalAmount,
		"items", len(order.Items),
	)
	return order, nil
}

// Transition moves the order to the target status if the lifecycle allows
// it. Stock side effects of entering or leaving canceled are applied
// atomically with the status change.
func (s *OrderService) Transition(ctx context.Context, orderID uuid.UUID, target domain.Status, actor, note string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(target) {
		return nil, apperrors.InvalidTransition(order.Status.String(), target.String())
	}

	if err := s.orders.ApplyTransition(ctx, orderID, order.Status, target, actor, note); err != nil {
		return nil, err
	}

	if target == domain.StatusCanceled || order.Status == domain.StatusCanceled {
		for _, item := range order.Items {
			s.cache.Invalidate(ctx, item.ProductID)
		}
	}
	s.events.OrderStatusChanged(ctx, orderID.String(), order.Status, target, actor)

	s.logger.Info("order transitioned",
		"order_id", orderID,
		"from", order.Status,
		"to", target,
		"actor", actor,
	)
	return s.orders.GetByID(ctx, orderID)
}

// Get returns an order. Non-admin callers can only read their own orders;
// foreign orders are reported as not found to avoid leaking their existence.
func (s *OrderService) Get(ctx context.Context, orderID uuid.UUID, userID string, isAdmin bool) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != userID {
		return nil, apperrors.NotFound("order", orderID.String())
	}
	return order, nil
}

// History returns the order's status audit trail, with the same ownership
// rule as Get.
func (s *OrderService) History(ctx context.Context, orderID uuid.UUID, userID string, isAdmin bool) ([]domain.StatusChange, error) {
	if _, err := s.Get(ctx, orderID, userID, isAdmin); err != nil {
		return nil, err
	}
	return s.orders.History(ctx, orderID)
}

// List returns orders matching the filter. Admin only; handlers enforce the
// role.
func (s *OrderService) List(ctx context.Context, filter repository.OrderFilter, page pagination.Params) ([]domain.Order, int, error) {
	return s.orders.List(ctx, filter, page)
}

// ListForUser returns the caller's own orders.
func (s *OrderService) ListForUser(ctx context.Context, userID string, filter repository.OrderFilter, page pagination.Params) ([]domain.Order, int, error) {
	if userID == "" {
		return nil, 0, fmt.Errorf("missing user id: %w", apperrors.ErrUnauthorized)
	}
	filter.UserID = userID
	return s.orders.List(ctx, filter, page)
}
