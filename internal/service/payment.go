package service

import (
	"context"
	"log/slog"

	"github.com/ekaraca/storefront/internal/domain"
	"github.com/ekaraca/storefront/internal/event"
	"github.com/ekaraca/storefront/internal/gateway"
	"github.com/ekaraca/storefront/internal/repository"
	apperrors "github.com/ekaraca/storefront/pkg/errors"
)

// CheckoutResult is what the frontend needs to open the gateway's payment
// page.
type CheckoutResult struct {
	Order          *domain.Order `json:"order"`
	GatewayOrderID string        `json:"gateway_order_id"`
	KeyID          string        `json:"key_id"`
	Amount         int64         `json:"amount"`
	Currency       string        `json:"currency"`
}

// VerifyPaymentInput carries the fields the gateway's checkout hands back
// to the client after payment.
type VerifyPaymentInput struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// PaymentService drives the gateway checkout saga and payment verification.
type PaymentService struct {
	orders   *OrderService
	repo     repository.OrderRepository
	gateway  gateway.Gateway
	events   event.Publisher
	logger   *slog.Logger
}

// NewPaymentService wires the payment use cases.
func NewPaymentService(
	orders *OrderService,
	repo repository.OrderRepository,
	gw gateway.Gateway,
	events event.Publisher,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		orders:  orders,
		repo:    repo,
		gateway: gw,
		events:  events,
		logger:  logger,
	}
}

// Checkout places the order locally, registers a payment intent with the
// gateway and links the two. If the gateway call fails, the local order is
// deleted and its stock restored, then a gateway error is surfaced.
func (s *PaymentService) Checkout(ctx context.Context, input CreateOrderInput) (*CheckoutResult, error) {
	input.PaymentMethod = domain.MethodGateway

	var (
		order          *domain.Order
		gatewayOrderID string
	)

	steps := &saga{
		logger: s.logger,
		steps: []sagaStep{
			{
				name: "create local order",
				execute: func(ctx context.Context) error {
					var err error
					order, err = s.orders.Create(ctx, input)
					return err
				},
				compensate: func(ctx context.Context) error {
					return s.repo.DeleteWithRestock(ctx, order.ID)
				},
			},
			{
				name: "create gateway order",
				execute: func(ctx context.Context) error {
					var err error
					gatewayOrderID, err = s.gateway.CreateOrder(ctx,
						order.TotalAmount, order.Currency, order.ID.String())
					if err != nil {
						return apperrors.Gateway(err)
					}
					return nil
				},
			},
			{
				name: "link gateway order",
				execute: func(ctx context.Context) error {
					return s.repo.SetGatewayOrder(ctx, order.ID, gatewayOrderID)
				},
			},
		},
	}

	if err := steps.run(ctx); err != nil {
		return nil, err
	}

	order.GatewayOrderID = gatewayOrderID
	s.logger.Info("checkout created",
		"order_id", order.ID,
		"gateway_order_id", gatewayOrderID,
		"amount", order.TotalAmount,
	)

	return &CheckoutResult{
		Order:          order,
		GatewayOrderID: gatewayOrderID,
		KeyID:          s.gateway.KeyID(),
		Amount:         order.TotalAmount,
		Currency:       order.Currency,
	}, nil
}

// Verify checks the payment signature and, on first success, marks the
// order paid and confirms it. Replays of an already-verified payment return
// the order unchanged.
func (s *PaymentService) Verify(ctx context.Context, input VerifyPaymentInput, actor string) (*domain.Order, error) {
	if !s.gateway.VerifySignature(input.GatewayOrderID, input.GatewayPaymentID, input.Signature) {
		s.logger.Warn("payment signature mismatch",
			"gateway_order_id", input.GatewayOrderID,
		)
		return nil, apperrors.InvalidPaymentSignature()
	}

	order, err := s.repo.GetByGatewayOrderID(ctx, input.GatewayOrderID)
	if err != nil {
		return nil, err
	}

	// Idempotent: the gateway may retry the callback.
	if order.PaymentStatus == domain.PaymentPaid {
		return order, nil
	}

	if err := s.repo.MarkPaid(ctx, order.ID, input.GatewayPaymentID, actor); err != nil {
		return nil, err
	}

	order, err = s.repo.GetByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	s.events.OrderStatusChanged(ctx, order.ID.String(), domain.StatusPending, domain.StatusConfirmed, actor)
	s.events.OrderPaid(ctx, order)

	s.logger.Info("payment verified",
		"order_id", order.ID,
		"gateway_payment_id", input.GatewayPaymentID,
	)
	return order, nil
}
