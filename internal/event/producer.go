// Package event publishes order domain events to Kafka. Publishing is best
// effort: failures are logged and never surfaced to the request.
package event

import (
	"context"
	"log/slog"

	"github.com/ekaraca/storefront/internal/domain"
	"github.com/ekaraca/storefront/pkg/kafka"
)

const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
	TypeOrderPaid          = "order.paid"
)

// Publisher emits order lifecycle events.
type Publisher interface {
	OrderCreated(ctx context.Context, order *domain.Order)
	OrderStatusChanged(ctx context.Context, orderID string, from, to domain.Status, actor string)
	OrderPaid(ctx context.Context, order *domain.Order)
}

type producer interface {
	Publish(ctx context.Context, event kafka.Event) error
}

type kafkaPublisher struct {
	producer producer
	logger   *slog.Logger
}

// NewPublisher creates a Kafka-backed publisher.
func NewPublisher(p *kafka.Producer, logger *slog.Logger) Publisher {
	return &kafkaPublisher{producer: p, logger: logger}
}

type orderCreatedPayload struct {
	OrderID     string `json:"order_id"`
	UserID      string `json:"user_id"`
	TotalAmount int64  `json:"total_amount"`
	Currency    string `json:"currency"`
	ItemCount   int    `json:"item_count"`
}

func (p *kafkaPublisher) OrderCreated(ctx context.Context, order *domain.Order) {
	p.publish(ctx, TypeOrderCreated, order.ID.String(), orderCreatedPayload{
		OrderID:     order.ID.String(),
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
		ItemCount:   len(order.Items),
	})
}

type statusChangedPayload struct {
	OrderID string `json:"order_id"`
	From    string `json:"from"`
	To      string `json:"to"`
	Actor   string `json:"actor"`
}

func (p *kafkaPublisher) OrderStatusChanged(ctx context.Context, orderID string, from, to domain.Status, actor string) {
	p.publish(ctx, TypeOrderStatusChanged, orderID, statusChangedPayload{
		OrderID: orderID,
		From:    from.String(),
		To:      to.String(),
		Actor:   actor,
	})
}

type orderPaidPayload struct {
	OrderID          string `json:"order_id"`
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	TotalAmount      int64  `json:"total_amount"`
}

func (p *kafkaPublisher) OrderPaid(ctx context.Context, order *domain.Order) {
	p.publish(ctx, TypeOrderPaid, order.ID.String(), orderPaidPayload{
		OrderID:          order.ID.String(),
		GatewayOrderID:   order.GatewayOrderID,
		GatewayPaymentID: order.GatewayPaymentID,
		TotalAmount:      order.TotalAmount,
	})
}

func (p *kafkaPublisher) publish(ctx context.Context, eventType, aggregateID string, payload any) {
	event, err := kafka.NewEvent(eventType, aggregateID, payload)
	if err != nil {
		p.logger.Error("build event failed", "event_type", eventType, "error", err)
		return
	}
	if err := p.producer.Publish(ctx, event); err != nil {
		p.logger.Error("publish event failed",
			"event_type", eventType,
			"aggregate_id", aggregateID,
			"error", err,
		)
	}
}

// NoopPublisher discards all events. Used when Kafka is disabled and in
// tests.
type NoopPublisher struct{}

func (NoopPublisher) OrderCreated(context.Context, *domain.Order)                          {}
func (NoopPublisher) OrderStatusChanged(context.Context, string, domain.Status, domain.Status, string) {}
func (NoopPublisher) OrderPaid(context.Context, *domain.Order)                             {}
