package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ekaraca/storefront/internal/domain"
	"github.com/ekaraca/storefront/internal/repository"
	"github.com/ekaraca/storefront/pkg/pagination"
)

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepo) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.Order, error) {
	args := m.Called(ctx, gatewayOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepo) List(ctx context.Context, filter repository.OrderFilter, page pagination.Params) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter, page)
	var orders []domain.Order
	if args.Get(0) != nil {
		orders = args.Get(0).([]domain.Order)
	}
	return orders, args.Int(1), args.Error(2)
}

func (m *mockOrderRepo) History(ctx context.Context, orderID uuid.UUID) ([]domain.StatusChange, error) {
	args := m.Called(ctx, orderID)
	var history []domain.StatusChange
	if args.Get(0) != nil {
		history = args.Get(0).([]domain.StatusChange)
	}
	return history, args.Error(1)
}

func (m *mockOrderRepo) ApplyTransition(ctx context.Context, orderID uuid.UUID, from, to domain.Status, actor, note string) error {
	return m.Called(ctx, orderID, from, to, actor, note).Error(0)
}

func (m *mockOrderRepo) SetGatewayOrder(ctx context.Context, orderID uuid.UUID, gatewayOrderID string) error {
	return m.Called(ctx, orderID, gatewayOrderID).Error(0)
}

func (m *mockOrderRepo) MarkPaid(ctx context.Context, orderID uuid.UUID, gatewayPaymentID, actor string) error {
	return m.Called(ctx, orderID, gatewayPaymentID, actor).Error(0)
}

func (m *mockOrderRepo) DeleteWithRestock(ctx context.Context, orderID uuid.UUID) error {
	return m.Called(ctx, orderID).Error(0)
}

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) Create(ctx context.Context, product *domain.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *mockProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepo) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepo) List(ctx context.Context, filter repository.ProductFilter, page pagination.Params) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter, page)
	var products []domain.Product
	if args.Get(0) != nil {
		products = args.Get(0).([]domain.Product)
	}
	return products, args.Int(1), args.Error(2)
}

func (m *mockProductRepo) Update(ctx context.Context, product *domain.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *mockProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) Create(ctx context.Context, review *domain.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *mockReviewRepo) ListByProduct(ctx context.Context, productID uuid.UUID, page pagination.Params) ([]domain.Review, int, error) {
	args := m.Called(ctx, productID, page)
	var reviews []domain.Review
	if args.Get(0) != nil {
		reviews = args.Get(0).([]domain.Review)
	}
	return reviews, args.Int(1), args.Error(2)
}

func (m *mockReviewRepo) ExistsForUser(ctx context.Context, productID uuid.UUID, userID string) (bool, error) {
	args := m.Called(ctx, productID, userID)
	return args.Bool(0), args.Error(1)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error) {
	args := m.Called(ctx, amount, currency, receipt)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	return m.Called(gatewayOrderID, gatewayPaymentID, signature).Bool(0)
}

func (m *mockGateway) KeyID() string {
	return m.Called().String(0)
}

type mockCartRepo struct {
	mock.Mock
}

func (m *mockCartRepo) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepo) Save(ctx context.Context, cart *domain.Cart) error {
	return m.Called(ctx, cart).Error(0)
}

func (m *mockCartRepo) Delete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type recordingPublisher struct {
	created       []string
	statusChanges []string
	paid          []string
}

func (p *recordingPublisher) OrderCreated(_ context.Context, order *domain.Order) {
	p.created = append(p.created, order.ID.String())
}

func (p *recordingPublisher) OrderStatusChanged(_ context.Context, orderID string, from, to domain.Status, _ string) {
	p.statusChanges = append(p.statusChanges, orderID+":"+from.String()+"->"+to.String())
}

func (p *recordingPublisher) OrderPaid(_ context.Context, order *domain.Order) {
	p.paid = append(p.paid, order.ID.String())
}
