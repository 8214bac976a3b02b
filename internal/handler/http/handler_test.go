package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ekaraca/storefront/internal/domain"
	"github.com/ekaraca/storefront/internal/repository"
	"github.com/ekaraca/storefront/internal/service"
	apperrors "github.com/ekaraca/storefront/pkg/errors"
	"github.com/ekaraca/storefront/pkg/health"
	"github.com/ekaraca/storefront/pkg/middleware"
	"github.com/ekaraca/storefront/pkg/pagination"
)

// stubProductRepo backs handler tests with an in-memory catalog.
type stubProductRepo struct {
	products map[uuid.UUID]*domain.Product
}

func newStubProductRepo(products ...*domain.Product) *stubProductRepo {
	repo := &stubProductRepo{products: make(map[uuid.UUID]*domain.Product)}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (r *stubProductRepo) Create(_ context.Context, p *domain.Product) error {
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	p.IsAvailable = p.Stock > 0
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id.String())
	}
	copied := *p
	copied.IsAvailable = copied.Stock > 0
	return &copied, nil
}

func (r *stubProductRepo) GetBySlug(_ context.Context, slug string) (*domain.Product, error) {
	for _, p := range r.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, apperrors.NotFound("product", slug)
}

func (r *stubProductRepo) List(_ context.Context, _ repository.ProductFilter, _ pagination.Params) ([]domain.Product, int, error) {
	var out []domain.Product
	for _, p := range r.products {
		copied := *p
		copied.IsAvailable = copied.Stock > 0
		out = append(out, copied)
	}
	return out, len(out), nil
}

func (r *stubProductRepo) Update(_ context.Context, p *domain.Product) error {
	if _, ok := r.products[p.ID]; !ok {
		return apperrors.NotFound("product", p.ID.String())
	}
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.products[id]; !ok {
		return apperrors.NotFound("product", id.String())
	}
	delete(r.products, id)
	return nil
}

// stubOrderRepo keeps orders in memory and mimics the transactional
// repository contract closely enough for handler tests.
type stubOrderRepo struct {
	products *stubProductRepo
	orders   map[uuid.UUID]*domain.Order
	history  map[uuid.UUID][]domain.StatusChange
}

func newStubOrderRepo(products *stubProductRepo) *stubOrderRepo {
	return &stubOrderRepo{
		products: products,
		orders:   make(map[uuid.UUID]*domain.Order),
		history:  make(map[uuid.UUID][]domain.StatusChange),
	}
}

func (r *stubOrderRepo) appendHistory(orderID uuid.UUID, status domain.Status, note, actor string) {
	r.history[orderID] = append(r.history[orderID], domain.StatusChange{
		ID:        uuid.New(),
		OrderID:   orderID,
		Status:    status,
		Note:      note,
		Actor:     actor,
		CreatedAt: time.Now(),
	})
}

func (r *stubOrderRepo) Create(_ context.Context, order *domain.Order) error {
	for _, item := range order.Items {
		p, ok := r.products.products[item.ProductID]
		if !ok || p.Stock < item.Quantity {
			return apperrors.InsufficientStock(item.ProductID.String())
		}
	}
	for _, item := range order.Items {
		r.products.products[item.ProductID].Stock -= item.Quantity
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	r.orders[order.ID] = order
	r.appendHistory(order.ID, order.Status, "order created", order.UserID)
	return nil
}

func (r *stubOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order", id.String())
	}
	return order, nil
}

func (r *stubOrderRepo) GetByGatewayOrderID(_ context.Context, gatewayOrderID string) (*domain.Order, error) {
	for _, order := range r.orders {
		if order.GatewayOrderID == gatewayOrderID {
			return order, nil
		}
	}
	return nil, apperrors.NotFound("order", gatewayOrderID)
}

func (r *stubOrderRepo) List(_ context.Context, filter repository.OrderFilter, _ pagination.Params) ([]domain.Order, int, error) {
	var out []domain.Order
	for _, order := range r.orders {
		if filter.UserID != "" && order.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		out = append(out, *order)
	}
	return out, len(out), nil
}

func (r *stubOrderRepo) History(_ context.Context, orderID uuid.UUID) ([]domain.StatusChange, error) {
	return r.history[orderID], nil
}

func (r *stubOrderRepo) ApplyTransition(_ context.Context, orderID uuid.UUID, from, to domain.Status, actor, note string) error {
	order, ok := r.orders[orderID]
	if !ok {
		return apperrors.NotFound("order", orderID.String())
	}
	if to == domain.StatusCanceled && from != domain.StatusCanceled {
		for _, item := range order.Items {
			r.products.products[item.ProductID].Stock += item.Quantity
		}
	}
	if from == domain.StatusCanceled && to != domain.StatusCanceled {
		for _, item := range order.Items {
			p := r.products.products[item.ProductID]
			if p.Stock < item.Quantity {
				return apperrors.InsufficientStock(item.ProductID.String())
			}
		}
		for _, item := range order.Items {
			r.products.products[item.ProductID].Stock -= item.Quantity
		}
	}
	order.Status = to
	r.appendHistory(orderID, to, note, actor)
	return nil
}

func (r *stubOrderRepo) SetGatewayOrder(_ context.Context, orderID uuid.UUID, gatewayOrderID string) error {
	order, ok := r.orders[orderID]
	if !ok {
		return apperrors.NotFound("order", orderID.String())
	}
	order.GatewayOrderID = gatewayOrderID
	return nil
}

func (r *stubOrderRepo) MarkPaid(_ context.Context, orderID uuid.UUID, gatewayPaymentID, actor string) error {
	order, ok := r.orders[orderID]
	if !ok {
		return apperrors.NotFound("order", orderID.String())
	}
	order.PaymentStatus = domain.PaymentPaid
	order.GatewayPaymentID = gatewayPaymentID
	order.Status = domain.StatusConfirmed
	r.appendHistory(orderID, domain.StatusConfirmed, "payment verified", actor)
	return nil
}

func (r *stubOrderRepo) DeleteWithRestock(_ context.Context, orderID uuid.UUID) error {
	order, ok := r.orders[orderID]
	if !ok {
		return apperrors.NotFound("order", orderID.String())
	}
	for _, item := range order.Items {
		r.products.products[item.ProductID].Stock += item.Quantity
	}
	delete(r.orders, orderID)
	delete(r.history, orderID)
	return nil
}

type stubReviewRepo struct{}

func (stubReviewRepo) Create(_ context.Context, review *domain.Review) error {
	review.CreatedAt = time.Now()
	return nil
}

func (stubReviewRepo) ListByProduct(context.Context, uuid.UUID, pagination.Params) ([]domain.Review, int, error) {
	return nil, 0, nil
}

func (stubReviewRepo) ExistsForUser(context.Context, uuid.UUID, string) (bool, error) {
	return false, nil
}

type noopPublisher struct{}

func (noopPublisher) OrderCreated(context.Context, *domain.Order) {}
func (noopPublisher) OrderStatusChanged(context.Context, string, domain.Status, domain.Status, string) {
}
func (noopPublisher) OrderPaid(context.Context, *domain.Order) {}

type testEnv struct {
	router   http.Handler
	products *stubProductRepo
	orders   *stubOrderRepo
	gateway  *stubGateway
}

type stubGateway struct {
	fail       bool
	lastAmount int64
}

func (g *stubGateway) CreateOrder(_ context.Context, amount int64, _, _ string) (string, error) {
	if g.fail {
		return "", io.ErrUnexpectedEOF
	}
	g.lastAmount = amount
	return "order_stub_1", nil
}

func (g *stubGateway) VerifySignature(_, _, signature string) bool {
	return signature == "valid-signature"
}

func (g *stubGateway) KeyID() string { return "key_test" }

// claimsFor returns a token validator that accepts any token as the given
// identity.
func claimsFor(userID, role string) middleware.TokenValidator {
	return func(string) (*middleware.Claims, error) {
		return &middleware.Claims{UserID: userID, Email: userID + "@example.com", Role: role}, nil
	}
}

func newTestEnv(t *testing.T, userID, role string) *testEnv {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	products := newStubProductRepo()
	orders := newStubOrderRepo(products)
	gw := &stubGateway{}

	catalogSvc := service.NewCatalogService(products, nil, log)
	reviewSvc := service.NewReviewService(stubReviewRepo{}, products, nil, log)
	orderSvc := service.NewOrderService(orders, products, nil, noopPublisher{}, "INR", log)
	paymentSvc := service.NewPaymentService(orderSvc, orders, gw, noopPublisher{}, log)

	healthHandler := health.NewHandler(time.Second)

	router := NewRouter(RouterConfig{
		Logger:         log,
		ServiceName:    "storefront",
		Products:       NewProductHandler(catalogSvc, reviewSvc, log),
		Orders:         NewOrderHandler(orderSvc, paymentSvc, log),
		Cart:           NewCartHandler(service.NewCartService(stubCartRepo{}, products, log), log),
		Favorites:      NewFavoriteHandler(service.NewFavoriteService(stubFavoriteRepo{}, products, log), log),
		Health:         healthHandler,
		TokenValidator: claimsFor(userID, role),
		RateLimit:      middleware.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000, TTL: time.Minute},
	})

	return &testEnv{router: router, products: products, orders: orders, gateway: gw}
}

type stubCartRepo struct{}

func (stubCartRepo) Get(_ context.Context, userID string) (*domain.Cart, error) {
	return &domain.Cart{UserID: userID, Items: []domain.CartItem{}}, nil
}
func (stubCartRepo) Save(context.Context, *domain.Cart) error { return nil }
func (stubCartRepo) Delete(context.Context, string) error     { return nil }

type stubFavoriteRepo struct{}

func (stubFavoriteRepo) Add(context.Context, string, uuid.UUID) error    { return nil }
func (stubFavoriteRepo) Remove(context.Context, string, uuid.UUID) error { return nil }
func (stubFavoriteRepo) ListByUser(context.Context, string) ([]domain.Product, error) {
	return nil, nil
}

// serveRouter dispatches a hand-built request, for cases where the do helper's
// default auth header would get in the way.
func serveRouter(e *testEnv, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer test-token")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}
