package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ekaraca/storefront/internal/domain"
	"github.com/ekaraca/storefront/internal/repository"
	"github.com/ekaraca/storefront/internal/service"
	apperrors "github.com/ekaraca/storefront/pkg/errors"
	"github.com/ekaraca/storefront/pkg/httputil"
	"github.com/ekaraca/storefront/pkg/middleware"
	"github.com/ekaraca/storefront/pkg/pagination"
	"github.com/ekaraca/storefront/pkg/validator"
)

// OrderHandler serves order, checkout and payment verification endpoints.
type OrderHandler struct {
	orders   *service.OrderService
	payments *service.PaymentService
	logger   *slog.Logger
}

// NewOrderHandler creates the order handler.
func NewOrderHandler(orders *service.OrderService, payments *service.PaymentService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, payments: payments, logger: logger}
}

type orderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

type addressRequest struct {
	Line1      string `json:"line1" validate:"required,max=200"`
	Line2      string `json:"line2" validate:"max=200"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"max=100"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,max=100"`
	Phone      string `json:"phone" validate:"max=20"`
}

type createOrderRequest struct {
	Items           []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress addressRequest     `json:"shipping_address" validate:"required"`
	PaymentMethod   string             `json:"payment_method" validate:"omitempty,oneof=gateway cod"`
	CustomerName    string             `json:"customer_name" validate:"required,max=200"`
	CustomerEmail   string             `json:"customer_email" validate:"required,email"`
}

func (r createOrderRequest) toInput(userID string) service.CreateOrderInput {
	input := service.CreateOrderInput{
		UserID:        userID,
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		ShippingAddress: domain.Address{
			Line1:      r.ShippingAddress.Line1,
			Line2:      r.ShippingAddress.Line2,
			City:       r.ShippingAddress.City,
			State:      r.ShippingAddress.State,
			PostalCode: r.ShippingAddress.PostalCode,
			Country:    r.ShippingAddress.Country,
			Phone:      r.ShippingAddress.Phone,
		},
		PaymentMethod: domain.MethodCashOnDelivery,
	}
	if r.PaymentMethod != "" {
		input.PaymentMethod = domain.PaymentMethod(r.PaymentMethod)
	}
	for _, item := range r.Items {
		// UUID format already validated.
		id, _ := uuid.Parse(item.ProductID)
		input.Items = append(input.Items, service.CreateOrderItemInput{
			ProductID: id,
			Quantity:  item.Quantity,
		})
	}
	return input
}

// Create places an order without a gateway payment intent.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	order, err := h.orders.Create(r.Context(), req.toInput(middleware.UserIDFromContext(r.Context())))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: order})
}

// Checkout places an order and opens a gateway payment intent.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.payments.Checkout(r.Context(), req.toInput(middleware.UserIDFromContext(r.Context())))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: result})
}

type verifyPaymentRequest struct {
	GatewayOrderID   string `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required"`
	Signature        string `json:"signature" validate:"required"`
}

// VerifyPayment checks the gateway signature and confirms the order.
func (h *OrderHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	order, err := h.payments.Verify(r.Context(), service.VerifyPaymentInput{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	}, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// Get returns one order; owners see their own, admins see all.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.orders.Get(r.Context(), id,
		middleware.UserIDFromContext(r.Context()), isAdmin(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// History returns the order's status audit trail.
func (h *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	history, err := h.orders.History(r.Context(), id,
		middleware.UserIDFromContext(r.Context()), isAdmin(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if history == nil {
		history = []domain.StatusChange{}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: history})
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed processing shipped delivered canceled refunded"`
	Note   string `json:"note" validate:"max=500"`
}

// UpdateStatus transitions the order's lifecycle state. Admin only.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	target, err := domain.ParseStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput(err.Error()), h.logger)
		return
	}

	order, err := h.orders.Transition(r.Context(), id, target,
		middleware.UserIDFromContext(r.Context()), req.Note)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// List returns all orders matching the filters. Admin only.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := orderFilterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	page := pagination.FromRequest(r)
	orders, total, err := h.orders.List(r.Context(), filter, page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK,
		httputil.NewPaginatedResponse(orders, total, page.Page, page.PageSize))
}

// MyOrders returns the caller's orders.
func (h *OrderHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	filter, err := orderFilterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	page := pagination.FromRequest(r)
	orders, total, err := h.orders.ListForUser(r.Context(),
		middleware.UserIDFromContext(r.Context()), filter, page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK,
		httputil.NewPaginatedResponse(orders, total, page.Page, page.PageSize))
}

func orderFilterFromQuery(r *http.Request) (repository.OrderFilter, error) {
	q := r.URL.Query()
	filter := repository.OrderFilter{Search: q.Get("q")}

	if raw := q.Get("status"); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return filter, apperrors.InvalidInput(err.Error())
		}
		filter.Status = status
	}
	if raw := q.Get("payment_status"); raw != "" {
		switch domain.PaymentStatus(raw) {
		case domain.PaymentPending, domain.PaymentPaid, domain.PaymentFailed:
			filter.PaymentStatus = domain.PaymentStatus(raw)
		default:
			return filter, apperrors.InvalidInput("unknown payment status " + raw)
		}
	}

	sort, ok := repository.ParseOrderSort(q.Get("sort"))
	if !ok {
		return filter, apperrors.InvalidInput("unknown sort " + q.Get("sort"))
	}
	filter.Sort = sort

	if raw := q.Get("start_date"); raw != "" {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, apperrors.InvalidInput("start_date must be RFC3339")
		}
		filter.StartDate = &start
	}
	if raw := q.Get("end_date"); raw != "" {
		end, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, apperrors.InvalidInput("end_date must be RFC3339")
		}
		filter.EndDate = &end
	}

	return filter, nil
}

func isAdmin(r *http.Request) bool {
	return middleware.RoleFromContext(r.Context()) == "admin"
}
