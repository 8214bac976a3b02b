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

const orderColumns = `id, user_id, customer_name, customer_email, total_amount,
	currency, shipping_address, status, payment_status, payment_method,
	gateway_order_id, gateway_payment_id, created_at, updated_at`

type orderRepository struct {
	db database.DBTX
}

// NewOrderRepository creates a pgx-backed order repository.
func NewOrderRepository(db database.DBTX) repository.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Conditional decrement per line item. A zero-row update means the
	// product vanished or does not have enough stock; either way the
	// whole order is rolled back.
	for _, item := range order.Items {
		tag, err := tx.Exec(ctx,
			`UPDATE products SET stock = stock - $2, updated_at = now()
			 WHERE id = $1 AND stock >= $2`,
			item.ProductID, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("decrement stock for %s: %w", item.ProductID, err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.InsufficientStock(item.ProductID.String())
		}
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (id, user_id, customer_name, customer_email,
			total_amount, currency, shipping_address, status, payment_status,
			payment_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		order.ID, order.UserID, order.CustomerName, order.CustomerEmail,
		order.TotalAmount, order.Currency, order.ShippingAddress,
		order.Status, order.PaymentStatus, order.PaymentMethod,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		_, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, name, unit_price, quantity, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			item.ID, item.OrderID, item.ProductID, item.Name, item.UnitPrice,
			item.Quantity, item.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := insertHistory(ctx, tx, order.ID, order.Status, "order created", order.UserID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)
	order, err := r.scanOne(ctx, r.db.QueryRow(ctx, query, id), id.String())
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE gateway_order_id = $1`, orderColumns)
	order, err := r.scanOne(ctx, r.db.QueryRow(ctx, query, gatewayOrderID), gatewayOrderID)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) List(ctx context.Context, filter repository.OrderFilter, page pagination.Params) ([]domain.Order, int, error) {
	var (
		conditions []string
		args       []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.UserID != "" {
		conditions = append(conditions, "user_id = "+arg(filter.UserID))
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = "+arg(string(filter.Status)))
	}
	if filter.PaymentStatus != "" {
		conditions = append(conditions, "payment_status = "+arg(string(filter.PaymentStatus)))
	}
	if filter.Search != "" {
		placeholder := arg("%" + filter.Search + "%")
		conditions = append(conditions, fmt.Sprintf(
			"(customer_name ILIKE %[1]s OR customer_email ILIKE %[1]s OR shipping_address::text ILIKE %[1]s)",
			placeholder))
	}
	if filter.StartDate != nil {
		conditions = append(conditions, "created_at >= "+arg(*filter.StartDate))
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "created_at <= "+arg(*filter.EndDate))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total
		FROM orders
		%s
		ORDER BY %s
		LIMIT %s OFFSET %s`,
		orderColumns, where, orderBy(filter.Sort), arg(page.Limit()), arg(page.Offset()))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var (
		orders []domain.Order
		total  int
	)
	for rows.Next() {
		var o domain.Order
		if err := scanOrder(rows, &o, &total); err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate orders: %w", err)
	}

	return orders, total, nil
}

func (r *orderRepository) History(ctx context.Context, orderID uuid.UUID) ([]domain.StatusChange, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, status, note, actor, created_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY created_at ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order history: %w", err)
	}
	defer rows.Close()

	var history []domain.StatusChange
	for rows.Next() {
		var h domain.StatusChange
		if err := rows.Scan(&h.ID, &h.OrderID, &h.Status, &h.Note, &h.Actor, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

func (r *orderRepository) ApplyTransition(ctx context.Context, orderID uuid.UUID, from, to domain.Status, actor, note string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Entering canceled puts reserved stock back; leaving it takes the
	// stock again, conditionally, so a reinstate can fail with
	// insufficient stock without touching anything.
	if to == domain.StatusCanceled && from != domain.StatusCanceled {
		if err := adjustStock(ctx, tx, orderID, +1); err != nil {
			return err
		}
	}
	if from == domain.StatusCanceled && to != domain.StatusCanceled {
		if err := adjustStock(ctx, tx, orderID, -1); err != nil {
			return err
		}
	}

	tag, err := tx.Exec(ctx, `
		UPDATE orders SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`,
		orderID, from, to,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// The order moved out of the expected status between the read
		// and this update.
		return fmt.Errorf("order %s is no longer %s: %w", orderID, from, apperrors.ErrConflict)
	}

	if err := insertHistory(ctx, tx, orderID, to, note, actor); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transition: %w", err)
	}
	return nil
}

func (r *orderRepository) SetGatewayOrder(ctx context.Context, orderID uuid.UUID, gatewayOrderID string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET gateway_order_id = $2, updated_at = now()
		WHERE id = $1`,
		orderID, gatewayOrderID,
	)
	if err != nil {
		return fmt.Errorf("set gateway order id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("order", orderID.String())
	}
	return nil
}

func (r *orderRepository) MarkPaid(ctx context.Context, orderID uuid.UUID, gatewayPaymentID, actor string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Guarded by the unpaid pending state so a replayed verification
	// cannot double-apply.
	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET payment_status = $2, gateway_payment_id = $3, status = $4, updated_at = now()
		WHERE id = $1 AND payment_status = $5 AND status = $6`,
		orderID, domain.PaymentPaid, gatewayPaymentID,
		domain.StatusConfirmed, domain.PaymentPending, domain.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %s is not awaiting payment: %w", orderID, apperrors.ErrConflict)
	}

	if err := insertHistory(ctx, tx, orderID, domain.StatusConfirmed, "payment verified", actor); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit payment: %w", err)
	}
	return nil
}

func (r *orderRepository) DeleteWithRestock(ctx context.Context, orderID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := adjustStock(ctx, tx, orderID, +1); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM order_status_history WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete order history: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("order", orderID.String())
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// adjustStock applies the order's line quantities to product stock.
// direction +1 restores stock, -1 re-deducts it with the conditional guard.
func adjustStock(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, direction int) error {
	rows, err := tx.Query(ctx,
		`SELECT product_id, quantity FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}

	type line struct {
		productID uuid.UUID
		quantity  int
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.productID, &l.quantity); err != nil {
			rows.Close()
			return fmt.Errorf("scan order item: %w", err)
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order items: %w", err)
	}

	for _, l := range lines {
		var (
			tag pgconn.CommandTag
			err error
		)
		if direction > 0 {
			tag, err = tx.Exec(ctx,
				`UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1`,
				l.productID, l.quantity)
		} else {
			tag, err = tx.Exec(ctx,
				`UPDATE products SET stock = stock - $2, updated_at = now()
				 WHERE id = $1 AND stock >= $2`,
				l.productID, l.quantity)
		}
		if err != nil {
			return fmt.Errorf("adjust stock for %s: %w", l.productID, err)
		}
		if direction < 0 && tag.RowsAffected() == 0 {
			return apperrors.InsufficientStock(l.productID.String())
		}
	}
	return nil
}

func insertHistory(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, status domain.Status, note, actor string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO order_status_history (id, order_id, status, note, actor)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), orderID, status, note, actor,
	)
	if err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}
	return nil
}

func orderBy(sort repository.OrderSort) string {
	switch sort {
	case repository.SortDateAsc:
		return "created_at ASC"
	case repository.SortAmountAsc:
		return "total_amount ASC"
	case repository.SortAmountDesc:
		return "total_amount DESC"
	default:
		return "created_at DESC"
	}
}

func (r *orderRepository) scanOne(ctx context.Context, row pgx.Row, ref string) (*domain.Order, error) {
	var o domain.Order
	if err := scanOrder(row, &o, nil); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", ref)
		}
		return nil, err
	}
	return &o, nil
}

// scanOrder scans an order row; total may be nil when the query carries no
// window count.
func scanOrder(row pgx.Row, o *domain.Order, total *int) error {
	var gatewayOrderID, gatewayPaymentID *string
	dest := []any{
		&o.ID, &o.UserID, &o.CustomerName, &o.CustomerEmail, &o.TotalAmount,
		&o.Currency, &o.ShippingAddress, &o.Status, &o.PaymentStatus,
		&o.PaymentMethod, &gatewayOrderID, &gatewayPaymentID,
		&o.CreatedAt, &o.UpdatedAt,
	}
	if total != nil {
		dest = append(dest, total)
	}
	if err := row.Scan(dest...); err != nil {
		return err
	}
	if gatewayOrderID != nil {
		o.GatewayOrderID = *gatewayOrderID
	}
	if gatewayPaymentID != nil {
		o.GatewayPaymentID = *gatewayPaymentID
	}
	return nil
}

func (r *orderRepository) loadItems(ctx context.Context, order *domain.Order) error {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, product_id, name, unit_price, quantity, subtotal
		FROM order_items
		WHERE order_id = $1
		ORDER BY name ASC`, order.ID)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name,
			&item.UnitPrice, &item.Quantity, &item.Subtotal); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}
