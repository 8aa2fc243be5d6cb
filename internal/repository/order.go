package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/flicky/go-storefront/internal/model"
)

// OrderBuilder turns the locked cart snapshot into the order to persist. An
// error aborts placement before anything is written.
type OrderBuilder func(cart []model.CartItem) (*model.Order, error)

type OrderFilter struct {
	Status model.OrderStatus
	Limit  int
	Offset int
}

type OrderRepository interface {
	// Place reads and locks the user's cart, builds the order from it, then
	// inserts the header and items and removes the ordered cart lines in one
	// transaction.
	Place(ctx context.Context, userID uuid.UUID, build OrderBuilder) (*model.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	List(ctx context.Context, f OrderFilter) ([]model.Order, int, error)
	// UpdateStatus moves the order from one status to another. It returns
	// pgx.ErrNoRows when the order is missing or no longer in from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, from, to model.PaymentStatus) error
	Count(ctx context.Context) (int, error)
	// Revenue sums the totals of completed orders.
	Revenue(ctx context.Context) (decimal.Decimal, error)
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

const orderColumns = `id, order_number, user_id, email, status, payment_status, payment_method,
	subtotal, tax, shipping_cost, discount, total, currency, coupon_code,
	shipping_address_id, billing_address_id, notes, created_at, updated_at`

func scanOrder(row pgx.Row, o *model.Order) error {
	return row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.Email, &o.Status, &o.PaymentStatus, &o.PaymentMethod,
		&o.Subtotal, &o.Tax, &o.ShippingCost, &o.Discount, &o.Total, &o.Currency, &o.CouponCode,
		&o.ShippingAddressID, &o.BillingAddressID, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
}

func (r *pgOrderRepo) Place(ctx context.Context, userID uuid.UUID, build OrderBuilder) (*model.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	cart, err := listCartItems(ctx, tx, userID, true)
	if err != nil {
		return nil, err
	}
	order, err := build(cart)
	if err != nil {
		return nil, err
	}

	order.ID = uuid.New()
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (id, order_number, user_id, email, status, payment_status, payment_method,
		 subtotal, tax, shipping_cost, discount, total, currency, coupon_code,
		 shipping_address_id, billing_address_id, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		order.ID, order.OrderNumber, order.UserID, order.Email, order.Status, order.PaymentStatus, order.PaymentMethod,
		order.Subtotal, order.Tax, order.ShippingCost, order.Discount, order.Total, order.Currency, order.CouponCode,
		order.ShippingAddressID, order.BillingAddressID, order.Notes,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.ID = uuid.New()
		item.OrderID = order.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO order_items (id, order_id, product_id, name, sku, price, quantity, subtotal, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW()) RETURNING created_at`,
			item.ID, item.OrderID, item.ProductID, item.Name, item.SKU, item.Price, item.Quantity, item.Subtotal,
		).Scan(&item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	// Only the snapshot rows go. A line added while the order was being
	// placed is not covered by the row locks and stays in the cart.
	ordered := make([]uuid.UUID, 0, len(cart))
	for _, line := range cart {
		ordered = append(ordered, line.ID)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM carts WHERE id = ANY($1)`, ordered); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return order, nil
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order := &model.Order{}
	err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id), order)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, product_id, name, sku, price, quantity, subtotal, created_at
		 FROM order_items WHERE order_id = $1 ORDER BY created_at, id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.SKU,
			&item.Price, &item.Quantity, &item.Subtotal, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}

	if order.ShippingAddressID != nil {
		if order.ShippingAddress, err = getAddress(ctx, r.pool, *order.ShippingAddressID); err != nil {
			return nil, err
		}
	}
	if order.BillingAddressID != nil {
		if order.BillingAddress, err = getAddress(ctx, r.pool, *order.BillingAddressID); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func (r *pgOrderRepo) queryOrders(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *pgOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *pgOrderRepo) List(ctx context.Context, f OrderFilter) ([]model.Order, int, error) {
	total, err := count(ctx, r.pool,
		`SELECT COUNT(*) FROM orders WHERE ($1 = '' OR status = $1)`, string(f.Status))
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	orders, err := r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE ($1 = '' OR status = $1)
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		string(f.Status), f.Limit, f.Offset,
	)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *pgOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		id, from, to,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgOrderRepo) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, from, to model.PaymentStatus) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE orders SET payment_status = $3, updated_at = NOW() WHERE id = $1 AND payment_status = $2`,
		id, from, to,
	)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgOrderRepo) Count(ctx context.Context) (int, error) {
	n, err := count(ctx, r.pool, `SELECT COUNT(*) FROM orders`)
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

func (r *pgOrderRepo) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var revenue decimal.Decimal
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(total), 0) FROM orders WHERE status = $1`, model.OrderStatusCompleted,
	).Scan(&revenue)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum revenue: %w", err)
	}
	return revenue, nil
}
