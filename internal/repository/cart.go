package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/go-storefront/internal/model"
)

type CartRepository interface {
	// Increment adds one unit of the product to the user's cart, inserting the
	// row on first add. It is a single upsert, so concurrent calls for the
	// same pair never produce two rows.
	Increment(ctx context.Context, userID, productID uuid.UUID) (*model.CartItem, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*model.CartItem, error)
	DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error
	ProductIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type pgCartRepo struct{ pool *pgxpool.Pool }

func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &pgCartRepo{pool: pool}
}

func (r *pgCartRepo) Increment(ctx context.Context, userID, productID uuid.UUID) (*model.CartItem, error) {
	item := &model.CartItem{ID: uuid.New(), UserID: userID, ProductID: productID}
	query := `INSERT INTO carts (id, user_id, product_id, quantity, created_at, updated_at)
			  VALUES ($1, $2, $3, 1, NOW(), NOW())
			  ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = carts.quantity + 1, updated_at = NOW()
			  RETURNING id, quantity, created_at`
	err := r.pool.QueryRow(ctx, query, item.ID, userID, productID).Scan(&item.ID, &item.Quantity, &item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert cart item: %w", err)
	}
	return item, nil
}

const cartItemsQuery = `SELECT c.id, c.user_id, c.product_id, c.quantity, c.created_at,
	p.id, p.name, p.slug, p.sku, p.price, p.inventory_quantity,
	(SELECT i.url FROM product_images i WHERE i.product_id = p.id ORDER BY i.position, i.created_at LIMIT 1)
	FROM carts c
	JOIN products p ON p.id = c.product_id
	WHERE c.user_id = $1
	ORDER BY c.created_at, c.id`

// listCartItems reads the user's cart with a product summary per line. With
// lock set the cart rows are held FOR UPDATE until the surrounding
// transaction ends.
func listCartItems(ctx context.Context, db DBTX, userID uuid.UUID, lock bool) ([]model.CartItem, error) {
	query := cartItemsQuery
	if lock {
		query += ` FOR UPDATE OF c`
	}
	rows, err := db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	var items []model.CartItem
	for rows.Next() {
		var (
			item model.CartItem
			p    model.ProductSummary
		)
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt,
			&p.ID, &p.Name, &p.Slug, &p.SKU, &p.Price, &p.InventoryQuantity, &p.ImageURL,
		); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		item.Product = &p
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *pgCartRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	return listCartItems(ctx, r.pool, userID, false)
}

func (r *pgCartRepo) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*model.CartItem, error) {
	item := &model.CartItem{ID: itemID, UserID: userID}
	err := r.pool.QueryRow(ctx,
		`UPDATE carts SET quantity = $3, updated_at = NOW() WHERE id = $1 AND user_id = $2
		 RETURNING product_id, quantity, created_at`,
		itemID, userID, quantity,
	).Scan(&item.ProductID, &item.Quantity, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	return item, nil
}

func (r *pgCartRepo) DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgCartRepo) ProductIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return productIDs(ctx, r.pool, `SELECT product_id FROM carts WHERE user_id = $1`, userID)
}

func productIDs(ctx context.Context, db DBTX, query string, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list product ids: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan product id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
