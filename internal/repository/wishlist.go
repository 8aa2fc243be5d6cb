package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/go-storefront/internal/model"
)

type WishlistRepository interface {
	// Add is a no-op when the pair is already present.
	Add(ctx context.Context, userID, productID uuid.UUID) error
	// Remove is a no-op when the pair is absent.
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.WishlistItem, error)
	ProductIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type pgWishlistRepo struct{ pool *pgxpool.Pool }

func NewWishlistRepository(pool *pgxpool.Pool) WishlistRepository {
	return &pgWishlistRepo{pool: pool}
}

func (r *pgWishlistRepo) Add(ctx context.Context, userID, productID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO wishlists (id, user_id, product_id, created_at) VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (user_id, product_id) DO NOTHING`,
		uuid.New(), userID, productID,
	)
	if err != nil {
		return fmt.Errorf("add wishlist item: %w", err)
	}
	return nil
}

func (r *pgWishlistRepo) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM wishlists WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("remove wishlist item: %w", err)
	}
	return nil
}

func (r *pgWishlistRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.WishlistItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT w.id, w.user_id, w.product_id, w.created_at,
		 p.id, p.name, p.slug, p.sku, p.price, p.inventory_quantity,
		 (SELECT i.url FROM product_images i WHERE i.product_id = p.id ORDER BY i.position, i.created_at LIMIT 1)
		 FROM wishlists w
		 JOIN products p ON p.id = w.product_id
		 WHERE w.user_id = $1
		 ORDER BY w.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	defer rows.Close()

	var items []model.WishlistItem
	for rows.Next() {
		var (
			item model.WishlistItem
			p    model.ProductSummary
		)
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.ProductID, &item.CreatedAt,
			&p.ID, &p.Name, &p.Slug, &p.SKU, &p.Price, &p.InventoryQuantity, &p.ImageURL,
		); err != nil {
			return nil, fmt.Errorf("scan wishlist item: %w", err)
		}
		item.Product = &p
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *pgWishlistRepo) ProductIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return productIDs(ctx, r.pool, `SELECT product_id FROM wishlists WHERE user_id = $1`, userID)
}
