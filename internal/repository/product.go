package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/go-storefront/internal/model"
)

type ProductFilter struct {
	CategoryID      *uuid.UUID
	Featured        bool
	OnSale          bool
	Search          string
	Sort            string // newest | price_asc | price_desc | name
	IncludeInactive bool
	Limit           int
	Offset          int
}

type ProductRepository interface {
	List(ctx context.Context, f ProductFilter) ([]model.Product, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddImage(ctx context.Context, image *model.ProductImage) error
	DeleteImage(ctx context.Context, productID, imageID uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

type pgProductRepo struct{ pool *pgxpool.Pool }

func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &pgProductRepo{pool: pool}
}

const productColumns = `p.id, p.name, p.slug, p.description, p.price, p.compare_at_price, p.cost_price,
	p.sku, p.barcode, p.inventory_quantity, p.category_id, p.brand, p.is_active, p.is_featured,
	p.created_at, p.updated_at`

func scanProduct(row pgx.Row, p *model.Product) error {
	return row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.CompareAtPrice, &p.CostPrice,
		&p.SKU, &p.Barcode, &p.InventoryQuantity, &p.CategoryID, &p.Brand, &p.IsActive, &p.IsFeatured,
		&p.CreatedAt, &p.UpdatedAt,
	)
}

var productSorts = map[string]string{
	"newest":     "p.created_at DESC",
	"price_asc":  "p.price ASC",
	"price_desc": "p.price DESC",
	"name":       "p.name ASC",
}

func (f ProductFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !f.IncludeInactive {
		conds = append(conds, "p.is_active")
	}
	if f.CategoryID != nil {
		conds = append(conds, "p.category_id = "+arg(*f.CategoryID))
	}
	if f.Featured {
		conds = append(conds, "p.is_featured")
	}
	if f.OnSale {
		conds = append(conds, "p.cost_price IS NOT NULL AND p.cost_price > p.price")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		ph := arg(s)
		conds = append(conds, fmt.Sprintf("(p.name ILIKE '%%' || %s || '%%' OR p.description ILIKE '%%' || %s || '%%')", ph, ph))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *pgProductRepo) List(ctx context.Context, f ProductFilter) ([]model.Product, int, error) {
	where, args := f.where()

	total, err := count(ctx, r.pool, `SELECT COUNT(*) FROM products p`+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	order, ok := productSorts[f.Sort]
	if !ok {
		order = productSorts["newest"]
	}
	query := fmt.Sprintf(`SELECT %s FROM products p%s ORDER BY %s, p.id LIMIT $%d OFFSET $%d`,
		productColumns, where, order, len(args)+1, len(args)+2)

	rows, err := r.pool.Query(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	if err := r.attachImages(ctx, products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *pgProductRepo) attachImages(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(products))
	index := make(map[uuid.UUID]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
		index[p.ID] = i
	}

	images, err := r.queryImages(ctx, `WHERE product_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	for _, img := range images {
		i := index[img.ProductID]
		products[i].Images = append(products[i].Images, img)
	}
	return nil
}

func (r *pgProductRepo) queryImages(ctx context.Context, where string, arg any) ([]model.ProductImage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, url, alt_text, position, created_at FROM product_images `+where+` ORDER BY position, created_at`,
		arg,
	)
	if err != nil {
		return nil, fmt.Errorf("list product images: %w", err)
	}
	defer rows.Close()

	var images []model.ProductImage
	for rows.Next() {
		var img model.ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL, &img.AltText, &img.Position, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (r *pgProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p := &model.Product{}
	err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = $1`, id), p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	if p.CategoryID != nil {
		c := &model.Category{}
		err := scanCategory(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, *p.CategoryID), c)
		switch {
		case err == nil:
			p.Category = c
		case !errors.Is(err, pgx.ErrNoRows):
			return nil, fmt.Errorf("get product category: %w", err)
		}
	}

	if p.Images, err = r.queryImages(ctx, `WHERE product_id = $1`, id); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, sku, price, inventory_quantity, size, color
		 FROM product_variants WHERE product_id = $1 ORDER BY created_at`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("get product variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v model.ProductVariant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Price, &v.InventoryQuantity, &v.Size, &v.Color); err != nil {
			return nil, fmt.Errorf("scan product variant: %w", err)
		}
		p.Variants = append(p.Variants, v)
	}
	return p, rows.Err()
}

func (r *pgProductRepo) Create(ctx context.Context, product *model.Product) error {
	product.ID = uuid.New()
	query := `INSERT INTO products (id, name, slug, description, price, compare_at_price, cost_price, sku, barcode,
			  inventory_quantity, category_id, brand, is_active, is_featured, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
			  RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.ID, product.Name, product.Slug, product.Description, product.Price,
		product.CompareAtPrice, product.CostPrice, product.SKU, product.Barcode,
		product.InventoryQuantity, product.CategoryID, product.Brand, product.IsActive, product.IsFeatured,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) Update(ctx context.Context, product *model.Product) error {
	query := `UPDATE products SET name = $2, slug = $3, description = $4, price = $5, compare_at_price = $6,
			  cost_price = $7, sku = $8, barcode = $9, inventory_quantity = $10, category_id = $11, brand = $12,
			  is_active = $13, is_featured = $14, updated_at = NOW()
			  WHERE id = $1 RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.ID, product.Name, product.Slug, product.Description, product.Price,
		product.CompareAtPrice, product.CostPrice, product.SKU, product.Barcode,
		product.InventoryQuantity, product.CategoryID, product.Brand, product.IsActive, product.IsFeatured,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgx.ErrNoRows
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// Delete removes the product together with its images and variants.
func (r *pgProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM product_images WHERE product_id = $1`, id); err != nil {
		return fmt.Errorf("delete product images: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM product_variants WHERE product_id = $1`, id); err != nil {
		return fmt.Errorf("delete product variants: %w", err)
	}
	ct, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return tx.Commit(ctx)
}

func (r *pgProductRepo) AddImage(ctx context.Context, image *model.ProductImage) error {
	image.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO product_images (id, product_id, url, alt_text, position, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING created_at`,
		image.ID, image.ProductID, image.URL, image.AltText, image.Position,
	).Scan(&image.CreatedAt)
	if err != nil {
		return fmt.Errorf("add product image: %w", err)
	}
	return nil
}

func (r *pgProductRepo) DeleteImage(ctx context.Context, productID, imageID uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM product_images WHERE id = $1 AND product_id = $2`, imageID, productID)
	if err != nil {
		return fmt.Errorf("delete product image: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgProductRepo) Count(ctx context.Context) (int, error) {
	n, err := count(ctx, r.pool, `SELECT COUNT(*) FROM products`)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}
