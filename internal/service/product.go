package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/flicky/go-storefront/internal/cache"
	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrImageNotFound   = errors.New("product image not found")
)

const (
	productCacheTTL    = 60 * time.Second
	featuredProductCap = 8
)

type ProductService struct {
	productRepo repository.ProductRepository
	cache       *cache.Store
	logger      *slog.Logger
}

func NewProductService(productRepo repository.ProductRepository, store *cache.Store, logger *slog.Logger) *ProductService {
	return &ProductService{productRepo: productRepo, cache: store, logger: logger}
}

func (s *ProductService) list(ctx context.Context, f repository.ProductFilter, page dto.PageRequest) (*dto.ProductListResponse, error) {
	f.Limit, f.Offset = page.Limit, page.Offset()
	products, total, err := s.productRepo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, toProductResponse(&products[i]))
	}
	return &dto.ProductListResponse{Products: items, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

func filterFromRequest(req dto.ListProductsRequest) (repository.ProductFilter, error) {
	f := repository.ProductFilter{Search: req.Search, Sort: req.Sort, Featured: req.Featured}
	if req.CategoryID != "" {
		id, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return f, invalid("category_id", "must be a uuid")
		}
		f.CategoryID = &id
	}
	return f, nil
}

// List returns active products for the storefront.
func (s *ProductService) List(ctx context.Context, req dto.ListProductsRequest) (*dto.ProductListResponse, error) {
	f, err := filterFromRequest(req)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, f, req.PageRequest)
}

// AdminList is List including inactive products.
func (s *ProductService) AdminList(ctx context.Context, req dto.ListProductsRequest) (*dto.ProductListResponse, error) {
	f, err := filterFromRequest(req)
	if err != nil {
		return nil, err
	}
	f.IncludeInactive = true
	return s.list(ctx, f, req.PageRequest)
}

func (s *ProductService) Featured(ctx context.Context) ([]dto.ProductResponse, error) {
	resp, err := s.list(ctx, repository.ProductFilter{Featured: true}, dto.PageRequest{Page: 1, Limit: featuredProductCap})
	if err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// Sale lists products priced below their cost price.
func (s *ProductService) Sale(ctx context.Context, page dto.PageRequest) (*dto.ProductListResponse, error) {
	return s.list(ctx, repository.ProductFilter{OnSale: true}, page)
}

func (s *ProductService) ByCategory(ctx context.Context, categoryID uuid.UUID, page dto.PageRequest) (*dto.ProductListResponse, error) {
	return s.list(ctx, repository.ProductFilter{CategoryID: &categoryID}, page)
}

// GetByID returns an active product with images, variants and category.
// Responses are cached briefly and dropped on every admin write.
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	key := cache.ProductKey(id)

	var cached dto.ProductResponse
	if s.cache.GetJSON(ctx, "product", key, &cached) {
		return &cached, nil
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}

	resp := toProductResponse(product)
	if err := s.cache.SetJSON(ctx, key, resp, productCacheTTL); err != nil {
		s.logger.Warn("product cache write failed", "product_id", id, "error", err)
	}
	return &resp, nil
}

func (s *ProductService) AdminGet(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	resp := toProductResponse(product)
	return &resp, nil
}

func validateProduct(p *model.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Slug = strings.TrimSpace(p.Slug)
	if p.Name == "" {
		return invalid("name", "is required")
	}
	if len(p.Slug) < 2 {
		return invalid("slug", "must be at least 2 characters")
	}
	if p.Price.IsNegative() {
		return invalid("price", "must not be negative")
	}
	if p.InventoryQuantity < 0 {
		return invalid("inventory_quantity", "must not be negative")
	}
	return nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

// slugConflict maps a unique violation on a slug column to a validation error.
func slugConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return invalid("slug", "is already in use")
	}
	return nil
}

func (s *ProductService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	product := &model.Product{
		Name:              req.Name,
		Slug:              req.Slug,
		Description:       req.Description,
		Price:             req.Price,
		CompareAtPrice:    nullDecimal(req.CompareAtPrice),
		CostPrice:         nullDecimal(req.CostPrice),
		SKU:               req.SKU,
		Barcode:           req.Barcode,
		Brand:             req.Brand,
		InventoryQuantity: req.InventoryQuantity,
		CategoryID:        req.CategoryID,
		IsActive:          req.IsActive == nil || *req.IsActive,
		IsFeatured:        req.IsFeatured,
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		if verr := slugConflict(err); verr != nil {
			return nil, verr
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	resp := toProductResponse(product)
	return &resp, nil
}

func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Slug != nil {
		product.Slug = *req.Slug
	}
	if req.Description != nil {
		product.Description = req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.CompareAtPrice != nil {
		product.CompareAtPrice = nullDecimal(req.CompareAtPrice)
	}
	if req.CostPrice != nil {
		product.CostPrice = nullDecimal(req.CostPrice)
	}
	if req.SKU != nil {
		product.SKU = req.SKU
	}
	if req.Barcode != nil {
		product.Barcode = req.Barcode
	}
	if req.Brand != nil {
		product.Brand = req.Brand
	}
	if req.InventoryQuantity != nil {
		product.InventoryQuantity = *req.InventoryQuantity
	}
	if req.CategoryID != nil {
		product.CategoryID = req.CategoryID
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if req.IsFeatured != nil {
		product.IsFeatured = *req.IsFeatured
	}

	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		if verr := slugConflict(err); verr != nil {
			return nil, verr
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.invalidateCache(ctx, id)
	resp := toProductResponse(product)
	return &resp, nil
}

// Delete removes the product with its images and variants.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProductNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidateCache(ctx, id)
	return nil
}

func (s *ProductService) AddImage(ctx context.Context, productID uuid.UUID, req dto.AddProductImageRequest) (*dto.ProductImageResponse, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	image := &model.ProductImage{ProductID: productID, URL: req.URL, AltText: req.AltText, Position: req.Position}
	if err := s.productRepo.AddImage(ctx, image); err != nil {
		return nil, fmt.Errorf("add product image: %w", err)
	}
	s.invalidateCache(ctx, productID)
	resp := toProductImageResponse(image)
	return &resp, nil
}

func (s *ProductService) DeleteImage(ctx context.Context, productID, imageID uuid.UUID) error {
	if err := s.productRepo.DeleteImage(ctx, productID, imageID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrImageNotFound
		}
		return fmt.Errorf("delete product image: %w", err)
	}
	s.invalidateCache(ctx, productID)
	return nil
}

func (s *ProductService) invalidateCache(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Delete(ctx, cache.ProductKey(id)); err != nil {
		s.logger.Warn("product cache invalidation failed", "product_id", id, "error", err)
	}
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func toProductImageResponse(img *model.ProductImage) dto.ProductImageResponse {
	return dto.ProductImageResponse{ID: img.ID, URL: img.URL, AltText: img.AltText, Position: img.Position}
}

func toProductResponse(p *model.Product) dto.ProductResponse {
	resp := dto.ProductResponse{
		ID:                p.ID,
		Name:              p.Name,
		Slug:              p.Slug,
		Description:       p.Description,
		Price:             p.Price,
		CompareAtPrice:    decimalPtr(p.CompareAtPrice),
		CostPrice:         decimalPtr(p.CostPrice),
		OnSale:            p.OnSale(),
		SKU:               p.SKU,
		Barcode:           p.Barcode,
		Brand:             p.Brand,
		InventoryQuantity: p.InventoryQuantity,
		CategoryID:        p.CategoryID,
		IsActive:          p.IsActive,
		IsFeatured:        p.IsFeatured,
		Images:            make([]dto.ProductImageResponse, 0, len(p.Images)),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
	if p.Category != nil {
		c := toCategoryResponse(p.Category)
		resp.Category = &c
	}
	for i := range p.Images {
		resp.Images = append(resp.Images, toProductImageResponse(&p.Images[i]))
	}
	for _, v := range p.Variants {
		resp.Variants = append(resp.Variants, dto.ProductVariantResponse{
			ID:                v.ID,
			SKU:               v.SKU,
			Price:             decimalPtr(v.Price),
			InventoryQuantity: v.InventoryQuantity,
			Size:              v.Size,
			Color:             v.Color,
		})
	}
	return resp
}
