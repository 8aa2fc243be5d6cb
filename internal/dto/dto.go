package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/go-storefront/internal/model"
)

type PageRequest struct {
	Page  int `form:"page,default=1" binding:"min=1"`
	Limit int `form:"limit,default=20" binding:"min=1,max=100"`
}

func (p PageRequest) Offset() int { return (p.Page - 1) * p.Limit }

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type ClientConfigResponse struct {
	URL     string `json:"url"`
	AnonKey string `json:"anon_key"`
}

// --- Profile ---

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type UpdateProfileRequest struct {
	Name      *string `json:"name" binding:"omitempty,min=1,max=200"`
	Phone     *string `json:"phone" binding:"omitempty,max=40"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,url"`
}

// --- Catalog ---

type ListProductsRequest struct {
	PageRequest
	Search     string `form:"search"`
	Sort       string `form:"sort,default=newest" binding:"oneof=newest price_asc price_desc name"`
	CategoryID string `form:"category_id" binding:"omitempty,uuid"`
	Featured   bool   `form:"featured"`
}

type CategoryResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description *string    `json:"description,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
}

type CategoryDetailResponse struct {
	Category CategoryResponse    `json:"category"`
	Products ProductListResponse `json:"products"`
}

type CategoryRequest struct {
	Name        string     `json:"name" binding:"required"`
	Slug        string     `json:"slug" binding:"required,min=2"`
	Description *string    `json:"description"`
	ImageURL    *string    `json:"image_url" binding:"omitempty,url"`
	ParentID    *uuid.UUID `json:"parent_id"`
}

type ProductImageResponse struct {
	ID       uuid.UUID `json:"id"`
	URL      string    `json:"url"`
	AltText  *string   `json:"alt_text,omitempty"`
	Position int       `json:"position"`
}

type ProductVariantResponse struct {
	ID                uuid.UUID        `json:"id"`
	SKU               *string          `json:"sku,omitempty"`
	Price             *decimal.Decimal `json:"price,omitempty"`
	InventoryQuantity int              `json:"inventory_quantity"`
	Size              *string          `json:"size,omitempty"`
	Color             *string          `json:"color,omitempty"`
}

type ProductResponse struct {
	ID                uuid.UUID                `json:"id"`
	Name              string                   `json:"name"`
	Slug              string                   `json:"slug"`
	Description       *string                  `json:"description,omitempty"`
	Price             decimal.Decimal          `json:"price"`
	CompareAtPrice    *decimal.Decimal         `json:"compare_at_price,omitempty"`
	CostPrice         *decimal.Decimal         `json:"cost_price,omitempty"`
	OnSale            bool                     `json:"on_sale"`
	SKU               *string                  `json:"sku,omitempty"`
	Barcode           *string                  `json:"barcode,omitempty"`
	Brand             *string                  `json:"brand,omitempty"`
	InventoryQuantity int                      `json:"inventory_quantity"`
	CategoryID        *uuid.UUID               `json:"category_id,omitempty"`
	IsActive          bool                     `json:"is_active"`
	IsFeatured        bool                     `json:"is_featured"`
	Category          *CategoryResponse        `json:"category,omitempty"`
	Images            []ProductImageResponse   `json:"images"`
	Variants          []ProductVariantResponse `json:"variants,omitempty"`
	CreatedAt         time.Time                `json:"created_at"`
	UpdatedAt         time.Time                `json:"updated_at"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

type CreateProductRequest struct {
	Name              string           `json:"name" binding:"required"`
	Slug              string           `json:"slug" binding:"required,min=2"`
	Description       *string          `json:"description"`
	Price             decimal.Decimal  `json:"price" binding:"required"`
	CompareAtPrice    *decimal.Decimal `json:"compare_at_price"`
	CostPrice         *decimal.Decimal `json:"cost_price"`
	SKU               *string          `json:"sku"`
	Barcode           *string          `json:"barcode"`
	Brand             *string          `json:"brand"`
	InventoryQuantity int              `json:"inventory_quantity" binding:"min=0"`
	CategoryID        *uuid.UUID       `json:"category_id"`
	IsActive          *bool            `json:"is_active"`
	IsFeatured        bool             `json:"is_featured"`
}

type UpdateProductRequest struct {
	Name              *string          `json:"name" binding:"omitempty,min=1"`
	Slug              *string          `json:"slug" binding:"omitempty,min=2"`
	Description       *string          `json:"description"`
	Price             *decimal.Decimal `json:"price"`
	CompareAtPrice    *decimal.Decimal `json:"compare_at_price"`
	CostPrice         *decimal.Decimal `json:"cost_price"`
	SKU               *string          `json:"sku"`
	Barcode           *string          `json:"barcode"`
	Brand             *string          `json:"brand"`
	InventoryQuantity *int             `json:"inventory_quantity" binding:"omitempty,min=0"`
	CategoryID        *uuid.UUID       `json:"category_id"`
	IsActive          *bool            `json:"is_active"`
	IsFeatured        *bool            `json:"is_featured"`
}

type AddProductImageRequest struct {
	URL      string  `json:"url" binding:"required,url"`
	AltText  *string `json:"alt_text"`
	Position int     `json:"position" binding:"min=0"`
}

// --- Cart ---

type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type CartItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	SKU       *string         `json:"sku,omitempty"`
	ImageURL  *string         `json:"image_url,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type CartResponse struct {
	Items     []CartItemResponse `json:"items"`
	ItemCount int                `json:"item_count"`
	Subtotal  decimal.Decimal    `json:"subtotal"`
}

// --- Wishlist ---

type ToggleWishlistRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	// Present is the caller's view of the current state. When omitted the
	// server looks it up.
	Present *bool `json:"present"`
}

type ToggleWishlistResponse struct {
	ProductID  uuid.UUID `json:"product_id"`
	InWishlist bool      `json:"in_wishlist"`
}

type WishlistItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	ImageURL  *string         `json:"image_url,omitempty"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

type PresenceResponse struct {
	ProductID  uuid.UUID `json:"product_id"`
	InCart     bool      `json:"in_cart"`
	InWishlist bool      `json:"in_wishlist"`
}

// --- Addresses ---

type CreateAddressRequest struct {
	Type         model.AddressType `json:"type" binding:"required,oneof=shipping billing"`
	FirstName    string            `json:"first_name" binding:"required"`
	LastName     string            `json:"last_name" binding:"required"`
	Company      *string           `json:"company"`
	AddressLine1 string            `json:"address_line1" binding:"required"`
	AddressLine2 *string           `json:"address_line2"`
	City         string            `json:"city" binding:"required"`
	State        string            `json:"state" binding:"required"`
	PostalCode   string            `json:"postal_code" binding:"required"`
	Country      string            `json:"country" binding:"required"`
	Phone        *string           `json:"phone"`
	IsDefault    bool              `json:"is_default"`
}

type AddressResponse struct {
	ID           uuid.UUID         `json:"id"`
	Type         model.AddressType `json:"type"`
	FirstName    string            `json:"first_name"`
	LastName     string            `json:"last_name"`
	Company      *string           `json:"company,omitempty"`
	AddressLine1 string            `json:"address_line1"`
	AddressLine2 *string           `json:"address_line2,omitempty"`
	City         string            `json:"city"`
	State        string            `json:"state"`
	PostalCode   string            `json:"postal_code"`
	Country      string            `json:"country"`
	Phone        *string           `json:"phone,omitempty"`
	IsDefault    bool              `json:"is_default"`
}

// --- Checkout / Orders ---

type QuoteRequest struct {
	ShippingMethod string `json:"shipping_method"`
	CouponCode     string `json:"coupon_code"`
}

type QuoteResponse struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Discount     decimal.Decimal `json:"discount"`
	Total        decimal.Decimal `json:"total"`
	CouponCode   string          `json:"coupon_code,omitempty"`
	Currency     string          `json:"currency"`
	ItemCount    int             `json:"item_count"`
}

// PlaceOrderRequest carries no binding rules: every field is validated by
// the order service so that a bad request is rejected before any write.
type PlaceOrderRequest struct {
	ShippingAddressID *uuid.UUID `json:"shipping_address_id"`
	BillingAddressID  *uuid.UUID `json:"billing_address_id"`
	SameAsShipping    bool       `json:"same_as_shipping"`
	ShippingMethod    string     `json:"shipping_method"`
	PaymentMethod     string     `json:"payment_method"`
	CouponCode        string     `json:"coupon_code"`
	Notes             *string    `json:"notes"`
}

type OrderItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	SKU       *string         `json:"sku,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type OrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"order_number"`
	UserID          uuid.UUID           `json:"user_id"`
	Email           string              `json:"email"`
	Status          model.OrderStatus   `json:"status"`
	PaymentStatus   model.PaymentStatus `json:"payment_status"`
	PaymentMethod   string              `json:"payment_method"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	Tax             decimal.Decimal     `json:"tax"`
	ShippingCost    decimal.Decimal     `json:"shipping_cost"`
	Discount        decimal.Decimal     `json:"discount"`
	Total           decimal.Decimal     `json:"total"`
	Currency        string              `json:"currency"`
	CouponCode      *string             `json:"coupon_code,omitempty"`
	Notes           *string             `json:"notes,omitempty"`
	Items           []OrderItemResponse `json:"items,omitempty"`
	ShippingAddress *AddressResponse    `json:"shipping_address,omitempty"`
	BillingAddress  *AddressResponse    `json:"billing_address,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
	Page   int             `json:"page,omitempty"`
	Limit  int             `json:"limit,omitempty"`
}

// --- Admin ---

type ListOrdersRequest struct {
	PageRequest
	Status string `form:"status" binding:"omitempty,oneof=pending processing shipped delivered completed cancelled"`
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus model.PaymentStatus `json:"payment_status" binding:"required"`
}

type DashboardResponse struct {
	Products   int             `json:"products"`
	Categories int             `json:"categories"`
	Customers  int             `json:"customers"`
	Orders     int             `json:"orders"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type CustomerListResponse struct {
	Customers []UserResponse `json:"customers"`
	Total     int            `json:"total"`
	Page      int            `json:"page"`
	Limit     int            `json:"limit"`
}

type CustomerDetailResponse struct {
	Customer  UserResponse      `json:"customer"`
	Orders    []OrderResponse   `json:"orders"`
	Addresses []AddressResponse `json:"addresses"`
}
