package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     *string
	AvatarURL *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Category struct {
	ID          uuid.UUID
	Name        string
	Slug        string
	Description *string
	ImageURL    *string
	ParentID    *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Product struct {
	ID                uuid.UUID
	Name              string
	Slug              string
	Description       *string
	Price             decimal.Decimal
	CompareAtPrice    decimal.NullDecimal
	CostPrice         decimal.NullDecimal
	SKU               *string
	Barcode           *string
	InventoryQuantity int
	CategoryID        *uuid.UUID
	Brand             *string
	IsActive          bool
	IsFeatured        bool
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Category *Category
	Images   []ProductImage
	Variants []ProductVariant
}

// OnSale mirrors the storefront sale page: the cost price sits above the
// selling price.
func (p *Product) OnSale() bool {
	return p.CostPrice.Valid && p.CostPrice.Decimal.GreaterThan(p.Price)
}

type ProductImage struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	URL       string
	AltText   *string
	Position  int
	CreatedAt time.Time
}

type ProductVariant struct {
	ID                uuid.UUID
	ProductID         uuid.UUID
	SKU               *string
	Price             decimal.NullDecimal
	InventoryQuantity int
	Size              *string
	Color             *string
}

// ProductSummary is the slice of a product joined onto cart and wishlist rows.
type ProductSummary struct {
	ID                uuid.UUID
	Name              string
	Slug              string
	SKU               *string
	Price             decimal.Decimal
	InventoryQuantity int
	ImageURL          *string
}

type Cart struct {
	UserID uuid.UUID
	Items  []CartItem
}

func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

type CartItem struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	CreatedAt time.Time

	Product *ProductSummary
}

func (i CartItem) LineTotal() decimal.Decimal {
	if i.Product == nil {
		return decimal.Zero
	}
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type WishlistItem struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ProductID uuid.UUID
	CreatedAt time.Time

	Product *ProductSummary
}

type Address struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Type         AddressType
	FirstName    string
	LastName     string
	Company      *string
	AddressLine1 string
	AddressLine2 *string
	City         string
	State        string
	PostalCode   string
	Country      string
	Phone        *string
	IsDefault    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Order struct {
	ID                uuid.UUID
	OrderNumber       string
	UserID            uuid.UUID
	Email             string
	Status            OrderStatus
	PaymentStatus     PaymentStatus
	PaymentMethod     string
	Subtotal          decimal.Decimal
	Tax               decimal.Decimal
	ShippingCost      decimal.Decimal
	Discount          decimal.Decimal
	Total             decimal.Decimal
	Currency          string
	CouponCode        *string
	ShippingAddressID *uuid.UUID
	BillingAddressID  *uuid.UUID
	Notes             *string
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Items           []OrderItem
	ShippingAddress *Address
	BillingAddress  *Address
}

type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Name      string
	SKU       *string
	Price     decimal.Decimal
	Quantity  int
	Subtotal  decimal.Decimal
	CreatedAt time.Time
}

// Presence answers whether a product sits in a user's cart and wishlist.
type Presence struct {
	ProductID  uuid.UUID
	InCart     bool
	InWishlist bool
}

type DashboardStats struct {
	Products   int
	Categories int
	Customers  int
	Orders     int
	Revenue    decimal.Decimal
}

type OrderPlacedMessage struct {
	OrderID     uuid.UUID       `json:"order_id"`
	UserID      uuid.UUID       `json:"user_id"`
	OrderNumber string          `json:"order_number"`
	Email       string          `json:"email"`
	Total       decimal.Decimal `json:"total"`
}
