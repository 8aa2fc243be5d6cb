package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/metrics"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/pricing"
	"github.com/flicky/go-storefront/internal/repository"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderAccessDenied = errors.New("access denied")
)

// OrderEventPublisher announces placed orders to downstream consumers.
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, msg model.OrderPlacedMessage) error
}

// Customer is the authenticated buyer placing an order.
type Customer struct {
	ID    uuid.UUID
	Email string
}

type OrderService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	addressRepo repository.AddressRepository
	policy      pricing.Policy
	publisher   OrderEventPublisher
	presence    *PresenceService
	logger      *slog.Logger
	now         func() time.Time
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	addressRepo repository.AddressRepository,
	policy pricing.Policy,
	publisher OrderEventPublisher,
	presence *PresenceService,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		addressRepo: addressRepo,
		policy:      policy,
		publisher:   publisher,
		presence:    presence,
		logger:      logger,
		now:         time.Now,
	}
}

// orderNumber is ORD-<epoch millis>-<8 hex>. The random suffix keeps numbers
// distinct when two checkouts land in the same millisecond.
func orderNumber(now time.Time) string {
	id := uuid.New()
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), strings.ToUpper(hex.EncodeToString(id[:4])))
}

func cartLines(items []model.CartItem) []pricing.Line {
	lines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, pricing.Line{Price: item.Product.Price, Quantity: item.Quantity})
	}
	return lines
}

// Quote prices the user's current cart for the checkout summary.
func (s *OrderService) Quote(ctx context.Context, userID uuid.UUID, req dto.QuoteRequest) (*dto.QuoteResponse, error) {
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	q, err := s.policy.Quote(cartLines(items), req.ShippingMethod, req.CouponCode)
	if err != nil {
		return nil, pricingError(err)
	}

	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return &dto.QuoteResponse{
		Subtotal:     q.Subtotal,
		Tax:          q.Tax,
		ShippingCost: q.ShippingCost,
		Discount:     q.Discount,
		Total:        q.Total,
		CouponCode:   q.CouponCode,
		Currency:     model.DefaultCurrency,
		ItemCount:    count,
	}, nil
}

func (s *OrderService) ownedAddress(ctx context.Context, field string, id *uuid.UUID, userID uuid.UUID) error {
	if id == nil || *id == uuid.Nil {
		return invalid(field, "is required")
	}
	addr, err := s.addressRepo.GetByID(ctx, *id)
	if err != nil {
		return fmt.Errorf("get address: %w", err)
	}
	if addr == nil || addr.UserID != userID {
		return invalid(field, "address not found")
	}
	return nil
}

func (s *OrderService) validate(ctx context.Context, userID uuid.UUID, req *dto.PlaceOrderRequest) error {
	if err := s.ownedAddress(ctx, "shipping_address_id", req.ShippingAddressID, userID); err != nil {
		return err
	}
	if req.SameAsShipping {
		req.BillingAddressID = req.ShippingAddressID
	} else if err := s.ownedAddress(ctx, "billing_address_id", req.BillingAddressID, userID); err != nil {
		return err
	}
	if !model.ValidPaymentMethod(req.PaymentMethod) {
		return invalid("payment_method", "must be one of %s, %s", model.PaymentMethodCreditCard, model.PaymentMethodPayPal)
	}
	// Rejects unknown shipping methods and coupons before anything is written.
	if _, err := s.policy.Quote(nil, req.ShippingMethod, req.CouponCode); err != nil {
		return pricingError(err)
	}
	return nil
}

// PlaceOrder turns the customer's cart into an order. The order header, its
// items and the emptied cart are committed together or not at all.
func (s *OrderService) PlaceOrder(ctx context.Context, customer Customer, req dto.PlaceOrderRequest) (*model.Order, error) {
	if err := s.validate(ctx, customer.ID, &req); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.Place(ctx, customer.ID, func(cart []model.CartItem) (*model.Order, error) {
		if len(cart) == 0 {
			return nil, ErrEmptyCart
		}
		q, err := s.policy.Quote(cartLines(cart), req.ShippingMethod, req.CouponCode)
		if err != nil {
			return nil, pricingError(err)
		}

		o := &model.Order{
			OrderNumber:       orderNumber(s.now()),
			UserID:            customer.ID,
			Email:             customer.Email,
			Status:            model.OrderStatusPending,
			PaymentStatus:     model.PaymentStatusPending,
			PaymentMethod:     req.PaymentMethod,
			Subtotal:          q.Subtotal,
			Tax:               q.Tax,
			ShippingCost:      q.ShippingCost,
			Discount:          q.Discount,
			Total:             q.Total,
			Currency:          model.DefaultCurrency,
			ShippingAddressID: req.ShippingAddressID,
			BillingAddressID:  req.BillingAddressID,
			Notes:             req.Notes,
		}
		if q.CouponCode != "" {
			code := q.CouponCode
			o.CouponCode = &code
		}
		for _, line := range cart {
			o.Items = append(o.Items, model.OrderItem{
				ProductID: line.ProductID,
				Name:      line.Product.Name,
				SKU:       line.Product.SKU,
				Price:     line.Product.Price,
				Quantity:  line.Quantity,
				Subtotal:  line.LineTotal(),
			})
		}
		return o, nil
	})
	if err != nil {
		var verr *ValidationError
		if errors.Is(err, ErrEmptyCart) || errors.As(err, &verr) {
			return nil, err
		}
		return nil, fmt.Errorf("place order: %w", err)
	}

	metrics.OrdersPlaced.Inc()
	s.presence.InvalidateCart(ctx, customer.ID)
	s.publish(ctx, order)
	return order, nil
}

func (s *OrderService) publish(ctx context.Context, order *model.Order) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishOrderPlaced(ctx, model.OrderPlacedMessage{
		OrderID:     order.ID,
		UserID:      order.UserID,
		OrderNumber: order.OrderNumber,
		Email:       order.Email,
		Total:       order.Total,
	})
	if err != nil {
		s.logger.Error("publish order placed", "order_id", order.ID, "error", err)
	}
}

func (s *OrderService) GetForUser(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != userID {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

func (s *OrderService) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}
