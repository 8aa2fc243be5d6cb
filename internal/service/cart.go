package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/go-storefront/internal/metrics"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
)

var ErrCartItemNotFound = errors.New("cart item not found")

type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	presence    *PresenceService
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, presence *PresenceService) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo, presence: presence}
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return &model.Cart{UserID: userID, Items: items}, nil
}

// AddToCart puts one more unit of the product in the user's cart. Repeated
// calls for the same product increment a single line.
func (s *CartService) AddToCart(ctx context.Context, userID, productID uuid.UUID) (*model.CartItem, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}

	item, err := s.cartRepo.Increment(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	metrics.CartAdds.Inc()
	s.presence.InvalidateCart(ctx, userID)
	return item, nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*model.CartItem, error) {
	if quantity < 1 {
		return nil, invalid("quantity", "must be at least 1")
	}
	item, err := s.cartRepo.UpdateQuantity(ctx, userID, itemID, quantity)
	if err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	if item == nil {
		return nil, ErrCartItemNotFound
	}
	return item, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if err := s.cartRepo.DeleteItem(ctx, userID, itemID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCartItemNotFound
		}
		return fmt.Errorf("remove cart item: %w", err)
	}
	s.presence.InvalidateCart(ctx, userID)
	return nil
}
