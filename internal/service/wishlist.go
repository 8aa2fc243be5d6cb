package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront/internal/metrics"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
)

type WishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
	presence     *PresenceService
}

func NewWishlistService(wishlistRepo repository.WishlistRepository, productRepo repository.ProductRepository, presence *PresenceService) *WishlistService {
	return &WishlistService{wishlistRepo: wishlistRepo, productRepo: productRepo, presence: presence}
}

func (s *WishlistService) List(ctx context.Context, userID uuid.UUID) ([]model.WishlistItem, error) {
	items, err := s.wishlistRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	return items, nil
}

// Contains reports whether the product is currently on the user's wishlist.
func (s *WishlistService) Contains(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	return s.presence.InWishlist(ctx, userID, productID)
}

// Toggle flips wishlist membership given the caller's view of the current
// state and returns the new state. Both directions are idempotent in
// storage: removing an absent row or adding a present one changes nothing.
func (s *WishlistService) Toggle(ctx context.Context, userID, productID uuid.UUID, present bool) (bool, error) {
	if present {
		if err := s.wishlistRepo.Remove(ctx, userID, productID); err != nil {
			return true, fmt.Errorf("toggle wishlist: %w", err)
		}
		metrics.WishlistToggles.WithLabelValues("remove").Inc()
		s.presence.InvalidateWishlist(ctx, userID)
		return false, nil
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return false, fmt.Errorf("get product: %w", err)
	}
	if product == nil || !product.IsActive {
		return false, ErrProductNotFound
	}
	if err := s.wishlistRepo.Add(ctx, userID, productID); err != nil {
		return false, fmt.Errorf("toggle wishlist: %w", err)
	}
	metrics.WishlistToggles.WithLabelValues("add").Inc()
	s.presence.InvalidateWishlist(ctx, userID)
	return true, nil
}
