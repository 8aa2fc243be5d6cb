package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront/internal/cache"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
)

const (
	presenceCacheTTL = 10 * time.Minute
	// Outlives every set cached under it, so an expired counter never
	// resurrects a stale generation.
	presenceGenerationTTL = 24 * time.Hour
)

// PresenceService answers "is product X in this user's cart / wishlist" from
// one cached product-id set per user and collection. Cart and wishlist
// mutations invalidate the matching set.
type PresenceService struct {
	cartRepo     repository.CartRepository
	wishlistRepo repository.WishlistRepository
	cache        *cache.Store
	logger       *slog.Logger
}

func NewPresenceService(cartRepo repository.CartRepository, wishlistRepo repository.WishlistRepository, store *cache.Store, logger *slog.Logger) *PresenceService {
	return &PresenceService{cartRepo: cartRepo, wishlistRepo: wishlistRepo, cache: store, logger: logger}
}

// Lookup returns one Presence per requested product, in request order.
func (s *PresenceService) Lookup(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) ([]model.Presence, error) {
	inCart, err := s.set(ctx, "cart_presence", cache.CartPresenceKey(userID), func() ([]uuid.UUID, error) {
		return s.cartRepo.ProductIDs(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	inWishlist, err := s.set(ctx, "wishlist_presence", cache.WishlistPresenceKey(userID), func() ([]uuid.UUID, error) {
		return s.wishlistRepo.ProductIDs(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.Presence, 0, len(productIDs))
	for _, id := range productIDs {
		_, c := inCart[id]
		_, w := inWishlist[id]
		out = append(out, model.Presence{ProductID: id, InCart: c, InWishlist: w})
	}
	return out, nil
}

// InWishlist reports whether a single product is wishlisted.
func (s *PresenceService) InWishlist(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	p, err := s.Lookup(ctx, userID, []uuid.UUID{productID})
	if err != nil {
		return false, err
	}
	return p[0].InWishlist, nil
}

// set caches under the generation read before loading. An invalidation that
// lands while the rows are loading bumps the generation, so the set written
// afterwards sits under a key no later reader asks for.
func (s *PresenceService) set(ctx context.Context, kind, base string, load func() ([]uuid.UUID, error)) (map[uuid.UUID]struct{}, error) {
	gen, err := s.cache.Generation(ctx, cache.GenerationKey(base))
	cacheable := err == nil
	if err != nil {
		s.logger.Warn("presence generation read failed", "key", base, "error", err)
	}
	key := cache.VersionedKey(base, gen)

	var ids []uuid.UUID
	if !cacheable || !s.cache.GetJSON(ctx, kind, key, &ids) {
		if ids, err = load(); err != nil {
			return nil, fmt.Errorf("load %s: %w", kind, err)
		}
		if cacheable {
			if err := s.cache.SetJSON(ctx, key, ids, presenceCacheTTL); err != nil {
				s.logger.Warn("presence cache write failed", "key", key, "error", err)
			}
		}
	}

	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (s *PresenceService) InvalidateCart(ctx context.Context, userID uuid.UUID) {
	s.invalidate(ctx, cache.CartPresenceKey(userID))
}

func (s *PresenceService) InvalidateWishlist(ctx context.Context, userID uuid.UUID) {
	s.invalidate(ctx, cache.WishlistPresenceKey(userID))
}

func (s *PresenceService) invalidate(ctx context.Context, base string) {
	if err := s.cache.Bump(ctx, cache.GenerationKey(base), presenceGenerationTTL); err != nil {
		s.logger.Warn("presence cache invalidation failed", "key", base, "error", err)
	}
}
