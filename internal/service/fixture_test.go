package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/go-storefront/internal/cache"
	"github.com/flicky/go-storefront/internal/pricing"
)

// storefront wires every service over in-memory repositories.
type storefront struct {
	users      *mockUserRepo
	products   *mockProductRepo
	categories *mockCategoryRepo
	carts      *mockCartRepo
	wishlists  *mockWishlistRepo
	addresses  *mockAddressRepo
	orders     *mockOrderRepo
	publisher  *recordingPublisher
	identity   *fakeIdentityAdmin

	presence    *PresenceService
	cartSvc     *CartService
	wishlistSvc *WishlistService
	orderSvc    *OrderService
	productSvc  *ProductService
	categorySvc *CategoryService
	addressSvc  *AddressService
	profileSvc  *ProfileService
	adminSvc    *AdminService
}

func newStorefront() *storefront {
	f := &storefront{
		users:     newMockUserRepo(),
		products:  newMockProductRepo(),
		wishlists: newMockWishlistRepo(),
		addresses: newMockAddressRepo(),
		publisher: &recordingPublisher{},
		identity:  &fakeIdentityAdmin{},
	}
	f.categories = newMockCategoryRepo(f.products)
	f.carts = newMockCartRepo(f.products)
	f.orders = newMockOrderRepo(f.carts)

	f.presence = NewPresenceService(f.carts, f.wishlists, nil, discardLogger)
	f.cartSvc = NewCartService(f.carts, f.products, f.presence)
	f.wishlistSvc = NewWishlistService(f.wishlists, f.products, f.presence)
	f.orderSvc = NewOrderService(f.orders, f.carts, f.addresses, pricing.Default(), f.publisher, f.presence, discardLogger)
	f.productSvc = NewProductService(f.products, nil, discardLogger)
	f.categorySvc = NewCategoryService(f.categories, f.productSvc)
	f.addressSvc = NewAddressService(f.addresses)
	f.profileSvc = NewProfileService(f.users, nil)
	f.adminSvc = NewAdminService(f.users, f.products, f.categories, f.orders, f.addresses, f.identity, nil, discardLogger)
	return f
}

func (f *storefront) customer() Customer {
	c := Customer{ID: uuid.New()}
	c.Email = c.ID.String()[:8] + "@example.com"
	_ = f.users.Ensure(context.Background(), c.ID, c.Email)
	return c
}

// redisStore returns a cache backed by an in-process Redis that is torn down
// with the test.
func redisStore(t *testing.T) (*cache.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return cache.New(rdb), mr
}
