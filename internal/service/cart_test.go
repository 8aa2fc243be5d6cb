package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartService_AddToCart_FirstAddInsertsOne(t *testing.T) {
	f := newStorefront()
	p := f.products.add("mug", "12.00")
	userID := uuid.New()

	item, err := f.cartSvc.AddToCart(context.Background(), userID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, 1, f.carts.count(userID))
}

func TestCartService_AddToCart_SecondAddIncrements(t *testing.T) {
	f := newStorefront()
	p := f.products.add("mug", "12.00")
	userID := uuid.New()
	ctx := context.Background()

	_, err := f.cartSvc.AddToCart(ctx, userID, p.ID)
	require.NoError(t, err)
	item, err := f.cartSvc.AddToCart(ctx, userID, p.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, 1, f.carts.count(userID))
}

func TestCartService_AddToCart_Concurrent(t *testing.T) {
	f := newStorefront()
	p := f.products.add("mug", "12.00")
	userID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.cartSvc.AddToCart(context.Background(), userID, p.ID)
		}()
	}
	wg.Wait()

	items, err := f.carts.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 10, items[0].Quantity)
}

func TestCartService_AddToCart_ProductNotFound(t *testing.T) {
	f := newStorefront()
	_, err := f.cartSvc.AddToCart(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCartService_AddToCart_InactiveProduct(t *testing.T) {
	f := newStorefront()
	p := f.products.add("retired", "5.00")
	p.IsActive = false

	_, err := f.cartSvc.AddToCart(context.Background(), uuid.New(), p.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCartService_AddToCart_NoStockCheck(t *testing.T) {
	f := newStorefront()
	p := f.products.add("last one", "5.00")
	p.InventoryQuantity = 1
	userID := uuid.New()
	ctx := context.Background()

	_, err := f.cartSvc.AddToCart(ctx, userID, p.ID)
	require.NoError(t, err)
	item, err := f.cartSvc.AddToCart(ctx, userID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)
}

func TestCartService_GetCart_Subtotal(t *testing.T) {
	f := newStorefront()
	mug := f.products.add("mug", "12.50")
	lamp := f.products.add("lamp", "40.00")
	userID := uuid.New()
	ctx := context.Background()

	for _, id := range []uuid.UUID{mug.ID, mug.ID, lamp.ID} {
		_, err := f.cartSvc.AddToCart(ctx, userID, id)
		require.NoError(t, err)
	}

	cart, err := f.cartSvc.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.True(t, decimal.RequireFromString("65").Equal(cart.Subtotal()), cart.Subtotal().String())
}

func TestCartService_UpdateQuantity(t *testing.T) {
	f := newStorefront()
	p := f.products.add("mug", "12.00")
	userID := uuid.New()
	ctx := context.Background()
	item, err := f.cartSvc.AddToCart(ctx, userID, p.ID)
	require.NoError(t, err)

	updated, err := f.cartSvc.UpdateQuantity(ctx, userID, item.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)

	_, err = f.cartSvc.UpdateQuantity(ctx, userID, item.ID, 0)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = f.cartSvc.UpdateQuantity(ctx, uuid.New(), item.ID, 3)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestCartService_RemoveItem_OwnerScoped(t *testing.T) {
	f := newStorefront()
	p := f.products.add("mug", "12.00")
	owner := uuid.New()
	ctx := context.Background()
	item, err := f.cartSvc.AddToCart(ctx, owner, p.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.cartSvc.RemoveItem(ctx, uuid.New(), item.ID), ErrCartItemNotFound)
	require.NoError(t, f.cartSvc.RemoveItem(ctx, owner, item.ID))
	assert.Zero(t, f.carts.count(owner))
}
