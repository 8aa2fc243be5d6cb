package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/go-storefront/internal/dto"
)

func TestProductService_GetByID(t *testing.T) {
	f := newStorefront()
	p := f.products.add("mug", "12.00")

	resp, err := f.productSvc.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "mug", resp.Name)
	assert.NotNil(t, resp.Images)
}

func TestProductService_GetByID_HidesInactive(t *testing.T) {
	f := newStorefront()
	p := f.products.add("draft", "12.00")
	p.IsActive = false

	_, err := f.productSvc.GetByID(context.Background(), p.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)

	resp, err := f.productSvc.AdminGet(context.Background(), p.ID)
	require.NoError(t, err)
	assert.False(t, resp.IsActive)
}

func TestProductService_Sale(t *testing.T) {
	f := newStorefront()
	f.products.add("full price", "10.00")
	discounted := f.products.add("clearance", "10.00")
	cost := dec("15.00")
	_, err := f.productSvc.Update(context.Background(), discounted.ID, dto.UpdateProductRequest{CostPrice: &cost})
	require.NoError(t, err)

	resp, err := f.productSvc.Sale(context.Background(), dto.PageRequest{Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, resp.Products, 1)
	assert.Equal(t, discounted.ID, resp.Products[0].ID)
	assert.True(t, resp.Products[0].OnSale)
}

func TestProductService_FeaturedCapped(t *testing.T) {
	f := newStorefront()
	for i := 0; i < 10; i++ {
		f.products.add("featured", "1.00").IsFeatured = true
	}
	f.products.add("plain", "1.00")

	got, err := f.productSvc.Featured(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 8)
}

func TestProductService_CreateValidation(t *testing.T) {
	f := newStorefront()

	_, err := f.productSvc.Create(context.Background(), dto.CreateProductRequest{Name: "  ", Slug: "ok"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	_, err = f.productSvc.Create(context.Background(), dto.CreateProductRequest{Name: "Mug", Slug: "m"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "slug", verr.Field)

	resp, err := f.productSvc.Create(context.Background(), dto.CreateProductRequest{Name: "Mug", Slug: "mug", Price: dec("9.50")})
	require.NoError(t, err)
	assert.True(t, resp.IsActive)
}

func TestProductService_Images(t *testing.T) {
	f := newStorefront()
	p := f.products.add("mug", "12.00")
	ctx := context.Background()

	img, err := f.productSvc.AddImage(ctx, p.ID, dto.AddProductImageRequest{URL: "https://cdn.example.com/mug.jpg"})
	require.NoError(t, err)

	require.NoError(t, f.productSvc.DeleteImage(ctx, p.ID, img.ID))
	assert.ErrorIs(t, f.productSvc.DeleteImage(ctx, p.ID, img.ID), ErrImageNotFound)

	_, err = f.productSvc.AddImage(ctx, uuid.New(), dto.AddProductImageRequest{URL: "https://cdn.example.com/x.jpg"})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_Delete(t *testing.T) {
	f := newStorefront()
	p := f.products.add("mug", "12.00")

	require.NoError(t, f.productSvc.Delete(context.Background(), p.ID))
	assert.ErrorIs(t, f.productSvc.Delete(context.Background(), p.ID), ErrProductNotFound)
}

func TestCategoryService_DeleteRefusedWhenInUse(t *testing.T) {
	f := newStorefront()
	ctx := context.Background()

	cat, err := f.categorySvc.Create(ctx, dto.CategoryRequest{Name: "Kitchen", Slug: "kitchen"})
	require.NoError(t, err)
	p := f.products.add("spoon", "3.00")
	p.CategoryID = &cat.ID

	assert.ErrorIs(t, f.categorySvc.Delete(ctx, cat.ID), ErrCategoryInUse)

	p.CategoryID = nil
	require.NoError(t, f.categorySvc.Delete(ctx, cat.ID))
	assert.ErrorIs(t, f.categorySvc.Delete(ctx, cat.ID), ErrCategoryNotFound)
}

func TestCategoryService_GetBySlug(t *testing.T) {
	f := newStorefront()
	ctx := context.Background()

	cat, err := f.categorySvc.Create(ctx, dto.CategoryRequest{Name: "Garden", Slug: "garden"})
	require.NoError(t, err)
	f.products.add("rake", "20.00").CategoryID = &cat.ID
	f.products.add("mug", "12.00")

	detail, err := f.categorySvc.GetBySlug(ctx, "garden", dto.PageRequest{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, "Garden", detail.Category.Name)
	assert.Equal(t, 1, detail.Products.Total)

	_, err = f.categorySvc.GetBySlug(ctx, "nope", dto.PageRequest{Page: 1, Limit: 20})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}
