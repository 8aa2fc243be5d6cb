package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryInUse    = errors.New("category has products")
)

type CategoryService struct {
	categoryRepo repository.CategoryRepository
	products     *ProductService
}

func NewCategoryService(categoryRepo repository.CategoryRepository, products *ProductService) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo, products: products}
}

func (s *CategoryService) List(ctx context.Context) ([]dto.CategoryResponse, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, toCategoryResponse(&categories[i]))
	}
	return out, nil
}

// GetBySlug returns the category and a page of its active products.
func (s *CategoryService) GetBySlug(ctx context.Context, slug string, page dto.PageRequest) (*dto.CategoryDetailResponse, error) {
	category, err := s.categoryRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	products, err := s.products.ByCategory(ctx, category.ID, page)
	if err != nil {
		return nil, err
	}
	return &dto.CategoryDetailResponse{Category: toCategoryResponse(category), Products: *products}, nil
}

func (s *CategoryService) fill(c *model.Category, req dto.CategoryRequest) error {
	c.Name = strings.TrimSpace(req.Name)
	c.Slug = strings.TrimSpace(req.Slug)
	c.Description = req.Description
	c.ImageURL = req.ImageURL
	c.ParentID = req.ParentID
	if c.Name == "" {
		return invalid("name", "is required")
	}
	if len(c.Slug) < 2 {
		return invalid("slug", "must be at least 2 characters")
	}
	if c.ParentID != nil && *c.ParentID == c.ID {
		return invalid("parent_id", "a category cannot be its own parent")
	}
	return nil
}

func (s *CategoryService) Create(ctx context.Context, req dto.CategoryRequest) (*dto.CategoryResponse, error) {
	category := &model.Category{}
	if err := s.fill(category, req); err != nil {
		return nil, err
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if verr := slugConflict(err); verr != nil {
			return nil, verr
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	resp := toCategoryResponse(category)
	return &resp, nil
}

func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, req dto.CategoryRequest) (*dto.CategoryResponse, error) {
	category := &model.Category{ID: id}
	if err := s.fill(category, req); err != nil {
		return nil, err
	}
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		if verr := slugConflict(err); verr != nil {
			return nil, verr
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	resp := toCategoryResponse(category)
	return &resp, nil
}

// Delete refuses to remove a category that products still reference.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.categoryRepo.CountProducts(ctx, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n > 0 {
		return ErrCategoryInUse
	}
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func toCategoryResponse(c *model.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		ImageURL:    c.ImageURL,
		ParentID:    c.ParentID,
	}
}
