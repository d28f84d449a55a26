package service

import (
	"context"
	"errors"
	"strings"

	"grocery-catalog/internal/domain"
	"grocery-catalog/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductService defines the interface for product business logic
type ProductService interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

// ProductListCache caches the full product listing. GetProducts reports the
// cache generation it read; SetProducts must drop the list when Invalidate
// has run since that generation.
type ProductListCache interface {
	GetProducts(ctx context.Context) ([]*domain.Product, int64, bool, error)
	SetProducts(ctx context.Context, generation int64, products []*domain.Product) error
	Invalidate(ctx context.Context) error
}

// CreateProductInput carries a new product. Price is the base price before
// discount. Uploads are the stored filenames of files sent with the request
// and take precedence over Images.
type CreateProductInput struct {
	ProductName string
	Description string
	CategoryID  uuid.UUID
	Price       float64
	Discount    *float64
	Unit        string
	Images      []string
	Uploads     []string
}

// UpdateProductInput carries a product update. Nil fields keep the stored
// value, except Discount which resets to 0 and Price which falls back to the
// stored base price. The stored image list is only replaced by Uploads.
type UpdateProductInput struct {
	ProductName *string
	Description *string
	CategoryID  *uuid.UUID
	Price       *float64
	Discount    *float64
	Unit        *string
	Uploads     []string
}

// ProductServiceOptions tunes the consistency rules of the product service.
type ProductServiceOptions struct {
	// ValidateCategoryOnUpdate rejects updates naming a missing category.
	ValidateCategoryOnUpdate bool
}

type productService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	cache      ProductListCache
	opts       ProductServiceOptions
	logger     *zap.Logger
}

// NewProductService creates a new instance of ProductService. cache may be nil.
func NewProductService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	cache ProductListCache,
	opts ProductServiceOptions,
	logger *zap.Logger,
) ProductService {
	if cache == nil {
		cache = noopCache{}
	}
	return &productService{
		products:   products,
		categories: categories,
		cache:      cache,
		opts:       opts,
		logger:     logger.Named("product.service"),
	}
}

// CreateProduct validates the category, derives pricing and persists the product
func (s *productService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if strings.TrimSpace(input.ProductName) == "" {
		return nil, invalidProduct("productName is required")
	}
	if strings.TrimSpace(input.Unit) == "" {
		return nil, invalidProduct("unit is required")
	}
	if err := validatePricing(input.Price, input.Discount); err != nil {
		return nil, err
	}

	category, err := s.resolveCategory(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}

	images := ResolveImages(input.Images, input.Uploads)
	if len(images) == 0 {
		return nil, invalidProduct("at least one image is required")
	}
	for _, image := range images {
		if strings.TrimSpace(image) == "" {
			return nil, invalidProduct("image references must not be empty")
		}
	}

	pricing := ApplyDiscount(input.Price, input.Discount)

	product := &domain.Product{
		ProductName: input.ProductName,
		Description: input.Description,
		CategoryID:  category.ID,
		Unit:        input.Unit,
		Price:       pricing.Price,
		OldPrice:    pricing.OldPrice,
		Discount:    pricing.Discount,
		Images:      images,
	}

	if err := s.products.Create(ctx, product); err != nil {
		s.logger.Error("Failed to create product",
			zap.String("product_name", input.ProductName),
			zap.Error(err),
		)
		return nil, persistenceError("create product", err)
	}
	product.Category = category

	s.invalidate(ctx)

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("category_id", category.ID.String()),
		zap.Float64("price", product.Price),
		zap.Float64("discount", product.Discount),
	)

	return product, nil
}

// ListProducts returns every product with its category resolved
func (s *productService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	cached, generation, ok, err := s.cache.GetProducts(ctx)
	if err != nil {
		s.logger.Warn("Product list cache read failed", zap.Error(err))
	}
	if ok {
		return cached, nil
	}

	products, err := s.products.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		return nil, persistenceError("list products", err)
	}

	if err := s.cache.SetProducts(ctx, generation, products); err != nil {
		s.logger.Warn("Product list cache write failed", zap.Error(err))
	}

	return products, nil
}

// GetProduct returns one product or repository.ErrProductNotFound
func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, err
		}
		s.logger.Error("Failed to get product", zap.String("product_id", id.String()), zap.Error(err))
		return nil, persistenceError("get product", err)
	}
	return product, nil
}

// UpdateProduct replaces the mutable fields of an existing product
func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*domain.Product, error) {
	existing, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	base := existing.BasePrice()
	if input.Price != nil {
		base = *input.Price
	}
	if err := validatePricing(base, input.Discount); err != nil {
		return nil, err
	}

	updated := *existing
	updated.Category = nil

	if input.ProductName != nil {
		if strings.TrimSpace(*input.ProductName) == "" {
			return nil, invalidProduct("productName must not be empty")
		}
		updated.ProductName = *input.ProductName
	}
	if input.Description != nil {
		updated.Description = *input.Description
	}
	if input.Unit != nil {
		if strings.TrimSpace(*input.Unit) == "" {
			return nil, invalidProduct("unit must not be empty")
		}
		updated.Unit = *input.Unit
	}
	if input.CategoryID != nil {
		// Resending the current category is not a change, even when it is gone
		if s.opts.ValidateCategoryOnUpdate && *input.CategoryID != existing.CategoryID {
			if _, err := s.resolveCategory(ctx, *input.CategoryID); err != nil {
				return nil, err
			}
		}
		updated.CategoryID = *input.CategoryID
	}

	pricing := ApplyDiscount(base, input.Discount)
	updated.Price = pricing.Price
	updated.OldPrice = pricing.OldPrice
	updated.Discount = pricing.Discount
	updated.Images = ResolveImages(existing.Images, input.Uploads)

	if err := s.products.Update(ctx, &updated); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, err
		}
		s.logger.Error("Failed to update product", zap.String("product_id", id.String()), zap.Error(err))
		return nil, persistenceError("update product", err)
	}

	s.invalidate(ctx)

	s.logger.Info("Product updated",
		zap.String("product_id", id.String()),
		zap.Int("uploads", len(input.Uploads)),
	)

	return s.GetProduct(ctx, id)
}

// DeleteProduct removes a product unconditionally
func (s *productService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return err
		}
		s.logger.Error("Failed to delete product", zap.String("product_id", id.String()), zap.Error(err))
		return persistenceError("delete product", err)
	}

	s.invalidate(ctx)

	s.logger.Info("Product deleted", zap.String("product_id", id.String()))
	return nil
}

func (s *productService) resolveCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrInvalidCategory
		}
		return nil, persistenceError("find category", err)
	}
	return category, nil
}

func (s *productService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("Product list cache invalidation failed", zap.Error(err))
	}
}

type noopCache struct{}

func (noopCache) GetProducts(context.Context) ([]*domain.Product, int64, bool, error) {
	return nil, 0, false, nil
}
func (noopCache) SetProducts(context.Context, int64, []*domain.Product) error { return nil }
func (noopCache) Invalidate(context.Context) error { return nil }
