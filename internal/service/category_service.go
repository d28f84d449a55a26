package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"grocery-catalog/internal/domain"
	"grocery-catalog/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DeletePolicy decides what happens to products when their category is deleted.
type DeletePolicy string

const (
	// DeletePolicyRestrict refuses to delete a category that products reference.
	DeletePolicyRestrict DeletePolicy = "restrict"
	// DeletePolicyCascade deletes the referencing products first.
	DeletePolicyCascade DeletePolicy = "cascade"
	// DeletePolicyOrphan deletes the category and leaves references dangling.
	DeletePolicyOrphan DeletePolicy = "orphan"
)

// ParseDeletePolicy parses a configured policy name
func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch p := DeletePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case DeletePolicyRestrict, DeletePolicyCascade, DeletePolicyOrphan:
		return p, nil
	case "":
		return DeletePolicyRestrict, nil
	default:
		return "", fmt.Errorf("unknown category delete policy %q", s)
	}
}

// CategoryService defines the interface for category business logic
type CategoryService interface {
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

// CreateCategoryInput carries a new category
type CreateCategoryInput struct {
	CategoryName string
	Images       []string
}

type categoryService struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	cache      ProductListCache
	policy     DeletePolicy
	logger     *zap.Logger
}

// NewCategoryService creates a new instance of CategoryService. cache may be nil.
func NewCategoryService(
	categories repository.CategoryRepository,
	products repository.ProductRepository,
	cache ProductListCache,
	policy DeletePolicy,
	logger *zap.Logger,
) CategoryService {
	if cache == nil {
		cache = noopCache{}
	}
	return &categoryService{
		categories: categories,
		products:   products,
		cache:      cache,
		policy:     policy,
		logger:     logger.Named("category.service"),
	}
}

func (s *categoryService) CreateCategory(ctx context.Context, input CreateCategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.CategoryName)
	if name == "" {
		return nil, fmt.Errorf("%w: categoryName is required", ErrInvalidCategoryData)
	}

	images := make([]string, 0, len(input.Images))
	for _, image := range input.Images {
		if strings.TrimSpace(image) == "" {
			return nil, fmt.Errorf("%w: image references must not be empty", ErrInvalidCategoryData)
		}
		images = append(images, image)
	}

	category := &domain.Category{CategoryName: name, Images: images}
	if err := s.categories.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryAlreadyExists) {
			return nil, err
		}
		s.logger.Error("Failed to create category", zap.String("category_name", name), zap.Error(err))
		return nil, persistenceError("create category", err)
	}

	s.logger.Info("Category created",
		zap.String("category_id", category.ID.String()),
		zap.String("category_name", name),
	)

	return category, nil
}

func (s *categoryService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list categories", zap.Error(err))
		return nil, persistenceError("list categories", err)
	}
	return categories, nil
}

func (s *categoryService) GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, err
		}
		return nil, persistenceError("get category", err)
	}
	return category, nil
}

// DeleteCategory removes a category according to the configured policy
func (s *categoryService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return err
	}

	count, err := s.categories.CountProducts(ctx, id)
	if err != nil {
		return persistenceError("count category products", err)
	}

	switch s.policy {
	case DeletePolicyCascade:
		if count > 0 {
			deleted, err := s.products.DeleteByCategory(ctx, id)
			if err != nil {
				s.logger.Error("Failed to cascade category delete", zap.String("category_id", id.String()), zap.Error(err))
				return persistenceError("delete category products", err)
			}
			s.logger.Info("Deleted products of category",
				zap.String("category_id", id.String()),
				zap.Int("products", deleted),
			)
		}
	case DeletePolicyOrphan:
		if count > 0 {
			s.logger.Warn("Deleting category still referenced by products",
				zap.String("category_id", id.String()),
				zap.Int("products", count),
			)
		}
	default:
		if count > 0 {
			return fmt.Errorf("%w: %d products reference it", ErrCategoryInUse, count)
		}
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return err
		}
		return persistenceError("delete category", err)
	}

	if count > 0 {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("Product list cache invalidation failed", zap.Error(err))
		}
	}

	s.logger.Info("Category deleted",
		zap.String("category_id", id.String()),
		zap.String("policy", string(s.policy)),
	)
	return nil
}
