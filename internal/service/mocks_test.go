package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"grocery-catalog/internal/domain"
	"grocery-catalog/internal/repository"

	"github.com/google/uuid"
)

var errStoreDown = errors.New("connection refused")

// Mock repositories for testing
type mockCategoryRepository struct {
	categories map[uuid.UUID]*domain.Category
	products   *mockProductRepository
	failWith   error
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{
		categories: make(map[uuid.UUID]*domain.Category),
	}
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	if m.failWith != nil {
		return m.failWith
	}
	for _, existing := range m.categories {
		if existing.CategoryName == category.CategoryName {
			return repository.ErrCategoryAlreadyExists
		}
	}
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	category.CreatedAt = time.Now()
	category.UpdatedAt = category.CreatedAt
	stored := *category
	m.categories[category.ID] = &stored
	return nil
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	categories := make([]*domain.Category, 0, len(m.categories))
	for _, c := range m.categories {
		copied := *c
		categories = append(categories, &copied)
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].CategoryName < categories[j].CategoryName
	})
	return categories, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	category, exists := m.categories[id]
	if !exists {
		return nil, repository.ErrCategoryNotFound
	}
	copied := *category
	return &copied, nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, exists := m.categories[id]; !exists {
		return repository.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepository) CountProducts(ctx context.Context, id uuid.UUID) (int, error) {
	if m.products == nil {
		return 0, nil
	}
	count := 0
	for _, p := range m.products.products {
		if p.CategoryID == id {
			count++
		}
	}
	return count, nil
}

type mockProductRepository struct {
	products   map[uuid.UUID]*domain.Product
	order      []uuid.UUID
	categories *mockCategoryRepository
	failWith   error
	// afterList runs once, after List has taken its snapshot.
	afterList func()
}

func newMockProductRepository(categories *mockCategoryRepository) *mockProductRepository {
	repo := &mockProductRepository{
		products:   make(map[uuid.UUID]*domain.Product),
		categories: categories,
	}
	categories.products = repo
	return repo
}

func (m *mockProductRepository) resolve(p *domain.Product) *domain.Product {
	copied := *p
	copied.Images = append([]string{}, p.Images...)
	copied.Category = nil
	if category, exists := m.categories.categories[p.CategoryID]; exists {
		c := *category
		copied.Category = &c
	}
	return &copied
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if m.failWith != nil {
		return m.failWith
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	stored := *product
	stored.Images = append([]string{}, product.Images...)
	m.products[product.ID] = &stored
	m.order = append(m.order, product.ID)
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if m.failWith != nil {
		return m.failWith
	}
	existing, exists := m.products[product.ID]
	if !exists {
		return repository.ErrProductNotFound
	}
	stored := *product
	stored.Images = append([]string{}, product.Images...)
	stored.Category = nil
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = time.Now()
	m.products[product.ID] = &stored
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.failWith != nil {
		return m.failWith
	}
	if _, exists := m.products[id]; !exists {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	product, exists := m.products[id]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	return m.resolve(product), nil
}

func (m *mockProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	products := []*domain.Product{}
	for _, id := range m.order {
		if p, exists := m.products[id]; exists {
			products = append(products, m.resolve(p))
		}
	}
	if hook := m.afterList; hook != nil {
		m.afterList = nil
		hook()
	}
	return products, nil
}

func (m *mockProductRepository) DeleteByCategory(ctx context.Context, categoryID uuid.UUID) (int, error) {
	deleted := 0
	for id, p := range m.products {
		if p.CategoryID == categoryID {
			delete(m.products, id)
			deleted++
		}
	}
	return deleted, nil
}

type mockListCache struct {
	products      []*domain.Product
	cached        bool
	invalidations int
}

func (m *mockListCache) GetProducts(ctx context.Context) ([]*domain.Product, int64, bool, error) {
	return m.products, int64(m.invalidations), m.cached, nil
}

func (m *mockListCache) SetProducts(ctx context.Context, generation int64, products []*domain.Product) error {
	if generation != int64(m.invalidations) {
		return nil
	}
	m.products = products
	m.cached = true
	return nil
}

func (m *mockListCache) Invalidate(ctx context.Context) error {
	m.products = nil
	m.cached = false
	m.invalidations++
	return nil
}
