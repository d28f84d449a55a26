package transport

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"grocery-catalog/internal/domain"
	"grocery-catalog/internal/repository"
	"grocery-catalog/internal/service"
	"grocery-catalog/internal/upload"

	"github.com/google/uuid"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

// stubProductService records the inputs it receives and answers from a map
type stubProductService struct {
	products   map[uuid.UUID]*domain.Product
	lastCreate *service.CreateProductInput
	lastUpdate *service.UpdateProductInput
	err        error
}

func newStubProductService() *stubProductService {
	return &stubProductService{products: make(map[uuid.UUID]*domain.Product)}
}

func (s *stubProductService) CreateProduct(ctx context.Context, input service.CreateProductInput) (*domain.Product, error) {
	s.lastCreate = &input
	if s.err != nil {
		return nil, s.err
	}
	pricing := service.ApplyDiscount(input.Price, input.Discount)
	product := &domain.Product{
		ID:          uuid.New(),
		ProductName: input.ProductName,
		Description: input.Description,
		CategoryID:  input.CategoryID,
		Unit:        input.Unit,
		Price:       pricing.Price,
		OldPrice:    pricing.OldPrice,
		Discount:    pricing.Discount,
		Images:      service.ResolveImages(input.Images, input.Uploads),
	}
	s.products[product.ID] = product
	return product, nil
}

func (s *stubProductService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	products := []*domain.Product{}
	for _, p := range s.products {
		products = append(products, p)
	}
	return products, nil
}

func (s *stubProductService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	product, ok := s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

func (s *stubProductService) UpdateProduct(ctx context.Context, id uuid.UUID, input service.UpdateProductInput) (*domain.Product, error) {
	s.lastUpdate = &input
	if s.err != nil {
		return nil, s.err
	}
	product, ok := s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	base := product.BasePrice()
	if input.Price != nil {
		base = *input.Price
	}
	pricing := service.ApplyDiscount(base, input.Discount)
	product.Price = pricing.Price
	product.OldPrice = pricing.OldPrice
	product.Discount = pricing.Discount
	product.Images = service.ResolveImages(product.Images, input.Uploads)
	return product, nil
}

func (s *stubProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

type stubCategoryService struct {
	categories map[uuid.UUID]*domain.Category
	lastCreate *service.CreateCategoryInput
	err        error
}

func newStubCategoryService() *stubCategoryService {
	return &stubCategoryService{categories: make(map[uuid.UUID]*domain.Category)}
}

func (s *stubCategoryService) CreateCategory(ctx context.Context, input service.CreateCategoryInput) (*domain.Category, error) {
	s.lastCreate = &input
	if s.err != nil {
		return nil, s.err
	}
	category := &domain.Category{ID: uuid.New(), CategoryName: input.CategoryName, Images: input.Images}
	s.categories[category.ID] = category
	return category, nil
}

func (s *stubCategoryService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	if s.err != nil {
		return nil, s.err
	}
	categories := []*domain.Category{}
	for _, c := range s.categories {
		categories = append(categories, c)
	}
	return categories, nil
}

func (s *stubCategoryService) GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	if s.err != nil {
		return nil, s.err
	}
	category, ok := s.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return category, nil
}

func (s *stubCategoryService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(s.categories, id)
	return nil
}

func newTestDiskStore(t *testing.T) *upload.DiskStore {
	t.Helper()
	store, err := upload.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create disk store: %v", err)
	}
	return store
}

func storedFiles(t *testing.T, store *upload.DiskStore) []string {
	t.Helper()
	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatalf("Failed to read upload dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

type formFile struct {
	name    string
	content []byte
}

// multipartRequest builds a multipart request with values and files under
// the images field.
func multipartRequest(t *testing.T, method, target string, values map[string]string, files ...formFile) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range values {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("Failed to write field: %v", err)
		}
	}
	for _, f := range files {
		part, err := writer.CreateFormFile(imagesField, f.name)
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		part.Write(f.content)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}
