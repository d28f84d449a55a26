package transport

import (
	"net/http"

	"grocery-catalog/internal/domain"
	"grocery-catalog/internal/metrics"
	"grocery-catalog/internal/middleware"
	"grocery-catalog/internal/service"
	"grocery-catalog/internal/upload"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateProductRequest is the create payload. Price is the base price
// before discount.
type CreateProductRequest struct {
	ProductName string   `json:"productName" validate:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category" validate:"required,uuid"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Discount    *float64 `json:"discount" validate:"omitnil,gte=0,lte=100"`
	Unit        string   `json:"unit" validate:"required"`
	Images      []string `json:"images" validate:"omitempty,dive,required"`
}

// UpdateProductRequest is the update payload. Omitted fields keep their
// stored value; an omitted discount clears the discount.
type UpdateProductRequest struct {
	ProductName *string  `json:"productName" validate:"omitnil,min=1"`
	Description *string  `json:"description"`
	Category    *string  `json:"category" validate:"omitnil,uuid"`
	Price       *float64 `json:"price" validate:"omitnil,gte=0"`
	Discount    *float64 `json:"discount" validate:"omitnil,gte=0,lte=100"`
	Unit        *string  `json:"unit" validate:"omitnil,min=1"`
}

// ProductResponse wraps a single product
type ProductResponse struct {
	Message string          `json:"message,omitempty"`
	Product *domain.Product `json:"product"`
}

// ProductListResponse wraps the product listing
type ProductListResponse struct {
	Products []*domain.Product `json:"products"`
}

// MessageResponse is returned by deletes
type MessageResponse struct {
	Message string `json:"message"`
}

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	products service.ProductService
	uploads  *imageUploads
	logger   *zap.Logger
}

// NewProductHandler creates a new ProductHandler. maxMemory bounds the part
// of a multipart body kept in memory.
func NewProductHandler(
	products service.ProductService,
	store *upload.DiskStore,
	maxMemory int64,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ProductHandler {
	logger = logger.Named("product.handler")
	return &ProductHandler{
		products: products,
		uploads: &imageUploads{
			store:     store,
			maxMemory: maxMemory,
			metrics:   m,
			logger:    logger,
		},
		logger: logger,
	}
}

// RegisterRoutes registers the product routes. writeMiddleware guards the
// routes that change the catalog.
func (h *ProductHandler) RegisterRoutes(r chi.Router, writeMiddleware ...func(http.Handler) http.Handler) {
	r.Get("/products", h.ListProducts)
	r.Get("/product/{id}", h.GetProduct)

	r.Group(func(r chi.Router) {
		r.Use(writeMiddleware...)
		r.Post("/product", h.CreateProduct)
		r.Put("/product/{id}", h.UpdateProduct)
		r.Delete("/product/{id}", h.DeleteProduct)
	})
}

// CreateProduct handles product creation from JSON or a multipart form
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	files, err := h.uploads.decode(r, &req)
	if err != nil {
		respondDecodeError(w, h.logger, err)
		return
	}

	categoryID, err := uuid.Parse(req.Category)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category")
		return
	}

	stored, err := h.uploads.save(files)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to store images")
		return
	}

	product, err := h.products.CreateProduct(r.Context(), service.CreateProductInput{
		ProductName: req.ProductName,
		Description: req.Description,
		CategoryID:  categoryID,
		Price:       *req.Price,
		Discount:    req.Discount,
		Unit:        req.Unit,
		Images:      req.Images,
		Uploads:     stored,
	})
	if err != nil {
		h.uploads.discard(stored)
		respondWithServiceError(w, h.logger, err, "failed to create product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, ProductResponse{
		Message: "product created successfully",
		Product: product,
	})
}

// ListProducts returns every product with its category
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListProducts(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductListResponse{Products: products})
}

// GetProduct returns one product
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	product, err := h.products.GetProduct(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductResponse{Product: product})
}

// UpdateProduct replaces the product's mutable fields. Uploaded files replace
// the image list; without uploads the stored images are kept.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	var req UpdateProductRequest
	files, err := h.uploads.decode(r, &req)
	if err != nil {
		respondDecodeError(w, h.logger, err)
		return
	}

	input := service.UpdateProductInput{
		ProductName: req.ProductName,
		Description: req.Description,
		Price:       req.Price,
		Discount:    req.Discount,
		Unit:        req.Unit,
	}
	if req.Category != nil {
		categoryID, err := uuid.Parse(*req.Category)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid category")
			return
		}
		input.CategoryID = &categoryID
	}

	stored, err := h.uploads.save(files)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to store images")
		return
	}
	input.Uploads = stored

	product, err := h.products.UpdateProduct(r.Context(), id, input)
	if err != nil {
		h.uploads.discard(stored)
		respondWithServiceError(w, h.logger, err, "failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductResponse{
		Message: "product updated successfully",
		Product: product,
	})
}

// DeleteProduct removes a product
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	if err := h.products.DeleteProduct(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to delete product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{Message: "product deleted successfully"})
}

func (h *ProductHandler) productID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Debug("Invalid product id", zap.String("id", chi.URLParam(r, "id")))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return uuid.Nil, false
	}
	return id, true
}
