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

// CreateCategoryRequest is the category create payload
type CreateCategoryRequest struct {
	CategoryName string   `json:"categoryName" validate:"required"`
	Images       []string `json:"images" validate:"omitempty,dive,required"`
}

// CategoryResponse wraps a single category
type CategoryResponse struct {
	Message  string           `json:"message,omitempty"`
	Category *domain.Category `json:"category"`
}

// CategoryListResponse wraps the category listing
type CategoryListResponse struct {
	Categories []*domain.Category `json:"categories"`
}

// CategoryHandler handles HTTP requests for category operations
type CategoryHandler struct {
	categories service.CategoryService
	uploads    *imageUploads
	logger     *zap.Logger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(
	categories service.CategoryService,
	store *upload.DiskStore,
	maxMemory int64,
	m *metrics.Metrics,
	logger *zap.Logger,
) *CategoryHandler {
	logger = logger.Named("category.handler")
	return &CategoryHandler{
		categories: categories,
		uploads: &imageUploads{
			store:     store,
			maxMemory: maxMemory,
			metrics:   m,
			logger:    logger,
		},
		logger: logger,
	}
}

// RegisterRoutes registers the category routes
func (h *CategoryHandler) RegisterRoutes(r chi.Router, writeMiddleware ...func(http.Handler) http.Handler) {
	r.Get("/categories", h.ListCategories)
	r.Get("/category/{id}", h.GetCategory)

	r.Group(func(r chi.Router) {
		r.Use(writeMiddleware...)
		r.Post("/category", h.CreateCategory)
		r.Delete("/category/{id}", h.DeleteCategory)
	})
}

// CreateCategory handles category creation. Uploaded files override the
// images list in the body.
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	files, err := h.uploads.decode(r, &req)
	if err != nil {
		respondDecodeError(w, h.logger, err)
		return
	}

	stored, err := h.uploads.save(files)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to store images")
		return
	}

	category, err := h.categories.CreateCategory(r.Context(), service.CreateCategoryInput{
		CategoryName: req.CategoryName,
		Images:       service.ResolveImages(req.Images, stored),
	})
	if err != nil {
		h.uploads.discard(stored)
		respondWithServiceError(w, h.logger, err, "failed to create category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, CategoryResponse{
		Message:  "category created successfully",
		Category: category,
	})
}

// ListCategories returns all categories ordered by name
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.ListCategories(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, CategoryListResponse{Categories: categories})
}

func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.categoryID(w, r)
	if !ok {
		return
	}

	category, err := h.categories.GetCategory(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, CategoryResponse{Category: category})
}

// DeleteCategory removes a category following the configured delete policy
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.categoryID(w, r)
	if !ok {
		return
	}

	if err := h.categories.DeleteCategory(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to delete category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{Message: "category deleted successfully"})
}

func (h *CategoryHandler) categoryID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return uuid.Nil, false
	}
	return id, true
}
