package transport

import (
	"errors"
	"net/http"

	"grocery-catalog/internal/middleware"
	"grocery-catalog/internal/repository"
	"grocery-catalog/internal/service"
	"grocery-catalog/internal/upload"

	"go.uber.org/zap"
)

// respondWithServiceError maps service and store errors to HTTP statuses.
// Anything unrecognised is a 500 carrying fallback and the cause.
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInvalidCategory):
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category")
	case errors.Is(err, service.ErrInvalidProduct), errors.Is(err, service.ErrInvalidCategoryData):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, repository.ErrCategoryNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "category not found")
	case errors.Is(err, repository.ErrCategoryAlreadyExists):
		middleware.RespondWithError(w, http.StatusConflict, "category with this name already exists")
	case errors.Is(err, service.ErrCategoryInUse):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, upload.ErrUnsupportedMedia):
		middleware.RespondWithError(w, http.StatusUnsupportedMediaType, err.Error())
	default:
		logger.Error(fallback, zap.Error(err))
		middleware.RespondWithServerError(w, fallback, err)
	}
}
