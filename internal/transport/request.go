package transport

import (
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"grocery-catalog/internal/metrics"
	"grocery-catalog/internal/middleware"
	"grocery-catalog/internal/upload"

	"go.uber.org/zap"
)

const imagesField = "images"

// Form fields that carry numbers. Everything else is read as a string.
var numericFormFields = map[string]struct{}{
	"price":    {},
	"discount": {},
}

// imageUploads decodes catalog write requests and stores the image files
// sent with them.
type imageUploads struct {
	store     *upload.DiskStore
	maxMemory int64
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// decode fills v from a JSON body or a multipart form and validates it.
// Files sent under the images field are returned unsaved.
func (u *imageUploads) decode(r *http.Request, v interface{}) ([]*multipart.FileHeader, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return nil, middleware.DecodeAndValidate(r, v)
	}

	if err := r.ParseMultipartForm(u.maxMemory); err != nil {
		return nil, fmt.Errorf("%w: %v", middleware.ErrInvalidBody, err)
	}

	raw, err := formToJSON(r.MultipartForm)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("%w: %v", middleware.ErrInvalidBody, err)
	}
	if err := middleware.ValidateRequest(v); err != nil {
		return nil, err
	}

	return r.MultipartForm.File[imagesField], nil
}

// save writes all files or none and returns their stored names.
func (u *imageUploads) save(files []*multipart.FileHeader) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}

	names, err := u.store.SaveAll(files)
	if err != nil {
		u.metrics.ObserveUpload(metrics.UploadRejected)
		return nil, err
	}
	for range names {
		u.metrics.ObserveUpload(metrics.UploadStored)
	}

	u.logger.Debug("Stored image uploads", zap.Strings("files", names))
	return names, nil
}

// discard removes files saved for a request that then failed.
func (u *imageUploads) discard(names []string) {
	if len(names) == 0 {
		return
	}
	if err := u.store.Remove(names...); err != nil {
		u.logger.Warn("Failed to remove orphaned uploads", zap.Strings("files", names), zap.Error(err))
	}
}

// formToJSON re-encodes multipart values so the form and the JSON body share
// one request type and one set of validation tags.
func formToJSON(form *multipart.Form) ([]byte, error) {
	payload := make(map[string]interface{}, len(form.Value))
	for key, values := range form.Value {
		if len(values) == 0 {
			continue
		}

		if key == imagesField {
			payload[key] = values
			continue
		}

		if _, numeric := numericFormFields[key]; numeric {
			value := strings.TrimSpace(values[0])
			if value == "" {
				continue
			}
			n, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s must be a number", middleware.ErrInvalidBody, key)
			}
			payload[key] = n
			continue
		}

		payload[key] = values[0]
	}
	return json.Marshal(payload)
}

// respondDecodeError answers a request whose body could not be decoded or
// failed validation.
func respondDecodeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	logger.Debug("Request validation failed", zap.Error(err))

	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return
	}

	middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
}
