package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category represents a product category. Products reference categories but
// never own them.
type Category struct {
	ID           uuid.UUID `json:"id"`
	CategoryName string    `json:"categoryName"`
	Images       []string  `json:"images"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
