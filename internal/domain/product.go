package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product is a sellable catalog item. Price is the final price after any
// discount; OldPrice holds the pre-discount base price and is only set when a
// discount was applied.
type Product struct {
	ID          uuid.UUID `json:"id"`
	ProductName string    `json:"productName"`
	Description string    `json:"description"`
	CategoryID  uuid.UUID `json:"categoryId"`
	Category    *Category `json:"category,omitempty"`
	Unit        string    `json:"unit"`
	Price       float64   `json:"price"`
	OldPrice    *float64  `json:"oldPrice,omitempty"`
	Discount    float64   `json:"discount"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// BasePrice returns the price before discount.
func (p *Product) BasePrice() float64 {
	if p.OldPrice != nil {
		return *p.OldPrice
	}
	return p.Price
}
