package service

import (
	"math"

	"github.com/shopspring/decimal"
)

// Pricing holds the derived price fields of a product.
type Pricing struct {
	Price    float64
	OldPrice *float64
	Discount float64
}

// ApplyDiscount derives the stored price fields from a base price and an
// optional discount percentage. A nil or zero discount keeps the base price
// unchanged and leaves OldPrice unset. The discounted price is
// base - base*discount/100 computed on the decimal values of the inputs,
// without rounding.
func ApplyDiscount(base float64, discount *float64) Pricing {
	if discount == nil || *discount == 0 {
		return Pricing{Price: base}
	}

	d := decimal.NewFromFloat(*discount)
	b := decimal.NewFromFloat(base)
	price := b.Sub(b.Mul(d).Shift(-2))

	oldPrice := base
	return Pricing{
		Price:    price.InexactFloat64(),
		OldPrice: &oldPrice,
		Discount: *discount,
	}
}

func validatePricing(base float64, discount *float64) error {
	if math.IsNaN(base) || math.IsInf(base, 0) {
		return invalidProduct("price must be a finite number")
	}
	if base < 0 {
		return invalidProduct("price must not be negative")
	}
	if discount != nil && (*discount < 0 || *discount > 100) {
		return invalidProduct("discount must be between 0 and 100")
	}
	return nil
}
