package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCategory is returned when a product names a category that
	// does not exist.
	ErrInvalidCategory = errors.New("invalid category")

	ErrInvalidProduct      = errors.New("invalid product")
	ErrInvalidCategoryData = errors.New("invalid category data")
	ErrCategoryInUse       = errors.New("category is referenced by products")

	// ErrPersistence wraps any unexpected store failure. The original cause
	// stays in the chain.
	ErrPersistence = errors.New("persistence failure")
)

func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", ErrPersistence, op, err)
}

func invalidProduct(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidProduct, reason)
}
