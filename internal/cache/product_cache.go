// Package cache keeps the product listing in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"grocery-catalog/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	productListKey = "catalog:products:list"
	generationKey  = "catalog:products:generation"
)

var errStaleGeneration = errors.New("product list generation changed")

// LookupObserver records cache hits and misses.
type LookupObserver interface {
	ObserveCacheLookup(hit bool)
}

// ProductCache stores the full product list as one JSON value.
type ProductCache struct {
	client   *redis.Client
	ttl      time.Duration
	observer LookupObserver
}

// NewProductCache creates a list cache. observer may be nil.
func NewProductCache(client *redis.Client, ttl time.Duration, observer LookupObserver) *ProductCache {
	return &ProductCache{client: client, ttl: ttl, observer: observer}
}

func (c *ProductCache) observe(hit bool) {
	if c.observer != nil {
		c.observer.ObserveCacheLookup(hit)
	}
}

// GetProducts returns the cached list, the generation it was read at and
// whether the list was present. The generation must be handed back to
// SetProducts so a list read before an invalidation is never stored after it.
func (c *ProductCache) GetProducts(ctx context.Context) ([]*domain.Product, int64, bool, error) {
	values, err := c.client.MGet(ctx, productListKey, generationKey).Result()
	if err != nil {
		c.observe(false)
		return nil, 0, false, fmt.Errorf("failed to read product list cache: %w", err)
	}

	generation, err := parseGeneration(values[1])
	if err != nil {
		c.observe(false)
		return nil, 0, false, err
	}

	data, ok := values[0].(string)
	if !ok {
		c.observe(false)
		return nil, generation, false, nil
	}

	var products []*domain.Product
	if err := json.Unmarshal([]byte(data), &products); err != nil {
		c.observe(false)
		return nil, generation, false, fmt.Errorf("failed to decode product list cache: %w", err)
	}

	c.observe(true)
	return products, generation, true, nil
}

// SetProducts stores the list with the configured TTL, unless the cache was
// invalidated since generation was read. A skipped write is not an error.
func (c *ProductCache) SetProducts(ctx context.Context, generation int64, products []*domain.Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("failed to encode product list: %w", err)
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleGeneration
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, productListKey, data, c.ttl)
			return nil
		})
		return err
	}, generationKey)

	switch {
	case err == nil, errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		return nil
	default:
		return fmt.Errorf("failed to write product list cache: %w", err)
	}
}

// Invalidate drops the cached list and bumps the generation.
func (c *ProductCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, productListKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate product list cache: %w", err)
	}
	return nil
}

func parseGeneration(value interface{}) (int64, error) {
	raw, ok := value.(string)
	if !ok {
		return 0, nil
	}
	generation, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid product list generation %q: %w", raw, err)
	}
	return generation, nil
}
