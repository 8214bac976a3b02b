package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ekaraca/storefront/internal/domain"
)

// ProductCache is a read-through cache for single-product lookups. Misses
// and Redis failures are both reported as ok=false so the caller falls back
// to Postgres.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProductCache creates a product cache with the given entry TTL.
func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProductCache{client: client, ttl: ttl}
}

func productKey(id uuid.UUID) string {
	return "product:" + id.String()
}

func (c *ProductCache) Get(ctx context.Context, id uuid.UUID) (*domain.Product, bool) {
	raw, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		return nil, false
	}

	var p domain.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *ProductCache) Set(ctx context.Context, p *domain.Product) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, productKey(p.ID), raw, c.ttl).Err()
}

// Invalidate drops the cached entry. Called after any product mutation,
// including stock changes made by order flows.
func (c *ProductCache) Invalidate(ctx context.Context, id uuid.UUID) {
	_ = c.client.Del(ctx, productKey(id)).Err()
}
