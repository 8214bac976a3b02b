package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaraca/storefront/internal/domain"
)

func setupProductCache(t *testing.T, ttl time.Duration) (*ProductCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewProductCache(client, ttl), mr
}

func cachedProduct() *domain.Product {
	return &domain.Product{
		ID:          uuid.New(),
		Name:        "Ceramic Mug",
		Slug:        "ceramic-mug",
		Category:    "kitchen",
		Price:       1990,
		Stock:       7,
		IsAvailable: true,
	}
}

func TestProductCache_SetGet_RoundTrip(t *testing.T) {
	cache, _ := setupProductCache(t, time.Minute)

	p := cachedProduct()
	cache.Set(context.Background(), p)

	got, ok := cache.Get(context.Background(), p.ID)
	require.True(t, ok)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.Slug, got.Slug)
	assert.Equal(t, int64(1990), got.Price)
	assert.Equal(t, 7, got.Stock)
}

func TestProductCache_Get_Miss(t *testing.T) {
	cache, _ := setupProductCache(t, time.Minute)

	got, ok := cache.Get(context.Background(), uuid.New())
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestProductCache_Get_CorruptEntry(t *testing.T) {
	cache, mr := setupProductCache(t, time.Minute)

	p := cachedProduct()
	require.NoError(t, mr.Set("product:"+p.ID.String(), "{{corrupt"))

	got, ok := cache.Get(context.Background(), p.ID)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestProductCache_TTL(t *testing.T) {
	cache, mr := setupProductCache(t, time.Minute)

	p := cachedProduct()
	cache.Set(context.Background(), p)

	ttl := mr.TTL("product:" + p.ID.String())
	assert.True(t, ttl > 50*time.Second && ttl <= time.Minute,
		"expected TTL near 1m, got %v", ttl)

	mr.FastForward(2 * time.Minute)
	_, ok := cache.Get(context.Background(), p.ID)
	assert.False(t, ok, "entry expires after the TTL")
}

func TestProductCache_DefaultTTL(t *testing.T) {
	cache, mr := setupProductCache(t, 0)

	p := cachedProduct()
	cache.Set(context.Background(), p)

	ttl := mr.TTL("product:" + p.ID.String())
	assert.True(t, ttl > 4*time.Minute && ttl <= 5*time.Minute,
		"expected default 5m TTL, got %v", ttl)
}

func TestProductCache_Invalidate(t *testing.T) {
	cache, mr := setupProductCache(t, time.Minute)

	p := cachedProduct()
	cache.Set(context.Background(), p)
	require.True(t, mr.Exists("product:"+p.ID.String()))

	cache.Invalidate(context.Background(), p.ID)
	assert.False(t, mr.Exists("product:"+p.ID.String()))

	_, ok := cache.Get(context.Background(), p.ID)
	assert.False(t, ok)
}

func TestProductCache_BestEffortOnConnectionError(t *testing.T) {
	cache, mr := setupProductCache(t, time.Minute)
	mr.Close()

	p := cachedProduct()

	// None of these may panic or surface an error to the caller.
	cache.Set(context.Background(), p)
	cache.Invalidate(context.Background(), p.ID)

	got, ok := cache.Get(context.Background(), p.ID)
	assert.False(t, ok)
	assert.Nil(t, got)
}
