package product

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

func cacheKeyID(id string) string     { return "product:" + id }
func cacheKeySlug(slug string) string { return "product:slug:" + slug }

// CachedReader wraps the catalog read path with Redis. Stock checks never go
// through here: checkout always reads stock_quantity from Postgres under lock.
type CachedReader struct {
	inner Reader
	rdb   *redis.Client
	ttl   time.Duration
}

func NewCachedReader(inner Reader, rdb *redis.Client) *CachedReader {
	return &CachedReader{inner: inner, rdb: rdb, ttl: 10 * time.Minute}
}

func (c *CachedReader) GetByID(ctx context.Context, id string) (*Product, error) {
	if p, ok := c.lookup(ctx, cacheKeyID(id)); ok {
		return p, nil
	}
	p, err := c.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, cacheKeyID(id), p)
	return p, nil
}

func (c *CachedReader) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	if p, ok := c.lookup(ctx, cacheKeySlug(slug)); ok {
		return p, nil
	}
	p, err := c.inner.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	c.store(ctx, cacheKeySlug(slug), p)
	return p, nil
}

// List is not cached: filters and pagination make the hit rate not worth it.
func (c *CachedReader) List(ctx context.Context, q Query) ([]Product, error) {
	return c.inner.List(ctx, q)
}

// Invalidate drops both keys for a product after any write.
func (c *CachedReader) Invalidate(ctx context.Context, p *Product) {
	if err := c.rdb.Del(ctx, cacheKeyID(p.ID), cacheKeySlug(p.Slug)).Err(); err != nil {
		log.Printf("[product-cache] del %s: %v", p.ID, err)
	}
}

func (c *CachedReader) lookup(ctx context.Context, key string) (*Product, bool) {
	raw, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[product-cache] get %s: %v", key, err)
		}
		return nil, false
	}
	var p Product
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		log.Printf("[product-cache] decode %s: %v", key, err)
		return nil, false
	}
	return &p, true
}

func (c *CachedReader) store(ctx context.Context, key string, p *Product) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Printf("[product-cache] set %s: %v", key, err)
	}
}

var _ Reader = (*CachedReader)(nil)
