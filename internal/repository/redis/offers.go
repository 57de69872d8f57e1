package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
)

const (
	keyPrefix  = "offers:"
	versionKey = keyPrefix + "version"
)

// OffersCache implements repository.OffersCache using Redis. Entries are
// namespaced by a generation counter so Invalidate is a single INCR; stale
// generations age out through the TTL.
type OffersCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOffersCache creates a new Redis-backed offers cache.
func NewOffersCache(client *redis.Client, ttl time.Duration) *OffersCache {
	return &OffersCache{
		client: client,
		ttl:    ttl,
	}
}

var _ repository.OffersCache = (*OffersCache)(nil)

func (c *OffersCache) key(ctx context.Context, limit int) (string, error) {
	version, err := c.client.Get(ctx, versionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("redis get offers version: %w", err)
	}
	return keyPrefix + "v" + strconv.FormatInt(version, 10) + ":" + strconv.Itoa(limit), nil
}

// Get returns the cached listing for limit.
func (c *OffersCache) Get(ctx context.Context, limit int) ([]domain.Product, bool, error) {
	key, err := c.key(ctx, limit)
	if err != nil {
		return nil, false, err
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get offers: %w", err)
	}

	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, false, fmt.Errorf("unmarshal offers: %w", err)
	}
	return products, true, nil
}

// Set stores the listing for limit with the configured TTL.
func (c *OffersCache) Set(ctx context.Context, limit int, products []domain.Product) error {
	key, err := c.key(ctx, limit)
	if err != nil {
		return err
	}

	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("marshal offers: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set offers: %w", err)
	}
	return nil
}

// Invalidate drops every cached listing.
func (c *OffersCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, versionKey).Err(); err != nil {
		return fmt.Errorf("redis invalidate offers: %w", err)
	}
	return nil
}
