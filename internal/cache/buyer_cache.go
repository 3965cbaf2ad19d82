package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/easyexithomes/leadmatch/internal/models"
)

const buyerPoolKey = "leadmatch:buyers:all"

// NewRedisClient creates a Redis client with the service's pool settings
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// BuyerCache holds a JSON snapshot of the full buyer pool.
// A nil *BuyerCache is valid and always misses.
type BuyerCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBuyerCache creates a buyer pool cache
func NewBuyerCache(client *redis.Client, ttl time.Duration) *BuyerCache {
	if client == nil {
		return nil
	}
	return &BuyerCache{client: client, ttl: ttl}
}

// Get returns the cached buyer pool. The boolean is false on a miss.
func (c *BuyerCache) Get(ctx context.Context) ([]models.Buyer, bool, error) {
	if c == nil {
		return nil, false, nil
	}

	raw, err := c.client.Get(ctx, buyerPoolKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read buyer cache: %w", err)
	}

	var buyers []models.Buyer
	if err := json.Unmarshal(raw, &buyers); err != nil {
		return nil, false, fmt.Errorf("failed to decode buyer cache: %w", err)
	}
	return buyers, true, nil
}

// Set stores the buyer pool snapshot for the configured TTL
func (c *BuyerCache) Set(ctx context.Context, buyers []models.Buyer) error {
	if c == nil {
		return nil
	}

	raw, err := json.Marshal(buyers)
	if err != nil {
		return fmt.Errorf("failed to encode buyer cache: %w", err)
	}
	if err := c.client.Set(ctx, buyerPoolKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write buyer cache: %w", err)
	}
	return nil
}

// Invalidate drops the snapshot so the next read goes to the store
func (c *BuyerCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.client.Del(ctx, buyerPoolKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate buyer cache: %w", err)
	}
	return nil
}

// Ping checks the Redis connection
func (c *BuyerCache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
