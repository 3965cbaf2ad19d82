package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easyexithomes/leadmatch/internal/models"
)

func setupCache(t *testing.T, ttl time.Duration) (*BuyerCache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewBuyerCache(client, ttl), mr
}

func TestBuyerCache_RoundTrip(t *testing.T) {
	c, mr := setupCache(t, time.Minute)
	ctx := context.Background()

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	markets := "Birmingham"
	buyers := []models.Buyer{
		{ID: uuid.New(), CompanyName: "Magic City Homes", TargetMarkets: &markets, Tier: 1},
		{ID: uuid.New(), CompanyName: "Statewide Cash"},
	}
	require.NoError(t, c.Set(ctx, buyers))
	assert.True(t, mr.Exists(buyerPoolKey))
	assert.Equal(t, time.Minute, mr.TTL(buyerPoolKey))

	cached, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, cached, 2)
	assert.Equal(t, buyers[0].ID, cached[0].ID, "order is preserved")
	assert.Equal(t, "Birmingham", cached[0].TargetMarketsText())
	assert.Equal(t, 1, cached[0].Tier)
}

func TestBuyerCache_ExpiresAndInvalidates(t *testing.T) {
	c, mr := setupCache(t, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, []models.Buyer{{ID: uuid.New(), CompanyName: "A"}}))
	mr.FastForward(31 * time.Second)

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, []models.Buyer{{ID: uuid.New(), CompanyName: "B"}}))
	require.NoError(t, c.Invalidate(ctx))

	_, ok, err = c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBuyerCache_CorruptEntry(t *testing.T) {
	c, mr := setupCache(t, time.Minute)
	require.NoError(t, mr.Set(buyerPoolKey, "not-json"))

	_, ok, err := c.Get(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestBuyerCache_ServerDown(t *testing.T) {
	c, mr := setupCache(t, time.Minute)
	mr.Close()

	_, ok, err := c.Get(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, c.Ping(context.Background()))
}

func TestBuyerCache_Nil(t *testing.T) {
	var c *BuyerCache
	ctx := context.Background()

	_, ok, err := c.Get(ctx)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Set(ctx, nil))
	assert.NoError(t, c.Invalidate(ctx))
	assert.NoError(t, c.Ping(ctx))
	assert.Nil(t, NewBuyerCache(nil, time.Minute))
}
