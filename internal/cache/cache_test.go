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
)

// setupTestCache spins up an in-memory Redis and points a Cache at it.
func setupTestCache(t *testing.T) (*miniredis.Miniredis, *Cache) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	return s, &Cache{
		Client: redis.NewClient(&redis.Options{Addr: s.Addr()}),
		TTL:    time.Minute,
	}
}

type testEntity struct {
	Name string `json:"name"`
}

func TestCacheSetGetMiss(t *testing.T) {
	_, c := setupTestCache(t)
	ctx := context.Background()
	id := uuid.New()

	var dest testEntity
	found, err := c.Get(ctx, "client", id, &dest)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "client", id, testEntity{Name: "ada"}))

	found, err = c.Get(ctx, "client", id, &dest)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "ada", dest.Name)
}

func TestCacheInvalidate(t *testing.T) {
	_, c := setupTestCache(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, c.Set(ctx, "campaign", id, testEntity{Name: "summer"}))
	require.NoError(t, c.Invalidate(ctx, "campaign", id))

	var dest testEntity
	found, err := c.Get(ctx, "campaign", id, &dest)
	require.NoError(t, err)
	assert.False(t, found)
}
