// Package cache is a Redis-backed cache-aside store for catalog entities,
// keyed by entity kind and id. Invalidate deletes an entry and publishes the
// change via pub/sub so other instances evict it too.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// UpdateChannel is the pub/sub channel catalog writers publish invalidations to.
const UpdateChannel = "catalog-updates"

// UpdateMessage is published whenever a catalog write should invalidate a cached entity.
type UpdateMessage struct {
	Entity string    `json:"entity"`
	ID     uuid.UUID `json:"id"`
}

// Cache wraps a redis client used for cache-aside entity lookups.
type Cache struct {
	Client *redis.Client
	TTL    time.Duration
}

// New connects to Redis and returns a Cache.
func New(addr string, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("instrument redis tracing: %w", err)
	}
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	zap.L().Info("connected to redis", zap.String("addr", addr))
	return &Cache{Client: client, TTL: ttl}, nil
}

func key(entity string, id uuid.UUID) string {
	return fmt.Sprintf("%s:%s", entity, id)
}

// Get reads a cached entity by key, unmarshalling into dest. Returns false
// (no error) on a cache miss.
func (c *Cache) Get(ctx context.Context, entity string, id uuid.UUID, dest interface{}) (bool, error) {
	raw, err := c.Client.Get(ctx, key(entity, id)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal: %w", err)
	}
	return true, nil
}

// Set stores an entity under its cache key with the configured TTL.
func (c *Cache) Set(ctx context.Context, entity string, id uuid.UUID, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := c.Client.Set(ctx, key(entity, id), raw, c.TTL).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate deletes a cached entity, typically called after a write, and
// publishes the change so other instances evict it too.
func (c *Cache) Invalidate(ctx context.Context, entity string, id uuid.UUID) error {
	if err := c.Client.Del(ctx, key(entity, id)).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	msg, err := json.Marshal(UpdateMessage{Entity: entity, ID: id})
	if err != nil {
		return fmt.Errorf("marshal invalidation: %w", err)
	}
	if err := c.Client.Publish(ctx, UpdateChannel, msg).Err(); err != nil {
		return fmt.Errorf("publish invalidation: %w", err)
	}
	return nil
}

// Subscribe listens for invalidations published by other instances and
// evicts the local cache entry for each one. It runs until ctx is cancelled.
func (c *Cache) Subscribe(ctx context.Context) {
	sub := c.Client.Subscribe(ctx, UpdateChannel)
	defer func() { _ = sub.Close() }()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var update UpdateMessage
			if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
				zap.L().Warn("invalid cache invalidation message", zap.Error(err))
				continue
			}
			if err := c.Client.Del(ctx, key(update.Entity, update.ID)).Err(); err != nil {
				zap.L().Warn("cache invalidation delete failed", zap.Error(err))
			}
		}
	}
}

// Close shuts down the Redis client.
func (c *Cache) Close() {
	if c != nil && c.Client != nil {
		if err := c.Client.Close(); err != nil {
			zap.L().Error("redis close", zap.Error(err))
		}
	}
}
