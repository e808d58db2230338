package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carter293/Carter-Querio-notebook-sub004/pkg/models"
)

// NotebookCache is a read-through cache in front of the durable notebook
// store. A cache miss or a Redis outage is never fatal: callers fall back
// to the store and repopulate the cache best-effort.
type NotebookCache struct {
	redis *RedisCache
	ttl   time.Duration
}

// NewNotebookCache wraps an already-connected RedisCache with a
// notebook-shaped Get/Set/Invalidate API.
func NewNotebookCache(redis *RedisCache, ttl time.Duration) *NotebookCache {
	return &NotebookCache{redis: redis, ttl: ttl}
}

func notebookKey(id string) string {
	return "notebook:" + id
}

// Get returns the cached notebook for id, or (nil, nil) on a cache miss.
func (c *NotebookCache) Get(ctx context.Context, id string) (*models.Notebook, error) {
	raw, err := c.redis.Get(ctx, notebookKey(id))
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached notebook %s: %w", id, err)
	}

	var nb models.Notebook
	if err := json.Unmarshal([]byte(raw), &nb); err != nil {
		return nil, fmt.Errorf("decode cached notebook %s: %w", id, err)
	}
	return &nb, nil
}

// Set stores nb under its ID with the cache's configured TTL.
func (c *NotebookCache) Set(ctx context.Context, nb *models.Notebook) error {
	raw, err := json.Marshal(nb)
	if err != nil {
		return fmt.Errorf("encode notebook %s: %w", nb.ID, err)
	}
	if err := c.redis.Set(ctx, notebookKey(nb.ID), raw, c.ttl); err != nil {
		return fmt.Errorf("cache notebook %s: %w", nb.ID, err)
	}
	return nil
}

// Invalidate drops the cached entry for id so the next Get falls through
// to the durable store.
func (c *NotebookCache) Invalidate(ctx context.Context, id string) error {
	if err := c.redis.Delete(ctx, notebookKey(id)); err != nil {
		return fmt.Errorf("invalidate cached notebook %s: %w", id, err)
	}
	return nil
}
