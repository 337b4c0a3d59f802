package stock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// cacheVersion is bumped whenever the cached record shape changes.
const cacheVersion = "v1"

// Cache keeps recently read stock rows in Redis. Concurrent misses for the
// same row collapse into a single database load.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewCache constructs Cache with the given TTL.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) key(productID, warehouseID uuid.UUID) string {
	return fmt.Sprintf("stock:%s:%s:%s", cacheVersion, productID, warehouseID)
}

// GetRecord returns the cached row or loads it via loader on a miss.
func (c *Cache) GetRecord(ctx context.Context, productID, warehouseID uuid.UUID, loader func(context.Context) (Record, error)) (Record, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	key := c.key(productID, warehouseID)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var rec Record
		if jsonErr := json.Unmarshal(payload, &rec); jsonErr == nil {
			return rec, nil
		}
		// Corrupt entry, fall through to reload.
	} else if !errors.Is(err, redis.Nil) {
		return loader(ctx)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		rec, err := loader(ctx)
		if err != nil {
			return Record{}, err
		}
		if data, jsonErr := json.Marshal(rec); jsonErr == nil {
			c.client.Set(ctx, key, data, c.ttl)
		}
		return rec, nil
	})
	if err != nil {
		return Record{}, err
	}
	return v.(Record), nil
}

// Invalidate drops the cached row after a mutation.
func (c *Cache) Invalidate(ctx context.Context, productID, warehouseID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, c.key(productID, warehouseID)).Err()
}
