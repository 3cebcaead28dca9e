package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// entityCache is a read-through cache over Redis for single-entity lookups.
// Every write path invalidates; cache failures are logged and ignored so a
// Redis outage degrades to plain database reads.
type entityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func newEntityCache(client *redis.Client, ttl time.Duration) *entityCache {
	return &entityCache{client: client, ttl: ttl}
}

func (c *entityCache) get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.client == nil {
		return false
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache read %s failed: %v", key, err)
		}
		return false
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		log.Printf("cache decode %s failed: %v", key, err)
		return false
	}

	return true
}

func (c *entityCache) set(ctx context.Context, key string, value interface{}) {
	if c == nil || c.client == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		log.Printf("cache encode %s failed: %v", key, err)
		return
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		log.Printf("cache write %s failed: %v", key, err)
	}
}

func (c *entityCache) invalidate(ctx context.Context, key string) {
	if c == nil || c.client == nil {
		return
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		log.Printf("cache invalidate %s failed: %v", key, err)
	}
}
