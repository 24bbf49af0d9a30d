package smm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ServicesCache stores the panel's services list, which changes rarely and
// is slow to fetch.
type ServicesCache interface {
	Get(ctx context.Context) ([]PanelService, bool, error)
	Set(ctx context.Context, services []PanelService, ttl time.Duration) error
}

const servicesCacheKey = "smm:services"

type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache { return &RedisCache{rdb: rdb} }

func (c *RedisCache) Get(ctx context.Context) ([]PanelService, bool, error) {
	raw, err := c.rdb.Get(ctx, servicesCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var out []PanelService
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (c *RedisCache) Set(ctx context.Context, services []PanelService, ttl time.Duration) error {
	raw, err := json.Marshal(services)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, servicesCacheKey, raw, ttl).Err()
}

// MemoryCache is a process-local cache used in tests and when Redis is off.
type MemoryCache struct {
	mu       sync.Mutex
	services []PanelService
	expires  time.Time
	now      func() time.Time
}

func NewMemoryCache() *MemoryCache { return &MemoryCache{now: time.Now} }

func (c *MemoryCache) Get(ctx context.Context) ([]PanelService, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.services == nil || !c.now().Before(c.expires) {
		return nil, false, nil
	}
	return c.services, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, services []PanelService, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services = services
	c.expires = c.now().Add(ttl)
	return nil
}
