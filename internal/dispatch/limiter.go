package dispatch

import (
	"context"
	"sync"
	"time"

	"brandbuzz/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// Limiter caps how many dispatches one user may run at the same time.
type Limiter interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// RedisLimiter shares the cap across API instances. Slots expire after ttl so
// a crashed process cannot hold one forever.
type RedisLimiter struct {
	rdb   *redis.Client
	limit int
	ttl   time.Duration
}

func NewRedisLimiter(rdb *redis.Client, limit int, ttl time.Duration) *RedisLimiter {
	if limit <= 0 {
		limit = 1
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisLimiter{rdb: rdb, limit: limit, ttl: ttl}
}

func (l *RedisLimiter) Acquire(ctx context.Context, key string) (bool, error) {
	return utils.AcquireConcurrencyCap(ctx, l.rdb, key, l.limit, l.ttl)
}

func (l *RedisLimiter) Release(ctx context.Context, key string) error {
	return utils.ReleaseConcurrencyCap(ctx, l.rdb, key)
}

// MemoryLimiter is a process-local cap for single-instance deployments and
// tests.
type MemoryLimiter struct {
	mu     sync.Mutex
	limit  int
	active map[string]int
}

func NewMemoryLimiter(limit int) *MemoryLimiter {
	if limit <= 0 {
		limit = 1
	}
	return &MemoryLimiter{limit: limit, active: map[string]int{}}
}

func (l *MemoryLimiter) Acquire(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active[key] >= l.limit {
		return false, nil
	}
	l.active[key]++
	return true, nil
}

func (l *MemoryLimiter) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active[key] <= 1 {
		delete(l.active, key)
		return nil
	}
	l.active[key]--
	return nil
}
