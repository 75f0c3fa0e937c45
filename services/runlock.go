package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RunLock marks a (scope, date) run as taken so a second trigger on the same
// day does not repeat the work.
type RunLock interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type RedisRunLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRunLock keeps markers for 36h, long enough to cover a calendar day
// in any zone.
func NewRedisRunLock(client *redis.Client) *RedisRunLock {
	return &RedisRunLock{client: client, ttl: 36 * time.Hour}
}

func (l *RedisRunLock) Acquire(ctx context.Context, key string) (bool, error) {
	return l.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
}

func (l *RedisRunLock) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, key).Err()
}
