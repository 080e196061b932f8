package storage

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGuard remembers idempotency keys of processed payments for TTL.
type RedisGuard struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{Client: client, TTL: ttl}
}

func (g *RedisGuard) PaymentMarkerKey(tableID int, idempotencyKey string) string {
	return "payment:" + strconv.Itoa(tableID) + ":" + idempotencyKey
}

func (g *RedisGuard) Exists(ctx context.Context, key string) (bool, error) {
	res, err := g.Client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return res > 0, nil
}

func (g *RedisGuard) SetMarker(ctx context.Context, key string) error {
	return g.Client.Set(ctx, key, "1", g.TTL).Err()
}
