package redissvc

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyKeyTTL = 24 * time.Hour

// RedisService wraps the shared Redis client used for duplicate-request
// detection on stock mutations.
type RedisService struct {
	rdb *redis.Client
}

func NewRedisService(rdb *redis.Client) *RedisService {
	return &RedisService{rdb: rdb}
}

func (s *RedisService) Rdb() *redis.Client {
	return s.rdb
}

// ClaimIdempotencyKey reserves key for the TTL window. It returns false when
// the key was already claimed, meaning the request is a retry of one that was
// already accepted.
func (s *RedisService) ClaimIdempotencyKey(ctx context.Context, key string) (bool, error) {
	return s.rdb.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
}

// ReleaseIdempotencyKey frees key after a failed mutation so the caller can
// retry with the same order id.
func (s *RedisService) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
