package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	RateLimitKeyPrefix    = "rl:%s:%s"
	RevokedTokenKeyPrefix = "session:revoked:%s"
)

// ErrNoClient is returned when Redis was never connected.
var ErrNoClient = errors.New("redis client is not configured")

func RateLimitKey(resource, id string) string {
	return fmt.Sprintf(RateLimitKeyPrefix, resource, id)
}

func RevokedTokenKey(jti string) string {
	return fmt.Sprintf(RevokedTokenKeyPrefix, jti)
}

// RevokeToken marks a session token id as logged out until ttl elapses.
func RevokeToken(ctx context.Context, rdb *redis.Client, jti string, ttl time.Duration) error {
	if rdb == nil {
		return ErrNoClient
	}
	if ttl <= 0 {
		return nil
	}
	return rdb.Set(ctx, RevokedTokenKey(jti), 1, ttl).Err()
}

// IsTokenRevoked reports whether jti was revoked by a logout.
func IsTokenRevoked(ctx context.Context, rdb *redis.Client, jti string) (bool, error) {
	if rdb == nil {
		return false, ErrNoClient
	}
	n, err := rdb.Exists(ctx, RevokedTokenKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}
