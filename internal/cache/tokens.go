package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// BlacklistKeyPrefix namespaces revoked token ids.
const BlacklistKeyPrefix = "blacklist:"

// ErrUnavailable is returned when no Redis client is configured.
var ErrUnavailable = errors.New("redis unavailable")

// TokenBlacklist records revoked token ids until their natural expiry.
type TokenBlacklist struct {
	rdb func() *redis.Client
}

// NewTokenBlacklist uses rdb when given, otherwise the package client at call time.
func NewTokenBlacklist(rdb *redis.Client) *TokenBlacklist {
	if rdb != nil {
		return &TokenBlacklist{rdb: func() *redis.Client { return rdb }}
	}
	return &TokenBlacklist{rdb: GetClient}
}

func blacklistKey(jti string) string {
	return BlacklistKeyPrefix + jti
}

// Revoke blacklists jti for ttl. Non-positive ttls mean the token already expired.
func (b *TokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	rdb := b.rdb()
	if rdb == nil {
		return ErrUnavailable
	}
	if err := rdb.Set(ctx, blacklistKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether jti was revoked.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	rdb := b.rdb()
	if rdb == nil {
		return false, ErrUnavailable
	}
	n, err := rdb.Exists(ctx, blacklistKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
