package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/flyingbingbong/jubsok-backend/internal/store"
)

// refreshTokenKey is the hash holding refreshToken -> providerID entries.
const refreshTokenKey = "refreshTokens"

// RedisRefreshTokens keeps refresh tokens in a Redis hash.
type RedisRefreshTokens struct {
	rdb *redis.Client
}

// NewRedisRefreshTokens wraps the given client.
func NewRedisRefreshTokens(rdb *redis.Client) *RedisRefreshTokens {
	return &RedisRefreshTokens{rdb: rdb}
}

func (r *RedisRefreshTokens) Add(ctx context.Context, token, providerID string) error {
	if err := r.rdb.HSet(ctx, refreshTokenKey, token, providerID).Err(); err != nil {
		return fmt.Errorf("hset refresh token: %w", err)
	}
	return nil
}

func (r *RedisRefreshTokens) Remove(ctx context.Context, token string) error {
	if err := r.rdb.HDel(ctx, refreshTokenKey, token).Err(); err != nil {
		return fmt.Errorf("hdel refresh token: %w", err)
	}
	return nil
}

// Lookup returns the provider id the token was issued for, or
// store.ErrNotFound for an unknown token.
func (r *RedisRefreshTokens) Lookup(ctx context.Context, token string) (string, error) {
	providerID, err := r.rdb.HGet(ctx, refreshTokenKey, token).Result()
	if errors.Is(err, redis.Nil) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("hget refresh token: %w", err)
	}
	return providerID, nil
}
