package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const (
	redisInitialBackoff = 200 * time.Millisecond
	redisMaxBackoff     = 2 * time.Second
	redisMaxRetries     = 5
	redisPingTimeout    = 2 * time.Second
)

var ErrEmptyJTI = errors.New("jti is empty")

// RevocationList answers whether a token id has been revoked.
type RevocationList interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RedisRevocationList stores one key per revoked jti, expiring with the token.
type RedisRevocationList struct {
	client *redis.Client
	prefix string
}

func NewRedisRevocationList(client *redis.Client, prefix string) *RedisRevocationList {
	return &RedisRevocationList{client: client, prefix: prefix}
}

func (r *RedisRevocationList) key(jti string) string {
	return fmt.Sprintf("%s:%s", r.prefix, jti)
}

func (r *RedisRevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	exists, err := r.client.Exists(ctx, r.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("redis command failed: %w", err)
	}
	return exists == 1, nil
}

// Revoke marks jti revoked for ttl; a zero ttl keeps it forever.
func (r *RedisRevocationList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return ErrEmptyJTI
	}
	if err := r.client.Set(ctx, r.key(jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis command failed: %w", err)
	}
	return nil
}

// ConnectRedis dials Redis and retries the initial ping with exponential backoff.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	operation := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		return client.Ping(pingCtx).Err()
	}
	strategy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(
				backoff.WithInitialInterval(redisInitialBackoff),
				backoff.WithMaxInterval(redisMaxBackoff),
			),
			redisMaxRetries,
		),
		ctx,
	)
	err := backoff.RetryNotify(operation, strategy, func(err error, d time.Duration) {
		log.Warn().Err(err).Str("module", "auth").Str("addr", addr).Dur("retry_in", d).Msg("redis ping failed")
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	log.Info().Str("module", "auth").Str("addr", addr).Msg("connected to redis")
	return client, nil
}
