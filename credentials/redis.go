package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/petal-labs/swipe/core"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is where a shared token is stored.
const DefaultRedisKey = "swipe:auth_token"

// RedisGetter is the subset of redis.Cmdable used by Redis.
type RedisGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Redis reads a token shared by several workers from a Redis key. Whoever
// refreshes the token writes it with SetToken; readers pick it up on their
// next request.
type Redis struct {
	Client RedisGetter
	Key    string
}

// Token implements core.CredentialProvider.
func (r Redis) Token(ctx context.Context) (core.Secret, error) {
	if r.Client == nil {
		return core.Secret{}, errors.New("credentials: redis client not configured")
	}
	v, err := r.Client.Get(ctx, r.key()).Result()
	if errors.Is(err, redis.Nil) {
		return core.Secret{}, fmt.Errorf("%w: redis key %q not set", core.ErrNoCredential, r.key())
	}
	if err != nil {
		return core.Secret{}, fmt.Errorf("credentials: redis get: %w", err)
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return core.Secret{}, fmt.Errorf("%w: redis key %q is empty", core.ErrNoCredential, r.key())
	}
	return core.NewSecret(v), nil
}

func (r Redis) key() string {
	if r.Key == "" {
		return DefaultRedisKey
	}
	return r.Key
}

// SetToken stores token under key with an optional expiry (zero keeps it).
func SetToken(ctx context.Context, rdb redis.Cmdable, key string, token core.Secret, ttl time.Duration) error {
	if key == "" {
		key = DefaultRedisKey
	}
	if err := rdb.Set(ctx, key, token.Expose(), ttl).Err(); err != nil {
		return fmt.Errorf("credentials: redis set: %w", err)
	}
	return nil
}

// NewRedisClient connects to the Redis server at url and verifies it answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("credentials: parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("credentials: connect to redis: %w", err)
	}
	return rdb, nil
}
