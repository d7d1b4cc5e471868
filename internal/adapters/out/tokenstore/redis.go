// internal/adapters/out/tokenstore/redis.go
package tokenstore

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	authdom "b7pizza/internal/domain/auth"
)

const redisKeyPrefix = "token:"

// Redis stores tokens as token:<session> with an expiry.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ authdom.TokenStore = (*Redis)(nil)

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Load(ctx context.Context, key string) (string, bool, error) {
	k, err := normalizeKey(key)
	if err != nil {
		return "", false, err
	}
	if r == nil || r.client == nil {
		return "", false, unavailable("get", errors.New("redis client is nil"))
	}

	v, err := r.client.Get(ctx, redisKeyPrefix+k).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, unavailable("get", err)
	}
	if v == "" {
		return "", false, nil
	}
	return v, true, nil
}

func (r *Redis) Save(ctx context.Context, key, token string) error {
	k, err := normalizeKey(key)
	if err != nil {
		return err
	}
	if token == "" {
		return r.Delete(ctx, k)
	}
	if r == nil || r.client == nil {
		return unavailable("set", errors.New("redis client is nil"))
	}

	if err := r.client.Set(ctx, redisKeyPrefix+k, token, r.ttl).Err(); err != nil {
		return unavailable("set", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	k, err := normalizeKey(key)
	if err != nil {
		return err
	}
	if r == nil || r.client == nil {
		return unavailable("del", errors.New("redis client is nil"))
	}

	if err := r.client.Del(ctx, redisKeyPrefix+k).Err(); err != nil {
		return unavailable("del", err)
	}
	return nil
}
