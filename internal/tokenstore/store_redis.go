package tokenstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	jwttoken "viacarona/internal/jwt_token"
	"viacarona/pkg/platform/sentinel"
)

const tokenKeyPrefix = "viacarona:token:"

// Redis stores values as plain strings. A value that is a JWT expires with
// it; other values never expire.
type Redis struct {
	client redis.UniversalClient
	now    func() time.Time
}

type RedisOption func(*Redis)

// WithClock sets the time source used to turn exp claims into TTLs.
func WithClock(now func() time.Time) RedisOption {
	return func(r *Redis) {
		r.now = now
	}
}

func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{client: client, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	var ttl time.Duration
	if exp, ok := jwttoken.ExpiresAt(value); ok {
		ttl = exp.Sub(r.now())
		if ttl <= 0 {
			return sentinel.ErrExpired
		}
	}
	return r.client.Set(ctx, tokenKeyPrefix+key, value, ttl).Err()
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, tokenKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, tokenKeyPrefix+key).Err()
}

// TTL reports the remaining lifetime of key; -1 means no expiry.
func (r *Redis) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := r.client.TTL(ctx, tokenKeyPrefix+key).Result()
	if err != nil {
		return 0, err
	}
	if d == -2 {
		return 0, sentinel.ErrNotFound
	}
	return d, nil
}
