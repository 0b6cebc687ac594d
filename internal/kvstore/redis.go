package kvstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Redis stores every key as a plain redis string with no expiry.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps an existing client. prefix namespaces the keys, e.g. "workshopflow:".
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.prefix+key, value, 0).Err()
}
