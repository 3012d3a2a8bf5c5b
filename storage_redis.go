package datatables

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage persists table state in Redis. Every call runs with its own
// timeout because StateStore setters carry no context.
type RedisStorage struct {
	client  redis.UniversalClient
	timeout time.Duration
	ttl     time.Duration
}

// NewRedisStorage returns a RedisStorage using the given client. A ttl of 0
// keeps keys forever.
func NewRedisStorage(client redis.UniversalClient, ttl time.Duration) *RedisStorage {
	return &RedisStorage{
		client:  client,
		timeout: defaultRedisTimeout * time.Second,
		ttl:     ttl,
	}
}

// WithTimeout overrides the per-call timeout.
func (r *RedisStorage) WithTimeout(timeout time.Duration) *RedisStorage {
	r.timeout = timeout
	return r
}

func (r *RedisStorage) GetItem(key string) ([]byte, bool, error) {
	if r.client == nil {
		return nil, false, ErrStorageUnavailable
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	value, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (r *RedisStorage) SetItem(key string, value []byte) error {
	if r.client == nil {
		return ErrStorageUnavailable
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	return r.client.Set(ctx, key, value, r.ttl).Err()
}
