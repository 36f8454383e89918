package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/zeu5/hedge-rl/policies"
)

// RedisStore keeps tables as binary values under prefixed keys
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Store = &RedisStore{}

// NewRedisStore connects to addr. A zero ttl keeps tables forever.
func NewRedisStore(addr, prefix string, ttl time.Duration) *RedisStore {
	return NewRedisStoreFromClient(redis.NewClient(&redis.Options{
		Addr: addr,
	}), prefix, ttl)
}

func NewRedisStoreFromClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (r *RedisStore) key(name string) string {
	return r.prefix + name
}

// Ping checks the connection
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// WaitReady pings with exponential backoff until redis answers or maxElapsed passes
func (r *RedisStore) WaitReady(ctx context.Context, maxElapsed time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxElapsed
	operation := func() error {
		return r.Ping(ctx)
	}
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("redis not reachable: %w", err)
	}
	return nil
}

func (r *RedisStore) Save(ctx context.Context, name string, table *policies.QTable) error {
	if err := checkName(name); err != nil {
		return err
	}
	bs, err := table.MarshalBinary()
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(name), bs, r.ttl).Err()
}

func (r *RedisStore) Load(ctx context.Context, name string) (*policies.QTable, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	bs, err := r.client.Get(ctx, r.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	table := &policies.QTable{}
	if err := table.UnmarshalBinary(bs); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return table, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
