package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"gridrelay/pkg/config"
	apperrors "gridrelay/pkg/errors"
)

// RedisStore is a Store backed by a Redis server. All keys are optionally
// namespaced with a prefix so several relays can share one instance.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(cfg config.StoreConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", apperrors.ErrStoreUnavailable, cfg.Addr, err)
	}

	return &RedisStore{
		client: client,
		prefix: cfg.KeyPrefix,
	}, nil
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", apperrors.ErrStoreUnavailable, op, err)
}

// GetAllFields returns all fields of a hash key
func (s *RedisStore) GetAllFields(ctx context.Context, key string) (map[string]string, error) {
	fields, err := s.client.HGetAll(ctx, s.key(key)).Result()
	if err != nil {
		return nil, storeErr("hgetall", err)
	}
	return fields, nil
}

// SetField sets a single field of a hash key. A single-field HSET is atomic
// on the server, so concurrent writers to different fields never conflict.
func (s *RedisStore) SetField(ctx context.Context, key, field, value string) error {
	if err := s.client.HSet(ctx, s.key(key), field, value).Err(); err != nil {
		return storeErr("hset", err)
	}
	return nil
}

// SetFields sets multiple fields of a hash key in one round trip
func (s *RedisStore) SetFields(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	if err := s.client.HSet(ctx, s.key(key), fields).Err(); err != nil {
		return storeErr("hset", err)
	}
	return nil
}

// AddToSet adds a member to a set key
func (s *RedisStore) AddToSet(ctx context.Context, key, member string) error {
	if err := s.client.SAdd(ctx, s.key(key), member).Err(); err != nil {
		return storeErr("sadd", err)
	}
	return nil
}

// RemoveFromSet removes a member from a set key
func (s *RedisStore) RemoveFromSet(ctx context.Context, key, member string) error {
	if err := s.client.SRem(ctx, s.key(key), member).Err(); err != nil {
		return storeErr("srem", err)
	}
	return nil
}

// SetCardinality returns the number of members in a set key
func (s *RedisStore) SetCardinality(ctx context.Context, key string) (int64, error) {
	n, err := s.client.SCard(ctx, s.key(key)).Result()
	if err != nil {
		return 0, storeErr("scard", err)
	}
	return n, nil
}

// Exists reports whether a key exists
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, storeErr("exists", err)
	}
	return n > 0, nil
}

// Delete removes the given keys
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = s.key(key)
	}
	if err := s.client.Del(ctx, prefixed...).Err(); err != nil {
		return storeErr("del", err)
	}
	return nil
}

// ScanKeys returns all keys matching the glob pattern, with the store
// prefix stripped back off
func (s *RedisStore) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.key(pattern), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, storeErr("scan", err)
	}
	return keys, nil
}

// Close closes the underlying Redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
