package storage

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/service"
	"github.com/redis/go-redis/v9"
)

var _ service.Store = (*RedisStore)(nil)

// RedisStore implements service.Store on a remote Redis server.
// Every key is namespaced with prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
	retry  service.RetryOptions
}

// NewRedisStore connects using a redis:// URL.
func NewRedisStore(ctx context.Context, url, prefix string) (*RedisStore, error) {
	if err := validateString(url, "url"); err != nil {
		return nil, err
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewRedisStoreFromClient(client, prefix), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		retry:  service.RetryOptions{MaxAttempts: 3},
	}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

// Persist sets key to value with no expiry.
func (s *RedisStore) Persist(ctx context.Context, key string, value []byte) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(key, "key"); err != nil {
		return err
	}
	if value == nil {
		return fmt.Errorf("%w: value", ErrNilParameter)
	}

	err := common.WithRetry(ctx, func() error {
		return classifyRedisError(s.client.Set(ctx, s.key(key), value, 0).Err())
	}, s.retry)
	if err != nil {
		return fmt.Errorf("failed to persist %q: %w", key, err)
	}
	return nil
}

// Load returns the value stored under key.
func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if err := validateContext(ctx); err != nil {
		return nil, false, err
	}
	if err := validateString(key, "key"); err != nil {
		return nil, false, err
	}

	var value []byte
	found := true
	err := common.WithRetry(ctx, func() error {
		v, err := s.client.Get(ctx, s.key(key)).Bytes()
		if errors.Is(err, redis.Nil) {
			found = false
			return nil
		}
		if err != nil {
			return classifyRedisError(err)
		}
		value = v
		return nil
	}, s.retry)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load %q: %w", key, err)
	}
	return value, found, nil
}

// Delete removes key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(key, "key"); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// classifyRedisError marks network failures as retryable.
func classifyRedisError(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &common.RetryableError{Err: err, Retryable: true}
	}
	return err
}
