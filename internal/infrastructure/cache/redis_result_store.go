package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pharmacy/analytics/internal/application/report"
)

const defaultKeyPrefix = "pharma:"

// RedisResultStore implements report.ResultStore on Redis so several
// instances share forecast results
type RedisResultStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisResultStore connects to Redis and verifies the connection
func NewRedisResultStore(cfg RedisConfig) (*RedisResultStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisResultStore{client: client, keyPrefix: defaultKeyPrefix}, nil
}

// NewRedisResultStoreWithClient wraps an existing client
func NewRedisResultStoreWithClient(client *redis.Client, keyPrefix string) *RedisResultStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisResultStore{client: client, keyPrefix: keyPrefix}
}

// Get returns the stored value; a missing key is a miss, not an error
func (s *RedisResultStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return b, true, nil
}

// Set stores value with a TTL
func (s *RedisResultStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisResultStore) Close() error {
	return s.client.Close()
}

var _ report.ResultStore = (*RedisResultStore)(nil)
