// Package storage persists the last successfully resolved city name.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fakhrymubarak/weather-widget/internal/config"
	"github.com/fakhrymubarak/weather-widget/internal/redis"
	redisv9 "github.com/redis/go-redis/v9"
)

// LastCityStore reads and writes the single cached city name. ReadLastCity returns ""
// with a nil error when nothing has been stored yet.
type LastCityStore interface {
	ReadLastCity(ctx context.Context) (string, error)
	WriteLastCity(ctx context.Context, city string) error
}

// New returns the store selected by storage.driver ("redis" or "memory").
func New() (LastCityStore, error) {
	switch driver := config.GetStorageDriver(); driver {
	case "", "redis":
		return NewRedisStore(redis.GetClient(), config.GetLastCityKey()), nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

type redisClient interface {
	Get(ctx context.Context, key string) *redisv9.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redisv9.StatusCmd
}

// RedisStore keeps the last city under one key with no expiry.
type RedisStore struct {
	client redisClient
	key    string
}

func NewRedisStore(client redisClient, key string) *RedisStore {
	if key == "" {
		key = "weather:last_city"
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) ReadLastCity(ctx context.Context) (string, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redisv9.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", s.key, err)
	}
	return val, nil
}

func (s *RedisStore) WriteLastCity(ctx context.Context, city string) error {
	if err := s.client.Set(ctx, s.key, city, 0).Err(); err != nil {
		return fmt.Errorf("writing %s: %w", s.key, err)
	}
	return nil
}

// MemoryStore lives for the process only.
type MemoryStore struct {
	mu   sync.RWMutex
	city string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) ReadLastCity(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.city, nil
}

func (s *MemoryStore) WriteLastCity(_ context.Context, city string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.city = city
	return nil
}
