package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRedisClient struct {
	getFunc func(ctx context.Context, key string) *redisv9.StringCmd
	setFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) *redisv9.StatusCmd
}

func (m *mockRedisClient) Get(ctx context.Context, key string) *redisv9.StringCmd {
	return m.getFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redisv9.StatusCmd {
	return m.setFunc(ctx, key, value, expiration)
}

func newMiniRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "weather:last_city"), mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store, mr := newMiniRedisStore(t)
	ctx := context.Background()

	city, err := store.ReadLastCity(ctx)
	require.NoError(t, err)
	assert.Empty(t, city, "nothing stored yet")

	require.NoError(t, store.WriteLastCity(ctx, "Paris"))
	city, err = store.ReadLastCity(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Paris", city)

	require.NoError(t, store.WriteLastCity(ctx, "Tokyo"))
	got, err := mr.Get("weather:last_city")
	require.NoError(t, err)
	assert.Equal(t, "Tokyo", got)
	assert.Zero(t, mr.TTL("weather:last_city"), "last city never expires")
}

func TestRedisStore_DefaultKey(t *testing.T) {
	store := NewRedisStore(&mockRedisClient{}, "")
	assert.Equal(t, "weather:last_city", store.key)
}

func TestRedisStore_ReadError(t *testing.T) {
	store := NewRedisStore(&mockRedisClient{
		getFunc: func(ctx context.Context, key string) *redisv9.StringCmd {
			return redisv9.NewStringResult("", errors.New("connection refused"))
		},
	}, "weather:last_city")

	_, err := store.ReadLastCity(context.Background())
	assert.ErrorContains(t, err, "connection refused")
}

func TestRedisStore_WriteError(t *testing.T) {
	var gotKey string
	var gotExpiration time.Duration
	store := NewRedisStore(&mockRedisClient{
		setFunc: func(ctx context.Context, key string, value interface{}, expiration time.Duration) *redisv9.StatusCmd {
			gotKey = key
			gotExpiration = expiration
			return redisv9.NewStatusResult("", errors.New("READONLY"))
		},
	}, "custom:key")

	err := store.WriteLastCity(context.Background(), "Paris")
	assert.ErrorContains(t, err, "READONLY")
	assert.Equal(t, "custom:key", gotKey)
	assert.Zero(t, gotExpiration)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	city, err := store.ReadLastCity(ctx)
	require.NoError(t, err)
	assert.Empty(t, city)

	require.NoError(t, store.WriteLastCity(ctx, "Colombo"))
	city, _ = store.ReadLastCity(ctx)
	assert.Equal(t, "Colombo", city)
}

func TestNew_SelectsDriver(t *testing.T) {
	store, err := New()
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store, "config_test.yaml selects the memory driver")

	viper.Set("storage.driver", "redis")
	store, err = New()
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, store)

	viper.Set("storage.driver", "sqlite")
	_, err = New()
	assert.Error(t, err)

	viper.Set("storage.driver", "memory")
}
