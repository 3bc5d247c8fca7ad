package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisStore on it
func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	store := NewRedisStore(client, ttl)
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func TestRedisStore(t *testing.T) {
	store, _ := setupTestRedis(t, 0)
	exerciseStore(t, store)
}

func TestRedisStore_KeyPrefix(t *testing.T) {
	store, mr := setupTestRedis(t, 0)

	require.NoError(t, store.Set(context.Background(), KeySession, []byte(`{"token":"t"}`)))

	stored, err := mr.Get("storefront:session")
	require.NoError(t, err)
	assert.Equal(t, `{"token":"t"}`, stored)
	assert.Equal(t, time.Duration(0), mr.TTL("storefront:session"), "no ttl by default")
}

func TestRedisStore_WithTTL(t *testing.T) {
	store, mr := setupTestRedis(t, time.Hour)

	require.NoError(t, store.Set(context.Background(), KeyCart, []byte(`[]`)))

	assert.Equal(t, time.Hour, mr.TTL(redisKey(KeyCart)))
}

func TestRedisStore_ServerDown(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	mr.Close()

	_, err := store.Get(context.Background(), KeyCart)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorContains(t, err, "redis get failed")
}
