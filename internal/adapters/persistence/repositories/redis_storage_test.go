package repositories

import (
	"context"
	"testing"
	"time"

	"finspark-backoffice/internal/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates an in-memory Redis instance for testing
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestRedisStorage_GetSetDelete(t *testing.T) {
	mr, client := setupTestRedis(t)
	repo := NewRedisStorage(client, "fs:")

	val, err := repo.Get("b1:user")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, repo.Set("b1:user", []byte("alice"), time.Hour))
	assert.True(t, mr.Exists("fs:b1:user"))
	assert.Greater(t, mr.TTL("fs:b1:user"), time.Duration(0))

	val, err = repo.Get("b1:user")
	require.NoError(t, err)
	assert.Equal(t, "alice", string(val))

	require.NoError(t, repo.Delete("b1:user"))
	assert.False(t, mr.Exists("fs:b1:user"))
}

func TestRedisStorage_BatchAndExpiry(t *testing.T) {
	mr, client := setupTestRedis(t)
	repo := NewRedisStorage(client, "fs:")

	require.NoError(t, repo.SetMany(map[string][]byte{
		"b1:user":  []byte("alice"),
		"b1:token": []byte("tok"),
	}, time.Minute))

	keys := mr.Keys()
	assert.ElementsMatch(t, []string{"fs:b1:token", "fs:b1:user"}, keys)

	mr.FastForward(2 * time.Minute)
	val, err := repo.Get("b1:token")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, repo.SetMany(map[string][]byte{"b2:user": []byte("bob")}, 0))
	require.NoError(t, repo.DeleteMany("b2:user"))
	exists, err := client.Exists(context.Background(), "fs:b2:user").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestRedisStorage_RestoresStore(t *testing.T) {
	_, client := setupTestRedis(t)
	repo := NewRedisStorage(client, "fs:")

	first, err := session.NewStore("browser-9", repo, time.Hour)
	require.NoError(t, err)
	require.NoError(t, first.SetAuth("dora", "dora@example.com", "tok-9", "USER"))

	restored, err := session.NewStore("browser-9", repo, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "dora@example.com", restored.Current().Email)
}
