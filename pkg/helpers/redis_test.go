package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

type payload struct {
	UserID string `json:"user_id"`
}

func TestRedisJSONHelpers(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, RedisSetJSON(ctx, rdb, "k", payload{UserID: "u1"}, time.Minute))
	assert.Equal(t, time.Minute, mr.TTL("k"))

	var got payload
	ok, err := RedisGetDelJSON(ctx, rdb, "k", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "u1", got.UserID)

	ok, err = RedisGetDelJSON(ctx, rdb, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok, "second read must miss")

	require.NoError(t, rdb.Set(ctx, "bad", "not-json", 0).Err())
	_, err = RedisGetDelJSON(ctx, rdb, "bad", &got)
	assert.Error(t, err)
	assert.False(t, mr.Exists("bad"), "GETDEL removes the key even when it cannot be decoded")
}
