package cache

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/squeak-be/internal/models"
)

func newTestCache(t *testing.T) (*RedisUserCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewRedisUserCache(client, time.Minute, log), mr
}

func TestRedisUserCache_SetGetInvalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, ok := c.Get(ctx, "u1")
	assert.False(t, ok)

	user := models.PublicUser{ID: "u1", Name: "Jon Doe", Username: "jondoe1", Email: "jon.doe@some.where"}
	c.Set(ctx, user)

	got, ok := c.Get(ctx, "u1")
	require.True(t, ok)
	assert.Equal(t, user.Username, got.Username)
	assert.Equal(t, user.Email, got.Email)
	raw, err := mr.Get(key("u1"))
	require.NoError(t, err)
	assert.NotContains(t, raw, "password")

	c.Invalidate(ctx, "u1")
	_, ok = c.Get(ctx, "u1")
	assert.False(t, ok)
}

func TestRedisUserCache_Expires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, models.PublicUser{ID: "u1", Username: "jondoe1"})
	mr.FastForward(2 * time.Minute)

	_, ok := c.Get(ctx, "u1")
	assert.False(t, ok)
}

func TestRedisUserCache_CorruptEntryIsAMiss(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set(key("u1"), "{not json"))

	_, ok := c.Get(context.Background(), "u1")
	assert.False(t, ok)
	assert.False(t, mr.Exists(key("u1")))
}

func TestRedisUserCache_ServerDownIsAMiss(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	c.Set(context.Background(), models.PublicUser{ID: "u1"})
	_, ok := c.Get(context.Background(), "u1")
	assert.False(t, ok)
}

func TestNop(t *testing.T) {
	var c UserCache = Nop{}
	c.Set(context.Background(), models.PublicUser{ID: "u1"})
	_, ok := c.Get(context.Background(), "u1")
	assert.False(t, ok)
}
