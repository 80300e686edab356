// Package cache provides a Redis read-through cache for public user views.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/squeak-be/internal/models"
)

// UserCache stores PublicUser views keyed by user id. Failures are logged
// and treated as misses; the store stays the source of truth.
type UserCache interface {
	Get(ctx context.Context, id string) (models.PublicUser, bool)
	Set(ctx context.Context, user models.PublicUser)
	Invalidate(ctx context.Context, id string)
}

// Nop is a UserCache that never hits.
type Nop struct{}

func (Nop) Get(context.Context, string) (models.PublicUser, bool) { return models.PublicUser{}, false }
func (Nop) Set(context.Context, models.PublicUser)                {}
func (Nop) Invalidate(context.Context, string)                    {}

// RedisUserCache is the Redis-backed UserCache.
type RedisUserCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger
}

// Connect parses redisURL, pings it, and returns a client.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewRedisUserCache wraps client. A non-positive ttl defaults to five minutes.
func NewRedisUserCache(client *redis.Client, ttl time.Duration, log logrus.FieldLogger) *RedisUserCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisUserCache{client: client, ttl: ttl, log: log}
}

func (c *RedisUserCache) Get(ctx context.Context, id string) (models.PublicUser, bool) {
	raw, err := c.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WithError(err).WithField("user_id", id).Warn("user cache read failed")
		}
		return models.PublicUser{}, false
	}
	var user models.PublicUser
	if err := json.Unmarshal(raw, &user); err != nil {
		c.log.WithError(err).WithField("user_id", id).Warn("user cache entry corrupt")
		c.Invalidate(ctx, id)
		return models.PublicUser{}, false
	}
	return user, true
}

func (c *RedisUserCache) Set(ctx context.Context, user models.PublicUser) {
	raw, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key(user.ID), raw, c.ttl).Err(); err != nil {
		c.log.WithError(err).WithField("user_id", user.ID).Warn("user cache write failed")
	}
}

func (c *RedisUserCache) Invalidate(ctx context.Context, id string) {
	if err := c.client.Del(ctx, key(id)).Err(); err != nil {
		c.log.WithError(err).WithField("user_id", id).Warn("user cache invalidate failed")
	}
}

func key(id string) string {
	return "squeak:user:" + id
}
