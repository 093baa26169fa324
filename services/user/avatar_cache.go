package user

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const avatarKeyPrefix = "avatar:"

// AvatarCache remembers resolved avatar URLs for the public image endpoint.
type AvatarCache interface {
	Get(ctx context.Context, username string) (string, bool)
	Set(ctx context.Context, username, url string)
	Delete(ctx context.Context, username string)
}

// RedisAvatarCache keeps avatar URLs in Redis. Cache failures behave as misses.
type RedisAvatarCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAvatarCache(client *redis.Client, ttl time.Duration) *RedisAvatarCache {
	return &RedisAvatarCache{client: client, ttl: ttl}
}

func (c *RedisAvatarCache) Get(ctx context.Context, username string) (string, bool) {
	url, err := c.client.Get(ctx, avatarKeyPrefix+username).Result()
	if err != nil || url == "" {
		return "", false
	}
	return url, true
}

func (c *RedisAvatarCache) Set(ctx context.Context, username, url string) {
	_ = c.client.Set(ctx, avatarKeyPrefix+username, url, c.ttl).Err()
}

func (c *RedisAvatarCache) Delete(ctx context.Context, username string) {
	_ = c.client.Del(ctx, avatarKeyPrefix+username).Err()
}
