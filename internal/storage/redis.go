package storage

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Sifanww/senlin-yogurt/internal/domain"
)

// RedisUserCache fronts the users table for the auth middleware, which
// resolves a user on every request.
type RedisUserCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisUserCache(client *redis.Client, ttl time.Duration) *RedisUserCache {
	return &RedisUserCache{Client: client, TTL: ttl}
}

func (c *RedisUserCache) UserKey(userID int) string {
	return "auth:user:" + strconv.Itoa(userID)
}

func (c *RedisUserCache) Get(ctx context.Context, userID int) (*domain.User, bool, error) {
	payload, err := c.Client.Get(ctx, c.UserKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var user domain.User
	if err := json.Unmarshal(payload, &user); err != nil {
		return nil, false, err
	}
	return &user, true, nil
}

func (c *RedisUserCache) Set(ctx context.Context, user *domain.User) error {
	payload, _ := json.Marshal(user)
	return c.Client.Set(ctx, c.UserKey(user.ID), payload, c.TTL).Err()
}
