package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/allisson/roleguard/internal/errors"
	rbacDomain "github.com/allisson/roleguard/internal/rbac/domain"
)

const (
	userCacheKeyPrefix      = "roleguard:user:"
	userGenerationKeyPrefix = "roleguard:user-gen:"
)

// errStaleGeneration aborts a Set that lost a race with Invalidate.
var errStaleGeneration = errors.New("user cache generation changed")

// NewRedisClient creates a Redis client and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// cachedUser is the JSON form of a user authorization record.
type cachedUser struct {
	ID          string                  `json:"id"`
	Email       string                  `json:"email"`
	Name        string                  `json:"name"`
	Role        rbacDomain.Role         `json:"role"`
	Permissions []rbacDomain.Permission `json:"permissions"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// RedisUserCache caches user authorization records for permission checks.
// A nil cache or a cache without a client behaves as always empty.
//
// Every user has a generation counter that Invalidate bumps. Set only stores a record
// when the counter still holds the generation read before the store lookup, so a read
// that overlaps a committed change never puts the old record back.
type RedisUserCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisUserCache creates a user cache whose entries expire after ttl.
func NewRedisUserCache(client *redis.Client, ttl time.Duration) *RedisUserCache {
	return &RedisUserCache{client: client, ttl: ttl}
}

func userCacheKey(id string) string {
	return userCacheKeyPrefix + id
}

func userGenerationKey(id string) string {
	return userGenerationKeyPrefix + id
}

// Generation returns the current invalidation generation of the user, zero when the user
// was never invalidated.
func (c *RedisUserCache) Generation(ctx context.Context, id string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}

	generation, err := c.client.Get(ctx, userGenerationKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to read user cache generation")
	}

	return generation, nil
}

// Get returns the cached user and true, or false on a miss.
func (c *RedisUserCache) Get(ctx context.Context, id string) (*rbacDomain.User, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}

	payload, err := c.client.Get(ctx, userCacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.Wrap(err, "failed to read cached user")
	}

	var cached cachedUser
	if err := json.Unmarshal(payload, &cached); err != nil {
		return nil, false, apperrors.Wrap(err, "failed to unmarshal cached user")
	}

	return &rbacDomain.User{
		ID:          cached.ID,
		Email:       cached.Email,
		Name:        cached.Name,
		Role:        cached.Role,
		RoleLevel:   cached.Role.Level(),
		Permissions: cached.Permissions,
		CreatedAt:   cached.CreatedAt,
		UpdatedAt:   cached.UpdatedAt,
	}, true, nil
}

// Set stores user until the cache TTL expires, provided the user generation still equals
// generation. A stale write is dropped without error.
func (c *RedisUserCache) Set(ctx context.Context, user *rbacDomain.User, generation int64) error {
	if c == nil || c.client == nil {
		return nil
	}

	payload, err := json.Marshal(cachedUser{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Role:        user.Role,
		Permissions: user.Permissions,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal cached user")
	}

	generationKey := userGenerationKey(user.ID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleGeneration
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, userCacheKey(user.ID), payload, c.ttl)
			return nil
		})
		return err
	}, generationKey)

	switch {
	case err == nil, errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		return nil
	default:
		return apperrors.Wrap(err, "failed to cache user")
	}
}

// Invalidate removes the cached records of the given users and bumps their generations.
// Generation keys outlive records by one TTL so in-flight reads still see the bump.
func (c *RedisUserCache) Invalidate(ctx context.Context, ids ...string) error {
	if c == nil || c.client == nil || len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = userCacheKey(id)
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.Incr(ctx, userGenerationKey(id))
			pipe.Expire(ctx, userGenerationKey(id), 2*c.ttl)
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to invalidate cached users")
	}

	return nil
}
