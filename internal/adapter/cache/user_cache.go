package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "userdesk/internal/domain/user"
)

const (
	keyList       = "user:list"
	keyGeneration = "user:gen"
)

// ErrStale is returned by Set and SetList when a write happened after the
// caller read the generation. Nothing is stored.
var ErrStale = errors.New("cache generation changed")

// setIfGeneration stores ARGV[2] under KEYS[2] only while KEYS[1] still holds
// the generation the caller read before loading the value.
var setIfGeneration = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if (current or '0') ~= ARGV[1] then
	return 0
end
local ttl = tonumber(ARGV[3])
if ttl > 0 then
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ttl)
else
	redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

// UserCache defines the interface for user caching operations.
//
// Readers call Generation before loading from the database and hand the value
// to Set or SetList. Invalidate advances the generation, so a value loaded
// before a write is never stored after it.
type UserCache interface {
	// Generation returns the current write generation.
	Generation(ctx context.Context) (int64, error)

	// Get retrieves a user from cache by ID.
	// Returns nil if user is not found in cache.
	Get(ctx context.Context, id int64) (*domain.User, error)

	// Set stores a user loaded at generation gen.
	Set(ctx context.Context, user *domain.User, gen int64) error

	// GetList retrieves the cached user list. Returns nil on a miss.
	GetList(ctx context.Context) ([]domain.User, error)

	// SetList stores the full user list loaded at generation gen.
	SetList(ctx context.Context, users []domain.User, gen int64) error

	// Invalidate advances the generation and drops the list and the given users.
	Invalidate(ctx context.Context, ids ...int64) error
}

// RedisUserCache implements UserCache using Redis as the backing store.
type RedisUserCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisUserCache creates a new Redis-backed user cache.
func NewRedisUserCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisUserCache {
	return &RedisUserCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// cacheKey generates a Redis key for a user ID.
func (c *RedisUserCache) cacheKey(id int64) string {
	return fmt.Sprintf("user:%d", id)
}

// Generation returns the current write generation, zero before the first write.
func (c *RedisUserCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, keyGeneration).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Get retrieves a user from Redis cache.
func (c *RedisUserCache) Get(ctx context.Context, id int64) (*domain.User, error) {
	data, err := c.client.Get(ctx, c.cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.log.Debug("cache miss", zap.Int64("user_id", id))
		return nil, nil
	}
	if err != nil {
		c.log.Error("failed to get from cache", zap.Int64("user_id", id), zap.Error(err))
		return nil, err
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		c.log.Error("failed to unmarshal cached user", zap.Int64("user_id", id), zap.Error(err))
		return nil, err
	}

	c.log.Debug("cache hit", zap.Int64("user_id", id))
	return &user, nil
}

// Set stores a user in Redis cache with TTL.
func (c *RedisUserCache) Set(ctx context.Context, user *domain.User, gen int64) error {
	if user == nil {
		return errors.New("cannot cache nil user")
	}

	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	if err := c.setAt(ctx, c.cacheKey(user.ID), data, gen); err != nil {
		if !errors.Is(err, ErrStale) {
			c.log.Error("failed to set cache", zap.Int64("user_id", user.ID), zap.Error(err))
		}
		return err
	}

	c.log.Debug("cached user", zap.Int64("user_id", user.ID), zap.Duration("ttl", c.ttl))
	return nil
}

// GetList retrieves the cached user list.
func (c *RedisUserCache) GetList(ctx context.Context) ([]domain.User, error) {
	data, err := c.client.Get(ctx, keyList).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	users := []domain.User{}
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SetList stores the user list with TTL.
func (c *RedisUserCache) SetList(ctx context.Context, users []domain.User, gen int64) error {
	if users == nil {
		users = []domain.User{}
	}
	data, err := json.Marshal(users)
	if err != nil {
		return err
	}
	return c.setAt(ctx, keyList, data, gen)
}

// Invalidate advances the generation and drops the list and the given users
// in one transaction.
func (c *RedisUserCache) Invalidate(ctx context.Context, ids ...int64) error {
	keys := make([]string, 0, len(ids)+1)
	keys = append(keys, keyList)
	for _, id := range ids {
		keys = append(keys, c.cacheKey(id))
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, keyGeneration)
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		c.log.Error("failed to invalidate cache", zap.Int64s("user_ids", ids), zap.Error(err))
		return err
	}

	c.log.Debug("invalidated cache", zap.Int64s("user_ids", ids))
	return nil
}

func (c *RedisUserCache) setAt(ctx context.Context, key string, data []byte, gen int64) error {
	stored, err := setIfGeneration.Run(ctx, c.client,
		[]string{keyGeneration, key},
		strconv.FormatInt(gen, 10), data, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return err
	}
	if stored == 0 {
		return ErrStale
	}
	return nil
}
