package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// RedisClient bundles the redis connection with a lock client built on it.
type RedisClient struct {
	Client *redis.Client
	locker *redislock.Client
}

func NewRedisClient(cfg *Config) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisClient{Client: client, locker: redislock.New(client)}, nil
}

func (c *RedisClient) Close() error {
	return c.Client.Close()
}

// GetObject decodes the JSON value under key into dest. Reports false on a miss.
func (c *RedisClient) GetObject(ctx context.Context, key string, dest interface{}) (bool, error) {
	val, err := c.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisClient) SetObject(ctx context.Context, key string, obj interface{}, exp time.Duration) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, key, data, exp).Err()
}

func (c *RedisClient) Delete(ctx context.Context, keys ...string) error {
	return c.Client.Del(ctx, keys...).Err()
}

// Lock is a held distributed lock.
type Lock interface {
	Release(ctx context.Context) error
}

// Obtain takes the lock for key, retrying a few times before giving up.
func (c *RedisClient) Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	lock, err := c.locker.Obtain(ctx, key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 3),
	})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, ErrLockNotObtained
		}
		return nil, err
	}
	return lock, nil
}

var ErrLockNotObtained = errors.New("system busy, please try again later (lock)")
