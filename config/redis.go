package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	redisClient *redis.Client
	redisMu     sync.RWMutex
	redisOnce   sync.Once
)

// ConnectRedis initializes a singleton Redis client from the configuration.
// It returns nil without error when REDIS_ADDR is unset or in the test
// environment.
func ConnectRedis() (*redis.Client, error) {
	var err error
	redisOnce.Do(func() {
		var rdb *redis.Client
		rdb, err = NewRedisClient(LoadConfig())
		redisMu.Lock()
		redisClient = rdb
		redisMu.Unlock()
	})
	return GetRedisClient(), err
}

// NewRedisClient opens and pings a Redis client for cfg.
func NewRedisClient(cfg *Config) (*redis.Client, error) {
	if cfg == nil || cfg.AppEnv == "test" || cfg.RedisAddr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// GetRedisClient returns the initialized Redis client (may be nil if ConnectRedis failed or not called).
func GetRedisClient() *redis.Client {
	redisMu.RLock()
	defer redisMu.RUnlock()
	return redisClient
}
