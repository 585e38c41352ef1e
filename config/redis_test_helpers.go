package config

import (
	"sync"

	"github.com/redis/go-redis/v9"
)

// SetRedisClientForTest replaces the process Redis client, for example with a
// redismock client.
func SetRedisClientForTest(client *redis.Client) {
	redisMu.Lock()
	redisClient = client
	redisMu.Unlock()
}

// ResetRedisClientForTest resets the Redis client singleton.
func ResetRedisClientForTest() {
	redisMu.Lock()
	redisClient = nil
	redisOnce = sync.Once{}
	redisMu.Unlock()
}
