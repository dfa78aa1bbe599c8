package config

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns nil when REDIS_ADDR is unset or the server does not
// answer; callers fall back to in-process storage.
func ConnectRedis(s *Settings) *redis.Client {
	if s.RedisAddr == "" {
		log.Println("REDIS_ADDR not set, sessions are revoked in memory")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: s.RedisAddr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("❌ Redis unreachable at %s: %v", s.RedisAddr, err)
		rdb.Close()
		return nil
	}

	log.Println("✅ Redis connected")
	return rdb
}
