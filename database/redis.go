package database

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns nil when REDIS_URL is empty or the server is
// unreachable; callers run without the daily run lock in that case.
func ConnectRedis(redisURL string) *redis.Client {
	if redisURL == "" {
		log.Println("⚠️  REDIS_URL not set, running without run lock")
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Println("⚠️  Invalid REDIS_URL, running without run lock:", err)
		return nil
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Println("⚠️  Redis not available, running without run lock:", err)
		client.Close()
		return nil
	}

	log.Println("✅ Redis connected successfully")
	return client
}
