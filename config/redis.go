package config

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

func InitRedis() error {
	val := os.Getenv("REDIS_ADDR")
	if val == "" {
		val = os.Getenv("REDIS_URI")
	}
	if val == "" {
		val = os.Getenv("REDIS_URL")
	}
	if val == "" {
		return errors.New("REDIS_ADDR (or REDIS_URI/REDIS_URL) environment variable is not set")
	}

	c, err := newRedisClient(val)
	if err != nil {
		return err
	}
	RedisClient = c

	_, err = RedisClient.Ping(context.Background()).Result()
	return err
}

// QueueRedisClient returns the client backing the job queue, or nil when no
// queue backend is configured. QUEUE_REDIS_ADDR selects async dispatch; it may
// point at the main redis or a dedicated instance.
func QueueRedisClient() (*redis.Client, error) {
	val := os.Getenv("QUEUE_REDIS_ADDR")
	if val == "" {
		return nil, nil
	}
	if RedisClient != nil && val == os.Getenv("REDIS_ADDR") {
		return RedisClient, nil
	}

	c, err := newRedisClient(val)
	if err != nil {
		return nil, err
	}
	if _, err := c.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return c, nil
}

func newRedisClient(val string) (*redis.Client, error) {
	if strings.HasPrefix(val, "redis://") || strings.HasPrefix(val, "rediss://") {
		opt, err := redis.ParseURL(val)
		if err != nil {
			return nil, err
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: val}), nil
}
