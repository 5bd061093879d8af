package db

import (
	"github.com/redis/go-redis/v9"

	"cleanbag-service/internal/config"
)

// NewRedis returns nil when no address is configured; callers treat a nil
// client as "dedupe cache disabled".
func NewRedis(cfg *config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
