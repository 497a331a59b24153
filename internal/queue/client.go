package queue

import (
	"strings"

	"github.com/hibiken/asynq"

	"docqa-platform/internal/config"
)

// RedisOpt builds the asynq Redis connection options from config. Accepts
// either a full redis:// URL (managed Redis) or plain host:port, matching
// the main Redis client.
func RedisOpt(cfg *config.Config) (asynq.RedisConnOpt, error) {
	if strings.HasPrefix(cfg.RedisURL, "redis://") || strings.HasPrefix(cfg.RedisURL, "rediss://") {
		return asynq.ParseRedisURI(cfg.RedisURL)
	}

	return asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}
