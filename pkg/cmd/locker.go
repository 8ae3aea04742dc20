package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/stockflow-io/stockflow/pkg/scheduler"
)

const lockTTL = 5 * time.Minute

// NewLocker builds the scheduler tick lock. An empty URL selects the no-op
// lock for single-instance deployments.
func NewLocker(redisURL string) scheduler.Locker {
	if redisURL == "" {
		return scheduler.NoopLocker{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		panic(fmt.Errorf("invalid redis lock URL: %w", err))
	}

	client := redis.NewClient(opts)

	return scheduler.NewRedisLock(client, "stockflow:scheduler:lock", uuid.New().String(), lockTTL)
}
