package database

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iac-studio/blueprint/pkg/logger"
)

// OpenRedis connects to a single redis node, retrying the first ping with
// the same backoff as OpenPostgres.
func OpenRedis(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	b := backoff{
		maxRetries: 5,
		delay:      500 * time.Millisecond,
		maxDelay:   5 * time.Second,
	}
	for attempt := 0; ; attempt++ {
		err := rdb.Ping(ctx).Err()
		if err == nil {
			return rdb, nil
		}
		if attempt >= b.maxRetries {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping failed after retries: %w", err)
		}
		logger.L().Warn("redis not ready, retrying", zap.Int("attempt", attempt+1), zap.Error(err))
		select {
		case <-ctx.Done():
			_ = rdb.Close()
			return nil, fmt.Errorf("open redis canceled: %w", ctx.Err())
		case <-time.After(b.nextDelay(attempt)):
		}
	}
}

// AsynqOpt is the asynq connection for the same redis node.
func AsynqOpt(addr, password string) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: addr, Password: password, DB: 0}
}
