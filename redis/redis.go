package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewClient connects to addr and pings it. A nil client and the ping error are
// returned when Redis is not reachable so callers can run without it.
func NewClient(ctx context.Context, addr string, logger *zap.SugaredLogger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warnw("Redis not available. Running without Redis.", "addr", addr, "error", err)
		client.Close()
		return nil, err
	}

	logger.Infow("Redis connected successfully.", "addr", addr)
	return client, nil
}
