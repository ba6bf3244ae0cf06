package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"mirror/internal/config"
	"mirror/internal/logger"
)

const redisConnectTimeout = 30 * time.Second

type DatabaseConnector struct {
	Config *config.Config
	Logger logger.Logger
}

func NewDatabaseConnector(cfg *config.Config, log logger.Logger) *DatabaseConnector {
	return &DatabaseConnector{
		Config: cfg,
		Logger: log,
	}
}

// InitRedis returns nil, nil when no Redis host is configured. The initial
// ping is retried with exponential backoff since the settings mirror may
// start after the service.
func (dc *DatabaseConnector) InitRedis(ctx context.Context) (*redis.Client, error) {
	cfg := dc.Config.Database.Redis
	if cfg.Host == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = redisConnectTimeout
	ping := func() error {
		return rdb.Ping(ctx).Err()
	}
	notify := func(err error, wait time.Duration) {
		dc.Logger.Warnw("Redis not reachable yet", "error", err, "retry_in", wait)
	}

	if err := backoff.RetryNotify(ping, backoff.WithContext(b, ctx), notify); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	dc.Logger.Infow("Redis connected successfully", "addr", rdb.Options().Addr)
	return rdb, nil
}

func (dc *DatabaseConnector) ShutdownDatabases(rdb *redis.Client) []error {
	var errs []error

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close error: %w", err))
		}
	}

	return errs
}
