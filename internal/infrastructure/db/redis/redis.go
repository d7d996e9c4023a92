// Package redis backs Idempotency-Key handling for property creation.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dialTimeout     = 5 * time.Second
	defaultPoolSize = 10
)

// Config holds the optional redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
	// Timeout bounds the initial ping. Defaults to 5s.
	Timeout time.Duration
}

// Connect opens a client and pings it once. The client is closed when the
// ping fails.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis: address is required")
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = dialTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    poolSize,
		DialTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// HealthCheck adapts a client to the readiness probe.
type HealthCheck struct {
	client *redis.Client
}

func NewHealthCheck(client *redis.Client) HealthCheck {
	return HealthCheck{client: client}
}

func (h HealthCheck) Ping(ctx context.Context) error {
	return h.client.Ping(ctx).Err()
}
