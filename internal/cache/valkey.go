// Package cache provides Valkey (Redis-compatible) client initialization
// and the public profile page cache.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

// ValkeyOptions describes the Valkey server shared by sessions and pages.
type ValkeyOptions struct {
	Host     string
	Port     string
	Password string
	DB       int

	// Attempts bounds the startup pings. Zero means a single ping.
	Attempts uint64
}

// ConnectValkey creates a Valkey client and pings it, backing off between
// attempts while the server starts.
func ConnectValkey(ctx context.Context, opts ValkeyOptions) (*redis.Client, error) {
	addr := net.JoinHostPort(opts.Host, opts.Port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	backoff := retry.WithMaxRetries(opts.Attempts, retry.NewExponential(250*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("valkey ping %s: %w", addr, err)
	}

	slog.Info("valkey connected", "addr", addr, "db", opts.DB)
	return client, nil
}
