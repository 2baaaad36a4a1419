package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"
)

// Connect creates a Redis client and verifies it answers PING, retrying with
// exponential backoff up to cfg.RetryAttempts times within cfg.ConnectTimeout.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if strings.TrimSpace(cfg.ConnectionURL) == "" {
		return nil, ErrEmptyURL
	}

	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}

	client := redis.NewClient(opts)

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	b := backoff.NewExponentialBackOff()
	if cfg.RetryInterval > 0 {
		b.InitialInterval = cfg.RetryInterval
	}

	_, err = backoff.Retry(ctx, func() (string, error) {
		return client.Ping(ctx).Result()
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(max(cfg.RetryAttempts, 1))),
	)
	if err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrNotReady, err)
	}

	return client, nil
}

// Healthcheck returns a function that pings the client.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrUnhealthy, err)
		}
		return nil
	}
}
