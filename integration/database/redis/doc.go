// Package redis provides Redis client initialization and health checking.
//
// Connect parses a redis:// or rediss:// URL, creates a client and pings it
// with exponential backoff until it answers or the attempts run out:
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store := ratelimiter.NewRedisStore(client)
//
// Healthcheck wraps a client in a function suitable for readiness checks.
//
// # Configuration
//
//	REDIS_URL="redis://localhost:6379/0"
//	REDIS_RETRY_ATTEMPTS="3"
//	REDIS_RETRY_INTERVAL="5s"
//	REDIS_CONNECT_TIMEOUT="30s"
//
// # Error Handling
//
//   - ErrEmptyURL: no URL was provided
//   - ErrInvalidURL: the URL is malformed
//   - ErrNotReady: Redis did not answer within the retry budget
//   - ErrUnhealthy: a health check ping failed
package redis
