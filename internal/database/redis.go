package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisClientName   = "exam-console"
	redisPingAttempts = 3
	redisPingTimeout  = 2 * time.Second
)

// ConnectRedis opens the cache and revocation store. The server must answer a ping within
// redisPingAttempts tries, backing off between attempts.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url must not be empty")
	}

	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if options.ClientName == "" {
		options.ClientName = redisClientName
	}

	client := redis.NewClient(options)

	for attempt := 1; attempt <= redisPingAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		err = client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			return client, nil
		}

		if attempt == redisPingAttempts {
			break
		}
		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * 250 * time.Millisecond):
		}
	}

	_ = client.Close()
	return nil, fmt.Errorf("unable to connect to redis after %d attempts: %w", redisPingAttempts, err)
}
