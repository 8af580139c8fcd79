package redis

import (
	// Go Internal Packages
	"context"

	// Local Packages
	errors "waypay/errors"

	// External Packages
	"github.com/redis/go-redis/v9"
)

// Connect connects to the redis db and returns the client.
func Connect(ctx context.Context, uri, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     uri,
		Password: password,
		DB:       0,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, errors.E(errors.Unavailable, "redis unreachable", err)
	}
	return rdb, nil
}
