package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Aside implements the cache-aside pattern: try the cache, fall back to
// fill, then populate the cache. dest must be a pointer. When no Redis
// client is configured every call goes straight to fill; a cache failure
// never fails the request.
func Aside(ctx context.Context, key string, dest interface{}, ttl time.Duration, fill func() error) error {
	if client == nil {
		return fill()
	}

	raw, err := client.Get(ctx, key).Bytes()
	if err == nil {
		if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
			return nil
		}
		// Corrupt entry; drop it and refill.
		client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		// Redis unavailable; serve from the database.
		return fill()
	}

	if err := fill(); err != nil {
		return err
	}

	if raw, err := json.Marshal(dest); err == nil {
		client.Set(ctx, key, raw, ttl)
	}
	return nil
}
