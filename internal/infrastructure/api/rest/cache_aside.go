package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// CacheReader is the subset of cache.RedisCache the read API's
// cache-aside helpers need.
type CacheReader interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// cacheAside reads key, decoding a hit into T; on any miss or decode
// failure it calls fetch, stores the JSON-encoded result under key for
// ttl, and returns it. A nil cache (or a failed Set) degrades to
// straight-through reads rather than failing the request.
func cacheAside[T any](c *gin.Context, cache CacheReader, key string, ttl time.Duration, fetch func() (T, error)) (T, error) {
	var out T
	if cache != nil {
		if raw, err := cache.Get(c.Request.Context(), key); err == nil {
			if err := json.Unmarshal([]byte(raw), &out); err == nil {
				return out, nil
			}
		}
	}

	out, err := fetch()
	if err != nil {
		return out, err
	}

	if cache != nil {
		if payload, err := json.Marshal(out); err == nil {
			if err := cache.Set(c.Request.Context(), key, string(payload), ttl); err != nil {
				slog.Warn("cache-aside set failed", slog.String("key", key), slog.Any("error", err))
			}
		}
	}
	return out, nil
}
