// Package scorecache puts a Redis read-through cache in front of a
// safety.ScoreLookup.
package scorecache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"cosmetic-insights/internal/analytics/safety"
	"cosmetic-insights/internal/common/logger"
	"cosmetic-insights/internal/common/metrics"
)

const (
	keyPrefix = "ingredient:score:"

	// missMarker caches a confirmed ErrNotFound so unknown names do not hit
	// the backing store on every evaluation.
	missMarker = "__miss__"
)

// Cache is a Redis read-through cache in front of another ScoreLookup.
type Cache struct {
	redis  redis.Cmdable
	next   safety.ScoreLookup
	ttl    time.Duration
	logger logger.Logger
}

// New caches next's answers in client for ttl.
func New(client redis.Cmdable, next safety.ScoreLookup, ttl time.Duration, log logger.Logger) *Cache {
	return &Cache{
		redis:  client,
		next:   next,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "scorecache"}),
	}
}

// Key is the Redis key for a normalized ingredient name.
func Key(name string) string {
	return keyPrefix + name
}

// LookupScore serves from Redis when possible. Redis failures fall through
// to the backing lookup; only its errors are returned.
func (c *Cache) LookupScore(ctx context.Context, name string) (*safety.IngredientScore, error) {
	key := Key(name)

	val, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		if val == missMarker {
			metrics.ScoreCacheRequests.WithLabelValues("hit").Inc()
			return nil, safety.ErrNotFound
		}
		var score safety.IngredientScore
		if jsonErr := json.Unmarshal([]byte(val), &score); jsonErr == nil {
			metrics.ScoreCacheRequests.WithLabelValues("hit").Inc()
			return &score, nil
		}
		c.logger.Warn("discarding malformed cache entry", map[string]interface{}{"key": key})
		metrics.ScoreCacheRequests.WithLabelValues("miss").Inc()
	case errors.Is(err, redis.Nil):
		metrics.ScoreCacheRequests.WithLabelValues("miss").Inc()
	default:
		c.logger.Warn("score cache read failed", map[string]interface{}{"key": key, "error": err})
		metrics.ScoreCacheRequests.WithLabelValues("error").Inc()
	}

	score, err := c.next.LookupScore(ctx, name)
	if err != nil {
		if errors.Is(err, safety.ErrNotFound) {
			c.store(ctx, key, []byte(missMarker))
		}
		return nil, err
	}

	data, err := json.Marshal(score)
	if err == nil {
		c.store(ctx, key, data)
	}
	return score, nil
}

// Invalidate drops the cached entry for name.
func (c *Cache) Invalidate(ctx context.Context, name string) error {
	return c.redis.Del(ctx, Key(name)).Err()
}

func (c *Cache) store(ctx context.Context, key string, data []byte) {
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("score cache write failed", map[string]interface{}{"key": key, "error": err})
	}
}
