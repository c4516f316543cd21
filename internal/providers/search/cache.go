package search

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// CachedSearch is a read-through decorator over a Service. Cache errors
// are logged and swallowed; they never fail a search.
type CachedSearch struct {
	inner Service
	rdb   *redis.Client
	ttl   time.Duration
	log   *logrus.Logger
}

func NewCachedSearch(inner Service, rdb *redis.Client, ttl time.Duration, log *logrus.Logger) *CachedSearch {
	return &CachedSearch{inner: inner, rdb: rdb, ttl: ttl, log: log}
}

func cacheKey(query string, topK int) string {
	sum := sha1.Sum([]byte(query))
	return fmt.Sprintf("search:%x:%d", sum, topK)
}

func (c *CachedSearch) Search(ctx context.Context, query string, topK int) ([]Hit, error) {
	key := cacheKey(query, topK)

	if s, err := c.rdb.Get(ctx, key).Result(); err == nil {
		var hits []Hit
		if jsonErr := json.Unmarshal([]byte(s), &hits); jsonErr == nil {
			return hits, nil
		}
		// data corrupt: treat as miss by deleting
		_ = c.rdb.Del(ctx, key).Err()
	} else if err != redis.Nil {
		c.log.WithError(err).Warn("search cache read failed")
	}

	hits, err := c.inner.Search(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	if b, jsonErr := json.Marshal(hits); jsonErr == nil {
		if setErr := c.rdb.Set(ctx, key, b, c.ttl).Err(); setErr != nil {
			c.log.WithError(setErr).Warn("search cache write failed")
		}
	}
	return hits, nil
}

func (c *CachedSearch) Healthy(ctx context.Context) bool {
	return c.inner.Healthy(ctx)
}
