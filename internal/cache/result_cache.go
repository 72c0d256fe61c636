package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/techleadershub/gita-counsellor/internal/research"
)

// ResultCache stores completed research results in Redis, keyed by a hash of
// the query and context. A nil *ResultCache is a no-op, so callers never have
// to branch on whether caching is configured.
type ResultCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewResultCache(client *redis.Client, prefix string, ttl time.Duration) *ResultCache {
	return &ResultCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Get returns the cached result for the query, or ok=false on a miss. Cache
// failures are logged and treated as misses.
func (c *ResultCache) Get(ctx context.Context, query, queryContext string) (research.Result, bool) {
	if c == nil || c.client == nil {
		return research.Result{}, false
	}

	data, err := c.client.Get(ctx, c.key(query, queryContext)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("Result cache read failed")
		}
		return research.Result{}, false
	}

	var result research.Result
	if err := json.Unmarshal(data, &result); err != nil {
		log.Warn().Err(err).Msg("Result cache entry corrupt, ignoring")
		return research.Result{}, false
	}
	return result, true
}

// Set stores a completed result. Failures are logged, never returned.
func (c *ResultCache) Set(ctx context.Context, query, queryContext string, result research.Result) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to encode result for cache")
		return
	}
	if err := c.client.Set(ctx, c.key(query, queryContext), data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("Result cache write failed")
	}
}

// Clear drops all cached results under the cache prefix.
func (c *ResultCache) Clear(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}

	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *ResultCache) key(query, queryContext string) string {
	sum := sha256.Sum256([]byte(query + "\x00" + queryContext))
	return c.prefix + hex.EncodeToString(sum[:])
}
