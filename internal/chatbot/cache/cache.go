// Package cache stores chatbot match results in Redis, keyed by the catalog
// fingerprint, the matcher options and the normalized query.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/internal/chatbot/matcher"
	pkgredis "github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/redis"
)

const keyPrefix = "chatbot:"

// Store is the key-value backend; *redis.Client satisfies it.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type ResponseCache struct {
	store     Store
	ttl       time.Duration
	namespace string
	group     singleflight.Group
	logger    *slog.Logger
	hits      atomic.Int64
	misses    atomic.Int64
}

// New returns a cache whose keys live under namespace, normally the catalog
// fingerprint, so results computed against another catalog are never served.
func New(store Store, ttl time.Duration, namespace string) *ResponseCache {
	return &ResponseCache{
		store:     store,
		ttl:       ttl,
		namespace: namespace,
		logger:    slog.Default().With("component", "chatbot-cache"),
	}
}

func (c *ResponseCache) Get(ctx context.Context, query string, opts matcher.Options) (matcher.Result, bool) {
	key := c.buildKey(query, opts)
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return matcher.Result{}, false
	}
	var result matcher.Result
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return matcher.Result{}, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "query", query, "key", key)
	return result, true
}

func (c *ResponseCache) Set(ctx context.Context, query string, opts matcher.Options, result matcher.Result) {
	key := c.buildKey(query, opts)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for query or computes and stores it.
// Concurrent misses on the same key share a single computation. The boolean
// reports whether the result came from the cache.
func (c *ResponseCache) GetOrCompute(
	ctx context.Context,
	query string,
	opts matcher.Options,
	compute func() (matcher.Result, error),
) (matcher.Result, bool, error) {
	if result, ok := c.Get(ctx, query, opts); ok {
		return result, true, nil
	}
	key := c.buildKey(query, opts)
	val, err, _ := c.group.Do(key, func() (any, error) {
		result, err := compute()
		if err != nil {
			return matcher.Result{}, err
		}
		c.Set(ctx, query, opts, result)
		return result, nil
	})
	if err != nil {
		return matcher.Result{}, false, err
	}
	return val.(matcher.Result), false, nil
}

// Invalidate drops every cached response, across all catalog namespaces.
func (c *ResponseCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating chatbot cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (c *ResponseCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *ResponseCache) buildKey(query string, opts matcher.Options) string {
	raw := fmt.Sprintf("%s|drop_punct=%t", normalizeQuery(query), opts.DropPunctuation)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%s:%x", keyPrefix, c.namespace, hash[:16])
}

// normalizeQuery folds case and trims the ends, both of which the tokenizer
// ignores. Inner whitespace is kept as is: clitic and quote rules only fire
// on a literal space, so "kids' tv" and "kids'\ttv" tokenize differently.
func normalizeQuery(query string) string {
	return strings.TrimSpace(strings.ToLower(query))
}
