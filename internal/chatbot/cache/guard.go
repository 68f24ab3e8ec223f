package cache

import (
	"context"
	"time"

	pkgredis "github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/resilience"
)

// GuardedStore routes every call through a circuit breaker so a dead Redis
// costs one fast error per request instead of a network timeout. Key misses
// do not count as failures.
type GuardedStore struct {
	store   Store
	breaker *resilience.CircuitBreaker
}

func NewGuardedStore(store Store, breaker *resilience.CircuitBreaker) *GuardedStore {
	return &GuardedStore{store: store, breaker: breaker}
}

func (g *GuardedStore) Get(ctx context.Context, key string) (string, error) {
	var val string
	err := g.breaker.Execute(func() error {
		var err error
		val, err = g.store.Get(ctx, key)
		return err
	}, isBackendFailure)
	return val, err
}

func (g *GuardedStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return g.breaker.Execute(func() error {
		return g.store.Set(ctx, key, value, ttl)
	}, isBackendFailure)
}

func (g *GuardedStore) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	var n int64
	err := g.breaker.Execute(func() error {
		var err error
		n, err = g.store.FlushByPattern(ctx, pattern)
		return err
	}, isBackendFailure)
	return n, err
}

func isBackendFailure(err error) bool {
	return !pkgredis.IsNilError(err)
}
