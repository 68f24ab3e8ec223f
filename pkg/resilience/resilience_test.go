package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend down")

func fail() error    { return errBackend }
func succeed() error { return nil }

func TestBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker("redis", BreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(fail, nil), errBackend)
	}
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil }, nil)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerSuccessResetsCount(t *testing.T) {
	cb := NewCircuitBreaker("redis", BreakerConfig{FailureThreshold: 2})
	_ = cb.Execute(fail, nil)
	_ = cb.Execute(succeed, nil)
	_ = cb.Execute(fail, nil)
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerIgnoresNonFailures(t *testing.T) {
	miss := errors.New("miss")
	cb := NewCircuitBreaker("redis", BreakerConfig{FailureThreshold: 1})
	err := cb.Execute(func() error { return miss }, func(err error) bool { return !errors.Is(err, miss) })
	assert.ErrorIs(t, err, miss)
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker("redis", BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second})
	cb.now = func() time.Time { return now }

	_ = cb.Execute(fail, nil)
	require.Equal(t, StateOpen, cb.State())

	now = now.Add(2 * time.Second)
	assert.ErrorIs(t, cb.Execute(fail, nil), errBackend, "probe runs once the timeout passed")
	assert.Equal(t, StateOpen, cb.State())

	now = now.Add(2 * time.Second)
	require.NoError(t, cb.Execute(succeed, nil))
	assert.Equal(t, StateClosed, cb.State())
}

func TestRetrySucceedsEventually(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), "connect", RetryConfig{MaxAttempts: 4, InitialDelay: time.Millisecond}, func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errBackend
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryGivesUp(t *testing.T) {
	err := Retry(context.Background(), "connect", RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond}, func(context.Context) error {
		return errBackend
	})
	assert.ErrorIs(t, err, errBackend)
	assert.Contains(t, err.Error(), "connect: all 2 attempts failed")
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, "connect", RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond}, func(context.Context) error {
		return errBackend
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComputeDelayCapped(t *testing.T) {
	cfg := RetryConfig{InitialDelay: time.Second, MaxDelay: 3 * time.Second, Multiplier: 10, JitterFraction: 0.1}
	assert.Equal(t, 3*time.Second, computeDelay(5, cfg))
}
