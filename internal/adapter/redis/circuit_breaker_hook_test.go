package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sbcarpet/showroom/internal/adapter/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runThroughHook(hook *CircuitBreakerHook, err error) error {
	ctx := context.Background()
	process := hook.ProcessHook(func(context.Context, goredis.Cmder) error { return err })
	return process(ctx, goredis.NewCmd(ctx, "evalsha", "abc", 1, "rate_limit:contact:1.2.3.4"))
}

func TestCircuitBreakerHook_NormalOperation(t *testing.T) {
	hook := NewCircuitBreakerHook(nil)

	for range 10 {
		require.NoError(t, runThroughHook(hook, nil))
	}

	assert.Equal(t, circuitbreaker.ClosedState, hook.State())
}

func TestCircuitBreakerHook_TransientFailures(t *testing.T) {
	hook := NewCircuitBreakerHook(nil)

	for range 2 {
		err := runThroughHook(hook, errors.New("connection refused"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, circuitbreaker.ErrOpen)
	}

	assert.Equal(t, circuitbreaker.ClosedState, hook.State())
}

func TestCircuitBreakerHook_OpensAfterSustainedFailures(t *testing.T) {
	m := metrics.NewRedisMetrics(prometheus.NewRegistry())
	hook := NewCircuitBreakerHook(m)

	for range 5 {
		_ = runThroughHook(hook, errors.New("i/o timeout"))
	}

	assert.Equal(t, circuitbreaker.OpenState, hook.State())
	assert.InDelta(t, 2.0, testutil.ToFloat64(m.BreakerState), 0.001)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.BreakerChanges.WithLabelValues(circuitbreaker.OpenState.String())), 0.001)
}

func TestCircuitBreakerHook_FailsFastWhenOpen(t *testing.T) {
	hook := NewCircuitBreakerHook(nil)
	for range 5 {
		_ = runThroughHook(hook, errors.New("i/o timeout"))
	}
	require.Equal(t, circuitbreaker.OpenState, hook.State())

	called := false
	ctx := context.Background()
	process := hook.ProcessHook(func(context.Context, goredis.Cmder) error {
		called = true
		return nil
	})
	cmd := goredis.NewCmd(ctx, "ping")
	err := process(ctx, cmd)

	require.ErrorIs(t, err, circuitbreaker.ErrOpen)
	require.ErrorIs(t, cmd.Err(), circuitbreaker.ErrOpen)
	assert.False(t, called)
}

func TestCircuitBreakerHook_IgnoresNilReplies(t *testing.T) {
	hook := NewCircuitBreakerHook(nil)

	for range 10 {
		_ = runThroughHook(hook, goredis.Nil)
	}

	assert.Equal(t, circuitbreaker.ClosedState, hook.State())
}

func TestCircuitBreakerHook_IgnoresCallerCancellation(t *testing.T) {
	hook := NewCircuitBreakerHook(nil)

	for range 10 {
		_ = runThroughHook(hook, context.Canceled)
	}

	assert.Equal(t, circuitbreaker.ClosedState, hook.State())
}

func TestCircuitBreakerHook_PipelineFailures(t *testing.T) {
	hook := NewCircuitBreakerHook(nil)
	ctx := context.Background()
	pipeline := hook.ProcessPipelineHook(func(context.Context, []goredis.Cmder) error {
		return errors.New("connection reset by peer")
	})

	for range 5 {
		_ = pipeline(ctx, []goredis.Cmder{goredis.NewStatusCmd(ctx, "ping")})
	}

	assert.Equal(t, circuitbreaker.OpenState, hook.State())
	assert.ErrorIs(t, pipeline(ctx, nil), circuitbreaker.ErrOpen)
}

func TestCircuitBreakerHook_ErrorRepliesKeepBreakerClosed(t *testing.T) {
	hook := NewCircuitBreakerHook(nil)
	client := setupTestClient(t, hook)
	ctx := context.Background()

	for range 6 {
		err := client.Do(ctx, "EVALSHA", "0000000000000000000000000000000000000000", 0).Err()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "NOSCRIPT")
	}

	assert.Equal(t, circuitbreaker.ClosedState, hook.State())
}

func TestNewClient_GivesUpWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	_, err := NewClient(ctx, "redis://127.0.0.1:1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping redis")
}
