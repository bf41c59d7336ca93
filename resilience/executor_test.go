package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteAttemptsOnce(t *testing.T) {
	exec := NewExecutor(Config{BreakerEnabled: false})

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), "op", time.Second, func(context.Context) error {
		attempts++
		return errTemp
	}, nil)

	require.ErrorIs(t, err, errTemp)
	assert.Equal(t, 1, attempts)
}

func TestExecuteAppliesTimeout(t *testing.T) {
	exec := NewExecutor(Config{BreakerEnabled: false})

	err := exec.Execute(context.Background(), "slow", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, nil)

	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestExecuteParentCancelIsNotTimeout(t *testing.T) {
	exec := NewExecutor(Config{BreakerEnabled: false})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := exec.Execute(ctx, "op", time.Second, func(context.Context) error {
		called = true
		return nil
	}, nil)

	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.False(t, errors.Is(err, ErrTimeout))
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	exec := NewExecutor(Config{
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
	})

	errTemp := errors.New("temporary")
	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "op", time.Second, func(context.Context) error {
			return errTemp
		}, nil)
		require.ErrorIs(t, err, errTemp)
	}

	err := exec.Execute(context.Background(), "op", time.Second, func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, nil)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.True(t, IsCircuitOpen(err))
}

func TestExecuteIgnoresUnrecordedFailures(t *testing.T) {
	exec := NewExecutor(Config{
		BreakerEnabled:      true,
		BreakerMinRequests:  1,
		BreakerFailureRatio: 0.5,
	})

	errSchema := errors.New("schema")
	classifier := func(err error) bool { return !errors.Is(err, errSchema) }
	for i := 0; i < 5; i++ {
		err := exec.Execute(context.Background(), "op", time.Second, func(context.Context) error {
			return errSchema
		}, classifier)
		require.ErrorIs(t, err, errSchema)
	}
}

func TestExecuteCancelledCallerBypassesCircuit(t *testing.T) {
	exec := NewExecutor(Config{
		BreakerEnabled:      true,
		BreakerMinRequests:  1,
		BreakerFailureRatio: 0.5,
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 5; i++ {
		err := exec.Execute(ctx, "op", time.Second, func(context.Context) error { return nil }, nil)
		require.ErrorIs(t, err, context.Canceled)
	}

	err := exec.Execute(context.Background(), "op", time.Second, func(context.Context) error { return nil }, nil)
	assert.NoError(t, err)
}
