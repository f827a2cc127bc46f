package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "povcli/internal/errors"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func fastConfig(attempts int) Config {
	return Config{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
}

func TestWithBackoff_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	var retried []int

	err := WithBackoff(context.Background(), fastConfig(5), quietLogger, "fetch", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("503")
		}
		return nil
	}, func(attempt int, _ time.Duration, _ error) {
		retried = append(retried, attempt)
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestWithBackoff_ExhaustsAttempts(t *testing.T) {
	last := errors.New("still failing")
	calls := 0

	err := WithBackoff(context.Background(), fastConfig(3), quietLogger, "fetch", func(context.Context) error {
		calls++
		return last
	})

	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, apperrors.ErrRetriesExhausted)
	assert.ErrorIs(t, err, last)
}

func TestWithBackoff_PermanentStopsImmediately(t *testing.T) {
	notFound := errors.New("404")
	calls := 0

	err := WithBackoff(context.Background(), fastConfig(5), quietLogger, "fetch", func(context.Context) error {
		calls++
		return Permanent(notFound)
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, notFound, err)
	assert.NotErrorIs(t, err, apperrors.ErrRetriesExhausted)
}

func TestWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxAttempts: 5, InitialDelay: time.Hour, MaxDelay: time.Hour}

	done := make(chan error, 1)
	go func() {
		done <- WithBackoff(ctx, cfg, quietLogger, "fetch", func(context.Context) error {
			return errors.New("boom")
		})
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("retry loop did not observe cancellation")
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := Config{InitialDelay: time.Second, MaxDelay: 10 * time.Second, Multiplier: 2}

	assert.Equal(t, time.Second, calculateBackoff(cfg, 1))
	assert.Equal(t, 4*time.Second, calculateBackoff(cfg, 3))
	assert.Equal(t, 10*time.Second, calculateBackoff(cfg, 10))

	cfg.JitterEnabled = true
	for i := 0; i < 50; i++ {
		d := calculateBackoff(cfg, 2)
		assert.GreaterOrEqual(t, d, 1700*time.Millisecond)
		assert.LessOrEqual(t, d, 2300*time.Millisecond)
	}
}
