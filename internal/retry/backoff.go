// Package retry runs an operation with bounded attempts and exponential
// backoff. Once the attempts are used up the last failure is returned
// wrapped in errors.ErrRetriesExhausted.
package retry

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	apperrors "povcli/internal/errors"
)

// Config defines retry behavior
type Config struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	Multiplier    float64
	JitterEnabled bool
}

// DefaultConfig returns production retry settings
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   8,
		InitialDelay:  time.Second,
		MaxDelay:      time.Minute,
		Multiplier:    2.0,
		JitterEnabled: true,
	}
}

// permanentError marks a failure that retrying cannot fix
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps err so WithBackoff returns it without further attempts
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// OnRetry is called before sleeping ahead of the next attempt
type OnRetry func(attempt int, delay time.Duration, err error)

// WithBackoff executes fn until it succeeds, returns a permanent error, the
// context ends, or cfg.MaxAttempts is reached.
func WithBackoff(ctx context.Context, cfg Config, logger *slog.Logger, operation string, fn func(ctx context.Context) error, hooks ...OnRetry) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			if attempt > 1 {
				logger.InfoContext(ctx, "operation succeeded after retries",
					slog.String("operation", operation),
					slog.Int("attempts", attempt))
			}
			return nil
		}

		var perm *permanentError
		if stderrors.As(lastErr, &perm) {
			return perm.err
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		delay := calculateBackoff(cfg, attempt)
		logger.WarnContext(ctx, "operation failed, retrying",
			slog.String("operation", operation),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", cfg.MaxAttempts),
			slog.Duration("retry_in", delay),
			slog.String("error", lastErr.Error()))
		for _, hook := range hooks {
			hook(attempt, delay, lastErr)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}

	return apperrors.RetriesExhausted(cfg.MaxAttempts, lastErr)
}

func calculateBackoff(cfg Config, attempt int) time.Duration {
	multiplier := cfg.Multiplier
	if multiplier < 1 {
		multiplier = 2
	}
	delay := float64(cfg.InitialDelay) * math.Pow(multiplier, float64(attempt-1))

	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}

	// +/-15% jitter
	if cfg.JitterEnabled {
		jitter := rand.Float64() * 0.3 * delay
		delay = delay + jitter - (0.15 * delay)
	}

	return time.Duration(delay)
}
