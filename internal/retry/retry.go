package retry

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
)

// Config configures retry behavior
type Config struct {
	MaxAttempts  int           // Maximum number of attempts, including the first
	InitialDelay time.Duration // Delay before the first retry
	MaxDelay     time.Duration // Cap on the delay between retries
	Multiplier   float64       // Multiplier for exponential backoff
}

// DefaultConfig returns 3 attempts with 1s, 2s backoff.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

// Result contains information about the retry operation
type Result struct {
	Attempts      int
	Success       bool
	TotalDuration time.Duration
	LastError     error
}

// Func is a function that can be retried
type Func func(ctx context.Context, attempt int) error

// Classifier decides whether an error is worth another attempt.
type Classifier func(err error) bool

// Always retries every error.
func Always(error) bool { return true }

// WithExponentialBackoff runs fn until it succeeds, returns a non-retryable error,
// exhausts MaxAttempts, or ctx is done.
func WithExponentialBackoff(ctx context.Context, cfg Config, logger *zap.Logger, retryable Classifier, fn Func) *Result {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retryable == nil {
		retryable = Always
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	start := time.Now()
	result := &Result{}

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result.Attempts = attempt

		err := fn(ctx, attempt)
		if err == nil {
			result.Success = true
			result.LastError = nil
			result.TotalDuration = time.Since(start)
			if attempt > 1 {
				logger.Info("operation succeeded after retry",
					zap.Int("attempts", attempt),
					zap.Duration("total_duration", result.TotalDuration))
			}
			return result
		}
		result.LastError = err

		if !retryable(err) {
			break
		}
		if attempt >= cfg.MaxAttempts {
			logger.Warn("operation failed after max attempts",
				zap.Int("attempts", attempt),
				zap.Error(err))
			break
		}
		if ctx.Err() != nil {
			result.LastError = ctx.Err()
			break
		}

		delay := calculateDelay(cfg, attempt)
		logger.Debug("operation failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", cfg.MaxAttempts),
			zap.Duration("delay", delay),
			zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			result.LastError = ctx.Err()
			result.TotalDuration = time.Since(start)
			return result
		}
	}

	result.TotalDuration = time.Since(start)
	return result
}

// calculateDelay returns initialDelay * multiplier^(attempt-1), capped at MaxDelay
func calculateDelay(cfg Config, attempt int) time.Duration {
	multiplier := cfg.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	delay := float64(cfg.InitialDelay) * math.Pow(multiplier, float64(attempt-1))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return time.Duration(delay)
}
