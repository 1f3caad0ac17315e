package pipeline

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"go-measure-pipeline/internal/errors"
	"go-measure-pipeline/internal/logger"
	"go-measure-pipeline/internal/model"
)

// DefaultRetryConfig is used when no retry section is configured
var DefaultRetryConfig = model.RetryConfig{
	MaxAttempts:       3,
	InitialDelay:      500 * time.Millisecond,
	MaxDelay:          10 * time.Second,
	BackoffMultiplier: 2.0,
}

// IsRetryable reports whether a failed operation may be re-driven.
// Only storage failures qualify; parse and validation errors are final.
func IsRetryable(err error) bool {
	return errors.IsStorageError(err) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// CalculateDelay returns the backoff before the given retry attempt (1-based), capped at MaxDelay
func CalculateDelay(cfg model.RetryConfig, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	mult := cfg.BackoffMultiplier
	if mult < 1 {
		mult = 1
	}
	delay := time.Duration(float64(cfg.InitialDelay) * math.Pow(mult, float64(attempt-1)))
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}

// Retry runs op until it succeeds, returns a non-retryable error, or the
// attempts are exhausted. The last error is returned.
func Retry(ctx context.Context, cfg model.RetryConfig, log *zap.SugaredLogger, op func(ctx context.Context) error) error {
	log = logger.Or(log)
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var err error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if !IsRetryable(err) || attempt == cfg.MaxAttempts {
			return err
		}

		delay := CalculateDelay(cfg, attempt)
		log.Warnw("Retrying after storage failure",
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"delay", delay,
			"error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Wrap(ctx.Err(), "retry cancelled")
		case <-timer.C:
		}
	}
	return err
}
