package fetcher

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/quantmind-br/repofetch-go/internal/domain"
)

// Retrier handles retry logic with exponential backoff
type Retrier struct {
	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
	multiplier      float64
}

// RetrierOptions contains options for creating a Retrier
type RetrierOptions struct {
	MaxAttempts     int // total attempts including the first one
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DefaultRetrierOptions returns default retrier options
func DefaultRetrierOptions() RetrierOptions {
	return RetrierOptions{
		MaxAttempts:     3,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
	}
}

// NewRetrier creates a new Retrier with the given options
func NewRetrier(opts RetrierOptions) *Retrier {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 1 * time.Second
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = 30 * time.Second
	}
	if opts.Multiplier <= 1 {
		opts.Multiplier = 2.0
	}

	return &Retrier{
		maxAttempts:     opts.MaxAttempts,
		initialInterval: opts.InitialInterval,
		maxInterval:     opts.MaxInterval,
		multiplier:      opts.Multiplier,
	}
}

// newBackoff creates a new exponential backoff. Jitter is disabled so
// successive delays strictly double up to the cap.
func (r *Retrier) newBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.Multiplier = r.multiplier
	b.RandomizationFactor = 0
	b.Reset()

	return backoff.WithMaxRetries(b, uint64(r.maxAttempts-1))
}

// Do executes an operation with exponential backoff and reports how many
// attempts were made. Errors that domain.IsRetryable rejects abort the
// loop immediately.
func (r *Retrier) Do(ctx context.Context, operation func() error) (int, error) {
	b := backoff.WithContext(r.newBackoff(), ctx)

	attempts := 0
	var lastErr error

	err := backoff.Retry(func() error {
		attempts++
		err := operation()
		if err == nil {
			return nil
		}

		lastErr = err
		if !domain.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)

	if err != nil {
		return attempts, lastErr
	}
	return attempts, nil
}
