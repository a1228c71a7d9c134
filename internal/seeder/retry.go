package seeder

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/zstadler/mapproxy/internal/metrics"
)

// RetryPolicy retries an operation with jittered exponential backoff. It
// carries no state across calls beyond its configuration; the in-flight
// attempt counter lives on the stack.
type RetryPolicy struct {
	// MaxAttempts bounds the total number of tries, including the first.
	MaxAttempts int
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration
	// MaxDelay caps the grown delay.
	MaxDelay time.Duration
	// Factor is the per-attempt growth multiplier.
	Factor float64

	sleep func(time.Duration)
}

// NewRetryPolicy builds a policy with the default bounds.
func NewRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    30 * time.Second,
		Factor:      2.0,
		sleep:       time.Sleep,
	}
}

// Run invokes op, retrying with backoff while retryable reports the error as
// transient. Non-retryable errors propagate immediately; exhausting
// MaxAttempts returns the last error wrapped.
func (p *RetryPolicy) Run(op func() error, retryable func(error) bool) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			sleep(p.Backoff(attempt - 1))
		}
		if err = op(); err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		metrics.RetryObserved()
	}
	return fmt.Errorf("giving up after %d attempts: %w", maxAttempts, err)
}

// Backoff returns the wait before retry number attempt+1. The grown delay is
// halved and topped up with random jitter so concurrent workers do not retry
// in lockstep.
func (p *RetryPolicy) Backoff(attempt int) time.Duration {
	factor := p.Factor
	if factor < 1 {
		factor = 2.0
	}
	delay := float64(p.BaseDelay) * math.Pow(factor, float64(attempt))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	half := time.Duration(delay / 2)
	return half + randomJitter(half)
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}
