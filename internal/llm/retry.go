package llm

import (
	"context"
	"log/slog"
	"time"
)

// RetryPolicy retries an attempt a bounded number of times with doubling backoff.
// The delay before retry n (1-based) is Base * 2^n, so a Base of one second waits
// 2s, 4s and 8s across three retries.
type RetryPolicy struct {
	MaxRetries int
	Base       time.Duration
	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy allows three retries after the first attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, Base: time.Second}
}

// Backoff returns the delay before retry n.
func (p RetryPolicy) Backoff(n int) time.Duration {
	return p.Base << n
}

// Attempt performs one try. It reports whether a failure may be retried.
type Attempt func(ctx context.Context, attempt int) (retryable bool, err error)

// Do runs fn until it succeeds, fails with a non-retryable error, or the retry budget
// is spent. It returns the number of attempts made and the last error.
func (p RetryPolicy) Do(ctx context.Context, logger *slog.Logger, fn Attempt) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	attempts := 0
	for {
		attempts++
		retryable, err := fn(ctx, attempts)
		if err == nil {
			return attempts, nil
		}
		retry := attempts - 1
		if !retryable || retry >= p.MaxRetries {
			return attempts, err
		}
		delay := p.Backoff(retry + 1)
		logger.Warn("llm.retry.backoff",
			"attempt", attempts,
			"next_delay_ms", delay.Milliseconds(),
			"error", err,
		)
		if serr := sleep(ctx, delay); serr != nil {
			return attempts, serr
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
