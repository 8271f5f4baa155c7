// Package retry provides a bounded retry with configurable backoff, used for
// every call that races an eventually-consistent external index.
package retry

import (
	"context"
	"fmt"
	"time"
)

// DelayFunc returns the wait before the next attempt, given the zero-based
// index of the attempt that just failed.
type DelayFunc func(attempt int) time.Duration

// Linear yields base, base+step, base+2*step, ...
func Linear(base, step time.Duration) DelayFunc {
	return func(attempt int) time.Duration {
		return base + step*time.Duration(attempt)
	}
}

// Do runs fn up to attempts times, waiting delay(i) after failed attempt i.
// It returns nil as soon as fn succeeds. After the final failure it returns
// the last error wrapped with the attempt count; no delay follows the final
// attempt. Context cancellation during a wait aborts with ctx.Err().
func Do(ctx context.Context, attempts int, delay DelayFunc, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("retry: attempts must be >= 1, got %d", attempts)
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay(i)):
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", attempts, err)
}
