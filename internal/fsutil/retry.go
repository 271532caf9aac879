package fsutil

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"
)

// RetryPolicy controls how often a locked destination is retried.
type RetryPolicy struct {
	// Attempts is the total number of tries, the first one included.
	Attempts int

	// BaseDelay doubles after every failed try, capped at MaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultRetry covers the short window in which a game or an editor still
// holds a file open on Windows.
var DefaultRetry = RetryPolicy{Attempts: 5, BaseDelay: 20 * time.Millisecond, MaxDelay: 500 * time.Millisecond}

// Retry runs fn until it succeeds, fails with a non-retryable error or the
// attempts are used up. Only permission errors are retried.
func Retry(ctx context.Context, p RetryPolicy, fn func() error) error {
	attempts := max(p.Attempts, 1)
	var err error
	for i := range attempts {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err = fn(); err == nil || !retryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(Backoff(i, p.BaseDelay, p.MaxDelay)):
		}
	}
	return err
}

// Backoff returns base * 2^attempt, capped at maxDelay.
func Backoff(attempt int, base, maxDelay time.Duration) time.Duration {
	if base <= 0 {
		base = 10 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = time.Second
	}
	d := base
	for range attempt {
		d *= 2
		if d >= maxDelay {
			return maxDelay
		}
	}
	return min(d, maxDelay)
}

func retryable(err error) bool {
	return errors.Is(err, fs.ErrPermission)
}

func renameRetry(from, to string) error {
	return Retry(context.Background(), DefaultRetry, func() error {
		return os.Rename(from, to)
	})
}
