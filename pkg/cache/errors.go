package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNetwork marks a failure to reach a cache backend.
	ErrNetwork = errors.New("network error")

	// ErrCacheMiss is returned by backend calls for a key that is not stored.
	ErrCacheMiss = errors.New("cache miss")
)

// RetryableError marks an error as transient.
type RetryableError struct{ Err error }

// Retryable wraps err as a RetryableError. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err was wrapped with Retryable.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// RetryPolicy bounds how often and how patiently a call is retried. The delay
// doubles after every failed attempt.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultRetry is used by the Redis backend.
var DefaultRetry = RetryPolicy{Attempts: 3, Delay: 100 * time.Millisecond}

// Do calls fn until it succeeds, returns an error not marked Retryable, or
// the attempts run out. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := max(p.Attempts, 1)
	delay := p.Delay
	var err error

	for i := range attempts {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return err
}

// RetryWithBackoff runs fn under DefaultRetry.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return DefaultRetry.Do(ctx, fn)
}
