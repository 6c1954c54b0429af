package github

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound marks a resource that does not exist on the remote. Callers
// must fold it into a normal empty/false result, never propagate it as a
// fatal analyzer failure.
var ErrNotFound = errors.New("github: resource not found")

// TransientError wraps a rate-limit, timeout, or connectivity failure on a
// remote call. Callers may retry; when retries exhaust, the dependent
// analyzer degrades rather than aborting the pipeline.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("github: transient failure on %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

const (
	retryAttempts = 3
	retryBaseWait = 500 * time.Millisecond
)

// withRetry runs fn with bounded retry and doubling backoff for transient
// failures. Non-transient errors and context cancellation stop immediately.
func withRetry(ctx context.Context, fn func() error) error {
	wait := retryBaseWait
	var err error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if err = fn(); err == nil || !IsTransient(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return &TransientError{Op: "retry", Err: ctx.Err()}
		case <-time.After(wait):
		}
		wait *= 2
	}
	return err
}
