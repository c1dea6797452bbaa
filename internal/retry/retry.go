// Package retry runs an operation under an explicit retry policy: a bounded
// number of retries, a linearly growing delay, and a caller-defined split
// between transient and permanent failures.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds how often and how patiently an operation is retried.
type Policy struct {
	// MaxRetries is the number of attempts allowed after the first one.
	MaxRetries int
	// Step is the delay before the first retry; each further retry waits one Step longer.
	Step time.Duration
}

// Operation is one attempt. Returning an error wrapped by Permanent stops
// retrying immediately.
type Operation func(ctx context.Context) error

// Notify is called after a failed attempt, before sleeping for wait.
type Notify func(err error, wait time.Duration)

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op until it succeeds, fails permanently, the retries are used up,
// or ctx is done. It returns the number of attempts made and the last error.
func (p Policy) Do(ctx context.Context, op Operation, notify Notify) (int, error) {
	attempts := 0
	b := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{step: p.Step}, uint64(max(p.MaxRetries, 0))),
		ctx,
	)
	err := backoff.RetryNotify(func() error {
		attempts++
		return op(ctx)
	}, b, backoff.Notify(notify))
	return attempts, err
}

// linearBackOff waits step, 2*step, 3*step, ... between attempts.
type linearBackOff struct {
	step time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return time.Duration(b.n) * b.step
}

func (b *linearBackOff) Reset() { b.n = 0 }
