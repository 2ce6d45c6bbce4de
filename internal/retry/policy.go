// Package retry provides an explicit retry policy for failure-prone upstream
// calls: a bounded attempt budget, an optional backoff between attempts, and a
// failover hook invoked after every failed attempt (used to rotate
// credentials before the next try).
package retry

import (
	"context"
	"errors"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

// DefaultMaxAttempts is the attempt budget used when a policy leaves it unset.
const DefaultMaxAttempts = 3

// Policy describes how an operation is retried.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int
	// Delay is the wait before the second attempt. Zero retries immediately.
	Delay time.Duration
	// MaxDelay caps exponential growth. Ignored unless Exponential is set.
	MaxDelay time.Duration
	// Exponential doubles the delay after every failed attempt.
	Exponential bool
	// Retryable decides whether an error may be retried. Nil retries everything
	// except context cancellation.
	Retryable func(error) bool
	// OnFailure runs after each failed attempt with a retryable error, the last
	// one included.
	OnFailure func(attempt int, err error)
}

// Result reports the outcome of a policy run.
type Result struct {
	Attempts int
	Err      error
}

// OK reports whether the operation eventually succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Run executes fn until it succeeds, returns a non-retryable error, the
// attempt budget is exhausted, or ctx is done. The error of the last attempt is
// returned in Result.Err.
func (p Policy) Run(ctx context.Context, fn func(ctx context.Context, attempt int) error) Result {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	attempts := 0
	err := goretry.Do(ctx, p.backoff(maxAttempts), func(ctx context.Context) error {
		attempts++
		err := fn(ctx, attempts)
		if err == nil {
			return nil
		}
		if !p.retryable(err) {
			return err
		}
		if p.OnFailure != nil {
			p.OnFailure(attempts, err)
		}
		return goretry.RetryableError(err)
	})
	return Result{Attempts: attempts, Err: err}
}

func (p Policy) retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

func (p Policy) backoff(maxAttempts int) goretry.Backoff {
	var b goretry.Backoff
	switch {
	case p.Delay <= 0:
		b = goretry.BackoffFunc(func() (time.Duration, bool) { return 0, false })
	case p.Exponential:
		b = goretry.NewExponential(p.Delay)
		if p.MaxDelay > 0 {
			b = goretry.WithCappedDuration(p.MaxDelay, b)
		}
	default:
		b = goretry.NewConstant(p.Delay)
	}
	return goretry.WithMaxRetries(uint64(maxAttempts-1), b)
}
