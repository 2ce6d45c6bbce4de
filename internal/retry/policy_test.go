package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyStopsOnSuccess(t *testing.T) {
	calls := 0
	res := Policy{MaxAttempts: 3}.Run(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		if attempt < 2 {
			return errors.New("flaky")
		}
		return nil
	})

	require.True(t, res.OK())
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, 2, calls)
}

func TestPolicyReturnsLastErrorAfterBudget(t *testing.T) {
	var failures []int
	res := Policy{
		MaxAttempts: 3,
		OnFailure: func(attempt int, err error) {
			failures = append(failures, attempt)
		},
	}.Run(context.Background(), func(ctx context.Context, attempt int) error {
		return errors.New("attempt " + string(rune('0'+attempt)))
	})

	require.Error(t, res.Err)
	assert.Equal(t, "attempt 3", res.Err.Error())
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, []int{1, 2, 3}, failures)
}

func TestPolicyDefaultsAttemptBudget(t *testing.T) {
	res := Policy{}.Run(context.Background(), func(ctx context.Context, attempt int) error {
		return errors.New("nope")
	})
	assert.Equal(t, DefaultMaxAttempts, res.Attempts)
}

func TestPolicyNonRetryableErrorStopsImmediately(t *testing.T) {
	permanent := errors.New("permanent")
	hookCalls := 0
	res := Policy{
		MaxAttempts: 5,
		Retryable:   func(err error) bool { return !errors.Is(err, permanent) },
		OnFailure:   func(int, error) { hookCalls++ },
	}.Run(context.Background(), func(ctx context.Context, attempt int) error {
		return permanent
	})

	assert.ErrorIs(t, res.Err, permanent)
	assert.Equal(t, 1, res.Attempts)
	assert.Zero(t, hookCalls)
}

func TestPolicyHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	res := Policy{MaxAttempts: 5, Delay: time.Hour}.Run(ctx, func(ctx context.Context, attempt int) error {
		cancel()
		return errors.New("fail")
	})

	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, 1, res.Attempts)
}

func TestPolicyExponentialBackoffWaits(t *testing.T) {
	start := time.Now()
	res := Policy{
		MaxAttempts: 3,
		Delay:       5 * time.Millisecond,
		MaxDelay:    10 * time.Millisecond,
		Exponential: true,
	}.Run(context.Background(), func(ctx context.Context, attempt int) error {
		return errors.New("fail")
	})

	assert.Equal(t, 3, res.Attempts)
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}
