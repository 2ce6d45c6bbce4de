package generation

import (
	"context"
	"fmt"
	"time"

	"reelgen/internal/services"
)

// waitFor sleeps interval, then calls check, until check reports done, check
// fails, ctx ends, or timeout elapses. The timeout fails with
// services.ErrTimeout.
func waitFor(ctx context.Context, op string, interval, timeout time.Duration, check func(context.Context) (bool, error)) error {
	if interval <= 0 {
		interval = time.Second
	}
	deadline := time.Now().Add(timeout)
	timer := time.NewTimer(interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if !time.Now().Before(deadline) {
			return services.Wrap(services.ErrTimeout, "", op, fmt.Sprintf("job not finished after %s", timeout), nil)
		}
		timer.Reset(interval)
	}
}
