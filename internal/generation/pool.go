package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"reelgen/internal/credentials"
	"reelgen/internal/logging"
	"reelgen/internal/retry"
	"reelgen/internal/services"
)

// DefaultWorkers is the pool size used when none is configured.
const DefaultWorkers = 2

// UnitError records the final error of one failed unit.
type UnitError struct {
	Index int
	Err   error
}

// PartialFailure reports the units that exhausted their attempts while their
// siblings ran to completion. Outputs of successful siblings stay on disk.
type PartialFailure struct {
	Total  int
	Failed []UnitError
}

func (p *PartialFailure) Error() string {
	parts := make([]string, 0, len(p.Failed))
	for _, failure := range p.Failed {
		parts = append(parts, fmt.Sprintf("asset %d: %v", failure.Index, failure.Err))
	}
	return fmt.Sprintf("%d of %d clips failed: %s", len(p.Failed), p.Total, strings.Join(parts, "; "))
}

func (p *PartialFailure) Is(target error) bool {
	return target == services.ErrPartialFailure
}

func (p *PartialFailure) Unwrap() []error {
	errs := make([]error, 0, len(p.Failed))
	for _, failure := range p.Failed {
		errs = append(errs, failure.Err)
	}
	return errs
}

// FailedIndices lists the failed asset indices in ascending order.
func (p *PartialFailure) FailedIndices() []int {
	indices := make([]int, 0, len(p.Failed))
	for _, failure := range p.Failed {
		indices = append(indices, failure.Index)
	}
	return indices
}

// Pool produces clips concurrently, sharing one credential ring.
type Pool struct {
	ring    *credentials.Ring[Generator]
	workers int
	policy  retry.Policy
	logger  *slog.Logger
}

// NewPool builds a pool. workers <= 0 selects DefaultWorkers and a zero
// policy attempt budget selects retry.DefaultMaxAttempts.
func NewPool(ring *credentials.Ring[Generator], workers int, policy retry.Policy, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = retry.DefaultMaxAttempts
	}
	if policy.Retryable == nil {
		policy.Retryable = retryableUnitError
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pool{ring: ring, workers: workers, policy: policy, logger: logger}
}

// Ready fails when the credential ring is empty.
func (p *Pool) Ready() error {
	if p == nil || p.ring == nil || p.ring.Len() == 0 {
		return errors.New("no generation credentials configured")
	}
	return nil
}

// Run processes every unit and waits for all of them. A failing unit never
// cancels its siblings; when any unit fails the result is a *PartialFailure.
func (p *Pool) Run(ctx context.Context, units []Unit) error {
	if len(units) == 0 {
		return nil
	}
	if p.ring == nil || p.ring.Len() == 0 {
		return services.Wrap(services.ErrNoCredentials, "", "generate clips", "no generation credentials configured", nil)
	}

	var (
		mu     sync.Mutex
		failed []UnitError
		g      errgroup.Group
	)
	g.SetLimit(p.workers)
	for _, unit := range units {
		g.Go(func() error {
			if err := p.runUnit(ctx, unit); err != nil {
				mu.Lock()
				failed = append(failed, UnitError{Index: unit.Index, Err: err})
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) == 0 {
		return nil
	}
	slices.SortFunc(failed, func(a, b UnitError) int { return a.Index - b.Index })
	return &PartialFailure{Total: len(units), Failed: failed}
}

func (p *Pool) runUnit(ctx context.Context, unit Unit) error {
	ctx = services.WithAssetIndex(ctx, unit.Index)
	logger := logging.WithContext(ctx, p.logger)

	policy := p.policy
	policy.OnFailure = func(attempt int, err error) {
		logging.WarnWithContext(logger, "clip attempt failed", logging.EventUnitAttemptFailed,
			logging.Int(logging.FieldAttempt, attempt),
			logging.Int("max_attempts", policy.MaxAttempts),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "rotating to the next credential"),
		)
		if _, advanceErr := p.ring.Advance(); advanceErr == nil {
			logging.InfoEvent(logger, "credential rotated", logging.EventCredentialRotated,
				logging.Int("credential_index", p.ring.Index()),
				logging.Int("credential_count", p.ring.Len()),
			)
		}
	}

	logger.Debug("clip generation started", logging.String("image", unit.ImagePath))
	res := policy.Run(ctx, func(ctx context.Context, attempt int) error {
		gen, err := p.ring.Current()
		if err != nil {
			return err
		}
		url, err := gen.Generate(ctx, unit.Prompt, unit.ImagePath)
		if err != nil {
			return err
		}
		return gen.Download(ctx, url, unit.OutputPath)
	})
	if res.Err != nil {
		logging.ErrorWithContext(logger, "clip generation failed", logging.EventStageFailure,
			append(logging.Failure(res.Err), logging.Int("attempts", res.Attempts))...)
		return res.Err
	}
	logger.Info("clip generated",
		logging.String("output", unit.OutputPath),
		logging.Int("attempts", res.Attempts),
	)
	return nil
}

// retryableUnitError keeps retrying through provider, timeout and transport
// failures but stops on problems another credential cannot fix.
func retryableUnitError(err error) bool {
	switch {
	case errors.Is(err, services.ErrNoCredentials), errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrConfiguration):
		return false
	default:
		return true
	}
}
