// Package bootstrap drives the startup load passes and publishes readiness.
package bootstrap

import (
	"context"
	"sync"
	"time"

	"go.trai.ch/flipfusion/internal/core/domain"
	"go.trai.ch/flipfusion/internal/core/ports"
	"go.trai.ch/zerr"
)

// PassLoader runs a single load pass.
type PassLoader interface {
	LoadMissing(ctx context.Context, manifest domain.Manifest, handle ports.CacheHandle) (bool, error)
}

// Result is the outcome of a bootstrap run.
type Result struct {
	Ready    bool
	Degraded bool
	// Attempts is the number of load passes started.
	Attempts int
	// Err is the final failure when Degraded is set.
	Err error
}

// Sequencer opens the cache and retries load passes until the manifest is
// committed or the attempt budget is spent.
type Sequencer struct {
	store    ports.CacheStore
	loader   PassLoader
	manifest domain.Manifest
	location domain.CacheLocation
	policy   domain.LoadPolicy
	observer ports.ProgressObserver
	logger   ports.Logger
	tracer   ports.Tracer
	signal   *Signal

	once   sync.Once
	result Result
}

// NewSequencer creates a Sequencer for manifest stored at loc.
func NewSequencer(
	store ports.CacheStore,
	loader PassLoader,
	manifest domain.Manifest,
	loc domain.CacheLocation,
	policy domain.LoadPolicy,
	observer ports.ProgressObserver,
	logger ports.Logger,
	tracer ports.Tracer,
) *Sequencer {
	return &Sequencer{
		store:    store,
		loader:   loader,
		manifest: manifest,
		location: loc,
		policy:   policy,
		observer: observer,
		logger:   logger,
		tracer:   tracer,
		signal:   NewSignal(),
	}
}

// Signal returns the completion signal of this sequencer.
func (s *Sequencer) Signal() *Signal {
	return s.signal
}

// Run performs the bootstrap. Only the first call does any work; later
// calls return the same Result. Run never panics on load failures and
// always reaches a terminal state.
func (s *Sequencer) Run(ctx context.Context) Result {
	s.once.Do(func() {
		s.result = s.run(ctx)
		if s.result.Ready {
			s.signal.set(domain.StateReady)
		} else {
			s.signal.set(domain.StateDegraded)
		}
	})
	return s.result
}

func (s *Sequencer) run(ctx context.Context) Result {
	ctx, span := s.tracer.Start(ctx, "bootstrap")
	defer span.End()

	s.signal.set(domain.StateLoading)
	s.observer.OnProgress(domain.NewProgress(0, domain.MsgCheckingCache))

	var lastErr error
	attempts := 0
	for attempts < s.policy.Attempts {
		attempts++

		ok, err := s.attempt(ctx)
		if ok {
			span.SetAttribute("bootstrap.attempts", attempts)
			return Result{Ready: true, Attempts: attempts}
		}
		lastErr = err

		if attempts == s.policy.Attempts || ctx.Err() != nil {
			break
		}
		s.observer.OnProgress(domain.RetryingProgress(attempts, s.policy.Attempts))
		if err := wait(ctx, s.policy.AttemptDelay); err != nil {
			lastErr = err
			break
		}
	}

	s.observer.OnProgress(domain.NewProgress(0, domain.MsgLimitedAssets))

	err := zerr.With(zerr.Wrap(lastErr, domain.ErrBootstrapFailed.Error()), "attempts", attempts)
	s.logger.Error(err)
	span.SetAttribute("bootstrap.attempts", attempts)
	span.RecordError(err)

	return Result{Degraded: true, Attempts: attempts, Err: err}
}

func (s *Sequencer) attempt(ctx context.Context) (bool, error) {
	handle, err := s.store.Open(ctx, s.location)
	if err != nil {
		s.observer.OnProgress(domain.NewProgress(0, domain.MsgLoadFailed))
		s.logger.Error(err)
		return false, err
	}
	return s.loader.LoadMissing(ctx, s.manifest, handle)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
