// Package loader fetches missing manifest assets into a cache handle.
package loader

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.trai.ch/flipfusion/internal/core/domain"
	"go.trai.ch/flipfusion/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Loader runs load passes over a manifest.
type Loader struct {
	fetcher  ports.Fetcher
	logger   ports.Logger
	observer ports.ProgressObserver
	tracer   ports.Tracer
	metrics  ports.Metrics
	policy   domain.LoadPolicy
}

// New creates a Loader. The policy must have a positive batch size.
func New(
	fetcher ports.Fetcher,
	logger ports.Logger,
	observer ports.ProgressObserver,
	tracer ports.Tracer,
	metrics ports.Metrics,
	policy domain.LoadPolicy,
) *Loader {
	return &Loader{
		fetcher:  fetcher,
		logger:   logger,
		observer: observer,
		tracer:   tracer,
		metrics:  metrics,
		policy:   policy,
	}
}

// LoadMissing fetches every manifest entry absent from handle, in batches.
// It reports true once every entry is committed. On failure it reports
// false and the error; entries committed before the failure stay committed.
func (l *Loader) LoadMissing(ctx context.Context, manifest domain.Manifest, handle ports.CacheHandle) (bool, error) {
	ctx, span := l.tracer.Start(ctx, "load pass")
	defer span.End()

	keys, err := handle.Keys(ctx)
	if err != nil {
		span.RecordError(err)
		return false, l.fail(err)
	}

	total := manifest.Len()
	missing := manifest.Missing(keys)
	span.SetAttribute("manifest.total", total)
	span.SetAttribute("manifest.missing", len(missing))

	if len(missing) == 0 {
		l.observer.OnProgress(domain.NewProgress(100, domain.MsgAssetsReady))
		l.metrics.LoadPass(true)
		return true, nil
	}

	cached := total - len(missing)
	l.observer.OnProgress(domain.LoadingNProgress(domain.Percent(cached, total), len(missing)))

	var mu sync.Mutex
	loaded := cached

	for batch := range slices.Chunk(missing, l.policy.BatchSize) {
		// Members of a failed batch are not canceled; the batch always
		// settles before the pass aborts.
		var g errgroup.Group
		g.SetLimit(l.policy.BatchSize)

		for _, path := range batch {
			g.Go(func() error {
				if err := l.FetchAndCache(ctx, handle, path); err != nil {
					return err
				}

				mu.Lock()
				defer mu.Unlock()
				loaded++
				l.observer.OnProgress(domain.LoadedProgress(loaded, total))
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			span.RecordError(err)
			return false, l.fail(err)
		}
	}

	l.observer.OnProgress(domain.NewProgress(100, domain.MsgAllCached))
	l.metrics.LoadPass(true)
	return true, nil
}

func (l *Loader) fail(err error) error {
	l.observer.OnProgress(domain.NewProgress(0, domain.MsgLoadFailed))
	l.metrics.LoadPass(false)

	wrapped := zerr.Wrap(err, domain.ErrLoadPassFailed.Error())
	l.logger.Error(wrapped)
	return wrapped
}

func retryMessage(path domain.AssetPath, attempt, maxRetries int) string {
	return fmt.Sprintf("Retrying %s (attempt %d/%d)", path, attempt, maxRetries)
}
