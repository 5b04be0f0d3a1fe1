package loader

import (
	"context"
	"time"

	"go.trai.ch/flipfusion/internal/core/domain"
	"go.trai.ch/flipfusion/internal/core/ports"
)

// FetchAndCache fetches path with retries and commits the response to handle.
//
// The first attempt is followed by at most MaxRetries retries, each after a
// fixed RetryDelay. Only fetch failures are retried; a failed Put is
// returned as is. A canceled context ends the loop with the context error.
func (l *Loader) FetchAndCache(ctx context.Context, handle ports.CacheHandle, path domain.AssetPath) error {
	ctx, span := l.tracer.Start(ctx, "fetch "+path.String())
	defer span.End()
	span.SetAttribute("asset.path", path)

	attempts := 0
	for {
		attempts++
		entry, err := l.fetcher.Fetch(ctx, path)
		if err == nil {
			span.SetAttribute("asset.attempts", attempts)
			if err := handle.Put(ctx, entry); err != nil {
				span.RecordError(err)
				return err
			}
			l.metrics.AssetCommitted()
			return nil
		}

		if ctx.Err() != nil {
			span.RecordError(ctx.Err())
			return ctx.Err()
		}

		if attempts > l.policy.MaxRetries {
			ferr := &domain.FetchError{Path: path, Attempts: attempts, Err: err}
			span.SetAttribute("asset.attempts", attempts)
			span.RecordError(ferr)
			return ferr
		}

		l.logger.Warn(retryMessage(path, attempts, l.policy.MaxRetries))
		if err := wait(ctx, l.policy.RetryDelay); err != nil {
			span.RecordError(err)
			return err
		}
	}
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
