package loader_test

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"go.trai.ch/flipfusion/internal/adapters/telemetry"
	"go.trai.ch/flipfusion/internal/core/domain"
	"go.trai.ch/flipfusion/internal/core/ports"
	"go.trai.ch/flipfusion/internal/core/ports/mocks"
	"go.trai.ch/flipfusion/internal/engine/loader"
	"go.uber.org/mock/gomock"
)

type progressLog struct {
	mu      sync.Mutex
	updates []domain.LoadProgress
}

func (p *progressLog) OnProgress(u domain.LoadProgress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, u)
}

func (p *progressLog) all() []domain.LoadProgress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.updates)
}

// memHandle is an in-memory ports.CacheHandle.
type memHandle struct {
	mu      sync.Mutex
	entries map[domain.AssetPath]*domain.CacheEntry
}

func newMemHandle(cached ...domain.AssetPath) *memHandle {
	h := &memHandle{entries: make(map[domain.AssetPath]*domain.CacheEntry)}
	for _, p := range cached {
		h.entries[p] = domain.NewCacheEntry(p, 200, nil, []byte(p))
	}
	return h
}

func (h *memHandle) Version() string { return "test" }

func (h *memHandle) Keys(_ context.Context) ([]domain.AssetPath, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	keys := make([]domain.AssetPath, 0, len(h.entries))
	for k := range h.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

func (h *memHandle) Put(_ context.Context, e *domain.CacheEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[e.Path] = e
	return nil
}

func (h *memHandle) Match(_ context.Context, p domain.AssetPath) (*domain.CacheEntry, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.entries[p]
	return e, ok, nil
}

// slowFetcher serves every path after a short delay and tracks concurrency.
type slowFetcher struct {
	mu          sync.Mutex
	failing     map[domain.AssetPath]bool
	calls       []domain.AssetPath
	inflight    int
	maxInflight int
}

func (f *slowFetcher) Fetch(_ context.Context, p domain.AssetPath) (*domain.CacheEntry, error) {
	f.mu.Lock()
	f.calls = append(f.calls, p)
	f.inflight++
	f.maxInflight = max(f.maxInflight, f.inflight)
	fail := f.failing[p]
	f.mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	f.mu.Lock()
	f.inflight--
	f.mu.Unlock()

	if fail {
		return nil, &domain.NetworkError{Path: p, StatusCode: 404}
	}
	return domain.NewCacheEntry(p, 200, nil, []byte(p)), nil
}

func (f *slowFetcher) called() []domain.AssetPath {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func quietMetrics(ctrl *gomock.Controller) *mocks.MockMetrics {
	m := mocks.NewMockMetrics(ctrl)
	m.EXPECT().AssetCommitted().AnyTimes()
	m.EXPECT().LoadPass(gomock.Any()).AnyTimes()
	m.EXPECT().FetchAttempt(gomock.Any()).AnyTimes()
	m.EXPECT().CacheLookup(gomock.Any()).AnyTimes()
	return m
}

func newLoader(
	t *testing.T,
	fetcher ports.Fetcher,
	log ports.Logger,
	obs ports.ProgressObserver,
	policy domain.LoadPolicy,
) *loader.Loader {
	t.Helper()
	ctrl := gomock.NewController(t)
	return loader.New(fetcher, log, obs, telemetry.NewNoOpTracer(), quietMetrics(ctrl), policy)
}

func paths(ps ...string) []domain.AssetPath {
	out := make([]domain.AssetPath, len(ps))
	for i, p := range ps {
		out[i] = domain.AssetPath(p)
	}
	return out
}
