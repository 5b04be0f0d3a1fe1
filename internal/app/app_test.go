package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/flipfusion/internal/adapters/cas"
	"go.trai.ch/flipfusion/internal/adapters/kv"
	"go.trai.ch/flipfusion/internal/adapters/logger"
	"go.trai.ch/flipfusion/internal/adapters/metrics"
	"go.trai.ch/flipfusion/internal/adapters/telemetry"
	"go.trai.ch/flipfusion/internal/app"
	"go.trai.ch/flipfusion/internal/core/domain"
	"go.trai.ch/flipfusion/internal/core/ports"
	"go.trai.ch/flipfusion/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type harness struct {
	app    *app.App
	stdout *syncBuffer
	stderr *syncBuffer
	logs   *syncBuffer
	store  *cas.Store
	s      *domain.Settings
}

func newOrigin(t *testing.T, status int) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	hits := &atomic.Int64{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, "asset "+r.URL.Path)
	}))
	t.Cleanup(srv.Close)
	return srv, hits
}

func testSettings(t *testing.T, origin string) *domain.Settings {
	t.Helper()
	root := t.TempDir()
	s := domain.DefaultSettings(root)
	s.Origin = origin
	s.CacheDir = filepath.Join(root, "cache")
	s.Manifest = domain.ManifestSpec{
		Core:        []domain.AssetPath{"/styles.css", "/script.js"},
		Groups:      []domain.AssetGroup{{Name: "flags", Prefix: "flag", Count: 5, Extension: "svg"}},
		SamplingCap: 2,
	}
	return s
}

func newHarness(t *testing.T, s *domain.Settings) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)

	loader := mocks.NewMockConfigLoader(ctrl)
	loader.EXPECT().Load(gomock.Any(), "").DoAndReturn(func(string, string) (*domain.Settings, error) {
		c := *s
		return &c, nil
	}).AnyTimes()

	logs := &syncBuffer{}
	lg := logger.New()
	lg.SetOutput(logs)

	store := cas.NewStore()
	stores := map[domain.Backend]ports.CacheStore{
		domain.BackendFS:     store,
		domain.BackendBadger: kv.NewStore(kv.WithInMemory()),
	}

	h := &harness{stdout: &syncBuffer{}, stderr: &syncBuffer{}, logs: logs, store: store, s: s}
	h.app = app.New(loader, lg, lg.Slog, stores, metrics.New(), telemetry.NewNoOpTracer()).
		WithOutput(h.stdout, h.stderr)
	t.Cleanup(func() { _ = h.app.Close() })
	return h
}

func linearOpts() app.Options {
	return app.Options{OutputMode: "linear"}
}

func TestApp_PreloadThenStatus(t *testing.T) {
	origin, hits := newOrigin(t, http.StatusOK)
	h := newHarness(t, testSettings(t, origin.URL))

	require.NoError(t, h.app.Preload(t.Context(), linearOpts(), app.PreloadOptions{}))
	assert.Equal(t, int64(5), hits.Load())
	assert.Contains(t, h.stderr.String(), "Checking cache...")
	assert.Contains(t, h.stderr.String(), "Loading 5 assets...")
	assert.Contains(t, h.stderr.String(), "All assets cached!")

	require.NoError(t, h.app.Status(t.Context(), linearOpts()))
	assert.Contains(t, h.stdout.String(), "assets:   5/5 cached")

	// Warm start.
	h.stderr = &syncBuffer{}
	h.app.WithOutput(h.stdout, h.stderr)
	require.NoError(t, h.app.Preload(t.Context(), linearOpts(), app.PreloadOptions{}))
	assert.Equal(t, int64(5), hits.Load())
	assert.Contains(t, h.stderr.String(), "Assets ready!")
}

func TestApp_PreloadBadgerBackend(t *testing.T) {
	origin, _ := newOrigin(t, http.StatusOK)
	h := newHarness(t, testSettings(t, origin.URL))

	opts := linearOpts()
	opts.Backend = string(domain.BackendBadger)
	require.NoError(t, h.app.Preload(t.Context(), opts, app.PreloadOptions{}))

	require.NoError(t, h.app.Status(t.Context(), opts))
	assert.Contains(t, h.stdout.String(), "(badger, ")
	assert.Contains(t, h.stdout.String(), "assets:   5/5 cached")
}

func TestApp_PreloadDegraded(t *testing.T) {
	origin, _ := newOrigin(t, http.StatusInternalServerError)
	s := testSettings(t, origin.URL)
	s.Load.MaxRetries = 0
	s.Load.RetryDelay = 0
	s.Load.Attempts = 2
	s.Load.AttemptDelay = 0
	h := newHarness(t, s)

	err := h.app.Preload(t.Context(), linearOpts(), app.PreloadOptions{})
	require.ErrorIs(t, err, domain.ErrBootstrapFailed)
	assert.Contains(t, h.stderr.String(), "Retrying... (1/2)")
	assert.Contains(t, h.stderr.String(), domain.MsgLimitedAssets)
	assert.Contains(t, h.logs.String(), domain.ErrBootstrapFailed.Error())

	require.NoError(t, h.app.Preload(t.Context(), linearOpts(), app.PreloadOptions{AllowDegraded: true}))
}

func TestApp_PreloadTUI(t *testing.T) {
	origin, _ := newOrigin(t, http.StatusOK)
	h := newHarness(t, testSettings(t, origin.URL))
	h.app.WithTeaOptions(
		tea.WithInput(strings.NewReader("")),
		tea.WithoutSignalHandler(),
		tea.WithoutRenderer(),
	)

	require.NoError(t, h.app.Preload(t.Context(), app.Options{OutputMode: "tui"}, app.PreloadOptions{}))

	require.NoError(t, h.app.Status(t.Context(), linearOpts()))
	assert.Contains(t, h.stdout.String(), "assets:   5/5 cached")
}

func TestApp_Manifest(t *testing.T) {
	h := newHarness(t, testSettings(t, "http://localhost:8000"))

	require.NoError(t, h.app.Manifest(app.Options{}, false))
	assert.Equal(t, strings.Join([]string{
		"/styles.css",
		"/script.js",
		"/assets/cards_set_flags/flags_cards_back.svg",
		"/assets/cards_set_flags/flag1.svg",
		"/assets/cards_set_flags/flag2.svg",
	}, "\n")+"\n", h.stdout.String())

	h.stdout = &syncBuffer{}
	h.app.WithOutput(h.stdout, h.stderr)
	require.NoError(t, h.app.Manifest(app.Options{}, true))

	var paths []string
	require.NoError(t, json.Unmarshal([]byte(h.stdout.String()), &paths))
	assert.Len(t, paths, 5)
}

func TestApp_Clean(t *testing.T) {
	s := testSettings(t, "http://localhost:8000")
	h := newHarness(t, s)

	for _, v := range []string{s.CacheVersion, "flipfusion-v0-assets"} {
		handle, err := h.store.Open(t.Context(), domain.CacheLocation{Dir: s.CacheDir, Version: v})
		require.NoError(t, err)
		require.NoError(t, handle.Put(t.Context(), domain.NewCacheEntry("/styles.css", 200, nil, []byte("x"))))
	}

	require.NoError(t, h.app.Status(t.Context(), app.Options{}))
	assert.Contains(t, h.stdout.String(), "stale:    [flipfusion-v0-assets]")

	require.NoError(t, h.app.Clean(t.Context(), app.Options{}, app.CleanOptions{}))
	versions, err := h.store.Versions(t.Context(), s.CacheDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"flipfusion-v0-assets"}, versions)

	require.NoError(t, h.app.Clean(t.Context(), app.Options{}, app.CleanOptions{All: true}))
	versions, err = h.store.Versions(t.Context(), s.CacheDir)
	require.NoError(t, err)
	assert.Empty(t, versions)
	assert.Contains(t, h.logs.String(), "removed cache flipfusion-v0-assets")
}

func TestApp_InvalidFlags(t *testing.T) {
	h := newHarness(t, testSettings(t, "http://localhost:8000"))

	err := h.app.Manifest(app.Options{Backend: "redis"}, false)
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrInvalidBackend.Error())

	err = h.app.Manifest(app.Options{Origin: "localhost"}, false)
	assert.ErrorContains(t, err, domain.ErrInvalidOrigin.Error())
}

func TestApp_ConfigError(t *testing.T) {
	ctrl := gomock.NewController(t)
	loader := mocks.NewMockConfigLoader(ctrl)
	loader.EXPECT().Load(gomock.Any(), "missing.yaml").Return(nil, domain.ErrConfigReadFailed)

	a := app.New(loader, mocks.NewMockLogger(ctrl), nil, nil, nil, telemetry.NewNoOpTracer())
	err := a.Manifest(app.Options{ConfigFile: "missing.yaml"}, false)
	assert.ErrorIs(t, err, domain.ErrConfigReadFailed)
}

func TestApp_Serve(t *testing.T) {
	origin, hits := newOrigin(t, http.StatusOK)
	h := newHarness(t, testSettings(t, origin.URL))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()
	h.app.WithListener(ln)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- h.app.Serve(ctx, app.Options{}) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/readyz") //nolint:noctx // test probe
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)
	before := hits.Load()

	resp, err := http.Get(base + "/assets/cards_set_flags/flag1.svg") //nolint:noctx // test request
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "asset /assets/cards_set_flags/flag1.svg", string(body))
	assert.Equal(t, "hit", resp.Header.Get(domain.CacheStatusHeader))

	// Unsampled items go to the origin and are not stored.
	resp, err = http.Get(base + "/assets/cards_set_flags/flag5.svg") //nolint:noctx // test request
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Empty(t, resp.Header.Get(domain.CacheStatusHeader))
	assert.Equal(t, before+1, hits.Load())

	cancel()
	require.NoError(t, <-done)
}
