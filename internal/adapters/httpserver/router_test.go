package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/flipfusion/internal/adapters/cas"
	"go.trai.ch/flipfusion/internal/adapters/httpserver"
	"go.trai.ch/flipfusion/internal/adapters/metrics"
	"go.trai.ch/flipfusion/internal/core/domain"
	"go.trai.ch/flipfusion/internal/core/ports/mocks"
	"go.trai.ch/flipfusion/internal/engine/intercept"
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

type fixedState domain.BootstrapState

func (s fixedState) State() domain.BootstrapState { return domain.BootstrapState(s) }

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestRouter_Probes(t *testing.T) {
	tests := []struct {
		name       string
		state      domain.BootstrapState
		wantCode   int
		wantStatus string
	}{
		{"ready", domain.StateReady, http.StatusOK, "ready"},
		{"loading", domain.StateLoading, http.StatusServiceUnavailable, "loading"},
		{"degraded", domain.StateDegraded, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(httpserver.NewRouter(httpserver.Routes{Readiness: fixedState(tt.state)}))
			defer srv.Close()

			resp, body := get(t, srv, "/readyz")
			assert.Equal(t, tt.wantCode, resp.StatusCode)

			var r httpserver.Response
			require.NoError(t, json.Unmarshal(body, &r))
			assert.Equal(t, tt.wantStatus, r.Status)

			resp, _ = get(t, srv, "/healthz")
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}

func TestRouter_ReadyzWithoutSequencer(t *testing.T) {
	srv := httptest.NewServer(httpserver.NewRouter(httpserver.Routes{}))
	defer srv.Close()

	resp, body := get(t, srv, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), `"pending"`)

	resp, _ = get(t, srv, "/styles.css")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_Metrics(t *testing.T) {
	m := metrics.New()
	m.CacheLookup("hit")

	srv := httptest.NewServer(httpserver.NewRouter(httpserver.Routes{Metrics: m.Handler()}))
	defer srv.Close()

	resp, body := get(t, srv, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `flipfusion_cache_lookups_total{result="hit"} 1`)
}

func TestRouter_AssetsThroughCache(t *testing.T) {
	var originHits atomic.Int64
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		originHits.Add(1)
		_, _ = io.WriteString(w, "origin "+r.URL.Path)
	}))
	defer origin.Close()
	originURL, err := url.Parse(origin.URL + "/game")
	require.NoError(t, err)

	store := cas.NewStore()
	loc := domain.CacheLocation{Dir: t.TempDir(), Version: domain.DefaultCacheVersion}
	h, err := store.Open(t.Context(), loc)
	require.NoError(t, err)
	require.NoError(t, h.Put(t.Context(), domain.NewCacheEntry("/styles.css", 200, nil, []byte("cached css"))))

	ctrl := gomock.NewController(t)
	tr := intercept.NewTransport(store, loc, origin.Client().Transport, mocks.NewMockLogger(ctrl), metrics.New())
	tr.SetBasePath(originURL.Path)

	logs := &syncBuffer{}
	lg := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger := func() *slog.Logger { return lg }

	router := httpserver.NewRouter(httpserver.Routes{
		Assets: httpserver.NewAssetProxy(originURL, tr, logger),
		Logger: logger,
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, body := get(t, srv, "/styles.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cached css", string(body))
	assert.Equal(t, "hit", resp.Header.Get(domain.CacheStatusHeader))
	assert.Zero(t, originHits.Load())

	_, body = get(t, srv, "/assets/cards_set_flags/flag90.svg")
	assert.Equal(t, "origin /game/assets/cards_set_flags/flag90.svg", string(body))
	assert.Equal(t, int64(1), originHits.Load())

	// Served in-process so the request log is complete before it is read.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/styles.css", nil))
	assert.Equal(t, "cached css", rec.Body.String())
	assert.Contains(t, logs.String(), "path=/styles.css")
	assert.Contains(t, logs.String(), "cache=hit")
}

func TestAssetProxy_OriginDown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	dead := "http://" + ln.Addr().String()
	require.NoError(t, ln.Close())

	originURL, err := url.Parse(dead)
	require.NoError(t, err)

	var logs strings.Builder
	lg := slog.New(slog.NewTextHandler(&logs, nil))

	router := httpserver.NewRouter(httpserver.Routes{
		Assets: httpserver.NewAssetProxy(originURL, http.DefaultTransport, func() *slog.Logger { return lg }),
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/script.js", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, logs.String(), "origin request failed")
}

func TestServer_ServeAndShutdown(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := httpserver.NewServer("", httpserver.NewRouter(httpserver.Routes{}), log)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz") //nolint:noctx // test probe
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	require.NoError(t, srv.Stop(t.Context()))
}
