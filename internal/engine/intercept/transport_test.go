package intercept_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/flipfusion/internal/adapters/cas"
	"go.trai.ch/flipfusion/internal/adapters/metrics"
	"go.trai.ch/flipfusion/internal/core/domain"
	"go.trai.ch/flipfusion/internal/core/ports/mocks"
	"go.trai.ch/flipfusion/internal/engine/intercept"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	client  *http.Client
	origin  *httptest.Server
	hits    *atomic.Int64
	metrics *metrics.Metrics
	loc     domain.CacheLocation
	store   *cas.Store
}

func newFixture(t *testing.T, log *mocks.MockLogger) *fixture {
	t.Helper()

	hits := &atomic.Int64{}
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "origin:"+r.Method+":"+r.URL.Path)
	}))
	t.Cleanup(origin.Close)

	store := cas.NewStore()
	loc := domain.CacheLocation{Dir: t.TempDir(), Version: domain.DefaultCacheVersion}
	m := metrics.New()

	tr := intercept.NewTransport(store, loc, origin.Client().Transport, log, m)
	return &fixture{
		client:  tr.Install(origin.Client()),
		origin:  origin,
		hits:    hits,
		metrics: m,
		loc:     loc,
		store:   store,
	}
}

func (f *fixture) seed(t *testing.T, path domain.AssetPath, body string) {
	t.Helper()
	h, err := f.store.Open(t.Context(), f.loc)
	require.NoError(t, err)
	entry := domain.NewCacheEntry(path, 200, map[string][]string{"Content-Type": {"image/svg+xml"}}, []byte(body))
	require.NoError(t, h.Put(t.Context(), entry))
}

func (f *fixture) do(t *testing.T, method, path string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), method, f.origin.URL+path, nil)
	require.NoError(t, err)
	resp, err := f.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestRoundTrip_HitServesFromCache(t *testing.T) {
	f := newFixture(t, mocks.NewMockLogger(gomock.NewController(t)))
	f.seed(t, "/assets/cards_set_classic/classic_cards_back.svg", "<svg>back</svg>")

	resp, body := f.do(t, http.MethodGet, "/assets/cards_set_classic/classic_cards_back.svg?v=3")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<svg>back</svg>", body)
	assert.Equal(t, "hit", resp.Header.Get(domain.CacheStatusHeader))
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Zero(t, f.hits.Load())
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.CacheLookups.WithLabelValues("hit")), 0)
}

func TestRoundTrip_HeadHitHasNoBody(t *testing.T) {
	f := newFixture(t, mocks.NewMockLogger(gomock.NewController(t)))
	f.seed(t, "/styles.css", "body{}")

	resp, body := f.do(t, http.MethodHead, "/styles.css")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body)
	assert.Equal(t, int64(6), resp.ContentLength)
	assert.Zero(t, f.hits.Load())
}

func TestRoundTrip_MissGoesToNetworkWithoutStoring(t *testing.T) {
	f := newFixture(t, mocks.NewMockLogger(gomock.NewController(t)))

	resp, body := f.do(t, http.MethodGet, "/assets/cards_set_flags/flag77.svg")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "origin:GET:/assets/cards_set_flags/flag77.svg", body)
	assert.Empty(t, resp.Header.Get(domain.CacheStatusHeader))
	assert.Equal(t, int64(1), f.hits.Load())

	h, err := f.store.Open(t.Context(), f.loc)
	require.NoError(t, err)
	keys, err := h.Keys(t.Context())
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.CacheLookups.WithLabelValues("miss")), 0)
}

func TestRoundTrip_OtherMethodsBypassCache(t *testing.T) {
	f := newFixture(t, mocks.NewMockLogger(gomock.NewController(t)))
	f.seed(t, "/script.js", "cached")

	_, body := f.do(t, http.MethodPost, "/script.js")

	assert.Equal(t, "origin:POST:/script.js", body)
	assert.Equal(t, int64(1), f.hits.Load())
}

func TestRoundTrip_LookupErrorFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn("Cache lookup failed, falling back to network")

	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "from origin")
	}))
	defer origin.Close()

	store := mocks.NewMockCacheStore(ctrl)
	store.EXPECT().Open(gomock.Any(), gomock.Any()).
		Return(nil, &domain.CacheError{Op: "open", Err: errors.New("permission denied")})

	m := mocks.NewMockMetrics(ctrl)
	m.EXPECT().CacheLookup("error")

	tr := intercept.NewTransport(store, domain.CacheLocation{Dir: "x", Version: "v"}, nil, log, m)
	resp, err := tr.Install(nil).Get(origin.URL + "/styles.css")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "from origin", strings.TrimSpace(string(body)))
}

func TestRoundTrip_BasePathIsStripped(t *testing.T) {
	f := newFixture(t, mocks.NewMockLogger(gomock.NewController(t)))
	f.seed(t, "/styles.css", "body{}")

	tr, ok := f.client.Transport.(*intercept.Transport)
	require.True(t, ok)
	tr.SetBasePath("/game/")

	resp, body := f.do(t, http.MethodGet, "/game/styles.css")
	assert.Equal(t, "hit", resp.Header.Get(domain.CacheStatusHeader))
	assert.Equal(t, "body{}", body)
}
