// Package httpserver serves the game's asset routes through the cache.
package httpserver

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.trai.ch/flipfusion/internal/core/domain"
)

// Readiness reports the bootstrap state.
type Readiness interface {
	State() domain.BootstrapState
}

// Routes collects the handlers mounted by NewRouter.
type Routes struct {
	// Assets serves every path not claimed by a probe.
	Assets http.Handler
	// Readiness backs /readyz.
	Readiness Readiness
	// Metrics is mounted on /metrics when non-nil.
	Metrics http.Handler
	// Logger returns the request logger. Nil disables request logging.
	Logger func() *slog.Logger
}

// NewRouter creates the chi router.
//
// Routes:
//   - GET /healthz: liveness
//   - GET /readyz: 200 once assets are ready, 503 with the state otherwise
//   - GET /metrics: Prometheus metrics
//   - /*: assets
func NewRouter(routes Routes) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if routes.Logger != nil {
		r.Use(requestLogger(routes.Logger))
	}
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		JSON(w, http.StatusOK, statusResponse("ok", nil))
	})

	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		state := domain.StatePending
		if routes.Readiness != nil {
			state = routes.Readiness.State()
		}
		if state == domain.StateReady {
			JSON(w, http.StatusOK, statusResponse(string(state), nil))
			return
		}
		JSON(w, http.StatusServiceUnavailable, statusResponse(string(state), nil))
	})

	if routes.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", routes.Metrics)
	}

	if routes.Assets != nil {
		r.Handle("/*", routes.Assets)
	}

	return r
}

// NewAssetProxy forwards requests to origin through transport.
// The transport is where cache interception happens.
func NewAssetProxy(origin *url.URL, transport http.RoundTripper, logger func() *slog.Logger) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(origin)
			pr.Out.Host = origin.Host
		},
		Transport: transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			if logger != nil {
				logger().Warn("origin request failed", "path", r.URL.Path, "error", err)
			}
			w.WriteHeader(http.StatusBadGateway)
		},
	}
}

func requestLogger(logger func() *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger().Debug("request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"cache", ww.Header().Get(domain.CacheStatusHeader),
				"duration", time.Since(start).Round(time.Microsecond).String(),
			)
		})
	}
}
