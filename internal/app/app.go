// Package app implements the application layer for flipfusion.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/flipfusion/internal/adapters/detector"
	"go.trai.ch/flipfusion/internal/adapters/httpfetch"
	"go.trai.ch/flipfusion/internal/adapters/httpserver"
	"go.trai.ch/flipfusion/internal/adapters/linear"
	"go.trai.ch/flipfusion/internal/adapters/metrics"
	"go.trai.ch/flipfusion/internal/adapters/tui"
	"go.trai.ch/flipfusion/internal/core/domain"
	"go.trai.ch/flipfusion/internal/core/ports"
	"go.trai.ch/flipfusion/internal/engine/bootstrap"
	"go.trai.ch/flipfusion/internal/engine/intercept"
	"go.trai.ch/flipfusion/internal/engine/loader"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	slog         func() *slog.Logger
	stores       map[domain.Backend]ports.CacheStore
	metrics      *metrics.Metrics
	tracer       ports.Tracer

	stdout     io.Writer
	stderr     io.Writer
	teaOptions []tea.ProgramOption
	listener   net.Listener
	detect     func() detector.OutputMode
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	slogger func() *slog.Logger,
	stores map[domain.Backend]ports.CacheStore,
	m *metrics.Metrics,
	tracer ports.Tracer,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		slog:         slogger,
		stores:       stores,
		metrics:      m,
		tracer:       tracer,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		detect:       detector.Detect,
	}
}

// WithTeaOptions adds bubbletea program options to the App.
// This is primarily used for testing to disable input/output.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// WithOutput redirects command output and progress rendering.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// WithListener makes Serve use ln instead of listening on the configured address.
func (a *App) WithListener(ln net.Listener) *App {
	a.listener = ln
	return a
}

// Options are the global flags shared by every command.
// Non-empty values override the configuration file and environment.
type Options struct {
	ConfigFile string
	Origin     string
	Listen     string
	Backend    string
	OutputMode string
}

// PreloadOptions configuration for the Preload method.
type PreloadOptions struct {
	AllowDegraded bool
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	All bool
}

// Settings resolves the effective settings for opts.
func (a *App) Settings(opts Options) (*domain.Settings, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to get working directory")
	}

	s, err := a.configLoader.Load(cwd, opts.ConfigFile)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	overridden := false
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
			overridden = true
		}
	}
	override(&s.Origin, opts.Origin)
	override(&s.Listen, opts.Listen)
	if opts.Backend != "" {
		s.Backend = domain.Backend(opts.Backend)
		overridden = true
	}

	if overridden {
		if err := s.Validate(); err != nil {
			return nil, zerr.Wrap(err, "invalid flags")
		}
	}
	return s, nil
}

// Preload runs the bootstrap sequencer once with live progress.
// A degraded run fails with domain.ErrBootstrapFailed unless allowed.
func (a *App) Preload(ctx context.Context, opts Options, preload PreloadOptions) error {
	s, err := a.Settings(opts)
	if err != nil {
		return err
	}

	renderer := a.newRenderer(ctx, opts.OutputMode)
	seq, err := a.newSequencer(s, renderer)
	if err != nil {
		return err
	}

	res, err := runWithRenderer(ctx, seq, renderer)
	if err != nil {
		return err
	}
	if res.Degraded && !preload.AllowDegraded {
		return domain.ErrBootstrapFailed
	}
	return nil
}

// Serve installs the interception transport, bootstraps in the background
// and serves assets until ctx is canceled.
func (a *App) Serve(ctx context.Context, opts Options) error {
	s, err := a.Settings(opts)
	if err != nil {
		return err
	}

	store, err := a.store(s.Backend)
	if err != nil {
		return err
	}

	origin, err := url.Parse(s.Origin)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrInvalidOrigin.Error()), "origin", s.Origin)
	}

	transport := intercept.NewTransport(store, s.Location(), http.DefaultTransport, a.logger, a.metrics)
	transport.SetBasePath(origin.Path)

	// Progress goes to the log stream; the terminal belongs to the server.
	seq, err := a.newSequencer(s, linear.NewRenderer(a.stderr))
	if err != nil {
		return err
	}

	router := httpserver.NewRouter(httpserver.Routes{
		Assets:    httpserver.NewAssetProxy(origin, transport, a.slog),
		Readiness: seq.Signal(),
		Metrics:   a.metrics.Handler(),
		Logger:    a.slog,
	})
	server := httpserver.NewServer(s.Listen, router, a.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if a.listener != nil {
			return server.Serve(gctx, a.listener)
		}
		return server.Start(gctx)
	})
	g.Go(func() error {
		seq.Run(gctx)
		return nil
	})
	return g.Wait()
}

// Manifest prints the manifest, one path per line or as a JSON array.
func (a *App) Manifest(opts Options, asJSON bool) error {
	s, err := a.Settings(opts)
	if err != nil {
		return err
	}

	manifest := domain.BuildManifest(s.Manifest)
	if asJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(manifest.Paths())
	}
	for p := range manifest.All() {
		if _, err := fmt.Fprintln(a.stdout, p); err != nil {
			return err
		}
	}
	return nil
}

// Status reports how many manifest entries are committed under the current version.
func (a *App) Status(ctx context.Context, opts Options) error {
	s, err := a.Settings(opts)
	if err != nil {
		return err
	}

	store, err := a.store(s.Backend)
	if err != nil {
		return err
	}

	handle, err := store.Open(ctx, s.Location())
	if err != nil {
		return err
	}
	keys, err := handle.Keys(ctx)
	if err != nil {
		return err
	}

	manifest := domain.BuildManifest(s.Manifest)
	cached := manifest.Len() - len(manifest.Missing(keys))

	_, _ = fmt.Fprintf(a.stdout, "cache:    %s (%s, %s)\n", s.CacheVersion, s.Backend, s.CacheDir)
	_, _ = fmt.Fprintf(a.stdout, "origin:   %s\n", s.Origin)
	_, _ = fmt.Fprintf(a.stdout, "assets:   %d/%d cached\n", cached, manifest.Len())

	versions, err := store.Versions(ctx, s.CacheDir)
	if err != nil {
		return err
	}
	stale := slices.DeleteFunc(versions, func(v string) bool { return v == s.CacheVersion })
	if len(stale) > 0 {
		_, _ = fmt.Fprintf(a.stdout, "stale:    %v\n", stale)
	}
	return nil
}

// Clean drops the cache of the current version, or of every version.
func (a *App) Clean(ctx context.Context, opts Options, clean CleanOptions) error {
	s, err := a.Settings(opts)
	if err != nil {
		return err
	}

	store, err := a.store(s.Backend)
	if err != nil {
		return err
	}

	versions := []string{s.CacheVersion}
	if clean.All {
		if versions, err = store.Versions(ctx, s.CacheDir); err != nil {
			return err
		}
	}

	var errs error
	for _, v := range versions {
		loc := domain.CacheLocation{Dir: s.CacheDir, Version: v}
		if err := store.Drop(ctx, loc); err != nil {
			errs = errors.Join(errs, zerr.With(err, "cache_version", v))
			continue
		}
		a.logger.Info(fmt.Sprintf("removed cache %s", v))
	}
	return errs
}

// Close releases the cache stores.
func (a *App) Close() error {
	var errs error
	for _, store := range a.stores {
		errs = errors.Join(errs, store.Close())
	}
	return errs
}

func (a *App) store(backend domain.Backend) (ports.CacheStore, error) {
	store, ok := a.stores[backend]
	if !ok {
		return nil, zerr.With(domain.ErrInvalidBackend, "backend", string(backend))
	}
	return store, nil
}

func (a *App) newRenderer(ctx context.Context, flag string) ports.ProgressRenderer {
	if detector.ResolveMode(a.detect(), flag) == detector.ModeTUI {
		opts := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithOutput(a.stderr)}, a.teaOptions...)
		return tui.NewRenderer(tui.NewModel(), opts...)
	}
	return linear.NewRenderer(a.stderr)
}

func (a *App) newSequencer(s *domain.Settings, observer ports.ProgressObserver) (*bootstrap.Sequencer, error) {
	store, err := a.store(s.Backend)
	if err != nil {
		return nil, err
	}

	fetcher, err := httpfetch.New(&http.Client{Timeout: s.RequestTimeout}, s.Origin, a.metrics)
	if err != nil {
		return nil, err
	}

	l := loader.New(fetcher, a.logger, observer, a.tracer, a.metrics, s.Load)
	return bootstrap.NewSequencer(
		store,
		l,
		domain.BuildManifest(s.Manifest),
		s.Location(),
		s.Load,
		observer,
		a.logger,
		a.tracer,
	), nil
}

// runWithRenderer drives the renderer and the sequencer concurrently.
func runWithRenderer(
	ctx context.Context,
	seq *bootstrap.Sequencer,
	renderer ports.ProgressRenderer,
) (bootstrap.Result, error) {
	var res bootstrap.Result
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := renderer.Start(gctx); err != nil {
			return err
		}
		return renderer.Wait()
	})

	g.Go(func() error {
		defer func() {
			_ = renderer.Stop()
		}()
		res = seq.Run(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		return res, zerr.Wrap(err, "progress renderer failed")
	}
	return res, nil
}
