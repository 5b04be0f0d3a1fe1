package app

import (
	"context"
	"errors"

	"github.com/grindlemire/graft"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/flipfusion/internal/adapters/cas"       //nolint:depguard // Wired in app layer
	"go.trai.ch/flipfusion/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/flipfusion/internal/adapters/kv"        //nolint:depguard // Wired in app layer
	"go.trai.ch/flipfusion/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/flipfusion/internal/adapters/metrics"   //nolint:depguard // Wired in app layer
	"go.trai.ch/flipfusion/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/flipfusion/internal/core/domain"
	"go.trai.ch/flipfusion/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains all the initialized application components.
type Components struct {
	App    *App
	Logger *logger.Logger
	// Shutdown flushes telemetry and closes the stores.
	Shutdown func(context.Context) error
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			cas.NodeID,
			kv.NodeID,
			metrics.NodeID,
			telemetry.ProviderNodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			telemetry.ProviderNodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[*config.Loader](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[*logger.Logger](ctx)
	if err != nil {
		return nil, err
	}

	fsStore, err := graft.Dep[*cas.Store](ctx)
	if err != nil {
		return nil, err
	}

	kvStore, err := graft.Dep[*kv.Store](ctx)
	if err != nil {
		return nil, err
	}

	m, err := graft.Dep[*metrics.Metrics](ctx)
	if err != nil {
		return nil, err
	}

	tp, err := graft.Dep[*sdktrace.TracerProvider](ctx)
	if err != nil {
		return nil, err
	}

	stores := map[domain.Backend]ports.CacheStore{
		domain.BackendFS:     fsStore,
		domain.BackendBadger: kvStore,
	}
	return New(loader, log, log.Slog, stores, m, telemetry.NewOTelTracerWithProvider(tp)), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	app, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[*logger.Logger](ctx)
	if err != nil {
		return nil, err
	}

	tp, err := graft.Dep[*sdktrace.TracerProvider](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		App:    app,
		Logger: log,
		Shutdown: func(ctx context.Context) error {
			return errors.Join(tp.Shutdown(ctx), app.Close())
		},
	}, nil
}
