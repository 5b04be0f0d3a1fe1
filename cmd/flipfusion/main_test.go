package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/flipfusion/internal/adapters/logger"
	"go.trai.ch/flipfusion/internal/adapters/metrics"
	"go.trai.ch/flipfusion/internal/adapters/telemetry"
	"go.trai.ch/flipfusion/internal/app"
	"go.trai.ch/flipfusion/internal/core/domain"
	"go.trai.ch/flipfusion/internal/core/ports"
	"go.trai.ch/flipfusion/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newComponents(loader ports.ConfigLoader, stderr *bytes.Buffer) *app.Components {
	log := logger.New()
	log.SetOutput(stderr)
	application := app.New(
		loader,
		log,
		log.Slog,
		map[domain.Backend]ports.CacheStore{},
		metrics.New(),
		telemetry.NewNoOpTracer(),
	)
	return &app.Components{App: application, Logger: log}
}

// TestRun_Success verifies that the run function returns 0 when the command succeeds.
func TestRun_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	stderr := new(bytes.Buffer)
	components := newComponents(mocks.NewMockConfigLoader(ctrl), stderr)

	cleaned := false
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return components, func() { cleaned = true }, nil
	}

	exitCode := run(context.Background(), []string{"version"}, stderr, provider)
	assert.Equal(t, 0, exitCode)
	assert.True(t, cleaned)
}

// TestRun_InitializationError verifies that run returns 1 when component initialization fails.
func TestRun_InitializationError(t *testing.T) {
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

// TestRun_ExecutionError verifies that run logs the error and returns 1 when the command fails.
func TestRun_ExecutionError(t *testing.T) {
	ctrl := gomock.NewController(t)
	loader := mocks.NewMockConfigLoader(ctrl)
	loader.EXPECT().Load(gomock.Any(), gomock.Any()).Return(nil, errors.New("config exploded"))

	stderr := new(bytes.Buffer)
	components := newComponents(loader, stderr)
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return components, nil, nil
	}

	exitCode := run(context.Background(), []string{"status"}, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "config exploded")
}

// TestRun_AppliesOptions verifies that options are applied to the app before execution.
func TestRun_AppliesOptions(t *testing.T) {
	ctrl := gomock.NewController(t)
	stderr := new(bytes.Buffer)
	components := newComponents(mocks.NewMockConfigLoader(ctrl), stderr)
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return components, nil, nil
	}

	var applied *app.App
	exitCode := run(context.Background(), []string{"version"}, stderr, provider, func(a *app.App) {
		applied = a
	})

	assert.Equal(t, 0, exitCode)
	assert.Same(t, components.App, applied)
}
