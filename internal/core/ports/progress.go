package ports

import (
	"context"

	"go.trai.ch/flipfusion/internal/core/domain"
)

// ProgressObserver receives load progress updates.
//
//go:generate mockgen -source=progress.go -destination=mocks/mock_progress.go -package=mocks
type ProgressObserver interface {
	// OnProgress is called for every update, in emission order.
	OnProgress(p domain.LoadProgress)
}

// ProgressRenderer is a ProgressObserver with a presentation lifecycle.
// It lets the same update stream drive either a rich TUI or linear CI logs.
type ProgressRenderer interface {
	ProgressObserver

	// Start initializes the renderer.
	// Asynchronous renderers may launch background goroutines.
	Start(ctx context.Context) error

	// Stop signals the renderer to stop accepting updates and flush its output.
	Stop() error

	// Wait blocks until the renderer has fully terminated.
	Wait() error
}
