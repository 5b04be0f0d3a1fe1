package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/flipfusion/internal/core/domain"
)

// Renderer wraps the Bubble Tea program as a ports.ProgressRenderer.
type Renderer struct {
	program *tea.Program
	errCh   chan error
}

// NewRenderer creates a Renderer for model.
func NewRenderer(model Model, opts ...tea.ProgramOption) *Renderer {
	return &Renderer{
		program: tea.NewProgram(model, opts...),
		errCh:   make(chan error, 1),
	}
}

// Start launches the program in a background goroutine.
func (r *Renderer) Start(_ context.Context) error {
	go func() {
		_, err := r.program.Run()
		r.errCh <- err
	}()
	return nil
}

// Stop asks the program to quit after rendering its last frame.
func (r *Renderer) Stop() error {
	r.program.Quit()
	return nil
}

// Wait blocks until the program has terminated.
func (r *Renderer) Wait() error {
	return <-r.errCh
}

// OnProgress forwards the update to the program.
func (r *Renderer) OnProgress(p domain.LoadProgress) {
	r.program.Send(ProgressMsg(p))
}
