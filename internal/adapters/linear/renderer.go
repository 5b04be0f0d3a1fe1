// Package linear renders load progress as one line per update for CI and pipes.
package linear

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/muesli/termenv"
	"go.trai.ch/flipfusion/internal/core/domain"
	"go.trai.ch/flipfusion/internal/ui/output"
	"go.trai.ch/flipfusion/internal/ui/style"
)

// Renderer implements ports.ProgressRenderer synchronously.
type Renderer struct {
	output *termenv.Output

	mu      sync.Mutex
	last    domain.LoadProgress
	written bool
	stopped bool
}

// NewRenderer creates a Renderer writing to w. A nil writer means stderr.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{output: output.New(w, false)}
}

// Start is a no-op.
func (r *Renderer) Start(_ context.Context) error {
	return nil
}

// Stop drops any update received afterwards.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	return nil
}

// Wait is a no-op.
func (r *Renderer) Wait() error {
	return nil
}

// OnProgress writes the update unless it repeats the previous one.
func (r *Renderer) OnProgress(p domain.LoadProgress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped || (r.written && p == r.last) {
		return
	}
	r.last, r.written = p, true

	line := fmt.Sprintf("[%3d%%] %s", p.Percentage, p.Message)
	switch p.Message {
	case domain.MsgAllCached, domain.MsgAssetsReady:
		line = r.output.String(style.Check+" "+line).Foreground(r.output.Color(string(style.Mint))).String()
	case domain.MsgLoadFailed, domain.MsgLimitedAssets:
		line = r.output.String(style.Cross+" "+line).Foreground(r.output.Color(string(style.Coral))).String()
	default:
		line = r.output.String("  " + line).Faint().String()
	}
	_, _ = r.output.WriteString(line + "\n")
}
