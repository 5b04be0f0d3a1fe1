package bootstrap

import (
	"sync"
	"sync/atomic"

	"go.trai.ch/flipfusion/internal/core/domain"
)

// Signal publishes the bootstrap outcome to waiters such as game
// initialization or a readiness probe.
type Signal struct {
	state atomic.Value
	done  chan struct{}
	once  sync.Once
}

// NewSignal creates a pending Signal.
func NewSignal() *Signal {
	s := &Signal{done: make(chan struct{})}
	s.state.Store(domain.StatePending)
	return s
}

// Done is closed once the sequencer reaches a terminal state.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

// State returns the current lifecycle state.
func (s *Signal) State() domain.BootstrapState {
	state, _ := s.state.Load().(domain.BootstrapState)
	return state
}

// Ready reports whether every manifest asset is committed.
func (s *Signal) Ready() bool {
	return s.State() == domain.StateReady
}

// Degraded reports whether the sequencer gave up and continues with limited assets.
func (s *Signal) Degraded() bool {
	return s.State() == domain.StateDegraded
}

func (s *Signal) set(state domain.BootstrapState) {
	if s.State().IsTerminal() {
		return
	}
	s.state.Store(state)
	if state.IsTerminal() {
		s.once.Do(func() { close(s.done) })
	}
}
