package domain

// BootstrapState is the lifecycle state of the bootstrap sequencer.
type BootstrapState string

const (
	// StatePending indicates the sequencer has not started.
	StatePending BootstrapState = "pending"
	// StateLoading indicates a load pass is in progress.
	StateLoading BootstrapState = "loading"
	// StateReady indicates every manifest asset is committed.
	StateReady BootstrapState = "ready"
	// StateDegraded indicates every attempt failed and the game starts with limited assets.
	StateDegraded BootstrapState = "degraded"
)

// IsTerminal reports whether the sequencer has finished in this state.
func (s BootstrapState) IsTerminal() bool {
	return s == StateReady || s == StateDegraded
}
