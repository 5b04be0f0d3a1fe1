package wiring_test

import (
	"testing"

	"github.com/grindlemire/graft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/flipfusion/internal/app"
	_ "go.trai.ch/flipfusion/internal/wiring"
)

// TestGraftResolvesComponents builds the full node graph. Every node is
// lazy about I/O, so this touches neither the network nor the disk.
func TestGraftResolvesComponents(t *testing.T) {
	components, _, err := graft.ExecuteFor[*app.Components](t.Context())
	require.NoError(t, err)
	require.NotNil(t, components)

	assert.NotNil(t, components.App)
	assert.NotNil(t, components.Logger)
	require.NoError(t, components.Shutdown(t.Context()))
}
