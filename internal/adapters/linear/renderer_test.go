package linear_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/flipfusion/internal/adapters/linear"
	"go.trai.ch/flipfusion/internal/core/domain"
)

func render(t *testing.T, updates ...domain.LoadProgress) []byte {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	r := linear.NewRenderer(&buf)
	require.NoError(t, r.Start(context.Background()))
	for _, p := range updates {
		r.OnProgress(p)
	}
	require.NoError(t, r.Stop())
	require.NoError(t, r.Wait())
	return buf.Bytes()
}

func TestRenderer_Golden(t *testing.T) {
	tests := []struct {
		goldenName string
		updates    []domain.LoadProgress
	}{
		{
			goldenName: "load_pass",
			updates: []domain.LoadProgress{
				domain.NewProgress(0, domain.MsgCheckingCache),
				domain.LoadingNProgress(75, 3),
				domain.LoadedProgress(10, 12),
				domain.LoadedProgress(11, 12),
				domain.LoadedProgress(12, 12),
				domain.NewProgress(100, domain.MsgAllCached),
			},
		},
		{
			goldenName: "warm_cache",
			updates: []domain.LoadProgress{
				domain.NewProgress(0, domain.MsgCheckingCache),
				domain.NewProgress(100, domain.MsgAssetsReady),
			},
		},
		{
			goldenName: "degraded",
			updates: []domain.LoadProgress{
				domain.NewProgress(0, domain.MsgCheckingCache),
				domain.LoadingNProgress(0, 2),
				domain.NewProgress(0, domain.MsgLoadFailed),
				domain.RetryingProgress(1, 2),
				domain.LoadingNProgress(0, 2),
				domain.NewProgress(0, domain.MsgLoadFailed),
				domain.NewProgress(0, domain.MsgLimitedAssets),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.goldenName, func(t *testing.T) {
			g := goldie.New(t)
			g.Assert(t, tt.goldenName, render(t, tt.updates...))
		})
	}
}

func TestRenderer_DropsRepeats(t *testing.T) {
	out := render(t,
		domain.LoadedProgress(1, 2),
		domain.LoadedProgress(1, 2),
	)
	assert.Equal(t, "  [ 50%] Loading assets... 1/2\n", string(out))
}

func TestRenderer_IgnoresAfterStop(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	r := linear.NewRenderer(&buf)
	require.NoError(t, r.Stop())
	r.OnProgress(domain.NewProgress(100, domain.MsgAllCached))

	assert.Empty(t, buf.String())
}
