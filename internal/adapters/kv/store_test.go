package kv_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/flipfusion/internal/adapters/cachetest"
	"go.trai.ch/flipfusion/internal/adapters/kv"
	"go.trai.ch/flipfusion/internal/core/domain"
	"go.trai.ch/flipfusion/internal/core/ports"
)

func newStore(t *testing.T) (ports.CacheStore, string) {
	t.Helper()
	dir := t.TempDir()
	s := kv.NewStore()
	t.Cleanup(func() { _ = s.Close() })
	return s, dir
}

func TestStore_Contract(t *testing.T) {
	cachetest.Run(t, newStore)
}

func TestStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	loc := domain.CacheLocation{Dir: dir, Version: domain.DefaultCacheVersion}

	s1 := kv.NewStore()
	h, err := s1.Open(ctx, loc)
	require.NoError(t, err)
	require.NoError(t, h.Put(ctx, domain.NewCacheEntry("/assets/fonts/font1.ttf", 200, nil, []byte("ttf"))))
	require.NoError(t, s1.Close())

	s2 := kv.NewStore()
	t.Cleanup(func() { _ = s2.Close() })
	h, err = s2.Open(ctx, loc)
	require.NoError(t, err)

	keys, err := h.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.AssetPath{"/assets/fonts/font1.ttf"}, keys)
}

func TestStore_CorruptValueAfterRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	loc := domain.CacheLocation{Dir: dir, Version: "v1"}

	s1 := kv.NewStore()
	h, err := s1.Open(ctx, loc)
	require.NoError(t, err)
	require.NoError(t, h.Put(ctx, domain.NewCacheEntry("/b.png", 200, nil, []byte("b"))))
	require.NoError(t, h.Put(ctx, &domain.CacheEntry{Path: "/a.png", Status: 200, Body: []byte("a"), Digest: 1}))
	require.NoError(t, s1.Close())

	s2 := kv.NewStore()
	t.Cleanup(func() { _ = s2.Close() })
	h, err = s2.Open(ctx, loc)
	require.NoError(t, err)

	keys, err := h.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.AssetPath{"/b.png"}, keys)

	_, ok, err := h.Match(ctx, "/a.png")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_InMemory(t *testing.T) {
	s := kv.NewStore(kv.WithInMemory())
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	h, err := s.Open(ctx, domain.CacheLocation{Dir: "unused", Version: "v1"})
	require.NoError(t, err)
	require.NoError(t, h.Put(ctx, domain.NewCacheEntry("/a.png", 200, nil, []byte("a"))))

	_, ok, err := h.Match(ctx, "/a.png")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_VersionsWithoutDatabase(t *testing.T) {
	s := kv.NewStore()
	t.Cleanup(func() { _ = s.Close() })

	versions, err := s.Versions(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, versions)

	require.NoError(t, s.Drop(context.Background(), domain.CacheLocation{Dir: t.TempDir(), Version: "v1"}))
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	lg := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	bl := kv.NewSlogLogger(func() *slog.Logger { return lg })

	bl.Infof("replaying %d entries\n", 3)
	bl.Warningf("value log %s truncated", "000001.vlog")

	assert.NotContains(t, buf.String(), "replaying")
	assert.Contains(t, buf.String(), `msg="badger: value log 000001.vlog truncated"`)
}
