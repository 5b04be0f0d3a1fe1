// Package cachetest holds the behavior every ports.CacheStore must share.
package cachetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/flipfusion/internal/core/domain"
	"go.trai.ch/flipfusion/internal/core/ports"
)

// Factory returns a fresh store rooted at dir.
type Factory func(t *testing.T) (ports.CacheStore, string)

// Run exercises store semantics shared by all backends.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("PutMatchKeys", func(t *testing.T) {
		store, dir := newStore(t)
		ctx := context.Background()
		h, err := store.Open(ctx, domain.CacheLocation{Dir: dir, Version: "v1"})
		require.NoError(t, err)
		assert.Equal(t, "v1", h.Version())

		keys, err := h.Keys(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)

		entry := domain.NewCacheEntry("/styles.css", 200, map[string][]string{"Content-Type": {"text/css"}}, []byte("body{}"))
		require.NoError(t, h.Put(ctx, entry))

		got, ok, err := h.Match(ctx, "/styles.css")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, entry.Body, got.Body)
		assert.Equal(t, entry.Digest, got.Digest)
		assert.Equal(t, []string{"text/css"}, got.Header["Content-Type"])

		_, ok, err = h.Match(ctx, "/script.js")
		require.NoError(t, err)
		assert.False(t, ok)

		keys, err = h.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.AssetPath{"/styles.css"}, keys)
	})

	t.Run("PutReplaces", func(t *testing.T) {
		store, dir := newStore(t)
		ctx := context.Background()
		h, err := store.Open(ctx, domain.CacheLocation{Dir: dir, Version: "v1"})
		require.NoError(t, err)

		require.NoError(t, h.Put(ctx, domain.NewCacheEntry("/a.png", 200, nil, []byte("old"))))
		require.NoError(t, h.Put(ctx, domain.NewCacheEntry("/a.png", 200, nil, []byte("new"))))

		got, ok, err := h.Match(ctx, "/a.png")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("new"), got.Body)

		keys, err := h.Keys(ctx)
		require.NoError(t, err)
		assert.Len(t, keys, 1)
	})

	t.Run("OpenIsIdempotent", func(t *testing.T) {
		store, dir := newStore(t)
		ctx := context.Background()
		loc := domain.CacheLocation{Dir: dir, Version: "v1"}

		h1, err := store.Open(ctx, loc)
		require.NoError(t, err)
		require.NoError(t, h1.Put(ctx, domain.NewCacheEntry("/a.png", 200, nil, []byte("a"))))

		h2, err := store.Open(ctx, loc)
		require.NoError(t, err)
		_, ok, err := h2.Match(ctx, "/a.png")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("VersionsAreIsolated", func(t *testing.T) {
		store, dir := newStore(t)
		ctx := context.Background()

		v1, err := store.Open(ctx, domain.CacheLocation{Dir: dir, Version: "v1"})
		require.NoError(t, err)
		require.NoError(t, v1.Put(ctx, domain.NewCacheEntry("/a.png", 200, nil, []byte("a"))))

		v2, err := store.Open(ctx, domain.CacheLocation{Dir: dir, Version: "v2"})
		require.NoError(t, err)
		_, ok, err := v2.Match(ctx, "/a.png")
		require.NoError(t, err)
		assert.False(t, ok)
		require.NoError(t, v2.Put(ctx, domain.NewCacheEntry("/b.png", 200, nil, []byte("b"))))

		versions, err := store.Versions(ctx, dir)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"v1", "v2"}, versions)

		require.NoError(t, store.Drop(ctx, domain.CacheLocation{Dir: dir, Version: "v1"}))

		v1, err = store.Open(ctx, domain.CacheLocation{Dir: dir, Version: "v1"})
		require.NoError(t, err)
		keys, err := v1.Keys(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)

		keys, err = v2.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.AssetPath{"/b.png"}, keys)
	})

	t.Run("CorruptEntriesAreDropped", func(t *testing.T) {
		store, dir := newStore(t)
		ctx := context.Background()
		h, err := store.Open(ctx, domain.CacheLocation{Dir: dir, Version: "v1"})
		require.NoError(t, err)

		require.NoError(t, h.Put(ctx, domain.NewCacheEntry("/b.png", 200, nil, []byte("b"))))
		require.NoError(t, h.Put(ctx, &domain.CacheEntry{Path: "/a.png", Status: 200, Body: []byte("a"), Digest: 1}))

		keys, err := h.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.AssetPath{"/b.png"}, keys)

		_, ok, err := h.Match(ctx, "/a.png")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("CorruptMatchReportsOnce", func(t *testing.T) {
		store, dir := newStore(t)
		ctx := context.Background()
		h, err := store.Open(ctx, domain.CacheLocation{Dir: dir, Version: "v1"})
		require.NoError(t, err)

		require.NoError(t, h.Put(ctx, &domain.CacheEntry{Path: "/c.png", Status: 200, Body: []byte("c"), Digest: 1}))

		_, ok, err := h.Match(ctx, "/c.png")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrCacheCorrupt)
		assert.ErrorIs(t, err, domain.ErrCacheFailure)
		assert.False(t, ok)

		_, ok, err = h.Match(ctx, "/c.png")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("OverwriteWithCorruptEntry", func(t *testing.T) {
		store, dir := newStore(t)
		ctx := context.Background()
		h, err := store.Open(ctx, domain.CacheLocation{Dir: dir, Version: "v1"})
		require.NoError(t, err)

		require.NoError(t, h.Put(ctx, domain.NewCacheEntry("/a.png", 200, nil, []byte("a"))))
		keys, err := h.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.AssetPath{"/a.png"}, keys)

		require.NoError(t, h.Put(ctx, &domain.CacheEntry{Path: "/a.png", Status: 200, Body: []byte("a2"), Digest: 1}))
		keys, err = h.Keys(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("ConcurrentPuts", func(t *testing.T) {
		store, dir := newStore(t)
		ctx := context.Background()
		h, err := store.Open(ctx, domain.CacheLocation{Dir: dir, Version: "v1"})
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := range 20 {
			wg.Go(func() {
				p := domain.AssetPath(fmt.Sprintf("/assets/cards_set_flags/flag%d.svg", i))
				assert.NoError(t, h.Put(ctx, domain.NewCacheEntry(p, 200, nil, []byte(p))))
			})
		}
		wg.Wait()

		keys, err := h.Keys(ctx)
		require.NoError(t, err)
		assert.Len(t, keys, 20)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		store, dir := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := store.Open(ctx, domain.CacheLocation{Dir: dir, Version: "v1"})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrCacheFailure)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("InvalidVersion", func(t *testing.T) {
		store, dir := newStore(t)
		_, err := store.Open(context.Background(), domain.CacheLocation{Dir: dir, Version: ""})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrCacheFailure)
	})
}
