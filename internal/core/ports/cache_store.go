package ports

import (
	"context"

	"go.trai.ch/flipfusion/internal/core/domain"
)

// CacheStore opens named, persistent asset caches.
//
//go:generate mockgen -source=cache_store.go -destination=mocks/mock_cache_store.go -package=mocks
type CacheStore interface {
	// Open returns the cache for loc, creating it if absent.
	// Opening the same location twice yields the same logical store.
	Open(ctx context.Context, loc domain.CacheLocation) (CacheHandle, error)

	// Versions lists the cache versions present under dir.
	Versions(ctx context.Context, dir string) ([]string, error)

	// Drop removes every entry of the cache at loc.
	Drop(ctx context.Context, loc domain.CacheLocation) error

	// Close releases resources held by the store.
	Close() error
}

// CacheHandle is an opened cache for a single version.
type CacheHandle interface {
	// Version returns the cache version this handle is scoped to.
	Version() string

	// Keys lists the paths of all committed entries.
	Keys(ctx context.Context) ([]domain.AssetPath, error)

	// Put commits entry atomically, replacing any previous entry for the same path.
	Put(ctx context.Context, entry *domain.CacheEntry) error

	// Match returns the entry stored for path.
	// Returns nil, false, nil if not found.
	Match(ctx context.Context, path domain.AssetPath) (*domain.CacheEntry, bool, error)
}
