package domain

import (
	"path/filepath"
	"time"
)

const (
	// FlipfusionDirName is the name of the internal workspace directory.
	FlipfusionDirName = ".flipfusion"

	// CacheDirName is the name of the asset cache directory.
	CacheDirName = "cache"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "flipfusion.yaml"

	// DefaultCacheVersion names the asset cache generation.
	DefaultCacheVersion = "flipfusion-v1-assets"

	// DefaultOrigin is the base URL assets are fetched from.
	DefaultOrigin = "http://localhost:8000"

	// DefaultListen is the address the serve command binds to.
	DefaultListen = ":8080"

	// DefaultRequestTimeout bounds a single origin request.
	DefaultRequestTimeout = 30 * time.Second

	// CacheStatusHeader marks responses served from the asset cache.
	CacheStatusHeader = "X-Flipfusion-Cache"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultFlipfusionPath returns the default root directory for flipfusion metadata.
func DefaultFlipfusionPath() string {
	return FlipfusionDirName
}

// DefaultCachePath returns the default path for the asset cache.
// It joins .flipfusion and cache.
func DefaultCachePath() string {
	return filepath.Join(FlipfusionDirName, CacheDirName)
}

// CacheLocation addresses one named cache generation inside a store directory.
type CacheLocation struct {
	Dir     string
	Version string
}
