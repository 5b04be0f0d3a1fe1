package domain

import (
	"fmt"

	"go.trai.ch/zerr"
)

var (
	// ErrNetworkFailure is the kind of every failed origin request.
	ErrNetworkFailure = zerr.New("network request failed")

	// ErrCacheFailure is the kind of every failed cache store operation.
	ErrCacheFailure = zerr.New("cache operation failed")

	// ErrRetryExhausted is returned when an asset could not be fetched within the retry budget.
	ErrRetryExhausted = zerr.New("retries exhausted")

	// ErrCacheCorrupt is returned when a stored entry no longer matches its digest.
	ErrCacheCorrupt = zerr.New("cache entry is corrupt")

	// ErrLoadPassFailed is returned when a load pass could not cache every missing asset.
	ErrLoadPassFailed = zerr.New("failed to load missing assets")

	// ErrBootstrapFailed is returned when every bootstrap attempt failed.
	ErrBootstrapFailed = zerr.New("bootstrap failed, continuing with limited assets")

	// ErrInvalidCacheVersion is returned when the cache version is empty or unsafe.
	ErrInvalidCacheVersion = zerr.New("cache version must be a non-empty name without path separators")

	// ErrInvalidOrigin is returned when the origin is not an absolute http(s) URL.
	ErrInvalidOrigin = zerr.New("origin must be an absolute http or https URL")

	// ErrInvalidBackend is returned for an unknown cache backend.
	ErrInvalidBackend = zerr.New("invalid cache backend, expected 'fs' or 'badger'")

	// ErrInvalidLoadPolicy is returned when batch or retry settings are out of range.
	ErrInvalidLoadPolicy = zerr.New("invalid load policy")

	// ErrInvalidManifest is returned when a manifest group is malformed.
	ErrInvalidManifest = zerr.New("invalid manifest")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrEnvParseFailed is returned when environment overrides cannot be parsed.
	ErrEnvParseFailed = zerr.New("failed to parse environment overrides")

	// ErrStoreCreateFailed is returned when the cache directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create cache store directory")

	// ErrStoreReadFailed is returned when a cache entry cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read cache entry")

	// ErrStoreWriteFailed is returned when a cache entry cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write cache entry")

	// ErrStoreUnmarshalFailed is returned when a cache entry cannot be decoded.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal cache entry")

	// ErrStoreMarshalFailed is returned when a cache entry cannot be encoded.
	ErrStoreMarshalFailed = zerr.New("failed to marshal cache entry")
)

// NetworkError describes a failed request to the origin.
// StatusCode is zero when no response was received.
type NetworkError struct {
	Path       AssetPath
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: unexpected status %d", e.Path, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %v", e.Path, ErrNetworkFailure)
	}
}

// Unwrap exposes both the failure kind and the underlying cause to errors.Is.
func (e *NetworkError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNetworkFailure}
	}
	return []error{ErrNetworkFailure, e.Err}
}

// CacheError describes a failed cache store operation.
type CacheError struct {
	Op   string
	Path AssetPath
	Err  error
}

func (e *CacheError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("cache %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes both the failure kind and the underlying cause to errors.Is.
func (e *CacheError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCacheFailure}
	}
	return []error{ErrCacheFailure, e.Err}
}

// FetchError is returned when every fetch attempt for an asset failed.
// Err holds the failure of the last attempt.
type FetchError struct {
	Path     AssetPath
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: giving up after %d attempts: %v", e.Path, e.Attempts, e.Err)
}

// Unwrap exposes both ErrRetryExhausted and the last attempt's error to errors.Is.
func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRetryExhausted}
	}
	return []error{ErrRetryExhausted, e.Err}
}
