package domain

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"go.trai.ch/zerr"
)

// Backend selects the cache store implementation.
type Backend string

const (
	// BackendFS stores one file per entry.
	BackendFS Backend = "fs"
	// BackendBadger stores entries in an embedded Badger database.
	BackendBadger Backend = "badger"
)

// LoadPolicy controls batching and retries of asset loading.
type LoadPolicy struct {
	// BatchSize is the number of assets fetched concurrently per batch.
	BatchSize int
	// MaxRetries is the number of retries after the first fetch attempt.
	MaxRetries int
	// RetryDelay is the fixed wait between fetch attempts.
	RetryDelay time.Duration
	// Attempts is the number of bootstrap passes before degrading.
	Attempts int
	// AttemptDelay is the wait between bootstrap passes.
	AttemptDelay time.Duration
}

// DefaultLoadPolicy returns the policy used when nothing is configured.
func DefaultLoadPolicy() LoadPolicy {
	return LoadPolicy{
		BatchSize:    5,
		MaxRetries:   3,
		RetryDelay:   time.Second,
		Attempts:     3,
		AttemptDelay: 2 * time.Second,
	}
}

// Settings is the resolved runtime configuration.
type Settings struct {
	// Root is the directory containing the config file, or the working directory.
	Root           string
	Origin         string
	CacheVersion   string
	CacheDir       string
	Backend        Backend
	Listen         string
	RequestTimeout time.Duration
	Load           LoadPolicy
	Manifest       ManifestSpec
}

// DefaultSettings returns settings rooted at root with every default applied.
func DefaultSettings(root string) *Settings {
	return &Settings{
		Root:           root,
		Origin:         DefaultOrigin,
		CacheVersion:   DefaultCacheVersion,
		CacheDir:       DefaultCachePath(),
		Backend:        BackendFS,
		Listen:         DefaultListen,
		RequestTimeout: DefaultRequestTimeout,
		Load:           DefaultLoadPolicy(),
		Manifest:       DefaultManifestSpec(),
	}
}

// Location returns where the configured cache generation lives.
func (s *Settings) Location() CacheLocation {
	return CacheLocation{Dir: s.CacheDir, Version: s.CacheVersion}
}

// Validate reports every invalid field joined into one error.
func (s *Settings) Validate() error {
	var errs error

	u, err := url.Parse(s.Origin)
	if s.Origin == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = errors.Join(errs, zerr.With(ErrInvalidOrigin, "origin", s.Origin))
	}

	errs = errors.Join(errs, ValidateCacheVersion(s.CacheVersion))

	if s.Backend != BackendFS && s.Backend != BackendBadger {
		errs = errors.Join(errs, zerr.With(ErrInvalidBackend, "backend", string(s.Backend)))
	}

	errs = errors.Join(errs, s.Load.validate(), s.Manifest.Validate())
	return errs
}

// ValidateCacheVersion rejects versions that cannot name a directory or key prefix.
func ValidateCacheVersion(v string) error {
	if v == "" || v == "." || v == ".." || strings.ContainsAny(v, "/\\\x00") {
		return zerr.With(ErrInvalidCacheVersion, "cache_version", v)
	}
	return nil
}

func (p LoadPolicy) validate() error {
	switch {
	case p.BatchSize < 1:
		return zerr.With(ErrInvalidLoadPolicy, "batch_size", p.BatchSize)
	case p.Attempts < 1:
		return zerr.With(ErrInvalidLoadPolicy, "attempts", p.Attempts)
	case p.MaxRetries < 0:
		return zerr.With(ErrInvalidLoadPolicy, "max_retries", p.MaxRetries)
	case p.RetryDelay < 0 || p.AttemptDelay < 0:
		return zerr.With(ErrInvalidLoadPolicy, "delay", "negative")
	}
	return nil
}

// Validate checks that every group can produce well-formed paths.
func (s ManifestSpec) Validate() error {
	var errs error
	for _, g := range s.Groups {
		if g.Name == "" || g.Extension == "" || g.Count < 1 {
			errs = errors.Join(errs, zerr.With(ErrInvalidManifest, "group", g.Name))
		}
	}
	if s.SamplingCap < 0 {
		errs = errors.Join(errs, zerr.With(ErrInvalidManifest, "sampling_cap", s.SamplingCap))
	}
	return errs
}
