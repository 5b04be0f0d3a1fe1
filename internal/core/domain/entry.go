package domain

import (
	"time"

	"github.com/cespare/xxhash/v2"
)

// CacheEntry is a fetched asset persisted in the cache store.
type CacheEntry struct {
	Path     AssetPath           `json:"path"`
	Status   int                 `json:"status"`
	Header   map[string][]string `json:"header,omitempty"`
	Body     []byte              `json:"body"`
	Digest   uint64              `json:"digest"`
	StoredAt time.Time           `json:"stored_at,omitzero"`
}

// NewCacheEntry creates an entry for a successful response and stamps its digest.
func NewCacheEntry(p AssetPath, status int, header map[string][]string, body []byte) *CacheEntry {
	return &CacheEntry{
		Path:     p,
		Status:   status,
		Header:   header,
		Body:     body,
		Digest:   Digest(body),
		StoredAt: time.Now().UTC(),
	}
}

// Digest returns the xxhash64 of body.
func Digest(body []byte) uint64 {
	return xxhash.Sum64(body)
}

// Verify checks the body against the recorded digest.
func (e *CacheEntry) Verify() error {
	if Digest(e.Body) != e.Digest {
		return &CacheError{Op: "verify", Path: e.Path, Err: ErrCacheCorrupt}
	}
	return nil
}
