// Package cas implements a file-per-entry cache store keyed by the SHA-256 of the asset path.
package cas

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"go.trai.ch/flipfusion/internal/core/domain"
	"go.trai.ch/flipfusion/internal/core/ports"
	"go.trai.ch/zerr"
)

const entryExt = ".json"

// Store implements ports.CacheStore on the local filesystem.
// Each version is a directory below the location's Dir.
type Store struct {
	verified *verifiedFiles
}

// NewStore creates a new Store.
func NewStore() *Store {
	return &Store{verified: &verifiedFiles{files: make(map[string]fileStamp)}}
}

// fileStamp identifies the bytes of an entry file that passed verification.
type fileStamp struct {
	path    domain.AssetPath
	size    int64
	modTime time.Time
}

// verifiedFiles remembers entry files whose digest matched, keyed by file name.
// A file whose size or modification time changed is verified again.
type verifiedFiles struct {
	mu    sync.Mutex
	files map[string]fileStamp
}

func (v *verifiedFiles) lookup(name string, info fs.FileInfo) (domain.AssetPath, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	st, ok := v.files[name]
	if !ok || st.size != info.Size() || !st.modTime.Equal(info.ModTime()) {
		return "", false
	}
	return st.path, true
}

func (v *verifiedFiles) record(name string, p domain.AssetPath, info fs.FileInfo) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.files[name] = fileStamp{path: p, size: info.Size(), modTime: info.ModTime()}
}

func (v *verifiedFiles) forget(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.files, name)
}

func (v *verifiedFiles) forgetDir(dir string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for name := range v.files {
		if filepath.Dir(name) == dir {
			delete(v.files, name)
		}
	}
}

// Open returns a handle for loc, creating its directory if absent.
func (s *Store) Open(ctx context.Context, loc domain.CacheLocation) (ports.CacheHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.CacheError{Op: "open", Err: err}
	}

	dir, err := versionDir(loc)
	if err != nil {
		return nil, &domain.CacheError{Op: "open", Err: err}
	}
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return nil, &domain.CacheError{Op: "open", Err: zerr.With(zerr.Wrap(err, domain.ErrStoreCreateFailed.Error()), "dir", dir)}
	}
	return &Handle{dir: dir, version: loc.Version, verified: s.verified}, nil
}

// Versions lists the version directories under dir.
func (s *Store) Versions(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.CacheError{Op: "versions", Err: err}
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.CacheError{Op: "versions", Err: zerr.Wrap(err, domain.ErrStoreReadFailed.Error())}
	}

	var versions []string
	for _, e := range entries {
		if e.IsDir() {
			versions = append(versions, e.Name())
		}
	}
	return versions, nil
}

// Drop removes the version directory of loc.
func (s *Store) Drop(ctx context.Context, loc domain.CacheLocation) error {
	if err := ctx.Err(); err != nil {
		return &domain.CacheError{Op: "drop", Err: err}
	}

	dir, err := versionDir(loc)
	if err != nil {
		return &domain.CacheError{Op: "drop", Err: err}
	}
	if err := os.RemoveAll(dir); err != nil {
		return &domain.CacheError{Op: "drop", Err: zerr.With(err, "dir", dir)}
	}
	s.verified.forgetDir(dir)
	return nil
}

// Close does nothing; files are not held open between calls.
func (s *Store) Close() error {
	return nil
}

func versionDir(loc domain.CacheLocation) (string, error) {
	if err := domain.ValidateCacheVersion(loc.Version); err != nil {
		return "", err
	}
	return filepath.Join(loc.Dir, loc.Version), nil
}

// Handle is an opened cache version backed by a directory.
type Handle struct {
	dir      string
	version  string
	verified *verifiedFiles
}

// Version returns the cache version of the handle.
func (h *Handle) Version() string {
	return h.version
}

// Keys lists the paths of all committed entries in lexical order.
// Temporary files of writes in flight are skipped. Entries that fail to
// decode or whose digest does not match are removed so the next load
// pass fetches them again. Each file is verified once per content change.
func (h *Handle) Keys(ctx context.Context) ([]domain.AssetPath, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.CacheError{Op: "keys", Err: err}
	}

	files, err := os.ReadDir(h.dir)
	if err != nil {
		return nil, &domain.CacheError{Op: "keys", Err: zerr.Wrap(err, domain.ErrStoreReadFailed.Error())}
	}

	keys := make([]domain.AssetPath, 0, len(files))
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != entryExt {
			continue
		}

		full := filepath.Join(h.dir, name)
		info, err := f.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, &domain.CacheError{Op: "keys", Err: zerr.Wrap(err, domain.ErrStoreReadFailed.Error())}
		}
		if p, ok := h.verified.lookup(full, info); ok {
			keys = append(keys, p)
			continue
		}

		p, err := verifyFile(full)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			if !errors.Is(err, domain.ErrCacheCorrupt) {
				return nil, &domain.CacheError{Op: "keys", Err: zerr.Wrap(err, domain.ErrStoreReadFailed.Error())}
			}
			h.discard(full)
			continue
		}
		h.verified.record(full, p, info)
		keys = append(keys, p)
	}
	slices.Sort(keys)
	return keys, nil
}

// verifyFile decodes the entry stored in name and checks its digest.
// Undecodable and mismatching entries report domain.ErrCacheCorrupt.
func verifyFile(name string) (domain.AssetPath, error) {
	//nolint:gosec // Path is constructed from the store directory and a listed file name
	f, err := os.Open(name)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	var entry domain.CacheEntry
	if err := json.NewDecoder(f).Decode(&entry); err != nil || entry.Path == "" {
		return "", &domain.CacheError{Op: "verify", Path: entry.Path, Err: domain.ErrCacheCorrupt}
	}
	if err := entry.Verify(); err != nil {
		return "", err
	}
	return entry.Path, nil
}

func (h *Handle) discard(name string) {
	h.verified.forget(name)
	_ = os.Remove(name)
}

// Put writes entry to a temporary file and renames it into place.
func (h *Handle) Put(ctx context.Context, entry *domain.CacheEntry) error {
	if err := ctx.Err(); err != nil {
		return &domain.CacheError{Op: "put", Path: entry.Path, Err: err}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return &domain.CacheError{Op: "put", Path: entry.Path, Err: zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())}
	}

	tmp, err := os.CreateTemp(h.dir, ".put-*")
	if err != nil {
		return &domain.CacheError{Op: "put", Path: entry.Path, Err: zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())}
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		return &domain.CacheError{Op: "put", Path: entry.Path, Err: zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())}
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return &domain.CacheError{Op: "put", Path: entry.Path, Err: zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())}
	}
	name := h.filename(entry.Path)
	if err := os.Rename(tmpName, name); err != nil {
		return &domain.CacheError{Op: "put", Path: entry.Path, Err: zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())}
	}

	h.verified.forget(name)
	if entry.Verify() == nil {
		if info, err := os.Stat(name); err == nil {
			h.verified.record(name, entry.Path, info)
		}
	}
	return nil
}

// Match reads the entry for path and verifies its digest.
// A corrupt entry is removed after reporting domain.ErrCacheCorrupt.
func (h *Handle) Match(ctx context.Context, path domain.AssetPath) (*domain.CacheEntry, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, &domain.CacheError{Op: "match", Path: path, Err: err}
	}

	name := h.filename(path)
	data, err := os.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &domain.CacheError{Op: "match", Path: path, Err: zerr.Wrap(err, domain.ErrStoreReadFailed.Error())}
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		h.discard(name)
		return nil, false, &domain.CacheError{Op: "match", Path: path, Err: zerr.Wrap(err, domain.ErrStoreUnmarshalFailed.Error())}
	}
	if err := entry.Verify(); err != nil {
		h.discard(name)
		return nil, false, err
	}
	return &entry, true, nil
}

func (h *Handle) filename(path domain.AssetPath) string {
	sum := sha256.Sum256([]byte(path))
	return filepath.Join(h.dir, hex.EncodeToString(sum[:])+entryExt)
}
