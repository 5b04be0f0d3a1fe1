// Package kv implements the cache store on an embedded Badger database.
package kv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"go.trai.ch/flipfusion/internal/core/domain"
	"go.trai.ch/flipfusion/internal/core/ports"
	"go.trai.ch/zerr"
)

// DBDirName is the directory holding the database below a cache dir.
const DBDirName = "badger"

const keySep = 0x00

// Store implements ports.CacheStore with one Badger database per cache dir.
// Entries of all versions share the database, keyed by "<version>\x00<path>".
type Store struct {
	logger   badger.Logger
	inMemory bool

	mu       sync.Mutex
	dbs      map[string]*badger.DB
	verified map[string]*verifiedKeys
}

// verifiedKeys remembers keys whose value passed digest verification,
// along with the Badger version of the value that was checked.
type verifiedKeys struct {
	mu   sync.Mutex
	keys map[string]uint64
}

func newVerifiedKeys() *verifiedKeys {
	return &verifiedKeys{keys: make(map[string]uint64)}
}

func (v *verifiedKeys) has(key string, version uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	got, ok := v.keys[key]
	return ok && got == version
}

func (v *verifiedKeys) record(key string, version uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.keys[key] = version
}

func (v *verifiedKeys) forget(key string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.keys, key)
}

func (v *verifiedKeys) forgetPrefix(prefix string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for key := range v.keys {
		if strings.HasPrefix(key, prefix) {
			delete(v.keys, key)
		}
	}
}

// Option configures a Store.
type Option func(*Store)

// WithLogger routes Badger's internal logging.
func WithLogger(l badger.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithInMemory keeps databases in memory. Nothing is written to disk.
func WithInMemory() Option {
	return func(s *Store) { s.inMemory = true }
}

// NewStore creates a Store. Databases are opened lazily.
func NewStore(opts ...Option) *Store {
	s := &Store{
		dbs:      make(map[string]*badger.DB),
		verified: make(map[string]*verifiedKeys),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) db(dir string, create bool) (*badger.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(dir, DBDirName)
	if db, ok := s.dbs[path]; ok {
		return db, nil
	}

	opts := badger.DefaultOptions(path).WithLogger(s.logger)
	if s.inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(s.logger)
	} else {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !create {
			return nil, nil
		}
		if err := os.MkdirAll(path, domain.DirPerm); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreCreateFailed.Error()), "dir", path)
		}
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, zerr.With(err, "dir", path)
	}
	s.dbs[path] = db
	s.verified[path] = newVerifiedKeys()
	return db, nil
}

func (s *Store) verifiedFor(dir string) *verifiedKeys {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verified[filepath.Join(dir, DBDirName)]
}

// Open returns a handle for loc, opening the database of loc.Dir on first use.
func (s *Store) Open(ctx context.Context, loc domain.CacheLocation) (ports.CacheHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.CacheError{Op: "open", Err: err}
	}
	if err := domain.ValidateCacheVersion(loc.Version); err != nil {
		return nil, &domain.CacheError{Op: "open", Err: err}
	}

	db, err := s.db(loc.Dir, true)
	if err != nil {
		return nil, &domain.CacheError{Op: "open", Err: err}
	}
	return &Handle{
		db:       db,
		version:  loc.Version,
		prefix:   prefix(loc.Version),
		verified: s.verifiedFor(loc.Dir),
	}, nil
}

// Versions lists the distinct versions with at least one entry.
func (s *Store) Versions(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.CacheError{Op: "versions", Err: err}
	}

	db, err := s.db(dir, false)
	if err != nil {
		return nil, &domain.CacheError{Op: "versions", Err: err}
	}
	if db == nil {
		return nil, nil
	}

	var versions []string
	err = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); {
			key := it.Item().Key()
			i := bytes.IndexByte(key, keySep)
			if i < 0 {
				it.Next()
				continue
			}
			version := string(key[:i])
			versions = append(versions, version)
			// Skip the remaining keys of this version.
			it.Seek(append([]byte(version), keySep+1))
		}
		return nil
	})
	if err != nil {
		return nil, &domain.CacheError{Op: "versions", Err: zerr.Wrap(err, domain.ErrStoreReadFailed.Error())}
	}
	return versions, nil
}

// Drop deletes every key of loc's version.
func (s *Store) Drop(ctx context.Context, loc domain.CacheLocation) error {
	if err := ctx.Err(); err != nil {
		return &domain.CacheError{Op: "drop", Err: err}
	}
	if err := domain.ValidateCacheVersion(loc.Version); err != nil {
		return &domain.CacheError{Op: "drop", Err: err}
	}

	db, err := s.db(loc.Dir, false)
	if err != nil {
		return &domain.CacheError{Op: "drop", Err: err}
	}
	if db == nil {
		return nil
	}
	if err := db.DropPrefix(prefix(loc.Version)); err != nil {
		return &domain.CacheError{Op: "drop", Err: zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())}
	}
	if v := s.verifiedFor(loc.Dir); v != nil {
		v.forgetPrefix(string(prefix(loc.Version)))
	}
	return nil
}

// Close closes every opened database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs error
	for path, db := range s.dbs {
		errs = errors.Join(errs, db.Close())
		delete(s.dbs, path)
		delete(s.verified, path)
	}
	return errs
}

func prefix(version string) []byte {
	return append([]byte(version), keySep)
}

// Handle is an opened cache version inside a Badger database.
type Handle struct {
	db       *badger.DB
	version  string
	prefix   []byte
	verified *verifiedKeys
}

func (h *Handle) key(path domain.AssetPath) []byte {
	return append(bytes.Clone(h.prefix), path...)
}

// Version returns the cache version of the handle.
func (h *Handle) Version() string {
	return h.version
}

// Keys lists the paths of all committed entries in key order.
// Values that fail to decode or whose digest does not match are deleted
// so the next load pass fetches them again. Each value is verified once
// per write.
func (h *Handle) Keys(ctx context.Context) ([]domain.AssetPath, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.CacheError{Op: "keys", Err: err}
	}

	var (
		keys    []domain.AssetPath
		corrupt [][]byte
	)
	err := h.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = h.prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(h.prefix); it.ValidForPrefix(h.prefix); it.Next() {
			item := it.Item()
			key := string(item.Key())
			p := domain.AssetPath(key[len(h.prefix):])
			if h.verified.has(key, item.Version()) {
				keys = append(keys, p)
				continue
			}

			var (
				entry     domain.CacheEntry
				decodeErr error
			)
			if err := item.Value(func(val []byte) error {
				decodeErr = json.Unmarshal(val, &entry)
				return nil
			}); err != nil {
				return err
			}
			if decodeErr != nil || entry.Verify() != nil {
				corrupt = append(corrupt, item.KeyCopy(nil))
				continue
			}
			h.verified.record(key, item.Version())
			keys = append(keys, p)
		}
		return nil
	})
	if err != nil {
		return nil, &domain.CacheError{Op: "keys", Err: zerr.Wrap(err, domain.ErrStoreReadFailed.Error())}
	}
	h.discard(corrupt...)
	return keys, nil
}

func (h *Handle) discard(keys ...[]byte) {
	if len(keys) == 0 {
		return
	}
	for _, k := range keys {
		h.verified.forget(string(k))
	}
	_ = h.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Put commits entry in its own transaction.
func (h *Handle) Put(ctx context.Context, entry *domain.CacheEntry) error {
	if err := ctx.Err(); err != nil {
		return &domain.CacheError{Op: "put", Path: entry.Path, Err: err}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return &domain.CacheError{Op: "put", Path: entry.Path, Err: zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())}
	}

	key := h.key(entry.Path)
	h.verified.forget(string(key))
	err = h.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return &domain.CacheError{Op: "put", Path: entry.Path, Err: zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())}
	}
	return nil
}

// Match reads the entry for path and verifies its digest.
// A corrupt entry is deleted after reporting domain.ErrCacheCorrupt.
func (h *Handle) Match(ctx context.Context, path domain.AssetPath) (*domain.CacheEntry, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, &domain.CacheError{Op: "match", Path: path, Err: err}
	}

	var data []byte
	err := h.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(h.key(path))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &domain.CacheError{Op: "match", Path: path, Err: zerr.Wrap(err, domain.ErrStoreReadFailed.Error())}
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		h.discard(h.key(path))
		return nil, false, &domain.CacheError{Op: "match", Path: path, Err: zerr.Wrap(err, domain.ErrStoreUnmarshalFailed.Error())}
	}
	if err := entry.Verify(); err != nil {
		h.discard(h.key(path))
		return nil, false, err
	}
	return &entry, true, nil
}
