package cache

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/billy"
)

// Store defines durable key/value persistence for cached datasets.
// Implementations must be safe for concurrent use and must make each Write
// atomic: a concurrent Read observes either the previous entry or the new one.
type Store interface {
	// Read returns the entry stored under key.
	// Returns ErrNotFound if the key is absent and an error with
	// CodeCacheCorrupt if the stored entry cannot be decoded.
	Read(ctx context.Context, key string) (*Entry, error)

	// Write stores entry under entry.Key, replacing any previous entry.
	Write(ctx context.Context, entry *Entry) error

	// Delete removes the given keys, or every key when none are given.
	// Deleting an absent key is not an error.
	Delete(ctx context.Context, keys ...string) error

	// List returns the metadata of every readable entry, ordered by key.
	// Only Key, Present, Count, FetchedAt, ExpiresAt and TTL are set.
	List(ctx context.Context) ([]Status, error)

	// Close releases resources held by the store.
	Close() error
}

// sqlitePrefix selects SQLStore in Config.Location.
const sqlitePrefix = "sqlite://"

// memoryRoot is the root directory of the in-memory store.
const memoryRoot = "/econt-cache"

// OpenStore opens the Store selected by cfg.Location:
//   - "" keeps entries in memory for the life of the process
//   - "sqlite://<path>" keeps entries in a SQLite database file
//   - any other value is a directory holding one file per key
func OpenStore(cfg Config) (Store, error) {
	switch {
	case cfg.Location == "":
		return NewFSStore(billy.NewMemory(), memoryRoot)
	case strings.HasPrefix(cfg.Location, sqlitePrefix):
		return OpenSQLStore(strings.TrimPrefix(cfg.Location, sqlitePrefix))
	default:
		root, err := filepath.Abs(cfg.Location)
		if err != nil {
			err := errors.Wrap(err, errors.CodeInvalidConfig, "failed to resolve cache location")
			return nil, errors.WithContext(err, "location", cfg.Location)
		}
		return NewFSStore(billy.NewLocal(), root)
	}
}

func validateKey(key string) error {
	if key == "" {
		return errors.New(errors.CodeInvalidInput, "cache key cannot be empty")
	}
	return nil
}

// keyedMutex hands out one mutex per key. A key's mutex is dropped once no
// goroutine holds or waits for it, so the map only grows with concurrency.
// The zero value is ready to use.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

// lock acquires the mutex for key and returns its unlock function.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &refMutex{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// len returns the number of keys currently locked or waited on.
func (k *keyedMutex) len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
