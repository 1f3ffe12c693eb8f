// Package cache provides the local cache for Econt nomenclature data.
//
// Nomenclature datasets (countries, cities, offices and streets) change rarely
// and are large, so the client keeps a whole-dataset copy of each one in a
// Store and answers filtered lookups from it without a network round-trip.
//
// # Architecture Overview
//
//   - Store: durable key/value persistence for whole datasets plus their
//     fetch time and TTL (FSStore on a core.FS, SQLStore on SQLite)
//   - Dataset: binds a cache key to the function that fetches it from the API
//   - Manager: read-through orchestration (hit, miss, stale, force refresh)
//   - Filter: pure, order-preserving predicate filtering shared by every path
//   - Exporter: ordered bulk export of every dataset with an export marker
//
// # Entry Lifecycle
//
//  1. Creation: an entry is written whole on export or on a miss-triggered fetch
//  2. Access: every lookup reads the entry and filters its payload
//  3. Expiration: an entry is stale once FetchedAt+TTL has been reached
//  4. Removal: entries are deleted by Clear or superseded by a refresh
//
// Entries are never partially updated.
//
// # Error Handling
//
// Errors are PlatformErrors from github.com/jmgilman/go/errors:
//   - CodeSourceUnavailable: the fetch failed and no usable entry exists
//   - CodeExportAborted: a bulk export step failed or was cancelled
//   - CodeCacheCorrupt: a stored entry is unreadable (recovered as a miss)
//   - CodeInvalidFilter: a predicate references an unknown record field
//
// # Thread Safety
//
// Manager, FSStore and SQLStore are safe for concurrent use. Writers of the
// same key are serialized; reads never take the write lock.
package cache
