package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/jmgilman/go/errors"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	fetched_at INTEGER NOT NULL,
	ttl_ms     INTEGER NOT NULL,
	count      INTEGER NOT NULL,
	payload    BLOB NOT NULL
)`

// SQLStore stores entries as rows of a SQLite table. Each write is a single
// upsert statement, which SQLite applies atomically.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLStore opens (or creates) the SQLite database at path.
func OpenSQLStore(path string) (*SQLStore, error) {
	if path == "" {
		return nil, errors.New(errors.CodeInvalidConfig, "sqlite path cannot be empty")
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		err := errors.Wrap(err, errors.CodeDatabase, "failed to open cache database")
		return nil, errors.WithContext(err, "path", path)
	}
	// One connection keeps writers from contending for the database lock.
	db.SetMaxOpenConns(1)

	s, err := NewSQLStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore creates a store on an open database, creating its table if needed.
func NewSQLStore(db *sql.DB) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New(errors.CodeInvalidInput, "database cannot be nil")
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabase, "failed to create cache table")
	}
	return &SQLStore{db: db}, nil
}

// Read returns the entry stored under key.
func (s *SQLStore) Read(ctx context.Context, key string) (*Entry, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	var (
		fetchedAt, ttlMs int64
		count            int
		payload          []byte
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT fetched_at, ttl_ms, count, payload FROM cache_entries WHERE key = ?`, key)
	if err := row.Scan(&fetchedAt, &ttlMs, &count, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		err := errors.Wrap(err, errors.CodeDatabase, "failed to read cache entry")
		return nil, errors.WithContext(err, "key", key)
	}

	if !json.Valid(payload) {
		return nil, errors.WithContext(newCorruptError(key, nil), "reason", "invalid payload")
	}

	return &Entry{
		Key:       key,
		Payload:   json.RawMessage(payload),
		Count:     count,
		FetchedAt: time.Unix(0, fetchedAt),
		TTL:       time.Duration(ttlMs) * time.Millisecond,
	}, nil
}

// Write upserts entry.
func (s *SQLStore) Write(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return errors.New(errors.CodeInvalidInput, "entry cannot be nil")
	}
	if err := validateKey(entry.Key); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO cache_entries (key, fetched_at, ttl_ms, count, payload)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
	fetched_at = excluded.fetched_at,
	ttl_ms     = excluded.ttl_ms,
	count      = excluded.count,
	payload    = excluded.payload`,
		entry.Key, entry.FetchedAt.UnixNano(), entry.TTL.Milliseconds(), entry.Count, []byte(entry.Payload))
	if err != nil {
		err := errors.Wrap(err, errors.CodeDatabase, "failed to write cache entry")
		return errors.WithContext(err, "key", entry.Key)
	}
	return nil
}

// Delete removes the given keys, or every entry when none are given.
func (s *SQLStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries`); err != nil {
			return errors.Wrap(err, errors.CodeDatabase, "failed to clear cache entries")
		}
		return nil
	}

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	query := `DELETE FROM cache_entries WHERE key IN (` + placeholders(len(keys)) + `)`
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		err := errors.Wrap(err, errors.CodeDatabase, "failed to delete cache entries")
		return errors.WithContext(err, "keys", keys)
	}
	return nil
}

// List returns the metadata of every entry, ordered by key.
func (s *SQLStore) List(ctx context.Context) ([]Status, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, fetched_at, ttl_ms, count FROM cache_entries ORDER BY key`)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabase, "failed to list cache entries")
	}
	defer func() { _ = rows.Close() }()

	var statuses []Status
	for rows.Next() {
		var (
			e                Entry
			fetchedAt, ttlMs int64
		)
		if err := rows.Scan(&e.Key, &fetchedAt, &ttlMs, &e.Count); err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabase, "failed to scan cache entry")
		}
		e.FetchedAt = time.Unix(0, fetchedAt)
		e.TTL = time.Duration(ttlMs) * time.Millisecond
		statuses = append(statuses, statusOf(&e))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabase, "failed to list cache entries")
	}
	return statuses, nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.Wrap(err, errors.CodeDatabase, "failed to close cache database")
	}
	return nil
}

// placeholders returns n comma separated SQLite placeholders.
func placeholders(n int) string {
	list := make([]string, n)
	for i := range list {
		list[i] = "?"
	}
	return strings.Join(list, ", ")
}
