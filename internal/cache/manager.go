package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jmgilman/go/errors"
	"golang.org/x/sync/singleflight"
)

// Manager resolves dataset lookups against a Store, fetching from the API on
// a miss, a stale entry or a forced refresh. A Manager is safe for
// concurrent use.
type Manager struct {
	config  Config
	store   Store
	logger  *Logger
	metrics *Metrics
	now     func() time.Time

	writes   keyedMutex
	flight   singleflight.Group
	exportMu sync.Mutex
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger. The default discards all output.
func WithLogger(logger *Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMetrics sets the metrics sink. The default counts into unregistered collectors.
func WithMetrics(metrics *Metrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithClock sets the time source used for FetchedAt and expiry checks.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a Manager. The store may be nil only when the cache is disabled.
func NewManager(config Config, store Store, opts ...ManagerOption) (*Manager, error) {
	config.SetDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Enabled && store == nil {
		return nil, errors.New(errors.CodeInvalidConfig, "enabled cache requires a store")
	}

	m := &Manager{
		config: config,
		store:  store,
		logger: NewNopLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.metrics == nil {
		m.metrics = NewMetrics(nil)
	}
	return m, nil
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.config
}

// Enabled reports whether lookups go through the store.
func (m *Manager) Enabled() bool {
	return m.config.Enabled
}

// Close closes the underlying store.
func (m *Manager) Close() error {
	if m.store == nil {
		return nil
	}
	return m.store.Close()
}

// FetchFunc retrieves a whole dataset from the API.
type FetchFunc[T Record] func(ctx context.Context) ([]T, error)

// Dataset binds a cache key to the fetch that fills it.
type Dataset[T Record] struct {
	Key   string
	Fetch FetchFunc[T]
}

// GetOption configures a single lookup.
type GetOption func(*getOptions)

type getOptions struct {
	forceRefresh bool
}

// WithForceRefresh bypasses any stored entry and fetches from the API.
// A successful fetch replaces the stored entry.
func WithForceRefresh() GetOption {
	return func(o *getOptions) {
		o.forceRefresh = true
	}
}

// Resolve returns the records of ds matching criteria and where they came
// from. Filtering runs after the data is obtained, so results are the same
// whether served from the store or fetched.
//
// Returns an error with CodeInvalidFilter for unknown fields, before any
// fetch is attempted, and CodeSourceUnavailable when the fetch fails and no
// usable entry exists.
func Resolve[T Record](ctx context.Context, m *Manager, ds Dataset[T], criteria Criteria, opts ...GetOption) ([]T, Source, error) {
	var o getOptions
	for _, opt := range opts {
		opt(&o)
	}

	if _, err := Filter([]T(nil), criteria); err != nil {
		return nil, "", err
	}

	var s strategy[T] = directFetch[T]{m: m}
	if m.config.Enabled {
		s = cacheBacked[T]{m: m}
	}

	records, source, err := s.resolve(ctx, ds, o.forceRefresh)
	if err != nil {
		return nil, "", err
	}

	filtered, err := Filter(records, criteria)
	if err != nil {
		return nil, "", err
	}
	return filtered, source, nil
}

// strategy obtains the full record set of a dataset.
type strategy[T Record] interface {
	resolve(ctx context.Context, ds Dataset[T], force bool) ([]T, Source, error)
}

// directFetch always goes to the API and never touches the store.
type directFetch[T Record] struct {
	m *Manager
}

func (s directFetch[T]) resolve(ctx context.Context, ds Dataset[T], _ bool) ([]T, Source, error) {
	s.m.metrics.RecordLookup(ds.Key, ResultBypass)

	start := time.Now()
	records, err := ds.Fetch(ctx)
	s.m.metrics.RecordFetch(ds.Key, err)
	LogFetch(ctx, s.m.logger, ds.Key, len(records), time.Since(start), err)
	if err != nil {
		return nil, "", newSourceUnavailableError(ds.Key, err)
	}
	return records, SourceAPI, nil
}

// cacheBacked serves fresh entries from the store and refreshes the rest.
type cacheBacked[T Record] struct {
	m *Manager
}

func (s cacheBacked[T]) resolve(ctx context.Context, ds Dataset[T], force bool) ([]T, Source, error) {
	m := s.m
	logger := m.logger.WithOperation("resolve")

	var stale *Entry
	if force {
		m.metrics.RecordLookup(ds.Key, ResultRefresh)
		LogCacheMiss(ctx, logger, ds.Key, "force refresh")
	} else {
		entry, err := m.read(ctx, ds.Key)
		if err != nil {
			return nil, "", err
		}

		switch {
		case entry == nil:
			m.metrics.RecordLookup(ds.Key, ResultMiss)
			LogCacheMiss(ctx, logger, ds.Key, "not cached")
		case entry.IsStale(m.now()):
			stale = entry
			m.metrics.RecordLookup(ds.Key, ResultStale)
			LogCacheMiss(ctx, logger, ds.Key, "expired")
		default:
			records, err := decodeRecords[T](entry)
			if err == nil {
				m.metrics.RecordLookup(ds.Key, ResultHit)
				LogCacheHit(ctx, logger, ds.Key, entry.Count, m.now().Sub(entry.FetchedAt))
				return records, SourceCache, nil
			}
			m.recordCorrupt(ctx, ds.Key, err)
			m.metrics.RecordLookup(ds.Key, ResultMiss)
		}
	}

	var (
		records []T
		err     error
	)
	if force {
		records, err = fetchAndStore(ctx, m, ds)
	} else {
		records, err = s.shared(ctx, ds)
	}
	if err == nil {
		return records, SourceAPI, nil
	}

	if stale != nil && m.config.ServeStaleOnError && errors.GetCode(err) == CodeSourceUnavailable {
		if recs, derr := decodeRecords[T](stale); derr == nil {
			m.metrics.RecordLookup(ds.Key, ResultStaleServed)
			logger.WithKey(ds.Key).Warn(ctx, "serving stale entry after failed refresh",
				"age_ms", m.now().Sub(stale.FetchedAt).Milliseconds(),
				"error", err.Error())
			return recs, SourceCache, nil
		}
	}
	return nil, "", err
}

// shared collapses concurrent refreshes of the same key into one fetch.
// The fetch runs detached from the caller that started it, so one caller
// giving up does not fail the others; each caller stops waiting when its
// own ctx is done.
func (s cacheBacked[T]) shared(ctx context.Context, ds Dataset[T]) ([]T, error) {
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.m.flight.DoChan(ds.Key, func() (interface{}, error) {
		return fetchAndStore(fetchCtx, s.m, ds)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]T), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fetchAndStore fetches ds and replaces its stored entry. Writers of the
// same key are serialized for the duration of the fetch and the write.
func fetchAndStore[T Record](ctx context.Context, m *Manager, ds Dataset[T]) ([]T, error) {
	unlock := m.writes.lock(ds.Key)
	defer unlock()

	start := time.Now()
	records, err := ds.Fetch(ctx)
	m.metrics.RecordFetch(ds.Key, err)
	LogFetch(ctx, m.logger, ds.Key, len(records), time.Since(start), err)
	if err != nil {
		return nil, newSourceUnavailableError(ds.Key, err)
	}
	if records == nil {
		records = []T{}
	}

	payload, err := json.Marshal(records)
	if err != nil {
		err := errors.Wrap(err, errors.CodeInternal, "failed to encode records")
		return nil, errors.WithContext(err, "key", ds.Key)
	}

	entry := &Entry{
		Key:       ds.Key,
		Payload:   payload,
		Count:     len(records),
		FetchedAt: m.now(),
		TTL:       m.config.TTL,
	}
	if err := m.store.Write(ctx, entry); err != nil {
		return nil, err
	}
	return records, nil
}

// read returns the stored entry for key, or nil when it is absent or corrupt.
func (m *Manager) read(ctx context.Context, key string) (*Entry, error) {
	entry, err := m.store.Read(ctx, key)
	switch {
	case err == nil:
		return entry, nil
	case IsNotFound(err):
		return nil, nil
	case IsCorrupt(err):
		m.recordCorrupt(ctx, key, err)
		return nil, nil
	default:
		return nil, err
	}
}

func (m *Manager) recordCorrupt(ctx context.Context, key string, err error) {
	m.metrics.RecordCorrupt(key)
	m.logger.WithKey(key).Warn(ctx, "corrupt cache entry treated as missing",
		"error", err.Error())
}

func decodeRecords[T Record](e *Entry) ([]T, error) {
	var records []T
	if err := json.Unmarshal(e.Payload, &records); err != nil {
		return nil, newCorruptError(e.Key, err)
	}
	if len(records) != e.Count {
		err := newCorruptError(e.Key, nil)
		return nil, errors.WithContextMap(err, map[string]interface{}{
			"expected": e.Count,
			"actual":   len(records),
		})
	}
	return records, nil
}

// Status returns a snapshot of every stored dataset and the export marker.
// It reads metadata only and never fetches.
func (m *Manager) Status(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{Enabled: m.config.Enabled, Entries: []Status{}}
	if !m.config.Enabled {
		return snap, nil
	}

	statuses, err := m.store.List(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	now := m.now()
	for _, st := range statuses {
		if isReserved(st.Key) {
			continue
		}
		snap.Entries = append(snap.Entries, st.at(now))
	}

	state, err := m.exportState(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Export = state
	return snap, nil
}

// Clear removes the given keys, or every entry and the export marker when
// none are given. Clearing a disabled cache is a no-op.
func (m *Manager) Clear(ctx context.Context, keys ...string) error {
	if !m.config.Enabled {
		return nil
	}
	if err := m.store.Delete(ctx, keys...); err != nil {
		return err
	}
	m.logger.Info(ctx, "cache cleared", "keys", len(keys))
	return nil
}
