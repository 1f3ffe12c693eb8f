package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/billy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		store    bool
		wantCode errors.ErrorCode
	}{
		{
			name:   "defaults applied",
			config: Config{Enabled: true},
			store:  true,
		},
		{
			name:   "disabled without store",
			config: Config{},
		},
		{
			name:     "enabled without store",
			config:   Config{Enabled: true},
			wantCode: errors.CodeInvalidConfig,
		},
		{
			name:     "negative ttl",
			config:   Config{Enabled: true, TTL: -time.Second},
			store:    true,
			wantCode: errors.CodeInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var store Store
			if tt.store {
				store = newMemoryStore(t)
			}
			m, err := NewManager(tt.config, store)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DefaultTTL, m.Config().TTL)
			assert.Equal(t, DefaultExportConcurrency, m.Config().ExportConcurrency)
		})
	}
}

func TestResolve_TTLBoundary(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	m := newTestManager(t, Config{Enabled: true, TTL: 1000 * time.Millisecond}, newMemoryStore(t), c)
	src := &source[office]{records: bgrOffices[:2]}
	ds := Dataset[office]{Key: KeyCountries, Fetch: src.fetch}

	got, from, err := Resolve(ctx, m, ds, nil)
	require.NoError(t, err)
	assert.Equal(t, SourceAPI, from)
	assert.Len(t, got, 2)
	assert.Equal(t, 1, src.count())

	c.Advance(500 * time.Millisecond)
	_, from, err = Resolve(ctx, m, ds, nil)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, from)
	assert.Equal(t, 1, src.count())

	c.Advance(499 * time.Millisecond)
	_, from, err = Resolve(ctx, m, ds, nil)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, from, "one millisecond before expiry is still fresh")
	assert.Equal(t, 1, src.count())

	c.Advance(2 * time.Millisecond)
	_, from, err = Resolve(ctx, m, ds, nil)
	require.NoError(t, err)
	assert.Equal(t, SourceAPI, from, "one millisecond after expiry refetches")
	assert.Equal(t, 2, src.count())
}

func TestResolve_FilterIsSourceIndependent(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, Config{Enabled: true}, newMemoryStore(t), newClock())
	src := &source[office]{records: bgrOffices}
	ds := Dataset[office]{Key: KeyOffices, Fetch: src.fetch}
	criteria := Criteria{Eq("countryCode", "BGR")}

	fromAPI, from, err := Resolve(ctx, m, ds, criteria)
	require.NoError(t, err)
	require.Equal(t, SourceAPI, from)

	fromCache, from, err := Resolve(ctx, m, ds, criteria)
	require.NoError(t, err)
	require.Equal(t, SourceCache, from)

	want := []office{bgrOffices[0], bgrOffices[2], bgrOffices[4]}
	assert.Equal(t, want, fromAPI)
	assert.Equal(t, want, fromCache)
	assert.Equal(t, 1, src.count())
}

func TestResolve_ForceRefresh(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	store := newMemoryStore(t)
	m := newTestManager(t, Config{Enabled: true}, store, c)
	src := &source[office]{records: bgrOffices[:1]}
	ds := Dataset[office]{Key: KeyOffices, Fetch: src.fetch}

	_, _, err := Resolve(ctx, m, ds, nil)
	require.NoError(t, err)

	c.Advance(time.Minute)
	src.set(bgrOffices, nil)
	got, from, err := Resolve(ctx, m, ds, nil, WithForceRefresh())
	require.NoError(t, err)
	assert.Equal(t, SourceAPI, from)
	assert.Len(t, got, len(bgrOffices))
	assert.Equal(t, 2, src.count())

	entry, err := store.Read(ctx, KeyOffices)
	require.NoError(t, err)
	assert.Equal(t, len(bgrOffices), entry.Count)
	assert.Equal(t, c.Now(), entry.FetchedAt)

	got, from, err = Resolve(ctx, m, ds, nil)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, from)
	assert.Len(t, got, len(bgrOffices))
}

func TestResolve_FetchFailure(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	m := newTestManager(t, Config{Enabled: true}, store, newClock())
	src := &source[office]{err: errors.New(errors.CodeNetwork, "connection refused")}
	ds := Dataset[office]{Key: KeyOffices, Fetch: src.fetch}

	_, _, err := Resolve(ctx, m, ds, nil)
	require.Error(t, err)
	assert.Equal(t, CodeSourceUnavailable, errors.GetCode(err))
	assert.True(t, errors.IsRetryable(err))

	_, err = store.Read(ctx, KeyOffices)
	assert.True(t, IsNotFound(err), "failed fetch must not write an entry")
}

func TestResolve_StaleEntryOnFetchFailure(t *testing.T) {
	tests := []struct {
		name       string
		serveStale bool
	}{
		{name: "fail fast", serveStale: false},
		{name: "serve stale", serveStale: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			c := newClock()
			cfg := Config{Enabled: true, TTL: time.Second, ServeStaleOnError: tt.serveStale}
			m := newTestManager(t, cfg, newMemoryStore(t), c)
			src := &source[office]{records: bgrOffices}
			ds := Dataset[office]{Key: KeyOffices, Fetch: src.fetch}

			_, _, err := Resolve(ctx, m, ds, nil)
			require.NoError(t, err)

			c.Advance(2 * time.Second)
			src.set(nil, errors.New(errors.CodeTimeout, "deadline exceeded"))

			got, from, err := Resolve(ctx, m, ds, Criteria{Eq("countryCode", "GRC")})
			assert.Equal(t, 2, src.count())
			if !tt.serveStale {
				require.Error(t, err)
				assert.Equal(t, CodeSourceUnavailable, errors.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, SourceCache, from)
			assert.Equal(t, []office{bgrOffices[1]}, got)
		})
	}
}

func TestResolve_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()

	t.Run("unreadable file", func(t *testing.T) {
		fsys := billy.NewMemory()
		require.NoError(t, fsys.MkdirAll("/cache", 0o755))
		require.NoError(t, fsys.WriteFile("/cache/offices.json", []byte("garbage"), 0o644))
		store, err := NewFSStore(fsys, "/cache")
		require.NoError(t, err)

		metrics := NewMetrics(nil)
		m, err := NewManager(Config{Enabled: true}, store, WithMetrics(metrics))
		require.NoError(t, err)
		src := &source[office]{records: bgrOffices}

		got, from, err := Resolve(ctx, m, Dataset[office]{Key: KeyOffices, Fetch: src.fetch}, nil)
		require.NoError(t, err)
		assert.Equal(t, SourceAPI, from)
		assert.Len(t, got, len(bgrOffices))
		assert.Equal(t, 1, src.count())

		_, err = store.Read(ctx, KeyOffices)
		assert.NoError(t, err, "refetch replaces the corrupt entry")
	})

	t.Run("count mismatch", func(t *testing.T) {
		store := newMemoryStore(t)
		c := newClock()
		require.NoError(t, store.Write(ctx, &Entry{
			Key:       KeyOffices,
			Payload:   []byte(`[{"code":"1"}]`),
			Count:     7,
			FetchedAt: c.Now(),
			TTL:       time.Hour,
		}))
		m := newTestManager(t, Config{Enabled: true}, store, c)
		src := &source[office]{records: bgrOffices}

		_, from, err := Resolve(ctx, m, Dataset[office]{Key: KeyOffices, Fetch: src.fetch}, nil)
		require.NoError(t, err)
		assert.Equal(t, SourceAPI, from)
		assert.Equal(t, 1, src.count())
	})
}

func TestResolve_EmptyDatasetIsCached(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, Config{Enabled: true}, newMemoryStore(t), newClock())
	src := &source[office]{}
	ds := Dataset[office]{Key: StreetsKey(7), Fetch: src.fetch}

	got, from, err := Resolve(ctx, m, ds, nil)
	require.NoError(t, err)
	assert.Equal(t, SourceAPI, from)
	assert.Empty(t, got)

	got, from, err = Resolve(ctx, m, ds, nil)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, from)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 1, src.count())
}

func TestResolve_InvalidFilterSkipsFetch(t *testing.T) {
	m := newTestManager(t, Config{Enabled: true}, newMemoryStore(t), newClock())
	src := &source[office]{records: bgrOffices}

	_, _, err := Resolve(context.Background(), m, Dataset[office]{Key: KeyOffices, Fetch: src.fetch},
		Criteria{Eq("postcode", "1000")})
	require.Error(t, err)
	assert.Equal(t, CodeInvalidFilter, errors.GetCode(err))
	assert.Equal(t, 0, src.count())
}

func TestResolve_ConcurrentMissesShareFetch(t *testing.T) {
	m := newTestManager(t, Config{Enabled: true}, newMemoryStore(t), newClock())
	src := &source[office]{records: bgrOffices, delay: 100 * time.Millisecond}
	ds := Dataset[office]{Key: KeyOffices, Fetch: src.fetch}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, _, err := Resolve(context.Background(), m, ds, Criteria{Eq("countryCode", "BGR")})
			assert.NoError(t, err)
			assert.Len(t, got, 3)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, src.count())
}

func TestResolve_SharedFetchSurvivesCancelledCaller(t *testing.T) {
	m := newTestManager(t, Config{Enabled: true}, newMemoryStore(t), newClock())
	src := &source[office]{records: bgrOffices, delay: 200 * time.Millisecond}
	ds := Dataset[office]{Key: KeyOffices, Fetch: src.fetch}

	first, cancel := context.WithCancel(context.Background())
	defer cancel()
	firstErr := make(chan error, 1)
	go func() {
		_, _, err := Resolve(first, m, ds, nil)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return src.count() == 1 }, time.Second, time.Millisecond)

	type result struct {
		records []office
		err     error
	}
	second := make(chan result, 1)
	go func() {
		got, _, err := Resolve(context.Background(), m, ds, Criteria{Eq("countryCode", "BGR")})
		second <- result{got, err}
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	res := <-second
	require.NoError(t, res.err)
	assert.Len(t, res.records, 3)
	assert.Equal(t, 1, src.count())

	got, from, err := Resolve(context.Background(), m, ds, nil)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, from)
	assert.Len(t, got, len(bgrOffices))
	assert.Equal(t, 1, src.count())
}

func TestResolve_Disabled(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, Config{}, nil, newClock())
	src := &source[office]{records: bgrOffices}
	ds := Dataset[office]{Key: KeyOffices, Fetch: src.fetch}

	for range 3 {
		got, from, err := Resolve(ctx, m, ds, Criteria{Eq("countryCode", "BGR")})
		require.NoError(t, err)
		assert.Equal(t, SourceAPI, from)
		assert.Len(t, got, 3)
	}
	assert.Equal(t, 3, src.count())

	snap, err := m.Status(ctx)
	require.NoError(t, err)
	assert.False(t, snap.Enabled)
	assert.Empty(t, snap.Entries)
	assert.NoError(t, m.Clear(ctx))
}

func TestManager_Status(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	m := newTestManager(t, Config{Enabled: true, TTL: time.Minute}, newMemoryStore(t), c)
	src := &source[office]{records: bgrOffices}

	_, _, err := Resolve(ctx, m, Dataset[office]{Key: KeyOffices, Fetch: src.fetch}, nil)
	require.NoError(t, err)
	c.Advance(30 * time.Second)
	_, _, err = Resolve(ctx, m, Dataset[office]{Key: KeyCountries, Fetch: src.fetch}, nil)
	require.NoError(t, err)
	c.Advance(40 * time.Second)

	snap, err := m.Status(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Enabled)
	assert.False(t, snap.Complete())
	assert.Equal(t, ExportNone, snap.Export.State)
	require.Len(t, snap.Entries, 2)

	offices := snap.Lookup(KeyOffices)
	assert.True(t, offices.Present)
	assert.Equal(t, len(bgrOffices), offices.Count)
	assert.Equal(t, 70*time.Second, offices.Age)
	assert.True(t, offices.Expired)

	countries := snap.Lookup(KeyCountries)
	assert.Equal(t, 40*time.Second, countries.Age)
	assert.False(t, countries.Expired)

	assert.False(t, snap.Lookup(KeyCities).Present)
	assert.Equal(t, 2, src.count(), "status never fetches")
}

func TestManager_Clear(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, Config{Enabled: true}, newMemoryStore(t), newClock())
	src := &source[office]{records: bgrOffices}
	offices := Dataset[office]{Key: KeyOffices, Fetch: src.fetch}
	countries := Dataset[office]{Key: KeyCountries, Fetch: src.fetch}

	for _, ds := range []Dataset[office]{offices, countries} {
		_, _, err := Resolve(ctx, m, ds, nil)
		require.NoError(t, err)
	}

	t.Run("selected keys", func(t *testing.T) {
		require.NoError(t, m.Clear(ctx, KeyCountries))
		snap, err := m.Status(ctx)
		require.NoError(t, err)
		assert.True(t, snap.Lookup(KeyOffices).Present)
		assert.False(t, snap.Lookup(KeyCountries).Present)
	})

	t.Run("everything", func(t *testing.T) {
		require.NoError(t, m.Clear(ctx))
		snap, err := m.Status(ctx)
		require.NoError(t, err)
		assert.Empty(t, snap.Entries)

		calls := src.count()
		_, from, err := Resolve(ctx, m, offices, nil)
		require.NoError(t, err)
		assert.Equal(t, SourceAPI, from)
		assert.Equal(t, calls+1, src.count())
	})
}
