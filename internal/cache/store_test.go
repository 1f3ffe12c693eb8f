package cache_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmgilman/go/econt/internal/cache"
	"github.com/jmgilman/go/econt/internal/cache/storetest"
	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/billy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStore_Memory(t *testing.T) {
	storetest.TestStore(t, func(t *testing.T) cache.Store {
		s, err := cache.NewFSStore(billy.NewMemory(), "/cache")
		require.NoError(t, err)
		return s
	})
}

func TestFSStore_Local(t *testing.T) {
	storetest.TestStore(t, func(t *testing.T) cache.Store {
		s, err := cache.NewFSStore(billy.NewLocal(), t.TempDir(), cache.WithHotEntries(2))
		require.NoError(t, err)
		return s
	})
}

func TestSQLStore(t *testing.T) {
	storetest.TestStore(t, func(t *testing.T) cache.Store {
		s, err := cache.OpenSQLStore(filepath.Join(t.TempDir(), "cache.db"))
		require.NoError(t, err)
		return s
	})
}

func TestNewFSStore(t *testing.T) {
	tests := []struct {
		name     string
		root     string
		opts     []cache.FSStoreOption
		nilFS    bool
		wantCode errors.ErrorCode
	}{
		{name: "valid", root: "/cache"},
		{name: "nil filesystem", root: "/cache", nilFS: true, wantCode: errors.CodeInvalidInput},
		{name: "empty root", root: "", wantCode: errors.CodeInvalidInput},
		{
			name:     "zero hot entries",
			root:     "/cache",
			opts:     []cache.FSStoreOption{cache.WithHotEntries(0)},
			wantCode: errors.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s *cache.FSStore
			var err error
			if tt.nilFS {
				s, err = cache.NewFSStore(nil, tt.root, tt.opts...)
			} else {
				s, err = cache.NewFSStore(billy.NewMemory(), tt.root, tt.opts...)
			}
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s)
		})
	}
}

func TestFSStore_DetectsCorruption(t *testing.T) {
	ctx := context.Background()
	entry := &cache.Entry{
		Key:       "offices",
		Payload:   []byte(`[{"code":"1001"}]`),
		Count:     1,
		FetchedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		TTL:       time.Hour,
	}

	tests := []struct {
		name   string
		mutate func(data []byte) []byte
	}{
		{
			name:   "no checksum line",
			mutate: func([]byte) []byte { return []byte(`{"key":"offices"}`) },
		},
		{
			name: "flipped payload byte",
			mutate: func(data []byte) []byte {
				out := append([]byte(nil), data...)
				out[len(out)-3] ^= 0x01
				return out
			},
		},
		{
			name:   "truncated",
			mutate: func(data []byte) []byte { return data[:len(data)/2] },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := billy.NewMemory()
			writer, err := cache.NewFSStore(fsys, "/cache")
			require.NoError(t, err)
			require.NoError(t, writer.Write(ctx, entry))

			data, err := fsys.ReadFile("/cache/offices.json")
			require.NoError(t, err)
			require.NoError(t, fsys.WriteFile("/cache/offices.json", tt.mutate(data), 0o644))

			// A fresh store has no decoded copy in memory.
			reader, err := cache.NewFSStore(fsys, "/cache")
			require.NoError(t, err)

			_, err = reader.Read(ctx, "offices")
			require.Error(t, err)
			assert.True(t, cache.IsCorrupt(err))
			assert.Equal(t, cache.CodeCacheCorrupt, errors.GetCode(err))

			statuses, err := reader.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, statuses, "corrupt entries are not listed")
		})
	}
}

func TestFSStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	first, err := cache.NewFSStore(billy.NewLocal(), root)
	require.NoError(t, err)
	require.NoError(t, first.Write(ctx, &cache.Entry{
		Key:       cache.StreetsKey(41),
		Payload:   []byte(`[]`),
		FetchedAt: time.Now(),
		TTL:       time.Hour,
	}))
	require.NoError(t, first.Close())

	second, err := cache.NewFSStore(billy.NewLocal(), root)
	require.NoError(t, err)
	got, err := second.Read(ctx, cache.StreetsKey(41))
	require.NoError(t, err)
	assert.Equal(t, 0, got.Count)
	assert.FileExists(t, filepath.Join(root, "streets%3A41.json"))
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name     string
		location string
		want     any
	}{
		{name: "memory", location: "", want: &cache.FSStore{}},
		{name: "directory", location: filepath.Join(dir, "files"), want: &cache.FSStore{}},
		{name: "sqlite", location: "sqlite://" + filepath.Join(dir, "cache.db"), want: &cache.SQLStore{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := cache.OpenStore(cache.Config{Location: tt.location})
			require.NoError(t, err)
			defer func() { _ = s.Close() }()
			assert.IsType(t, tt.want, s)

			require.NoError(t, s.Write(ctx, &cache.Entry{Key: "countries", Payload: []byte(`[]`), TTL: time.Hour}))
			_, err = s.Read(ctx, "countries")
			assert.NoError(t, err)
		})
	}
}
