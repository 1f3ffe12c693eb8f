package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmgilman/go/fs/billy"
	"github.com/stretchr/testify/require"
)

type office struct {
	Code        string `json:"code"`
	CountryCode string `json:"countryCode"`
	Name        string `json:"name"`
}

func (office) Fields() []string {
	return []string{"code", "countryCode", "name"}
}

func (o office) Field(name string) string {
	switch name {
	case "code":
		return o.Code
	case "countryCode":
		return o.CountryCode
	case "name":
		return o.Name
	default:
		return ""
	}
}

// source is a fake API that counts fetches.
type source[T Record] struct {
	mu      sync.Mutex
	calls   int
	records []T
	err     error
	delay   time.Duration
}

func (s *source[T]) fetch(ctx context.Context) ([]T, error) {
	s.mu.Lock()
	s.calls++
	records, err, delay := s.records, s.err, s.delay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return append([]T(nil), records...), nil
}

func (s *source[T]) set(records []T, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records, s.err = records, err
}

func (s *source[T]) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// clock is a manually advanced time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newMemoryStore(t *testing.T) *FSStore {
	t.Helper()
	s, err := NewFSStore(billy.NewMemory(), "/cache")
	require.NoError(t, err)
	return s
}

func newTestManager(t *testing.T, cfg Config, store Store, c *clock) *Manager {
	t.Helper()
	m, err := NewManager(cfg, store, WithClock(c.Now))
	require.NoError(t, err)
	return m
}

var bgrOffices = []office{
	{Code: "1001", CountryCode: "BGR", Name: "Sofia Center"},
	{Code: "2001", CountryCode: "GRC", Name: "Thessaloniki"},
	{Code: "1002", CountryCode: "BGR", Name: "Plovdiv"},
	{Code: "3001", CountryCode: "ROU", Name: "Bucharest"},
	{Code: "1003", CountryCode: "BGR", Name: "Varna"},
}
