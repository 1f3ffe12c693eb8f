package cache

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/jmgilman/go/errors"
)

// DefaultTTL is the time-to-live applied when Config.TTL is unset.
const DefaultTTL = 24 * time.Hour

// DefaultExportConcurrency bounds parallel per-city street fetches during export.
const DefaultExportConcurrency = 4

// Dataset keys.
const (
	KeyCountries = "countries"
	KeyCities    = "cities"
	KeyOffices   = "offices"
	// KeyStreetsPrefix prefixes per-city street keys ("streets:<cityID>").
	KeyStreetsPrefix = "streets:"

	// keyExport is the reserved key holding the export marker.
	keyExport = "_export"
)

// StreetsKey returns the cache key for the streets of a city.
func StreetsKey(cityID int) string {
	return KeyStreetsPrefix + strconv.Itoa(cityID)
}

// datasetName returns the dataset a key belongs to ("streets:12" -> "streets").
func datasetName(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}

// isReserved reports whether the key is internal bookkeeping rather than a dataset.
func isReserved(key string) bool {
	return strings.HasPrefix(key, "_")
}

// Config holds configuration for cache behavior.
type Config struct {
	// Enabled turns the cache on. A disabled cache fetches on every lookup.
	Enabled bool
	// TTL is the time-to-live for every entry written by the cache.
	TTL time.Duration
	// Location selects the backing medium. Empty means in-memory,
	// "sqlite://<path>" selects SQLite and anything else is a directory.
	Location string
	// ServeStaleOnError serves a stale entry when its refresh fails instead
	// of returning the fetch error.
	ServeStaleOnError bool
	// ExportConcurrency bounds parallel street fetches during export.
	ExportConcurrency int
}

// SetDefaults applies default values to unset fields in the configuration.
func (c *Config) SetDefaults() {
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
	if c.ExportConcurrency == 0 {
		c.ExportConcurrency = DefaultExportConcurrency
	}
}

// Validate checks that the cache configuration is valid.
func (c *Config) Validate() error {
	if c.TTL < 0 {
		err := errors.New(errors.CodeInvalidConfig, "cache TTL cannot be negative")
		return errors.WithContext(err, "ttl", c.TTL.String())
	}
	if c.ExportConcurrency < 0 {
		err := errors.New(errors.CodeInvalidConfig, "export concurrency cannot be negative")
		return errors.WithContext(err, "export_concurrency", c.ExportConcurrency)
	}
	return nil
}

// Entry is one cached dataset.
type Entry struct {
	// Key identifies the dataset (e.g. "offices", "streets:41").
	Key string
	// Payload is the JSON array of records in source order.
	Payload json.RawMessage
	// Count is the number of records in Payload.
	Count int
	// FetchedAt is when the payload was fetched from the API.
	FetchedAt time.Time
	// TTL is how long the payload stays fresh after FetchedAt.
	TTL time.Duration
}

// ExpiresAt returns the instant the entry becomes stale.
func (e *Entry) ExpiresAt() time.Time {
	return e.FetchedAt.Add(e.TTL)
}

// IsStale reports whether the entry has reached its expiry at the given time.
func (e *Entry) IsStale(now time.Time) bool {
	return !now.Before(e.ExpiresAt())
}

// Status describes one key of the cache. It is derived and read-only.
type Status struct {
	Key       string        `json:"key"`
	Present   bool          `json:"present"`
	Count     int           `json:"count"`
	FetchedAt time.Time     `json:"fetched_at,omitzero"`
	ExpiresAt time.Time     `json:"expires_at,omitzero"`
	TTL       time.Duration `json:"ttl"`
	Age       time.Duration `json:"age"`
	Expired   bool          `json:"expired"`
}

// statusOf builds the metadata-only status of an entry.
func statusOf(e *Entry) Status {
	return Status{
		Key:       e.Key,
		Present:   true,
		Count:     e.Count,
		FetchedAt: e.FetchedAt,
		ExpiresAt: e.ExpiresAt(),
		TTL:       e.TTL,
	}
}

// at fills the time-dependent fields relative to now.
func (s Status) at(now time.Time) Status {
	if !s.Present {
		return s
	}
	s.Age = now.Sub(s.FetchedAt)
	s.Expired = !now.Before(s.ExpiresAt)
	return s
}

// Source tells where a lookup result came from.
type Source string

const (
	// SourceCache means the result was served from a stored entry.
	SourceCache Source = "cache"
	// SourceAPI means the result was fetched from the API.
	SourceAPI Source = "api"
)

// ExportStateValue is the lifecycle state of a bulk export.
type ExportStateValue string

const (
	// ExportNone means no export has been recorded.
	ExportNone ExportStateValue = ""
	// ExportInProgress is written before the first step runs. Finding it
	// outside a running export means the process died mid-export.
	ExportInProgress ExportStateValue = "in_progress"
	// ExportComplete means every step finished.
	ExportComplete ExportStateValue = "complete"
	// ExportIncomplete means a step failed or the export was cancelled.
	ExportIncomplete ExportStateValue = "incomplete"
)

// ExportState is the persisted export marker.
type ExportState struct {
	State          ExportStateValue `json:"state"`
	StartedAt      time.Time        `json:"started_at,omitzero"`
	FinishedAt     time.Time        `json:"finished_at,omitzero"`
	CompletedSteps []string         `json:"completed_steps,omitempty"`
	FailedStep     string           `json:"failed_step,omitempty"`
}

// Snapshot is a point-in-time view of the whole cache.
type Snapshot struct {
	Enabled bool        `json:"enabled"`
	Entries []Status    `json:"entries"`
	Export  ExportState `json:"export"`
}

// Complete reports whether the last bulk export finished successfully.
func (s Snapshot) Complete() bool {
	return s.Export.State == ExportComplete
}

// Lookup returns the status of key, with Present false when it is absent.
func (s Snapshot) Lookup(key string) Status {
	for _, st := range s.Entries {
		if st.Key == key {
			return st
		}
	}
	return Status{Key: key}
}
