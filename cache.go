package econt

import (
	"context"
	"slices"

	"github.com/jmgilman/go/econt/internal/cache"
)

// CacheConfig configures the nomenclature cache. The zero value disables it.
type CacheConfig = cache.Config

// CacheStatus is a point-in-time view of the cache.
type CacheStatus = cache.Snapshot

// EntryStatus describes one cached dataset.
type EntryStatus = cache.Status

// ExportState is the recorded state of the last ExportAllData run.
type ExportState = cache.ExportState

// Store persists cache entries. See WithCacheStore.
type Store = cache.Store

// Source tells whether a result was served from the cache or the API.
type Source = cache.Source

// Predicate compares one field of a record against a value.
type Predicate = cache.Predicate

// Sources of a lookup result.
const (
	SourceCache = cache.SourceCache
	SourceAPI   = cache.SourceAPI
)

// Export states.
const (
	ExportNone       = cache.ExportNone
	ExportInProgress = cache.ExportInProgress
	ExportComplete   = cache.ExportComplete
	ExportIncomplete = cache.ExportIncomplete
)

// Cache keys accepted by ClearCache.
const (
	KeyCountries = cache.KeyCountries
	KeyCities    = cache.KeyCities
	KeyOffices   = cache.KeyOffices
)

// DefaultCacheTTL is the TTL used when CacheConfig.TTL is zero.
const DefaultCacheTTL = cache.DefaultTTL

// StreetsKey returns the cache key for the streets of a city.
func StreetsKey(cityID int) string {
	return cache.StreetsKey(cityID)
}

// Eq matches records whose field equals value.
func Eq(field, value string) Predicate { return cache.Eq(field, value) }

// Fold matches records whose field equals value ignoring case.
func Fold(field, value string) Predicate { return cache.Fold(field, value) }

// Contains matches records whose field contains value ignoring case.
func Contains(field, value string) Predicate { return cache.Contains(field, value) }

func (c *Client) countries() cache.Dataset[Country] {
	return cache.Dataset[Country]{
		Key:   cache.KeyCountries,
		Fetch: c.provider.GetCountries,
	}
}

func (c *Client) cities(q CityQuery) cache.Dataset[City] {
	return cache.Dataset[City]{
		Key: cache.KeyCities,
		Fetch: func(ctx context.Context) ([]City, error) {
			return c.provider.GetCities(ctx, q)
		},
	}
}

func (c *Client) offices(q OfficeQuery) cache.Dataset[Office] {
	return cache.Dataset[Office]{
		Key: cache.KeyOffices,
		Fetch: func(ctx context.Context) ([]Office, error) {
			return c.provider.GetOffices(ctx, q)
		},
	}
}

func (c *Client) streets(cityID int) cache.Dataset[Street] {
	return cache.Dataset[Street]{
		Key: cache.StreetsKey(cityID),
		Fetch: func(ctx context.Context) ([]Street, error) {
			return c.provider.GetStreets(ctx, cityID)
		},
	}
}

// exportSteps returns the bulk export plan: countries, cities, offices, then
// the streets of every city stored by the cities step.
func (c *Client) exportSteps() []cache.ExportStep {
	cities := c.cities(CityQuery{})
	return []cache.ExportStep{
		cache.DatasetStep("countries", c.countries()),
		cache.DatasetStep("cities", cities),
		cache.DatasetStep("offices", c.offices(OfficeQuery{})),
		cache.FanOutStep("streets", cache.KeyStreetsPrefix,
			func(ctx context.Context, m *cache.Manager) ([]cache.Dataset[Street], error) {
				all, _, err := cache.Resolve(ctx, m, cities, nil)
				if err != nil {
					return nil, err
				}

				ids := make([]int, 0, len(all))
				for _, city := range all {
					if city.ID != 0 {
						ids = append(ids, city.ID)
					}
				}
				slices.Sort(ids)
				ids = slices.Compact(ids)

				datasets := make([]cache.Dataset[Street], 0, len(ids))
				for _, id := range ids {
					datasets = append(datasets, c.streets(id))
				}
				return datasets, nil
			}),
	}
}

// ExportAllData fetches every nomenclature dataset and stores it in the
// cache, replacing existing entries. Streets are fetched per city, a few
// cities at a time.
//
// On failure the error has ErrCodeExportAborted and names the failed step in
// its context. Datasets of earlier steps stay cached; CacheStatus reports the
// export as incomplete.
//
// Returns an error with ErrCodeInvalidConfig if the cache is disabled.
func (c *Client) ExportAllData(ctx context.Context) error {
	return c.cache.Export(ctx, c.exportSteps())
}

// CacheStatus reports every cached dataset and the state of the last export.
// It never calls the API.
func (c *Client) CacheStatus(ctx context.Context) (CacheStatus, error) {
	return c.cache.Status(ctx)
}

// ClearCache removes the given keys, or every entry when none are given.
// The next lookup of a cleared dataset calls the API.
func (c *Client) ClearCache(ctx context.Context, keys ...string) error {
	return c.cache.Clear(ctx, keys...)
}
