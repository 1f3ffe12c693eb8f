package econt

import (
	"log/slog"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// config holds configuration for Client.
type config struct {
	cache      CacheConfig
	store      Store
	logger     *slog.Logger
	registerer prometheus.Registerer
	clock      func() time.Time
}

// Option configures a Client.
type Option func(*config) error

// WithCache configures the nomenclature cache. The cache is off unless
// cfg.Enabled is set.
func WithCache(cfg CacheConfig) Option {
	return func(c *config) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		c.cache = cfg
		return nil
	}
}

// WithCacheStore sets the store used by an enabled cache instead of the one
// selected by CacheConfig.Location. The caller keeps ownership of the store.
func WithCacheStore(store Store) Option {
	return func(c *config) error {
		if store == nil {
			err := errors.New(errors.CodeInvalidInput, "store cannot be nil")
			return errors.WithContext(err, "field", "store")
		}
		c.store = store
		return nil
	}
}

// WithLogger sets the structured logger. By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			err := errors.New(errors.CodeInvalidInput, "logger cannot be nil")
			return errors.WithContext(err, "field", "logger")
		}
		c.logger = logger
		return nil
	}
}

// WithMetricsRegisterer registers the cache metrics with reg.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(c *config) error {
		c.registerer = reg
		return nil
	}
}

// WithClock sets the time source used for cache expiry.
func WithClock(now func() time.Time) Option {
	return func(c *config) error {
		if now == nil {
			err := errors.New(errors.CodeInvalidInput, "clock cannot be nil")
			return errors.WithContext(err, "field", "clock")
		}
		c.clock = now
		return nil
	}
}

// QueryOption configures a single nomenclature lookup.
type QueryOption func(*queryOptions)

type queryOptions struct {
	forceRefresh bool
	where        []Predicate
	source       *Source
}

// WithForceRefresh bypasses the cache and fetches from the API. The fresh
// result replaces the cached dataset.
func WithForceRefresh() QueryOption {
	return func(o *queryOptions) {
		o.forceRefresh = true
	}
}

// Where adds filter predicates. Every predicate must match.
//
// Example:
//
//	streets, err := client.Offices().GetStreets(ctx, 41, econt.Where(econt.Contains("name", "vitosha")))
func Where(predicates ...Predicate) QueryOption {
	return func(o *queryOptions) {
		o.where = append(o.where, predicates...)
	}
}

// ReportSource stores where the result came from in dst.
func ReportSource(dst *Source) QueryOption {
	return func(o *queryOptions) {
		o.source = dst
	}
}

func buildQueryOptions(opts []QueryOption) queryOptions {
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
