package econt

import (
	"context"
	"time"

	"github.com/jmgilman/go/econt/internal/cache"
)

// Client provides high-level Econt operations.
// It serves as the main entry point for the offices, shipments and tracking
// services and owns the nomenclature cache.
//
// Example usage:
//
//	provider, err := rest.NewProvider(rest.WithCredentials("user", "pass"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client, err := econt.NewClient(provider, econt.WithCache(econt.CacheConfig{Enabled: true}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	countries, err := client.Offices().GetCountries(ctx)
type Client struct {
	provider  Provider
	cache     *cache.Manager
	ownsStore bool
}

// NewClient creates a new Econt client with the specified provider.
//
// Without WithCache every lookup calls the API. With an enabled cache and
// no WithCacheStore, the store is opened from CacheConfig.Location and closed
// by Close.
func NewClient(provider Provider, opts ...Option) (*Client, error) {
	if provider == nil {
		return nil, newInvalidInputError("provider", "provider cannot be nil")
	}

	cfg := &config{clock: time.Now}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	store, ownsStore := cfg.store, false
	if cfg.cache.Enabled && store == nil {
		s, err := cache.OpenStore(cfg.cache)
		if err != nil {
			return nil, err
		}
		store, ownsStore = s, true
	}

	logger := cache.NewNopLogger()
	if cfg.logger != nil {
		logger = cache.FromSlog(cfg.logger.With("component", "econt.cache"))
	}

	manager, err := cache.NewManager(cfg.cache, store,
		cache.WithLogger(logger),
		cache.WithMetrics(cache.NewMetrics(cfg.registerer)),
		cache.WithClock(cfg.clock),
	)
	if err != nil {
		if ownsStore {
			_ = store.Close()
		}
		return nil, err
	}

	return &Client{
		provider:  provider,
		cache:     manager,
		ownsStore: ownsStore,
	}, nil
}

// Offices returns the nomenclature service.
func (c *Client) Offices() *Offices {
	return &Offices{client: c}
}

// Shipments returns the shipment service.
func (c *Client) Shipments() *Shipments {
	return &Shipments{client: c}
}

// Tracking returns the tracking service.
func (c *Client) Tracking() *Tracking {
	return &Tracking{client: c}
}

// Provider returns the underlying Provider.
// This is an escape hatch for calls not covered by the services.
func (c *Client) Provider() Provider {
	return c.provider
}

// CacheEnabled reports whether lookups go through the cache.
func (c *Client) CacheEnabled() bool {
	return c.cache.Enabled()
}

// Close releases the cache store if the client opened it.
func (c *Client) Close() error {
	if !c.ownsStore {
		return nil
	}
	return c.cache.Close()
}

// lookup resolves ds through the cache and applies the query options.
func lookup[T cache.Record](ctx context.Context, c *Client, ds cache.Dataset[T], criteria cache.Criteria, opts []QueryOption) ([]T, error) {
	o := buildQueryOptions(opts)
	criteria = append(criteria, o.where...)

	var getOpts []cache.GetOption
	if o.forceRefresh {
		getOpts = append(getOpts, cache.WithForceRefresh())
	}

	records, source, err := cache.Resolve(ctx, c.cache, ds, criteria, getOpts...)
	if err != nil {
		return nil, err
	}
	if o.source != nil {
		*o.source = source
	}
	return records, nil
}
