// Package econt provides a client for the Econt parcel-delivery API with an
// optional local cache for nomenclature data.
//
// The client is built around a Provider, which performs the actual API calls
// (see providers/rest), and exposes three services:
//
//   - Offices: countries, cities, offices and streets (cacheable)
//   - Shipments: label creation and price calculation
//   - Tracking: shipment status lookups
//
// Basic usage:
//
//	provider, err := rest.NewProvider(
//	    rest.WithEnvironment(rest.EnvironmentDemo),
//	    rest.WithCredentials("user", "pass"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client, err := econt.NewClient(provider,
//	    econt.WithCache(econt.CacheConfig{Enabled: true, Location: "/var/cache/econt"}),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	offices, err := client.Offices().List(ctx, econt.OfficeFilter{CountryCode: "BGR"})
//
// # Caching
//
// When the cache is enabled, countries, cities and offices are stored as
// whole datasets and streets are stored per city. A lookup is served from a
// fresh entry without a network call; a missing or stale entry is fetched,
// stored and then filtered locally. Filters therefore return the same records
// whether the data came from the cache or the API.
//
// ExportAllData fills the whole cache in one pass, in the order countries,
// cities, offices, streets. CacheStatus reports what is stored and whether the
// last export completed. ClearCache removes entries.
//
// Shipment and tracking calls always go to the API.
package econt
