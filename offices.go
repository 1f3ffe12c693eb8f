package econt

import (
	"context"
	"strconv"

	"github.com/jmgilman/go/econt/internal/cache"
	"github.com/jmgilman/go/errors"
)

// Offices looks up nomenclature data: countries, cities, offices and streets.
//
// With the cache enabled, whole datasets are cached and every filter is
// applied locally. With the cache disabled, filters are also passed to the
// API so less data travels.
//
// Example:
//
//	offices, err := client.Offices().List(ctx, econt.OfficeFilter{CountryCode: "BGR"})
//	office, err := client.Offices().Get(ctx, "1234", econt.WithForceRefresh())
type Offices struct {
	client *Client
}

// OfficeFilter narrows List. Zero fields are ignored.
type OfficeFilter struct {
	// CountryCode is the three-letter code of the office's country (case-insensitive).
	CountryCode string
	// CityID is the id of the office's city.
	CityID int
	// Code is the office code.
	Code string
}

// GetCountries returns every country.
func (o *Offices) GetCountries(ctx context.Context, opts ...QueryOption) ([]Country, error) {
	return lookup(ctx, o.client, o.client.countries(), nil, opts)
}

// GetCities returns the cities of a country, or every city when
// countryCode is empty.
func (o *Offices) GetCities(ctx context.Context, countryCode string, opts ...QueryOption) ([]City, error) {
	var criteria cache.Criteria
	q := CityQuery{}
	if countryCode != "" {
		criteria = append(criteria, cache.Fold("countryCode", countryCode))
		if !o.client.CacheEnabled() {
			q.CountryCode = countryCode
		}
	}
	return lookup(ctx, o.client, o.client.cities(q), criteria, opts)
}

// List returns the offices matching f in API order.
func (o *Offices) List(ctx context.Context, f OfficeFilter, opts ...QueryOption) ([]Office, error) {
	var criteria cache.Criteria
	if f.CountryCode != "" {
		criteria = append(criteria, cache.Fold("countryCode", f.CountryCode))
	}
	if f.CityID != 0 {
		criteria = append(criteria, cache.Eq("cityID", strconv.Itoa(f.CityID)))
	}
	if f.Code != "" {
		criteria = append(criteria, cache.Eq("code", f.Code))
	}

	q := OfficeQuery{}
	if !o.client.CacheEnabled() {
		q = OfficeQuery{CountryCode: f.CountryCode, CityID: f.CityID, OfficeCode: f.Code}
	}
	return lookup(ctx, o.client, o.client.offices(q), criteria, opts)
}

// Get returns the office with the given code.
// Returns an error with ErrCodeNotFound if no office has that code.
func (o *Offices) Get(ctx context.Context, code string, opts ...QueryOption) (*Office, error) {
	if code == "" {
		return nil, newInvalidInputError("code", "office code cannot be empty")
	}

	offices, err := o.List(ctx, OfficeFilter{Code: code}, opts...)
	if err != nil {
		return nil, err
	}
	if len(offices) == 0 {
		err := errors.Newf(ErrCodeNotFound, "office %s not found", code)
		return nil, errors.WithContext(err, "code", code)
	}
	return &offices[0], nil
}

// GetStreets returns the streets of a city.
func (o *Offices) GetStreets(ctx context.Context, cityID int, opts ...QueryOption) ([]Street, error) {
	if cityID <= 0 {
		err := newInvalidInputError("cityID", "city id must be positive")
		return nil, errors.WithContext(err, "cityID", cityID)
	}
	return lookup(ctx, o.client, o.client.streets(cityID), nil, opts)
}
