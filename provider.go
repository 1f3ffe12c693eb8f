package econt

import "context"

//go:generate go run github.com/matryer/moq@latest -out mocks/provider.go -pkg mocks . Provider

// Provider defines the interface for talking to the Econt API.
// The REST implementation lives in providers/rest; tests use mocks.ProviderMock.
//
// All methods return records in the order the API sent them. Errors carry
// codes from github.com/jmgilman/go/errors (CodeNetwork, CodeRateLimit,
// CodeUnauthorized, ...) so callers can classify them.
type Provider interface {
	// Nomenclature operations

	// GetCountries returns every country Econt serves.
	GetCountries(ctx context.Context) ([]Country, error)

	// GetCities returns the cities matching q.
	GetCities(ctx context.Context, q CityQuery) ([]City, error)

	// GetOffices returns the offices matching q.
	GetOffices(ctx context.Context, q OfficeQuery) ([]Office, error)

	// GetStreets returns the streets of a city.
	GetStreets(ctx context.Context, cityID int) ([]Street, error)

	// Shipment operations

	// CreateLabel creates (LabelModeCreate) or prices (LabelModeCalculate) a shipment.
	// Returns an error with CodeInvalidInput if the API rejects the label.
	CreateLabel(ctx context.Context, label Label, mode LabelMode) (*LabelResult, error)

	// GetShipmentStatuses returns the status of every known shipment number.
	// Unknown numbers are omitted from the result.
	GetShipmentStatuses(ctx context.Context, numbers []string) ([]ShipmentStatus, error)
}
