package econt

import (
	"context"

	"github.com/jmgilman/go/errors"
)

// Tracking looks up shipment statuses. Calls are never cached.
//
// Econt returns every status in Bulgarian and English, so there is no
// language parameter; pick the text with ShipmentStatus.Status and
// TrackingEvent.Details.
//
//	status, err := client.Tracking().Track(ctx, "1051234567890")
//	fmt.Println(status.Status(econt.LanguageEN))
type Tracking struct {
	client *Client
}

// Track returns the status of one shipment.
// Returns an error with ErrCodeNotFound if the shipment is unknown.
func (t *Tracking) Track(ctx context.Context, number string) (*ShipmentStatus, error) {
	if number == "" {
		return nil, newInvalidInputError("number", "shipment number cannot be empty")
	}

	statuses, err := t.TrackMultiple(ctx, []string{number})
	if err != nil {
		return nil, err
	}
	for i := range statuses {
		if statuses[i].ShipmentNumber == number {
			return &statuses[i], nil
		}
	}

	err = errors.Newf(ErrCodeNotFound, "shipment %s not found", number)
	return nil, errors.WithContext(err, "number", number)
}

// TrackMultiple returns the statuses of several shipments. Unknown numbers
// are left out of the result.
func (t *Tracking) TrackMultiple(ctx context.Context, numbers []string) ([]ShipmentStatus, error) {
	if len(numbers) == 0 {
		return nil, newInvalidInputError("numbers", "at least one shipment number is required")
	}
	for _, n := range numbers {
		if n == "" {
			return nil, newInvalidInputError("numbers", "shipment number cannot be empty")
		}
	}

	statuses, err := t.client.provider.GetShipmentStatuses(ctx, numbers)
	if err != nil {
		return nil, errors.Wrap(err, errors.GetCode(err), "failed to track shipments")
	}
	return statuses, nil
}
