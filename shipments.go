package econt

import (
	"context"

	"github.com/jmgilman/go/errors"
)

// Shipments creates and prices shipment labels. Calls are never cached.
type Shipments struct {
	client *Client
}

// CreateLabel creates a shipment and returns its number and label URL.
func (s *Shipments) CreateLabel(ctx context.Context, label Label) (*LabelResult, error) {
	return s.submit(ctx, label, LabelModeCreate)
}

// Calculate prices a shipment without creating it.
func (s *Shipments) Calculate(ctx context.Context, label Label) (*LabelResult, error) {
	return s.submit(ctx, label, LabelModeCalculate)
}

func (s *Shipments) submit(ctx context.Context, label Label, mode LabelMode) (*LabelResult, error) {
	if err := validateLabel(label); err != nil {
		return nil, err
	}

	result, err := s.client.provider.CreateLabel(ctx, label, mode)
	if err != nil {
		return nil, errors.Wrapf(err, errors.GetCode(err), "failed to %s label", mode)
	}
	return result, nil
}

func validateLabel(label Label) error {
	switch {
	case label.PackCount <= 0:
		return newInvalidInputError("packCount", "pack count must be positive")
	case label.Weight <= 0:
		return newInvalidInputError("weight", "weight must be positive")
	case label.SenderAddress == nil && label.SenderOfficeCode == "":
		return newInvalidInputError("senderAddress", "sender address or office code is required")
	case label.ReceiverAddress == nil && label.ReceiverOfficeCode == "":
		return newInvalidInputError("receiverAddress", "receiver address or office code is required")
	}
	return nil
}
