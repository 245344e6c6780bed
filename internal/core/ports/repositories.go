package ports

import (
	"context"

	"linkpulse/internal/core/domain"
)

// DeviceDirectory is the back-office inventory of access devices.
type DeviceDirectory interface {
	// ListActiveDevices returns every active device of the given vendor,
	// including connection credentials when the directory has them.
	ListActiveDevices(ctx context.Context, vendor domain.Vendor) ([]*domain.Device, error)
}

// QueueMappingStore resolves device-local queue names to subscriptions.
type QueueMappingStore interface {
	// QueueMappings returns the full queue name -> subscription table for one
	// device. The pool replaces its cached copy wholesale with the result.
	QueueMappings(ctx context.Context, id domain.DeviceID) (map[string]domain.SubscriptionID, error)
}

// SamplePublisher appends normalized samples to the downstream stream sink.
type SamplePublisher interface {
	// Append writes the batch, attempting every sample even when some fail.
	Append(ctx context.Context, samples []domain.Sample) error
	Close() error
}
