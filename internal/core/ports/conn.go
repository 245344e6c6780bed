package ports

import (
	"context"

	"linkpulse/internal/core/domain"
)

// DeviceConn manages exactly one device's live session and retry policy.
// Implementations never surface transport errors to the caller: a failed
// connect or fetch is recorded as backoff state and shows up as an empty
// result. One vendor adapter implements this per device platform.
type DeviceConn interface {
	// Connect establishes transport and authentication. It reports success;
	// failure only advances the connection's backoff state.
	Connect(ctx context.Context) bool

	// Disconnect tears the session down. It is idempotent and safe to call
	// on a connection that never came up.
	Disconnect()

	// FetchCounters reads every traffic-shaping queue's counters, connecting
	// first if there is no live session. On any failure it tears down the
	// session and returns nil.
	FetchCounters(ctx context.Context) []domain.QueueCounters

	// ShouldRetry reports whether the connection is eligible for another
	// attempt under its exponential backoff.
	ShouldRetry() bool

	// Health exposes the current retry state for observability.
	Health() domain.DeviceHealth
}

// ConnFactory builds the vendor adapter for one inventory device.
type ConnFactory func(device *domain.Device) DeviceConn
