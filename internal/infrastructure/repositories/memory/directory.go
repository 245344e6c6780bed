package memory

import (
	"context"
	"sync"

	"linkpulse/internal/core/domain"
)

// MemoryDirectory is an in-memory device inventory and queue-mapping store,
// used in development and tests. It implements ports.DeviceDirectory and
// ports.QueueMappingStore.
type MemoryDirectory struct {
	mu       sync.RWMutex
	devices  map[domain.DeviceID]*domain.Device
	mappings map[domain.DeviceID]map[string]domain.SubscriptionID
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		devices:  make(map[domain.DeviceID]*domain.Device),
		mappings: make(map[domain.DeviceID]map[string]domain.SubscriptionID),
	}
}

// SetDevice adds or replaces an inventory entry.
func (m *MemoryDirectory) SetDevice(device *domain.Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices[device.ID] = device
}

// RemoveDevice drops an inventory entry and its mapping.
func (m *MemoryDirectory) RemoveDevice(id domain.DeviceID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.devices, id)
	delete(m.mappings, id)
}

// SetMapping replaces one device's queue mapping wholesale.
func (m *MemoryDirectory) SetMapping(id domain.DeviceID, mapping map[string]domain.SubscriptionID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mappings[id] = mapping
}

func (m *MemoryDirectory) ListActiveDevices(ctx context.Context, vendor domain.Vendor) ([]*domain.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var devices []*domain.Device
	for _, d := range m.devices {
		if d.Active && d.Vendor == vendor {
			devices = append(devices, d)
		}
	}
	return devices, nil
}

func (m *MemoryDirectory) QueueMappings(ctx context.Context, id domain.DeviceID) (map[string]domain.SubscriptionID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src, exists := m.mappings[id]
	if !exists {
		return map[string]domain.SubscriptionID{}, nil
	}

	mapping := make(map[string]domain.SubscriptionID, len(src))
	for queue, sub := range src {
		mapping[queue] = sub
	}
	return mapping, nil
}
