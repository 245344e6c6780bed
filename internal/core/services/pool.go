package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"linkpulse/internal/core/domain"
	"linkpulse/internal/core/ports"
	"linkpulse/pkg/tracing"

	"go.uber.org/zap"
)

// DevicePool owns the full set of device connections and the cached
// queue-to-subscription mapping. Connections are created and destroyed only
// here; the poller's single loop is the only caller of PollAll, so no two
// cycles ever touch the same device state concurrently.
type DevicePool struct {
	directory ports.DeviceDirectory
	mappings  ports.QueueMappingStore
	newConn   ports.ConnFactory
	vendor    domain.Vendor
	metrics   ports.CycleMetrics
	log       *zap.SugaredLogger

	mu      sync.RWMutex
	members map[domain.DeviceID]*poolMember
}

type poolMember struct {
	device *domain.Device
	conn   ports.DeviceConn
	queues map[string]domain.SubscriptionID
}

func NewDevicePool(
	directory ports.DeviceDirectory,
	mappings ports.QueueMappingStore,
	newConn ports.ConnFactory,
	vendor domain.Vendor,
	metrics ports.CycleMetrics,
	log *zap.SugaredLogger,
) *DevicePool {
	return &DevicePool{
		directory: directory,
		mappings:  mappings,
		newConn:   newConn,
		vendor:    vendor,
		metrics:   metrics,
		log:       log,
		members:   make(map[domain.DeviceID]*poolMember),
	}
}

// Refresh converges the pool on the inventory directory: devices newly
// active get a connection (when credentials exist), devices gone inactive
// are disconnected and dropped, surviving devices keep their live session.
// Every active device's queue mapping is replaced wholesale, never patched.
func (p *DevicePool) Refresh(ctx context.Context) error {
	ctx, span := tracing.TraceRefresh(ctx)
	defer span.End()

	devices, err := p.directory.ListActiveDevices(ctx, p.vendor)
	if err != nil {
		tracing.RecordError(ctx, err)
		return fmt.Errorf("failed to list active devices: %w", err)
	}

	active := make(map[domain.DeviceID]*domain.Device, len(devices))
	for _, d := range devices {
		active[d.ID] = d
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for id, m := range p.members {
		if _, ok := active[id]; !ok {
			m.conn.Disconnect()
			delete(p.members, id)
			p.log.Infow("device removed from pool", "device_id", id)
		}
	}

	for id, d := range active {
		member, exists := p.members[id]
		if !exists {
			if !d.HasCredentials() {
				p.log.Warnw("skipping device without credentials", "device_id", id, "title", d.Title)
				continue
			}
			member = &poolMember{device: d, conn: p.newConn(d)}
			p.members[id] = member
			p.log.Infow("device added to pool", "device_id", id, "title", d.Title, "address", d.Address())
		}

		queues, err := p.mappings.QueueMappings(ctx, id)
		if err != nil {
			// Keep the previous snapshot; a stale mapping beats an empty one.
			p.log.Errorw("failed to load queue mapping", "device_id", id, "error", err)
			continue
		}
		member.queues = queues
	}

	return nil
}

// PollAll fetches counters from every device whose backoff allows an
// attempt, all concurrently. Per-device failures are isolated: a device that
// errors or times out simply contributes no result. Only non-empty counter
// sets are returned.
func (p *DevicePool) PollAll(ctx context.Context) []domain.PollResult {
	p.mu.RLock()
	members := make([]*poolMember, 0, len(p.members))
	for _, m := range p.members {
		members = append(members, m)
	}
	p.mu.RUnlock()

	var (
		wg      sync.WaitGroup
		resMu   sync.Mutex
		results []domain.PollResult
	)

	for _, m := range members {
		if !m.conn.ShouldRetry() {
			continue
		}
		wg.Add(1)
		go func(m *poolMember) {
			defer wg.Done()
			start := time.Now()
			counters := m.conn.FetchCounters(ctx)
			p.metrics.RecordFetch(time.Since(start))
			if counters == nil {
				p.metrics.RecordDeviceFailure()
				return
			}
			if len(counters) == 0 {
				return
			}
			resMu.Lock()
			results = append(results, domain.PollResult{DeviceID: m.device.ID, Counters: counters})
			resMu.Unlock()
		}(m)
	}

	wg.Wait()
	return results
}

// ResolveSubscription looks one (device, queue) pair up against the current
// mapping snapshot. Unmapped queues are domain.ErrSubscriptionNotFound, not
// a failure.
func (p *DevicePool) ResolveSubscription(deviceID domain.DeviceID, queue string) (domain.SubscriptionID, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	member, ok := p.members[deviceID]
	if !ok {
		return "", domain.ErrSubscriptionNotFound
	}
	sub, ok := member.queues[queue]
	if !ok {
		return "", domain.ErrSubscriptionNotFound
	}
	return sub, nil
}

// Size returns the number of tracked devices.
func (p *DevicePool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.members)
}

// Health returns the retry state of every tracked device.
func (p *DevicePool) Health() []domain.DeviceHealth {
	p.mu.RLock()
	defer p.mu.RUnlock()

	health := make([]domain.DeviceHealth, 0, len(p.members))
	for _, m := range p.members {
		health = append(health, m.conn.Health())
	}
	return health
}

// DisconnectAll tears down every tracked connection. Called on shutdown.
func (p *DevicePool) DisconnectAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, m := range p.members {
		m.conn.Disconnect()
		delete(p.members, id)
	}
}
