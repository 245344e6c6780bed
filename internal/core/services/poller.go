package services

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"linkpulse/internal/core/domain"
	"linkpulse/internal/core/ports"
	"linkpulse/pkg/tracing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the poller lifecycle state. Stopped is terminal.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// PollerConfig holds the cycle loop configuration.
type PollerConfig struct {
	Enabled         bool          // kill switch: when false, Run exits immediately
	Interval        time.Duration // target cycle cadence
	RefreshInterval time.Duration // inventory refresh cadence, checked at cycle boundaries
	StatsEvery      int           // emit counters to the log every N cycles
}

// DefaultPollerConfig returns the documented defaults.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Enabled:         true,
		Interval:        time.Second,
		RefreshInterval: 60 * time.Second,
		StatsEvery:      60,
	}
}

// Poller drives the fixed-interval cycle loop: refresh inventory when due,
// fan out over all devices, resolve counters to subscriptions, publish the
// batch, then sleep out the remainder of the interval. One goroutine runs
// the loop; Stop is cooperative and only honored at cycle boundaries.
type Poller struct {
	cfg     PollerConfig
	pool    *DevicePool
	pub     ports.SamplePublisher
	metrics ports.CycleMetrics
	log     *zap.SugaredLogger

	mu    sync.Mutex
	state State

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	doneOnce sync.Once

	// Loop-local counters, touched only by the run goroutine.
	lastRefresh time.Time
	cycles      uint64
	published   uint64
	dropped     uint64
}

func NewPoller(cfg PollerConfig, pool *DevicePool, pub ports.SamplePublisher, metrics ports.CycleMetrics, log *zap.SugaredLogger) *Poller {
	return &Poller{
		cfg:     cfg,
		pool:    pool,
		pub:     pub,
		metrics: metrics,
		log:     log,
		state:   StateIdle,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Poller) transition(from, to State) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != from {
		return false
	}
	p.state = to
	return true
}

func (p *Poller) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Run executes the cycle loop until Stop is called or ctx is cancelled.
// It performs all teardown (device disconnects, publisher close) before
// returning, so callers may treat its return as a full shutdown.
func (p *Poller) Run(ctx context.Context) {
	defer p.doneOnce.Do(func() { close(p.done) })

	if !p.transition(StateIdle, StateRunning) {
		return
	}

	if !p.cfg.Enabled {
		p.log.Warn("polling disabled by configuration, exiting run loop")
		p.shutdown()
		return
	}

	p.log.Infow("poller started",
		"interval", p.cfg.Interval,
		"refresh_interval", p.cfg.RefreshInterval,
	)

	for p.State() == StateRunning && ctx.Err() == nil {
		start := time.Now()
		p.cycle(ctx)

		elapsed := time.Since(start)
		p.metrics.RecordCycle(elapsed)

		// Hold cadence: sleep out the remainder of the interval. An overrun
		// cycle starts the next one immediately, never in a catch-up burst.
		if wait := p.cfg.Interval - elapsed; wait > 0 {
			select {
			case <-time.After(wait):
			case <-p.stopCh:
			case <-ctx.Done():
			}
		}
	}

	p.shutdown()
}

// Stop requests a cooperative stop, lets the in-flight cycle finish, and
// blocks until every device connection and the publisher are closed. Safe to
// call multiple times and before Run.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		if p.state == StateIdle {
			// Run never started; finalize directly.
			p.state = StateStopped
			p.mu.Unlock()
			close(p.stopCh)
			p.doneOnce.Do(func() { close(p.done) })
			return
		}
		if p.state == StateRunning {
			p.state = StateStopping
		}
		p.mu.Unlock()
		close(p.stopCh)
	})

	<-p.done
}

func (p *Poller) shutdown() {
	p.setState(StateStopping)
	p.pool.DisconnectAll()
	if err := p.pub.Close(); err != nil {
		p.log.Errorw("failed to close publisher", "error", err)
	}
	p.setState(StateStopped)
	p.log.Infow("poller stopped", "cycles", p.cycles, "samples_published", p.published)
}

// cycle performs one full poll iteration. Unexpected errors are recovered,
// logged with a correlation ID, and counted; the loop then proceeds to the
// next cycle rather than terminating the process.
func (p *Poller) cycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			p.metrics.RecordCycleError()
			p.log.Errorw("cycle panic recovered",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()

	p.cycles++
	ctx, span := tracing.TraceCycle(ctx, p.cycles)
	defer span.End()

	p.maybeRefresh(ctx)

	results := p.pool.PollAll(ctx)

	// One capture timestamp for every sample in the cycle.
	capturedAt := time.Now()
	samples, dropped := p.buildSamples(results, capturedAt)

	p.metrics.RecordSamples(len(samples), dropped)
	p.published += uint64(len(samples))
	p.dropped += uint64(dropped)
	tracing.AddSpanAttributes(ctx,
		tracing.SampleCountKey.Int(len(samples)),
		tracing.DroppedCountKey.Int(dropped),
	)

	if len(samples) > 0 {
		pubCtx, pubSpan := tracing.TracePublish(ctx, len(samples))
		err := p.pub.Append(pubCtx, samples)
		pubSpan.End()
		if err != nil {
			p.metrics.RecordPublishError()
			tracing.RecordError(ctx, err)
			p.log.Errorw("failed to publish samples", "count", len(samples), "error", err)
		}
	}

	if p.cfg.StatsEvery > 0 && p.cycles%uint64(p.cfg.StatsEvery) == 0 {
		p.log.Infow("poller stats",
			"cycles", p.cycles,
			"devices", p.pool.Size(),
			"samples_published", p.published,
			"samples_dropped", p.dropped,
		)
	}
}

// maybeRefresh triggers an inventory refresh once its interval has elapsed.
// The refresh timestamp advances even on failure so a down directory is
// retried once per interval, not once per cycle.
func (p *Poller) maybeRefresh(ctx context.Context) {
	if !p.lastRefresh.IsZero() && time.Since(p.lastRefresh) < p.cfg.RefreshInterval {
		return
	}
	p.lastRefresh = time.Now()

	if err := p.pool.Refresh(ctx); err != nil {
		p.log.Errorw("device refresh failed", "error", err)
		return
	}
	p.metrics.SetDevicesTracked(p.pool.Size())
}

// buildSamples resolves raw counters to subscriptions and normalizes rates
// to bits per second. Entries without a mapping are dropped and counted.
func (p *Poller) buildSamples(results []domain.PollResult, capturedAt time.Time) ([]domain.Sample, int) {
	var samples []domain.Sample
	dropped := 0

	for _, res := range results {
		for _, c := range res.Counters {
			sub, err := p.pool.ResolveSubscription(res.DeviceID, c.Queue)
			if err != nil {
				dropped++
				continue
			}
			samples = append(samples, domain.Sample{
				SubscriptionID: sub,
				DeviceID:       res.DeviceID,
				Queue:          c.Queue,
				RxBps:          c.RxRate * 8,
				TxBps:          c.TxRate * 8,
				SampleAt:       capturedAt,
			})
		}
	}
	return samples, dropped
}
