package mikrotik

import (
	"context"
	"sync"
	"time"

	"linkpulse/internal/core/domain"
	"linkpulse/internal/core/ports"
	"linkpulse/pkg/backoff"

	ros "github.com/go-routeros/routeros/v3"
	"go.uber.org/zap"
)

// apiClient is the slice of the RouterOS API client the connection uses.
// Narrowed to an interface so tests can substitute the transport.
type apiClient interface {
	Run(sentence ...string) (*ros.Reply, error)
	Close() error
}

type dialFunc func(address, username, password string, timeout time.Duration) (apiClient, error)

func dialAPI(address, username, password string, timeout time.Duration) (apiClient, error) {
	return ros.DialTimeout(address, username, password, timeout)
}

// Conn manages exactly one RouterOS device's live API session and its retry
// policy. Transport failures never escape to the caller: they are recorded as
// backoff state and the next eligible cycle reconnects. Conn implements
// ports.DeviceConn.
type Conn struct {
	device  *domain.Device
	timeout time.Duration
	policy  backoff.Policy
	log     *zap.SugaredLogger

	dial dialFunc
	now  func() time.Time

	mu          sync.Mutex
	client      apiClient
	failures    int
	lastSuccess time.Time
	lastAttempt time.Time
}

// NewConn creates a connection manager for one inventory device. No network
// activity happens until the first Connect or FetchCounters.
func NewConn(device *domain.Device, timeout time.Duration, log *zap.SugaredLogger) *Conn {
	return &Conn{
		device:  device,
		timeout: timeout,
		policy:  backoff.DefaultPolicy(),
		log:     log,
		dial:    dialAPI,
		now:     time.Now,
	}
}

// Factory returns a ConnFactory producing RouterOS connection managers.
func Factory(timeout time.Duration, log *zap.SugaredLogger) ports.ConnFactory {
	return func(device *domain.Device) ports.DeviceConn {
		return NewConn(device, timeout, log)
	}
}

// Connect dials and authenticates the device API. Success resets the failure
// counter and stamps the last-success time; failure only advances backoff
// state.
func (c *Conn) Connect(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *Conn) connectLocked(_ context.Context) bool {
	if c.client != nil {
		return true
	}

	c.lastAttempt = c.now()
	client, err := c.dial(c.device.Address(), c.device.Username, c.device.Password, c.timeout)
	if err != nil {
		c.failures++
		c.log.Debugw("device connect failed",
			"device_id", c.device.ID,
			"address", c.device.Address(),
			"consecutive_failures", c.failures,
			"error", err,
		)
		return false
	}

	c.client = client
	c.failures = 0
	c.lastSuccess = c.now()
	return true
}

// Disconnect tears down the transport. Safe to call repeatedly and on a
// connection that never came up.
func (c *Conn) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
}

func (c *Conn) teardownLocked() {
	if c.client == nil {
		return
	}
	if err := c.client.Close(); err != nil {
		c.log.Debugw("device close", "device_id", c.device.ID, "error", err)
	}
	c.client = nil
}

// ShouldRetry reports whether the device is eligible for another attempt
// under its exponential backoff. A device with no recorded failures is
// always eligible.
func (c *Conn) ShouldRetry() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.policy.Eligible(c.failures, c.lastAttempt, c.now())
}

// FetchCounters reads every simple queue's traffic counters, connecting first
// if there is no live session. Any failure tears the session down (forcing a
// reconnect on the next eligible attempt) and yields nil.
func (c *Conn) FetchCounters(ctx context.Context) []domain.QueueCounters {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil && !c.connectLocked(ctx) {
		return nil
	}

	reply, err := c.runLocked(ctx, "/queue/simple/print", "=stats=", "=.proplist=name,rate,bytes,packets")
	if err != nil {
		c.failures++
		c.lastAttempt = c.now()
		c.teardownLocked()
		c.log.Warnw("counter fetch failed",
			"device_id", c.device.ID,
			"consecutive_failures", c.failures,
			"error", err,
		)
		return nil
	}

	c.lastSuccess = c.now()
	c.lastAttempt = c.lastSuccess

	counters := make([]domain.QueueCounters, 0, len(reply.Re))
	for _, re := range reply.Re {
		counters = append(counters, parseQueue(re.Map))
	}
	return counters
}

// Health exposes the connection's retry state for observability.
func (c *Conn) Health() domain.DeviceHealth {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.DeviceHealth{
		DeviceID:            c.device.ID,
		ConsecutiveFailures: c.failures,
		LastSuccess:         c.lastSuccess,
		Connected:           c.client != nil,
	}
}

// runLocked executes one API sentence bounded by the fetch timeout. An
// expired deadline closes the transport, which unblocks the pending Run.
func (c *Conn) runLocked(ctx context.Context, sentence ...string) (*ros.Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	client := c.client

	type result struct {
		reply *ros.Reply
		err   error
	}
	done := make(chan result, 1)
	go func() {
		reply, err := client.Run(sentence...)
		done <- result{reply, err}
	}()

	select {
	case res := <-done:
		return res.reply, res.err
	case <-ctx.Done():
		client.Close()
		return nil, ctx.Err()
	}
}
