package monitoring

import (
	"context"
	"sync"
	"time"
)

// DependencyCheck probes one external dependency (back-office DB, Redis).
type DependencyCheck struct {
	Name    string
	Check   func(ctx context.Context) error
	Timeout time.Duration
}

// HealthStatus is the aggregate readiness report served on /ready.
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// HealthChecker runs every registered dependency check and aggregates the
// result. Any single failing dependency makes the whole service not ready.
type HealthChecker struct {
	mu     sync.RWMutex
	checks []DependencyCheck
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{}
}

func (h *HealthChecker) AddCheck(name string, timeout time.Duration, check func(ctx context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, DependencyCheck{Name: name, Check: check, Timeout: timeout})
}

func (h *HealthChecker) CheckAll(ctx context.Context) HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Checks:    make(map[string]string, len(h.checks)),
	}

	for _, c := range h.checks {
		checkCtx, cancel := context.WithTimeout(ctx, c.Timeout)
		err := c.Check(checkCtx)
		cancel()

		if err != nil {
			status.Status = "not_ready"
			status.Checks[c.Name] = err.Error()
			continue
		}
		status.Checks[c.Name] = "ok"
	}

	return status
}
