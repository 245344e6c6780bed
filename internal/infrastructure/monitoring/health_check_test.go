package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHealthChecker_AllHealthy(t *testing.T) {
	h := NewHealthChecker()
	h.AddCheck("database", time.Second, func(ctx context.Context) error { return nil })
	h.AddCheck("redis", time.Second, func(ctx context.Context) error { return nil })

	status := h.CheckAll(context.Background())

	if status.Status != "ready" {
		t.Fatalf("status = %q, want ready", status.Status)
	}
	if status.Checks["database"] != "ok" || status.Checks["redis"] != "ok" {
		t.Errorf("unexpected check results: %v", status.Checks)
	}
}

func TestHealthChecker_OneFailureMakesNotReady(t *testing.T) {
	h := NewHealthChecker()
	h.AddCheck("database", time.Second, func(ctx context.Context) error { return nil })
	h.AddCheck("redis", time.Second, func(ctx context.Context) error {
		return errors.New("connection refused")
	})

	status := h.CheckAll(context.Background())

	if status.Status != "not_ready" {
		t.Fatalf("status = %q, want not_ready", status.Status)
	}
	if status.Checks["redis"] != "connection refused" {
		t.Errorf("redis check = %q, want the error message", status.Checks["redis"])
	}
	if status.Checks["database"] != "ok" {
		t.Errorf("healthy check must still be reported, got %q", status.Checks["database"])
	}
}

func TestHealthChecker_ChecksGetBoundedContext(t *testing.T) {
	h := NewHealthChecker()
	h.AddCheck("slow", 10*time.Millisecond, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})

	start := time.Now()
	status := h.CheckAll(context.Background())

	if status.Status != "not_ready" {
		t.Fatalf("status = %q, want not_ready for a timed-out check", status.Status)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("check was not cut off by its timeout")
	}
}
