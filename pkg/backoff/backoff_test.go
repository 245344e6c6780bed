package backoff

import (
	"testing"
	"time"
)

func TestDelay_Schedule(t *testing.T) {
	p := DefaultPolicy()

	cases := []struct {
		failures int
		want     time.Duration
	}{
		{0, 0},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 32 * time.Second},
		{6, 60 * time.Second},  // capped
		{10, 60 * time.Second}, // still capped
	}

	for _, tc := range cases {
		if got := p.Delay(tc.failures); got != tc.want {
			t.Errorf("Delay(%d) = %v, want %v", tc.failures, got, tc.want)
		}
	}
}

func TestEligible_NoFailuresAlwaysEligible(t *testing.T) {
	p := DefaultPolicy()
	now := time.Now()

	if !p.Eligible(0, now, now) {
		t.Error("expected a peer with no failures to be eligible immediately")
	}
}

func TestEligible_WaitsOutTheDelay(t *testing.T) {
	p := DefaultPolicy()
	last := time.Now()

	if p.Eligible(3, last, last.Add(7*time.Second)) {
		t.Error("expected 3 failures to block retry before 8s have elapsed")
	}
	if !p.Eligible(3, last, last.Add(8*time.Second)) {
		t.Error("expected 3 failures to allow retry after 8s")
	}
}

func TestEligible_CapAt60Seconds(t *testing.T) {
	p := DefaultPolicy()
	last := time.Now()

	if !p.Eligible(20, last, last.Add(60*time.Second)) {
		t.Error("expected the delay to cap at 60s regardless of failure count")
	}
}
