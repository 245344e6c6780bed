package backoff

import (
	"math"
	"time"
)

// Policy holds exponential backoff configuration for a failing peer.
type Policy struct {
	Base time.Duration // delay after the first failure, doubled per consecutive failure
	Max  time.Duration // upper bound on the delay
}

// DefaultPolicy returns the backoff used for device reconnection attempts.
func DefaultPolicy() Policy {
	return Policy{
		Base: 2 * time.Second,
		Max:  60 * time.Second,
	}
}

// Delay returns the wait required after n consecutive failures: the base
// delay doubled per additional failure, capped at Max. Zero failures means
// no wait.
func (p Policy) Delay(failures int) time.Duration {
	if failures <= 0 {
		return 0
	}
	d := float64(p.Base) * math.Pow(2, float64(failures-1))
	if d > float64(p.Max) {
		return p.Max
	}
	return time.Duration(d)
}

// Eligible reports whether a peer with the given failure count may be
// attempted again at time now, where last is the previous attempt.
func (p Policy) Eligible(failures int, last, now time.Time) bool {
	if failures <= 0 {
		return true
	}
	return now.Sub(last) >= p.Delay(failures)
}
