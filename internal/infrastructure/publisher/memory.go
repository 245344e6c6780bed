package publisher

import (
	"context"
	"sync"

	"linkpulse/internal/core/domain"
)

// MemoryPublisher retains samples in a capped in-memory buffer, trimming the
// oldest entries first. Used in development and tests; implements
// ports.SamplePublisher.
type MemoryPublisher struct {
	mu      sync.Mutex
	entries []domain.Sample
	maxLen  int
	closed  bool
}

func NewMemoryPublisher(maxLen int) *MemoryPublisher {
	return &MemoryPublisher{maxLen: maxLen}
}

func (p *MemoryPublisher) Append(ctx context.Context, samples []domain.Sample) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return domain.ErrPublisherClosed
	}

	p.entries = append(p.entries, samples...)
	if over := len(p.entries) - p.maxLen; over > 0 {
		p.entries = append([]domain.Sample(nil), p.entries[over:]...)
	}
	return nil
}

func (p *MemoryPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Entries returns a copy of the retained samples, oldest first.
func (p *MemoryPublisher) Entries() []domain.Sample {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Sample(nil), p.entries...)
}

// Closed reports whether Close has been called.
func (p *MemoryPublisher) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
