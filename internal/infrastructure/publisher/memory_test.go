package publisher

import (
	"context"
	"testing"
	"time"

	"linkpulse/internal/core/domain"

	"github.com/stretchr/testify/require"
)

func sampleN(n int) []domain.Sample {
	samples := make([]domain.Sample, n)
	for i := range samples {
		samples[i] = domain.Sample{
			SubscriptionID: domain.SubscriptionID("S1"),
			DeviceID:       "1",
			Queue:          "q",
			RxBps:          int64(i),
			SampleAt:       time.Now(),
		}
	}
	return samples
}

func TestMemoryPublisher_TrimsOldestFirst(t *testing.T) {
	p := NewMemoryPublisher(3)

	require.NoError(t, p.Append(context.Background(), sampleN(2)))
	require.NoError(t, p.Append(context.Background(), sampleN(2)))

	entries := p.Entries()
	require.Len(t, entries, 3)
	// The first entry of the first batch fell off.
	require.Equal(t, int64(1), entries[0].RxBps)
}

func TestMemoryPublisher_ClosedRejectsAppends(t *testing.T) {
	p := NewMemoryPublisher(10)
	require.NoError(t, p.Close())
	require.True(t, p.Closed())

	err := p.Append(context.Background(), sampleN(1))
	require.ErrorIs(t, err, domain.ErrPublisherClosed)
}
