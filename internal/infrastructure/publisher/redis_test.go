package publisher

import (
	"testing"
	"time"

	"linkpulse/internal/core/domain"

	"github.com/stretchr/testify/require"
)

func TestEntryValues_FlattensSample(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := domain.Sample{
		SubscriptionID: "S1",
		DeviceID:       "42",
		Queue:          "pppoe-alice",
		RxBps:          100000,
		TxBps:          536000,
		SampleAt:       at,
	}

	values := entryValues(s)

	require.Equal(t, "S1", values["subscription_id"])
	require.Equal(t, "42", values["device_id"])
	require.Equal(t, "pppoe-alice", values["queue_name"])
	require.Equal(t, int64(100000), values["rx_bps"])
	require.Equal(t, int64(536000), values["tx_bps"])
	require.Equal(t, at.UnixMilli(), values["sample_at"])
}
