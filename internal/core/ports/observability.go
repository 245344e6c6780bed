package ports

import "time"

// CycleMetrics receives poller observability events. The Prometheus
// collector is the production implementation.
type CycleMetrics interface {
	RecordCycle(duration time.Duration)
	RecordSamples(published, dropped int)
	RecordCycleError()
	RecordPublishError()
	RecordDeviceFailure()
	RecordFetch(duration time.Duration)
	SetDevicesTracked(n int)
}
