package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	// Counters
	cyclesTotal         prometheus.Counter
	samplesPublished    prometheus.Counter
	samplesDropped      prometheus.Counter
	cycleErrorsTotal    prometheus.Counter
	publishErrorsTotal  prometheus.Counter
	deviceFailuresTotal prometheus.Counter

	// Gauges
	devicesTracked prometheus.Gauge

	// Histograms
	cycleDuration prometheus.Histogram
	fetchDuration prometheus.Histogram
}

// NewPrometheusCollector registers the collector metrics on reg. Pass
// prometheus.DefaultRegisterer in production; tests use a fresh registry.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)

	return &PrometheusCollector{
		cyclesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "linkpulse_cycles_total",
			Help: "Total number of completed poll cycles",
		}),

		samplesPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "linkpulse_samples_published_total",
			Help: "Total number of samples appended to the stream",
		}),

		samplesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "linkpulse_samples_dropped_total",
			Help: "Total number of counter entries dropped for lack of a subscription mapping",
		}),

		cycleErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "linkpulse_cycle_errors_total",
			Help: "Total number of unexpected errors recovered inside poll cycles",
		}),

		publishErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "linkpulse_publish_errors_total",
			Help: "Total number of failed stream appends",
		}),

		deviceFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "linkpulse_device_failures_total",
			Help: "Total number of device connect or fetch failures",
		}),

		devicesTracked: factory.NewGauge(prometheus.GaugeOpts{
			Name: "linkpulse_devices_tracked",
			Help: "Number of devices currently tracked by the pool",
		}),

		cycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "linkpulse_cycle_duration_seconds",
			Help:    "Duration of full poll cycles",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}),

		fetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "linkpulse_fetch_duration_seconds",
			Help:    "Duration of per-device counter fetches",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
	}
}

func (p *PrometheusCollector) RecordCycle(duration time.Duration) {
	p.cyclesTotal.Inc()
	p.cycleDuration.Observe(duration.Seconds())
}

func (p *PrometheusCollector) RecordSamples(published, dropped int) {
	p.samplesPublished.Add(float64(published))
	p.samplesDropped.Add(float64(dropped))
}

func (p *PrometheusCollector) RecordCycleError() {
	p.cycleErrorsTotal.Inc()
}

func (p *PrometheusCollector) RecordPublishError() {
	p.publishErrorsTotal.Inc()
}

func (p *PrometheusCollector) RecordDeviceFailure() {
	p.deviceFailuresTotal.Inc()
}

func (p *PrometheusCollector) SetDevicesTracked(n int) {
	p.devicesTracked.Set(float64(n))
}

func (p *PrometheusCollector) RecordFetch(duration time.Duration) {
	p.fetchDuration.Observe(duration.Seconds())
}
