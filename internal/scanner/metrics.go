package scanner

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for the chunked scanner.
type Metrics struct {
	ScansTotal    *prometheus.CounterVec
	MatchesTotal  *prometheus.CounterVec
	BytesRead     prometheus.Counter
	WindowsTotal  prometheus.Counter
	ScanDuration  *prometheus.HistogramVec
	ScansInFlight prometheus.Gauge
}

// NewMetrics creates and registers scanner metrics on the default registry.
//
// sync.Once guards registration so repeated calls share one set of
// collectors instead of panicking on duplicate registration.
//
// Metrics:
//   - pinrecover_scans_total{outcome} - Scans by terminal outcome
//   - pinrecover_matches_total{strategy} - Successful extractions by strategy
//   - pinrecover_scan_bytes_read_total - Bytes read across all scans
//   - pinrecover_scan_windows_total - Windows handed to the extractor
//   - pinrecover_scan_duration_seconds{outcome} - Scan latency
//   - pinrecover_scans_in_flight - Scans currently running
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsWithRegistry(prometheus.DefaultRegisterer)
	})
	return globalMetrics
}

// NewMetricsWithRegistry registers scanner metrics on reg. Tests pass a
// fresh prometheus.NewRegistry().
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ScansTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pinrecover_scans_total",
				Help: "Total number of scans by outcome",
			},
			[]string{"outcome"},
		),
		MatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pinrecover_matches_total",
				Help: "Total number of PIN candidates found by strategy",
			},
			[]string{"strategy"},
		),
		BytesRead: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pinrecover_scan_bytes_read_total",
				Help: "Total number of bytes read by the scanner",
			},
		),
		WindowsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pinrecover_scan_windows_total",
				Help: "Total number of scan windows passed to the extractor",
			},
		),
		ScanDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pinrecover_scan_duration_seconds",
				Help:    "Duration of scans in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 30, 120},
			},
			[]string{"outcome"},
		),
		ScansInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pinrecover_scans_in_flight",
				Help: "Number of scans currently running",
			},
		),
	}
}

// observe records a finished scan. Safe on a nil receiver.
func (m *Metrics) observe(res *Result) {
	if m == nil {
		return
	}
	outcome := res.Outcome()
	m.ScansTotal.WithLabelValues(outcome).Inc()
	m.BytesRead.Add(float64(res.BytesRead))
	m.WindowsTotal.Add(float64(res.Windows))
	m.ScanDuration.WithLabelValues(outcome).Observe(res.Duration.Seconds())
	if res.Found() {
		m.MatchesTotal.WithLabelValues(res.Match.Strategy).Inc()
	}
}

func (m *Metrics) begin() {
	if m != nil {
		m.ScansInFlight.Inc()
	}
}

func (m *Metrics) end() {
	if m != nil {
		m.ScansInFlight.Dec()
	}
}
