package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Exporter publishes the most recent aggregate view as Prometheus gauges.
// Each Update replaces the previous values, so targets that disappear from
// the log also disappear from the exposition.
type Exporter struct {
	mu         sync.Mutex
	registry   *prometheus.Registry
	uptime     *prometheus.GaugeVec
	checks     *prometheus.GaugeVec
	avgLatency prometheus.Gauge
	hasLatency prometheus.Gauge
	skipped    prometheus.Gauge
}

// NewExporter registers the NetPulse gauges on a private registry.
func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		uptime: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "netpulse_target_uptime_percent",
				Help: "Share of UP measurements per target in the log",
			},
			[]string{"target"},
		),
		checks: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "netpulse_target_checks",
				Help: "Number of logged measurements per target and status",
			},
			[]string{"target", "status"},
		),
		avgLatency: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "netpulse_average_latency_ms",
			Help: "Mean latency of reachable measurements",
		}),
		hasLatency: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "netpulse_latency_data_available",
			Help: "1 when at least one reachable measurement carries a latency",
		}),
		skipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "netpulse_log_skipped_lines",
			Help: "Malformed log lines skipped during the last read",
		}),
	}
	e.registry.MustRegister(e.uptime, e.checks, e.avgLatency, e.hasLatency, e.skipped)
	return e
}

// Snapshot is one aggregate view as published to Prometheus.
type Snapshot struct {
	Uptime         []TargetUptime
	AverageLatency float64
	HasLatency     bool
	Skipped        int
}

// Update replaces the exported values with s. Scrapes never observe a
// partially applied snapshot.
func (e *Exporter) Update(s Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.set(s)
}

// ServeSnapshot publishes s and answers the scrape with exactly those values.
func (e *Exporter) ServeSnapshot(w http.ResponseWriter, r *http.Request, s Snapshot) {
	e.mu.Lock()
	e.set(s)
	families, err := e.registry.Gather()
	e.mu.Unlock()

	gathered := prometheus.GathererFunc(func() ([]*dto.MetricFamily, error) {
		return families, err
	})
	promhttp.HandlerFor(gathered, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

// Handler serves the last published snapshot in the Prometheus exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(prometheus.GathererFunc(e.gather), promhttp.HandlerOpts{})
}

func (e *Exporter) gather() ([]*dto.MetricFamily, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Gather()
}

func (e *Exporter) set(s Snapshot) {
	e.uptime.Reset()
	e.checks.Reset()
	for _, u := range s.Uptime {
		e.uptime.WithLabelValues(u.Target).Set(u.UptimePercent)
		e.checks.WithLabelValues(u.Target, "UP").Set(float64(u.Up))
		e.checks.WithLabelValues(u.Target, "DOWN").Set(float64(u.Down))
	}
	if s.HasLatency {
		e.avgLatency.Set(s.AverageLatency)
		e.hasLatency.Set(1)
	} else {
		e.avgLatency.Set(0)
		e.hasLatency.Set(0)
	}
	e.skipped.Set(float64(s.Skipped))
}
