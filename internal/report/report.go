package report

import (
	"context"
	"errors"
	"time"

	"netpulse/internal/history"
	"netpulse/internal/metrics"
	"netpulse/internal/models"
	"netpulse/internal/storage"
)

// DefaultRecentLimit is how many trailing records the recent table shows.
const DefaultRecentLimit = 30

// Warning shown when the log has not been created yet.
const WarningLogNotFound = "Log file not found. Start netpulse first."

// Options tune a Build.
type Options struct {
	RecentLimit int
	TrendPoints int
	Now         func() time.Time
}

// Record is one row of the recent-records table and of the CSV export.
type Record struct {
	Timestamp string `json:"timestamp"`
	IP        string `json:"ip"`
	Status    string `json:"status"`
	Latency   string `json:"latency"`
}

// Report is the aggregate view rendered by one dashboard refresh.
type Report struct {
	GeneratedAt    time.Time              `json:"generated_at"`
	Warning        string                 `json:"warning,omitempty"`
	Stats          storage.LoadStats      `json:"stats"`
	NoData         bool                   `json:"no_data"`
	NoTrendData    bool                   `json:"no_trend_data"`
	Recent         []Record               `json:"recent"`
	Trends         []history.TargetTrend  `json:"trends"`
	Uptime         []metrics.TargetUptime `json:"uptime"`
	AverageLatency *float64               `json:"average_latency_ms"`
}

// ToRecord renders m the way it appears in the table and the CSV export.
func ToRecord(m models.Measurement) Record {
	return Record{
		Timestamp: m.Timestamp.Format(storage.TimestampLayout),
		IP:        string(m.Target),
		Status:    string(m.Status()),
		Latency:   storage.FormatLatency(m) + " ms",
	}
}

// Build computes the aggregate view of measurements. It never fails: empty
// or all-DOWN input yields the NoData / NoTrendData flags instead.
func Build(measurements []models.Measurement, opts Options) Report {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	limit := opts.RecentLimit
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	r := Report{
		GeneratedAt: now(),
		NoData:      len(measurements) == 0,
		Recent:      []Record{},
		Trends:      history.BuildTrends(measurements, opts.TrendPoints),
		Uptime:      metrics.ComputeUptime(measurements),
	}

	tail := measurements
	if len(tail) > limit {
		tail = tail[len(tail)-limit:]
	}
	for _, m := range tail {
		r.Recent = append(r.Recent, ToRecord(m))
	}

	if r.Trends == nil {
		r.Trends = []history.TargetTrend{}
		r.NoTrendData = true
	}
	if r.Uptime == nil {
		r.Uptime = []metrics.TargetUptime{}
	}
	if avg, ok := metrics.AverageLatency(measurements); ok {
		r.AverageLatency = &avg
	}
	return r
}

// Load runs the full read path against src: one complete load followed by
// Build. A missing log becomes a warning on an empty report. Measurements
// are returned as well for callers that export them.
func Load(ctx context.Context, src storage.Source, opts Options) (Report, []models.Measurement, error) {
	measurements, stats, err := src.Load(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrLogNotFound) {
			r := Build(nil, opts)
			r.Warning = WarningLogNotFound
			return r, nil, nil
		}
		return Report{}, nil, err
	}
	r := Build(measurements, opts)
	r.Stats = stats
	return r, measurements, nil
}
