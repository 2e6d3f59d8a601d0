package monitor

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"netpulse/internal/models"
	"netpulse/internal/probe"
	"netpulse/internal/storage"
)

const (
	defaultInterval = 10 * time.Second
	defaultTimeout  = 2 * time.Second
)

// Monitor probes every target in order, records each measurement, then
// sleeps a fixed interval before the next cycle.
type Monitor struct {
	interval time.Duration
	timeout  time.Duration
	targets  []models.Target
	checker  probe.Checker
	recorder storage.Recorder
	log      logrus.FieldLogger
	now      func() time.Time
}

// Option customises a Monitor.
type Option func(*Monitor)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithLogger sets the logger; a discarding logger is used otherwise.
func WithLogger(log logrus.FieldLogger) Option {
	return func(m *Monitor) { m.log = log }
}

// New creates a monitor for the given targets. The target slice is copied.
func New(interval, timeout time.Duration, targets []models.Target, checker probe.Checker, recorder storage.Recorder, opts ...Option) *Monitor {
	if interval <= 0 {
		interval = defaultInterval
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	m := &Monitor{
		interval: interval,
		timeout:  timeout,
		targets:  append([]models.Target(nil), targets...),
		checker:  checker,
		recorder: recorder,
		log:      discard,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run executes cycles until ctx is cancelled. It always returns ctx.Err().
func (m *Monitor) Run(ctx context.Context) error {
	if len(m.targets) == 0 {
		m.log.Warn("no targets configured; cycles will be empty")
	}

	for {
		m.RunOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		timer := time.NewTimer(m.interval)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// RunOnce probes each target sequentially and returns the measurements of
// this cycle. Recorder failures are logged and do not stop the cycle. A probe
// interrupted by cancellation of ctx is discarded, not recorded as DOWN.
func (m *Monitor) RunOnce(ctx context.Context) []models.Measurement {
	cycle := m.log.WithField("cycle", uuid.NewString())
	cycle.WithField("targets", len(m.targets)).Debug("cycle started")

	out := make([]models.Measurement, 0, len(m.targets))
	for _, t := range m.targets {
		if ctx.Err() != nil {
			break
		}
		meas := m.probe(ctx, t)
		if ctx.Err() != nil {
			break
		}
		out = append(out, meas)

		entry := cycle.WithField("target", string(t))
		if meas.Reachable {
			entry.WithField("latency_ms", storage.FormatLatency(meas)).Info("target is UP")
		} else {
			entry.Warn("target is DOWN")
		}

		if err := m.recorder.Append(ctx, meas); err != nil {
			entry.WithError(err).Error("failed to record measurement")
		}
	}
	return out
}

func (m *Monitor) probe(ctx context.Context, target models.Target) models.Measurement {
	checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
	outcome := m.checker.Check(checkCtx, target)
	cancel()

	meas := models.Measurement{
		Target:    target,
		Timestamp: m.now().Truncate(time.Second),
		Reachable: outcome.Reachable,
	}
	if outcome.Reachable {
		meas.LatencyMS = models.Latency(outcome.LatencyMS)
	} else if outcome.Err != nil {
		m.log.WithField("target", string(target)).WithError(outcome.Err).Debug("probe failed")
	}
	return meas
}
