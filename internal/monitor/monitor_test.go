package monitor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"netpulse/internal/metrics"
	"netpulse/internal/models"
	"netpulse/internal/probe"
	"netpulse/internal/storage"
)

// scriptedChecker replays a fixed outcome sequence per target.
type scriptedChecker struct {
	mu       sync.Mutex
	outcomes map[models.Target][]probe.Outcome
	calls    []models.Target
}

func (c *scriptedChecker) Check(ctx context.Context, target models.Target) probe.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, target)
	if _, ok := ctx.Deadline(); !ok {
		return probe.Outcome{Err: errors.New("check without deadline")}
	}
	queue := c.outcomes[target]
	if len(queue) == 0 {
		return probe.Outcome{Err: errors.New("unscripted")}
	}
	next := queue[0]
	c.outcomes[target] = queue[1:]
	return next
}

type stepClock struct{ t time.Time }

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(500 * time.Millisecond)
	return c.t
}

func TestRunOnceScenario(t *testing.T) {
	ctx := context.Background()
	checker := &scriptedChecker{outcomes: map[models.Target][]probe.Outcome{
		"10.0.0.1": {
			{Reachable: true, LatencyMS: 5},
			{Reachable: true, LatencyMS: 7},
			{Reachable: true, LatencyMS: 6},
		},
		"10.0.0.2": {
			{Err: errors.New("100% packet loss")},
			{Err: errors.New("100% packet loss")},
			{Err: errors.New("100% packet loss")},
		},
	}}
	store := storage.NewLogStore(filepath.Join(t.TempDir(), "logs.txt"))
	clock := &stepClock{t: time.Date(2025, 3, 14, 10, 0, 0, 0, time.Local)}

	mon := New(time.Second, time.Second, []models.Target{"10.0.0.1", "10.0.0.2"}, checker, store, WithClock(clock.now))
	for i := 0; i < 3; i++ {
		got := mon.RunOnce(ctx)
		if len(got) != 2 {
			t.Fatalf("cycle %d: %d measurements", i, len(got))
		}
		if got[0].Timestamp.Nanosecond() != 0 {
			t.Fatalf("timestamp not truncated: %v", got[0].Timestamp)
		}
	}

	want := []models.Target{"10.0.0.1", "10.0.0.2", "10.0.0.1", "10.0.0.2", "10.0.0.1", "10.0.0.2"}
	if len(checker.calls) != len(want) {
		t.Fatalf("calls = %v", checker.calls)
	}
	for i := range want {
		if checker.calls[i] != want[i] {
			t.Fatalf("probe order = %v", checker.calls)
		}
	}

	logged, stats, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Skipped != 0 || len(logged) != 6 {
		t.Fatalf("logged %d (%+v)", len(logged), stats)
	}
	uptime := metrics.ComputeUptime(logged)
	if uptime[0].Target != "10.0.0.1" || uptime[0].UptimePercent != 100 ||
		uptime[1].Target != "10.0.0.2" || uptime[1].UptimePercent != 0 {
		t.Fatalf("uptime = %+v", uptime)
	}
	if avg, ok := metrics.AverageLatency(logged); !ok || avg != 6 {
		t.Fatalf("average = %v, %v", avg, ok)
	}
	for _, m := range logged {
		if m.Target == "10.0.0.2" && m.LatencyMS != nil {
			t.Fatalf("DOWN record carries latency: %+v", m)
		}
	}
}

type failingRecorder struct{ calls int }

func (r *failingRecorder) Append(context.Context, models.Measurement) error {
	r.calls++
	return errors.New("disk full")
}

func TestRunOnceContinuesAfterWriteFailure(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)

	checker := probe.CheckerFunc(func(context.Context, models.Target) probe.Outcome {
		return probe.Outcome{Reachable: true, LatencyMS: 1}
	})
	rec := &failingRecorder{}
	mon := New(time.Second, time.Second, []models.Target{"a", "b"}, checker, rec, WithLogger(log))

	got := mon.RunOnce(context.Background())
	if len(got) != 2 || rec.calls != 2 {
		t.Fatalf("measurements %d, recorder calls %d", len(got), rec.calls)
	}
	if !strings.Contains(buf.String(), "failed to record measurement") {
		t.Fatalf("write failure not reported:\n%s", buf.String())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	var mu sync.Mutex
	cycles := 0
	checker := probe.CheckerFunc(func(context.Context, models.Target) probe.Outcome {
		mu.Lock()
		cycles++
		mu.Unlock()
		return probe.Outcome{}
	})
	store := storage.NewLogStore(filepath.Join(t.TempDir(), "logs.txt"))
	mon := New(20*time.Millisecond, time.Second, []models.Target{"a"}, checker, store)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- mon.Run(ctx) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}

	mu.Lock()
	defer mu.Unlock()
	if cycles < 2 {
		t.Fatalf("expected repeated cycles, got %d", cycles)
	}
}

func TestRunDiscardsProbeInterruptedByShutdown(t *testing.T) {
	started := make(chan struct{})
	checker := probe.CheckerFunc(func(ctx context.Context, _ models.Target) probe.Outcome {
		close(started)
		<-ctx.Done()
		return probe.Outcome{Err: ctx.Err()}
	})
	path := filepath.Join(t.TempDir(), "logs.txt")
	mon := New(time.Second, time.Minute, []models.Target{"10.0.0.1"}, checker, storage.NewLogStore(path))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mon.Run(ctx) }()

	<-started
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}

	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		data, _ := os.ReadFile(path)
		t.Fatalf("interrupted probe was recorded: %q", data)
	}
}

func TestRunOnceRecordsTimeoutAsDown(t *testing.T) {
	checker := probe.CheckerFunc(func(ctx context.Context, _ models.Target) probe.Outcome {
		<-ctx.Done()
		return probe.Outcome{Err: ctx.Err()}
	})
	rec := &memoryRecorder{}
	mon := New(time.Second, 20*time.Millisecond, []models.Target{"10.0.0.1"}, checker, rec)

	got := mon.RunOnce(context.Background())
	if len(got) != 1 || got[0].Reachable || len(rec.got) != 1 {
		t.Fatalf("measurements %+v, recorded %+v", got, rec.got)
	}
}

type memoryRecorder struct{ got []models.Measurement }

func (r *memoryRecorder) Append(_ context.Context, m models.Measurement) error {
	r.got = append(r.got, m)
	return nil
}

func TestRunWithNoTargets(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)

	mon := New(10*time.Millisecond, time.Second, nil, probe.CheckerFunc(func(context.Context, models.Target) probe.Outcome {
		t.Error("checker called without targets")
		return probe.Outcome{}
	}), storage.Multi{}, WithLogger(log))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := mon.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run returned %v", err)
	}
	if !strings.Contains(buf.String(), "no targets configured") {
		t.Fatalf("missing warning:\n%s", buf.String())
	}
}
