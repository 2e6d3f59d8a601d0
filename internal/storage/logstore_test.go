package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"netpulse/internal/models"
)

func TestLogStoreAppendLoad(t *testing.T) {
	ctx := context.Background()
	store := NewLogStore(filepath.Join(t.TempDir(), "data", "logs.txt"))

	want := []models.Measurement{
		{Target: "10.0.0.1", Timestamp: ts(10, 0, 0), Reachable: true, LatencyMS: models.Latency(5)},
		{Target: "10.0.0.2", Timestamp: ts(10, 0, 1)},
		{Target: "10.0.0.1", Timestamp: ts(10, 0, 10), Reachable: true, LatencyMS: models.Latency(7.5)},
	}
	for _, m := range want {
		if err := store.Append(ctx, m); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, stats, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("load mismatch (-want +got):\n%s", diff)
	}
	if stats != (LoadStats{Lines: 3}) {
		t.Fatalf("stats = %+v", stats)
	}

	raw, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(raw), "\n") || strings.Count(string(raw), "\n") != 3 {
		t.Fatalf("unexpected file layout: %q", raw)
	}
}

func TestLogStoreSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.txt")
	content := strings.Join([]string{
		"[2025-03-14 10:00:00] 10.0.0.1 is UP | Latency: 5 ms",
		"garbage without separator",
		"",
		"[2025-03-14 10:00:01] 10.0.0.2 is DOWN | Latency: N/A ms",
		"[2025-03-14 10:00:02] 10.0.0.1 is UP | Latency: 6",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, stats, err := NewLogStore(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || got[0].Target != "10.0.0.1" || got[1].Target != "10.0.0.2" {
		t.Fatalf("got %+v", got)
	}
	if stats != (LoadStats{Lines: 5, Skipped: 3}) {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestLogStoreLoadMissingFile(t *testing.T) {
	_, _, err := NewLogStore(filepath.Join(t.TempDir(), "nope.txt")).Load(context.Background())
	if !errors.Is(err, ErrLogNotFound) {
		t.Fatalf("want ErrLogNotFound, got %v", err)
	}
}

func TestLogStoreLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.txt")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	got, stats, err := NewLogStore(path).Load(context.Background())
	if err != nil || len(got) != 0 || stats.Lines != 0 {
		t.Fatalf("got %v %+v %v", got, stats, err)
	}
}

func TestLogStoreAppendFailure(t *testing.T) {
	dir := t.TempDir()
	store := NewLogStore(dir) // a directory cannot be opened for append
	err := store.Append(context.Background(), models.Measurement{Target: "x", Timestamp: ts(0, 0, 0)})
	if err == nil {
		t.Fatal("expected append to fail")
	}
}

type failingRecorder struct{ err error }

func (f failingRecorder) Append(context.Context, models.Measurement) error { return f.err }

func TestMultiAttemptsEveryRecorder(t *testing.T) {
	store := NewLogStore(filepath.Join(t.TempDir(), "logs.txt"))
	boom := errors.New("boom")
	multi := Multi{failingRecorder{err: boom}, store}

	err := multi.Append(context.Background(), models.Measurement{Target: "10.0.0.1", Timestamp: ts(1, 0, 0)})
	if !errors.Is(err, boom) {
		t.Fatalf("want joined boom, got %v", err)
	}
	got, _, err := store.Load(context.Background())
	if err != nil || len(got) != 1 {
		t.Fatalf("second recorder skipped: %v %v", got, err)
	}
}
