package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"netpulse/internal/models"
)

const maxLineBytes = 64 * 1024

// LogStore is the append-only text log shared by the probe loop and the dashboard.
type LogStore struct {
	mu   sync.Mutex
	path string
}

// NewLogStore returns a store for the log at path. The file is created on first append.
func NewLogStore(path string) *LogStore {
	return &LogStore{path: path}
}

// Path returns the log file location.
func (s *LogStore) Path() string {
	return s.path
}

// Append writes m as one line. The whole line goes out in a single write on
// an O_APPEND descriptor, so a successful append never leaves a partial line.
func (s *LogStore) Append(_ context.Context, m models.Measurement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure log directory: %w", err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	line := FormatLine(m) + "\n"
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("append log: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close log: %w", err)
	}
	return nil
}

// Load re-reads the whole log. Malformed lines are skipped and counted.
func (s *LogStore) Load(ctx context.Context) ([]models.Measurement, LoadStats, error) {
	var stats LoadStats

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, stats, fmt.Errorf("%w: %s", ErrLogNotFound, s.path)
	}
	if err != nil {
		return nil, stats, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	var out []models.Measurement
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for scanner.Scan() {
		if stats.Lines%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}
		stats.Lines++
		m, err := ParseLine(scanner.Text())
		if err != nil {
			stats.Skipped++
			continue
		}
		out = append(out, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("read log: %w", err)
	}
	return out, stats, nil
}
