package storage

import (
	"context"
	"errors"
	"fmt"

	"netpulse/internal/models"
)

// ErrLogNotFound is returned by LogStore.Load when the log file does not exist yet.
var ErrLogNotFound = errors.New("log file not found")

// Recorder persists measurements on the write path.
type Recorder interface {
	Append(ctx context.Context, m models.Measurement) error
}

// Source loads every persisted measurement in write order on the read path.
type Source interface {
	Load(ctx context.Context) ([]models.Measurement, LoadStats, error)
}

// LoadStats describes one full read of a source.
type LoadStats struct {
	Lines   int `json:"lines"`
	Skipped int `json:"skipped"`
}

// Multi fans a measurement out to several recorders. Every recorder is
// attempted; failures are joined.
type Multi []Recorder

// Append writes m to each recorder in order.
func (m Multi) Append(ctx context.Context, meas models.Measurement) error {
	var errs []error
	for i, r := range m {
		if err := r.Append(ctx, meas); err != nil {
			errs = append(errs, fmt.Errorf("recorder %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
