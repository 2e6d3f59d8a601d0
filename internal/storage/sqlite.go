package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"netpulse/internal/models"
)

// SQLiteStore mirrors the log into a SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and ensures the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("error open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error ping db: %w", err)
	}

	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS measurements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target TEXT NOT NULL,
		recorded_at INTEGER NOT NULL,
		reachable INTEGER NOT NULL,
		latency_ms REAL
	);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating measurements table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Append inserts m as a new row.
func (s *SQLiteStore) Append(ctx context.Context, m models.Measurement) error {
	var latency sql.NullFloat64
	if m.HasLatency() {
		latency = sql.NullFloat64{Float64: *m.LatencyMS, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO measurements(target, recorded_at, reachable, latency_ms)
		VALUES(?, ?, ?, ?)
	`, string(m.Target), m.Timestamp.Unix(), m.Reachable, latency)
	if err != nil {
		return fmt.Errorf("insert measurement: %w", err)
	}
	return nil
}

// Load returns all rows in insertion order.
func (s *SQLiteStore) Load(ctx context.Context) ([]models.Measurement, LoadStats, error) {
	var stats LoadStats

	rows, err := s.db.QueryContext(ctx, `
		SELECT target, recorded_at, reachable, latency_ms
		FROM measurements
		ORDER BY id
	`)
	if err != nil {
		return nil, stats, fmt.Errorf("query measurements: %w", err)
	}
	defer rows.Close()

	var out []models.Measurement
	for rows.Next() {
		var (
			m       models.Measurement
			target  string
			unix    int64
			latency sql.NullFloat64
		)
		if err := rows.Scan(&target, &unix, &m.Reachable, &latency); err != nil {
			return nil, stats, fmt.Errorf("scan measurement: %w", err)
		}
		m.Target = models.Target(target)
		m.Timestamp = time.Unix(unix, 0)
		if latency.Valid && m.Reachable {
			m.LatencyMS = models.Latency(latency.Float64)
		}
		stats.Lines++
		out = append(out, m)
	}
	return out, stats, rows.Err()
}
