package models

import (
	"time"
)

// Status is the reachability verdict written to the log.
type Status string

const (
	StatusUp   Status = "UP"
	StatusDown Status = "DOWN"
)

// Target is a monitored host, identified by address or name.
type Target string

// Measurement captures the outcome of a single probe of a target.
type Measurement struct {
	Target    Target    `json:"target"`
	Timestamp time.Time `json:"timestamp"`
	Reachable bool      `json:"reachable"`
	LatencyMS *float64  `json:"latency_ms,omitempty"`
}

// Status maps the reachability flag onto its log representation.
func (m Measurement) Status() Status {
	if m.Reachable {
		return StatusUp
	}
	return StatusDown
}

// HasLatency reports whether the measurement carries a usable latency sample.
func (m Measurement) HasLatency() bool {
	return m.Reachable && m.LatencyMS != nil
}

// Latency returns a pointer to v, handy for building measurements.
func Latency(v float64) *float64 {
	return &v
}
