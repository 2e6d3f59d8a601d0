package storage

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"netpulse/internal/models"
)

// TimestampLayout is the timestamp layout inside the brackets of a log line.
const TimestampLayout = "2006-01-02 15:04:05"

const (
	fieldSeparator = " | "
	latencyPrefix  = "Latency: "
	latencySuffix  = " ms"
	latencyMissing = "N/A"
)

var headRe = regexp.MustCompile(`^\[(.+?)\] (.+?) is (\w+)$`)

// ErrMalformedLine marks a log line that cannot be parsed.
var ErrMalformedLine = errors.New("malformed log line")

// FormatLine renders m as a log line without the trailing newline:
//
//	[2006-01-02 15:04:05] 10.0.0.1 is UP | Latency: 5.25 ms
func FormatLine(m models.Measurement) string {
	return fmt.Sprintf("[%s] %s is %s%s%s%s%s",
		m.Timestamp.Format(TimestampLayout),
		m.Target,
		m.Status(),
		fieldSeparator,
		latencyPrefix,
		FormatLatency(m),
		latencySuffix,
	)
}

// FormatLatency renders the latency field value, "N/A" when absent or DOWN.
func FormatLatency(m models.Measurement) string {
	if !m.HasLatency() {
		return latencyMissing
	}
	return strconv.FormatFloat(*m.LatencyMS, 'f', -1, 64)
}

// ParseLine parses a single log line. Timestamps are read in the local zone.
func ParseLine(line string) (models.Measurement, error) {
	line = strings.TrimRight(line, "\r\n")

	parts := strings.Split(line, fieldSeparator)
	if len(parts) != 2 {
		return models.Measurement{}, fmt.Errorf("%w: want exactly one %q", ErrMalformedLine, strings.TrimSpace(fieldSeparator))
	}
	head, tail := parts[0], parts[1]

	match := headRe.FindStringSubmatch(head)
	if match == nil {
		return models.Measurement{}, fmt.Errorf("%w: bad prefix %q", ErrMalformedLine, head)
	}
	ts, err := time.ParseInLocation(TimestampLayout, match[1], time.Local)
	if err != nil {
		return models.Measurement{}, fmt.Errorf("%w: bad timestamp: %v", ErrMalformedLine, err)
	}

	m := models.Measurement{Target: models.Target(match[2]), Timestamp: ts}
	switch models.Status(match[3]) {
	case models.StatusUp:
		m.Reachable = true
	case models.StatusDown:
	default:
		return models.Measurement{}, fmt.Errorf("%w: unknown status %q", ErrMalformedLine, match[3])
	}

	if !strings.HasPrefix(tail, latencyPrefix) || !strings.HasSuffix(tail, latencySuffix) {
		return models.Measurement{}, fmt.Errorf("%w: bad latency field %q", ErrMalformedLine, tail)
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(tail, latencyPrefix), latencySuffix)
	if raw == latencyMissing {
		return m, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return models.Measurement{}, fmt.Errorf("%w: bad latency %q", ErrMalformedLine, raw)
	}
	if m.Reachable {
		m.LatencyMS = &v
	}
	return m, nil
}
