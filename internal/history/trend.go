package history

import (
	"math"
	"sort"
	"time"

	"netpulse/internal/models"
)

// DefaultTrendPoints caps how many points a single target series carries.
const DefaultTrendPoints = 120

// TrendPoint is one point of a latency series. Samples is how many
// measurements were averaged into it (1 unless the series was down-sampled).
type TrendPoint struct {
	Time      time.Time `json:"time"`
	LatencyMS float64   `json:"latency_ms"`
	Samples   int       `json:"samples"`
}

// TargetTrend is the time-ordered latency series of one target.
type TargetTrend struct {
	Target string       `json:"target"`
	Points []TrendPoint `json:"points"`
}

type sample struct {
	Timestamp time.Time
	LatencyMS float64
}

// BuildTrends converts measurements into per-target latency series. Only
// reachable measurements carrying a latency contribute. Series longer than
// points are reduced to at most points equal-width time buckets holding the
// bucket mean; empty buckets are dropped.
func BuildTrends(measurements []models.Measurement, points int) []TargetTrend {
	if points <= 0 {
		points = DefaultTrendPoints
	}

	series := make(map[string][]sample)
	for _, m := range measurements {
		if !m.HasLatency() {
			continue
		}
		id := string(m.Target)
		series[id] = append(series[id], sample{Timestamp: m.Timestamp, LatencyMS: *m.LatencyMS})
	}
	if len(series) == 0 {
		return nil
	}

	ids := make([]string, 0, len(series))
	for id := range series {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := make([]TargetTrend, 0, len(ids))
	for _, id := range ids {
		samples := series[id]
		sort.SliceStable(samples, func(i, j int) bool {
			return samples[i].Timestamp.Before(samples[j].Timestamp)
		})
		result = append(result, TargetTrend{
			Target: id,
			Points: buildSeries(samples, points),
		})
	}
	return result
}

func buildSeries(samples []sample, points int) []TrendPoint {
	if len(samples) <= points {
		out := make([]TrendPoint, 0, len(samples))
		for _, s := range samples {
			out = append(out, TrendPoint{Time: s.Timestamp, LatencyMS: s.LatencyMS, Samples: 1})
		}
		return out
	}

	start := samples[0].Timestamp
	end := samples[len(samples)-1].Timestamp.Add(time.Nanosecond)
	bucketDuration := end.Sub(start) / time.Duration(points)
	if bucketDuration <= 0 {
		bucketDuration = time.Nanosecond
	}

	output := make([]TrendPoint, 0, points)
	cursor := 0
	for i := 0; i < points; i++ {
		bucketStart := start.Add(time.Duration(i) * bucketDuration)
		bucketEnd := bucketStart.Add(bucketDuration)
		if i == points-1 {
			bucketEnd = end
		}
		chunk, next := collectBucketSamples(samples, bucketStart, bucketEnd, cursor)
		cursor = next
		if len(chunk) == 0 {
			continue
		}
		var sum float64
		for _, s := range chunk {
			sum += s.LatencyMS
		}
		output = append(output, TrendPoint{
			Time:      chunk[len(chunk)-1].Timestamp,
			LatencyMS: math.Round(sum/float64(len(chunk))*100) / 100,
			Samples:   len(chunk),
		})
	}
	return output
}

func collectBucketSamples(samples []sample, start, end time.Time, cursor int) ([]sample, int) {
	total := len(samples)
	if total == 0 || cursor >= total {
		return nil, cursor
	}

	i := cursor
	for i < total && samples[i].Timestamp.Before(start) {
		i++
	}
	j := i
	for j < total && samples[j].Timestamp.Before(end) {
		j++
	}
	if i >= j {
		return nil, j
	}
	return samples[i:j], j
}
