package metrics

import (
	"math"
	"sort"
	"time"

	"netpulse/internal/models"
)

// TargetUptime summarises reachability of a monitored target.
type TargetUptime struct {
	Target        string        `json:"target"`
	UptimePercent float64       `json:"uptime_percent"`
	TotalChecks   int           `json:"total_checks"`
	Up            int           `json:"up"`
	Down          int           `json:"down"`
	LastStatus    models.Status `json:"last_status"`
	LastSeen      time.Time     `json:"last_seen"`
}

// ComputeUptime aggregates uptime statistics per target, ranked by uptime
// descending and then by target name.
func ComputeUptime(measurements []models.Measurement) []TargetUptime {
	type acc struct {
		up       int
		down     int
		last     models.Status
		lastSeen time.Time
	}
	state := make(map[string]*acc)
	for _, m := range measurements {
		id := string(m.Target)
		target := state[id]
		if target == nil {
			target = &acc{}
			state[id] = target
		}
		if m.Reachable {
			target.up++
		} else {
			target.down++
		}
		target.last = m.Status()
		target.lastSeen = m.Timestamp
	}
	if len(state) == 0 {
		return nil
	}

	results := make([]TargetUptime, 0, len(state))
	for id, data := range state {
		total := data.up + data.down
		uptime := 0.0
		if total > 0 {
			uptime = float64(data.up) / float64(total) * 100
		}
		results = append(results, TargetUptime{
			Target:        id,
			UptimePercent: round2(uptime),
			TotalChecks:   total,
			Up:            data.up,
			Down:          data.down,
			LastStatus:    data.last,
			LastSeen:      data.lastSeen,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].UptimePercent != results[j].UptimePercent {
			return results[i].UptimePercent > results[j].UptimePercent
		}
		return results[i].Target < results[j].Target
	})
	return results
}

// AverageLatency is the mean latency over reachable measurements that carry
// one. ok is false when there is no such measurement.
func AverageLatency(measurements []models.Measurement) (avg float64, ok bool) {
	var (
		sum   float64
		count int
	)
	for _, m := range measurements {
		if !m.HasLatency() {
			continue
		}
		sum += *m.LatencyMS
		count++
	}
	if count == 0 {
		return 0, false
	}
	return round2(sum / float64(count)), true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
