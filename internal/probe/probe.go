package probe

import (
	"context"
	"fmt"
	"math"
	"time"

	"netpulse/internal/config"
	"netpulse/internal/models"
)

// Outcome is the result of a single reachability check.
// LatencyMS is only meaningful when Reachable is true. Err explains an
// unreachable verdict and is never escalated beyond logging.
type Outcome struct {
	Reachable bool
	LatencyMS float64
	Err       error
}

// Checker performs one bounded reachability check. The deadline is carried by ctx.
type Checker interface {
	Check(ctx context.Context, target models.Target) Outcome
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(ctx context.Context, target models.Target) Outcome

// Check calls f(ctx, target).
func (f CheckerFunc) Check(ctx context.Context, target models.Target) Outcome {
	return f(ctx, target)
}

// New returns the checker selected by cfg.Method.
func New(cfg config.Probe) (Checker, error) {
	switch cfg.Method {
	case config.MethodExec, "":
		return &ExecChecker{Command: cfg.PingCommand}, nil
	case config.MethodICMP:
		return &ICMPChecker{}, nil
	case config.MethodFastping:
		return &FastpingChecker{Network: "udp"}, nil
	case config.MethodTCP:
		return &TCPChecker{Port: cfg.TCPPort}, nil
	default:
		return nil, fmt.Errorf("unknown probe method: %s", cfg.Method)
	}
}

func up(rtt time.Duration) Outcome {
	return Outcome{Reachable: true, LatencyMS: durationMS(rtt)}
}

func down(err error) Outcome {
	return Outcome{Err: err}
}

func durationMS(d time.Duration) float64 {
	return roundMS(float64(d) / float64(time.Millisecond))
}

func roundMS(v float64) float64 {
	return math.Round(v*100) / 100
}

// remaining is the time left until ctx's deadline, or fallback without one.
func remaining(ctx context.Context, fallback time.Duration) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return fallback
	}
	if d := time.Until(deadline); d > 0 {
		return d
	}
	return time.Millisecond
}
