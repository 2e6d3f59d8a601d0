package probe

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	probing "github.com/prometheus-community/pro-bing"

	"netpulse/internal/models"
)

const defaultICMPTimeout = 2 * time.Second

// ICMPChecker sends a single ICMP echo natively. Unprivileged (UDP) sockets
// are used everywhere except Windows, which requires privileged mode.
type ICMPChecker struct{}

// Check sends one echo request to target and waits for the reply or the deadline.
func (c *ICMPChecker) Check(ctx context.Context, target models.Target) Outcome {
	pinger, err := probing.NewPinger(string(target))
	if err != nil {
		return down(fmt.Errorf("failed to create pinger: %w", err))
	}

	pinger.Count = 1
	pinger.Timeout = remaining(ctx, defaultICMPTimeout)
	pinger.SetPrivileged(runtime.GOOS == "windows")

	if err := pinger.RunWithContext(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return down(fmt.Errorf("ping failed: %w", err))
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return down(errors.New("no response received"))
	}
	rtt := stats.AvgRtt
	if rtt == 0 && stats.MinRtt > 0 {
		rtt = stats.MinRtt
	}
	return up(rtt)
}
