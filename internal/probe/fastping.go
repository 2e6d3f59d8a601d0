package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	fastping "github.com/tatsushid/go-fastping"

	"netpulse/internal/models"
)

const defaultFastpingTimeout = 2 * time.Second

// FastpingChecker sends ICMP echoes through go-fastping. Network is "ip"
// for raw sockets (root or CAP_NET_RAW) or "udp" for unprivileged ones.
type FastpingChecker struct {
	Network string
}

// Check sends one echo and waits a single MaxRTT round for the reply.
func (c *FastpingChecker) Check(ctx context.Context, target models.Target) Outcome {
	addr, err := net.ResolveIPAddr("ip4:icmp", string(target))
	if err != nil {
		return down(fmt.Errorf("resolve %s: %w", target, err))
	}

	p := fastping.NewPinger()
	if c.Network != "" {
		if _, err := p.Network(c.Network); err != nil {
			return down(err)
		}
	}
	p.MaxRTT = remaining(ctx, defaultFastpingTimeout)
	p.AddIPAddr(addr)

	type reply struct {
		rtt time.Duration
		ok  bool
	}
	var got reply
	p.OnRecv = func(_ *net.IPAddr, rtt time.Duration) {
		got = reply{rtt: rtt, ok: true}
	}
	p.OnIdle = func() {}

	done := make(chan error, 1)
	go func() {
		done <- p.Run()
	}()

	select {
	case err := <-done:
		if err != nil {
			return down(fmt.Errorf("ping failed: %w", err))
		}
		if !got.ok {
			return down(errors.New("no response received"))
		}
		return up(got.rtt)
	case <-ctx.Done():
		// Run gives up on its own once MaxRTT elapses.
		return down(fmt.Errorf("ping %s: %w", target, ctx.Err()))
	}
}
