package probe

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"netpulse/internal/models"
)

// TCPChecker treats a completed TCP handshake as reachability.
type TCPChecker struct {
	// Port is used unless the target already carries one ("host:port").
	Port int
}

// Check dials target and reports the connect time as latency.
func (c *TCPChecker) Check(ctx context.Context, target models.Target) Outcome {
	address := string(target)
	if _, _, err := net.SplitHostPort(address); err != nil {
		port := c.Port
		if port <= 0 {
			port = 80
		}
		address = net.JoinHostPort(address, strconv.Itoa(port))
	}

	var d net.Dialer
	started := time.Now()
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		if isNetworkTimeout(err) {
			return down(fmt.Errorf("dial %s: timed out", address))
		}
		return down(fmt.Errorf("dial %s: %w", address, err))
	}
	rtt := time.Since(started)
	_ = conn.Close()
	return up(rtt)
}

func isNetworkTimeout(err error) bool {
	if netErr, ok := err.(net.Error); ok {
		return netErr.Timeout()
	}
	return false
}
