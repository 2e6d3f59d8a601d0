package probe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"netpulse/internal/models"
)

const defaultExecTimeout = 5 * time.Second

var pingTimeRe = regexp.MustCompile(`time[=<]\s*([0-9]+(?:\.[0-9]+)?)\s*ms`)

// ExecChecker shells out to the system ping utility for a single echo.
type ExecChecker struct {
	// Command is the ping binary, "ping" when empty.
	Command string
}

// Check runs `ping -c 1 -W <secs> target`. A zero exit status means UP.
// Latency comes from the reply's time= field, or the command's wall time
// when the output carries none.
func (c *ExecChecker) Check(ctx context.Context, target models.Target) Outcome {
	command := c.Command
	if command == "" {
		command = "ping"
	}
	if strings.HasPrefix(string(target), "-") {
		return down(fmt.Errorf("ping %q: target looks like an option", target))
	}

	wait := remaining(ctx, defaultExecTimeout)
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		secs = 1
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, command, "-c", "1", "-W", strconv.Itoa(secs), string(target))
	cmd.WaitDelay = time.Second
	output, err := cmd.Output()
	elapsed := time.Since(start)

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return down(fmt.Errorf("ping %s: timed out", target))
		case errors.As(err, &exitErr):
			return down(fmt.Errorf("ping %s: exit status %d", target, exitErr.ExitCode()))
		default:
			return down(fmt.Errorf("ping unavailable: %w", err))
		}
	}

	if ms, ok := parsePingTime(output); ok {
		return Outcome{Reachable: true, LatencyMS: roundMS(ms)}
	}
	return up(elapsed)
}

func parsePingTime(output []byte) (float64, bool) {
	m := pingTimeRe.FindSubmatch(output)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(string(m[1]), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
