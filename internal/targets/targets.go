package targets

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"netpulse/internal/models"
)

// ErrNotFound is returned when the target list file does not exist.
var ErrNotFound = errors.New("target list not found")

// Load reads a newline-delimited target list. Blank lines are ignored.
func Load(path string) ([]models.Target, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open target list: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads targets from r in file order.
func Parse(r io.Reader) ([]models.Target, error) {
	var out []models.Target
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		out = append(out, models.Target(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read target list: %w", err)
	}
	return out, nil
}
