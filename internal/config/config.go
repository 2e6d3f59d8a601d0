package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable that overrides the config location.
const EnvPath = "NETPULSE_CONFIG"

// DefaultPath is used when neither a flag nor EnvPath points elsewhere.
const DefaultPath = "netpulse.yaml"

// Probe methods understood by the probe factory.
const (
	MethodExec     = "exec"
	MethodICMP     = "icmp"
	MethodFastping = "fastping"
	MethodTCP      = "tcp"
)

// Dashboard data sources.
const (
	SourceLog    = "log"
	SourceSQLite = "sqlite"
)

// Config represents configuration data for the probe loop and the dashboard.
type Config struct {
	DevicesFile     string    `yaml:"devices_file"`
	LogFile         string    `yaml:"log_file"`
	IntervalSeconds int       `yaml:"interval_seconds"`
	Probe           Probe     `yaml:"probe"`
	Storage         Storage   `yaml:"storage"`
	Dashboard       Dashboard `yaml:"dashboard"`
	Logging         Logging   `yaml:"logging"`
}

// Probe selects and tunes the reachability checker.
type Probe struct {
	Method         string `yaml:"method"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	PingCommand    string `yaml:"ping_command"`
	TCPPort        int    `yaml:"tcp_port"`
}

// Storage configures optional persistence beside the text log.
type Storage struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// Dashboard configures the read path and the web server.
type Dashboard struct {
	Addr           string `yaml:"addr"`
	RefreshSeconds int    `yaml:"refresh_seconds"`
	RecentLimit    int    `yaml:"recent_limit"`
	TrendPoints    int    `yaml:"trend_points"`
	Source         string `yaml:"source"`
}

// Logging controls the logrus output.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the defaults used when no configuration file is provided.
func DefaultConfig() Config {
	return Config{
		DevicesFile:     "devices.txt",
		LogFile:         "logs.txt",
		IntervalSeconds: 10,
		Probe: Probe{
			Method:         MethodExec,
			TimeoutSeconds: 2,
			PingCommand:    "ping",
			TCPPort:        80,
		},
		Dashboard: Dashboard{
			Addr:           ":8501",
			RefreshSeconds: 10,
			RecentLimit:    30,
			TrendPoints:    120,
			Source:         SourceLog,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// Interval is the pause between two full probe cycles.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Timeout bounds a single probe.
func (p Probe) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// Refresh is the dashboard re-read period.
func (d Dashboard) Refresh() time.Duration {
	return time.Duration(d.RefreshSeconds) * time.Second
}

// ResolvePath picks the config path: explicit flag, then EnvPath, then DefaultPath.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := strings.TrimSpace(os.Getenv(EnvPath)); env != "" {
		return env
	}
	return DefaultPath
}

// Load reads configuration from yaml file. Missing files fall back to defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.DevicesFile == "" {
		cfg.DevicesFile = def.DevicesFile
	}
	if cfg.LogFile == "" {
		cfg.LogFile = def.LogFile
	}
	if cfg.IntervalSeconds <= 0 {
		cfg.IntervalSeconds = def.IntervalSeconds
	}
	if cfg.Probe.Method == "" {
		cfg.Probe.Method = def.Probe.Method
	}
	cfg.Probe.Method = strings.ToLower(cfg.Probe.Method)
	if cfg.Probe.TimeoutSeconds <= 0 {
		cfg.Probe.TimeoutSeconds = def.Probe.TimeoutSeconds
	}
	if cfg.Probe.PingCommand == "" {
		cfg.Probe.PingCommand = def.Probe.PingCommand
	}
	if cfg.Probe.TCPPort <= 0 {
		cfg.Probe.TCPPort = def.Probe.TCPPort
	}
	if cfg.Dashboard.Addr == "" {
		cfg.Dashboard.Addr = def.Dashboard.Addr
	}
	if cfg.Dashboard.RefreshSeconds <= 0 {
		cfg.Dashboard.RefreshSeconds = def.Dashboard.RefreshSeconds
	}
	if cfg.Dashboard.RecentLimit <= 0 {
		cfg.Dashboard.RecentLimit = def.Dashboard.RecentLimit
	}
	if cfg.Dashboard.TrendPoints <= 0 {
		cfg.Dashboard.TrendPoints = def.Dashboard.TrendPoints
	}
	if cfg.Dashboard.Source == "" {
		cfg.Dashboard.Source = def.Dashboard.Source
	}
	cfg.Dashboard.Source = strings.ToLower(cfg.Dashboard.Source)
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
}

func validate(cfg Config) error {
	switch cfg.Probe.Method {
	case MethodExec, MethodICMP, MethodFastping, MethodTCP:
	default:
		return fmt.Errorf("unknown probe method %q", cfg.Probe.Method)
	}
	if cfg.Probe.TCPPort > 65535 {
		return fmt.Errorf("invalid tcp_port %d", cfg.Probe.TCPPort)
	}
	switch cfg.Dashboard.Source {
	case SourceLog:
	case SourceSQLite:
		if cfg.Storage.SQLitePath == "" {
			return errors.New("dashboard source sqlite requires storage.sqlite_path")
		}
	default:
		return fmt.Errorf("unknown dashboard source %q", cfg.Dashboard.Source)
	}
	return nil
}
