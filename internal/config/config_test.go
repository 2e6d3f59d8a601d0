package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "netpulse.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadBackfillsZeroValues(t *testing.T) {
	path := writeConfig(t, `
devices_file: hosts.txt
interval_seconds: 0
probe:
  method: ICMP
dashboard:
  refresh_seconds: 5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := DefaultConfig()
	want.DevicesFile = "hosts.txt"
	want.Probe.Method = MethodICMP
	want.Dashboard.RefreshSeconds = 5
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	for name, body := range map[string]string{
		"unknown method":      "probe:\n  method: carrier-pigeon\n",
		"sqlite without path": "dashboard:\n  source: sqlite\n",
		"unknown source":      "dashboard:\n  source: kafka\n",
		"bad port":            "probe:\n  tcp_port: 70000\n",
		"bad yaml":            "probe: [\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv(EnvPath, "")
	if got := ResolvePath(""); got != DefaultPath {
		t.Fatalf("got %q, want %q", got, DefaultPath)
	}
	t.Setenv(EnvPath, "/etc/netpulse.yaml")
	if got := ResolvePath(""); got != "/etc/netpulse.yaml" {
		t.Fatalf("env not honoured: %q", got)
	}
	if got := ResolvePath("custom.yaml"); got != "custom.yaml" {
		t.Fatalf("flag not honoured: %q", got)
	}
}
