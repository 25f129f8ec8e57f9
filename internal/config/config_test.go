package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mdlayher/wwan"
)

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("unexpected config (-want +got):\n%s", diff)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
daemon: mmcli
kernel: iproute2
apn: internet
route_metric: 300
journal: /var/lib/wwanctl/journal.db
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	want := Default()
	want.Daemon = DaemonMMCLI
	want.Kernel = KernelIPRoute2
	want.APN = "internet"
	want.RouteMetric = 300
	want.Journal = "/var/lib/wwanctl/journal.db"

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("unexpected config (-want +got):\n%s", diff)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("failed to validate: %v", err)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("daemon: [unterminated"), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error, but none occurred")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WWANCTL_DAEMON", "mmcli")
	t.Setenv("WWANCTL_APN", "iot.example")
	t.Setenv("WWANCTL_ROUTE_METRIC", "300")

	cfg := Default()
	if err := LoadFromEnv(cfg); err != nil {
		t.Fatalf("failed to load environment: %v", err)
	}

	want := Default()
	want.Daemon = DaemonMMCLI
	want.APN = "iot.example"
	want.RouteMetric = 300

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("unexpected config (-want +got):\n%s", diff)
	}
}

func TestLoadFromEnvInvalidRouteMetric(t *testing.T) {
	t.Setenv("WWANCTL_ROUTE_METRIC", "not-a-number")

	err := LoadFromEnv(Default())

	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected config error, but got: %v", err)
	}
	if diff := cmp.Diff("route_metric", cerr.Field); diff != "" {
		t.Fatalf("unexpected field (-want +got):\n%s", diff)
	}
	if !errors.Is(err, wwan.ErrInvalidInput) {
		t.Fatalf("expected invalid input, but got: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		field   string
		wantSub string
	}{
		{
			name:    "daemon",
			mutate:  func(cfg *Config) { cfg.Daemon = "ofono" },
			field:   "daemon",
			wantSub: "use dbus or mmcli",
		},
		{
			name:    "kernel",
			mutate:  func(cfg *Config) { cfg.Kernel = "ifconfig" },
			field:   "kernel",
			wantSub: "use netlink or iproute2",
		},
		{
			name:    "apn",
			mutate:  func(cfg *Config) { cfg.APN = "" },
			field:   "apn",
			wantSub: "must not be empty",
		},
		{
			name:    "route metric",
			mutate:  func(cfg *Config) { cfg.RouteMetric = -1 },
			field:   "route_metric",
			wantSub: "route_metric=-1",
		},
		{
			name:    "output",
			mutate:  func(cfg *Config) { cfg.Output = "xml" },
			field:   "output",
			wantSub: "unknown output format",
		},
		{
			name:    "log level",
			mutate:  func(cfg *Config) { cfg.LogLevel = "loud" },
			field:   "log_level",
			wantSub: "unknown log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()

			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected config error, but got: %v", err)
			}
			if diff := cmp.Diff(tt.field, cerr.Field); diff != "" {
				t.Fatalf("unexpected field (-want +got):\n%s", diff)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Fatalf("error %q should contain %q", err.Error(), tt.wantSub)
			}
			if !errors.Is(err, wwan.ErrInvalidInput) {
				t.Fatalf("expected invalid input, but got: %v", err)
			}
		})
	}
}
