// Package config loads wwanctl configuration from YAML files and the
// environment.
//
// Precedence order (highest wins):
//  1. CLI flags (handled by cmd/wwanctl)
//  2. Environment variables (LoadFromEnv)
//  3. The configuration file (Load)
//  4. Defaults (Default)
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/mdlayher/wwan"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file read when none is specified.
const DefaultPath = "/etc/wwanctl/config.yaml"

// Backend names.
const (
	DaemonDBus     = "dbus"
	DaemonMMCLI    = "mmcli"
	KernelNetlink  = "netlink"
	KernelIPRoute2 = "iproute2"
)

// Config holds the wwanctl configuration.
type Config struct {
	Daemon      string `yaml:"daemon"`
	Kernel      string `yaml:"kernel"`
	APN         string `yaml:"apn"`
	RouteMetric int    `yaml:"route_metric"`
	Output      string `yaml:"output"`
	LogLevel    string `yaml:"log_level"`
	Journal     string `yaml:"journal"`
	MMCLIPath   string `yaml:"mmcli_path"`
	IPPath      string `yaml:"ip_path"`
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		Daemon:      DaemonDBus,
		Kernel:      KernelNetlink,
		APN:         wwan.DefaultAPN,
		RouteMetric: wwan.DefaultRouteMetric,
		Output:      "table",
		LogLevel:    "info",
		MMCLIPath:   "mmcli",
		IPPath:      "ip",
	}
}

// Load reads the configuration from the given YAML file path. If the file
// does not exist, it returns a default Config with no error. Fields absent
// from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromEnv overlays WWANCTL_* environment variables onto cfg. Only
// non-empty variables override the existing value. A value which cannot be
// parsed is reported as a *ConfigError.
func LoadFromEnv(cfg *Config) error {
	if v := os.Getenv("WWANCTL_DAEMON"); v != "" {
		cfg.Daemon = v
	}
	if v := os.Getenv("WWANCTL_KERNEL"); v != "" {
		cfg.Kernel = v
	}
	if v := os.Getenv("WWANCTL_APN"); v != "" {
		cfg.APN = v
	}
	if v := os.Getenv("WWANCTL_JOURNAL"); v != "" {
		cfg.Journal = v
	}
	if v := os.Getenv("WWANCTL_ROUTE_METRIC"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigError{
				Field:   "route_metric",
				Value:   v,
				Message: "must be an integer",
				Hint:    "check WWANCTL_ROUTE_METRIC",
			}
		}
		cfg.RouteMetric = n
	}

	return nil
}

// Validate checks cfg for invalid values, returning a *ConfigError for the
// first one found.
func (cfg *Config) Validate() error {
	switch cfg.Daemon {
	case DaemonDBus, DaemonMMCLI:
	default:
		return &ConfigError{
			Field:   "daemon",
			Value:   cfg.Daemon,
			Message: "unknown modem daemon backend",
			Hint:    "use dbus or mmcli",
		}
	}

	switch cfg.Kernel {
	case KernelNetlink, KernelIPRoute2:
	default:
		return &ConfigError{
			Field:   "kernel",
			Value:   cfg.Kernel,
			Message: "unknown kernel backend",
			Hint:    "use netlink or iproute2",
		}
	}

	if cfg.APN == "" {
		return &ConfigError{Field: "apn", Message: "must not be empty"}
	}

	if cfg.RouteMetric < 1 {
		return &ConfigError{
			Field:   "route_metric",
			Value:   cfg.RouteMetric,
			Message: "must be a positive integer",
		}
	}

	switch cfg.Output {
	case "table", "json", "yaml":
	default:
		return &ConfigError{
			Field:   "output",
			Value:   cfg.Output,
			Message: "unknown output format",
			Hint:    "use table, json, or yaml",
		}
	}

	switch cfg.LogLevel {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return &ConfigError{
			Field:   "log_level",
			Value:   cfg.LogLevel,
			Message: "unknown log level",
		}
	}

	return nil
}

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: %s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

// Is reports that every ConfigError is an instance of wwan.ErrInvalidInput.
func (e *ConfigError) Is(target error) bool { return target == wwan.ErrInvalidInput }
