// Package config holds hvprov's own settings: how the pipeline runs, not what
// it provisions (that is the configuration document).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jbweber/hvprov/internal/hostgroup"
)

// EnvPrefix is the prefix of environment variables that override settings,
// e.g. HVPROV_WAIT_TIMEOUT=5m.
const EnvPrefix = "HVPROV"

// Defaults.
const (
	DefaultPolicy          = "continue"
	DefaultComputeSystemID = "hypervm"
	DefaultGroup           = hostgroup.DefaultGroup
	DefaultOutput          = "table"
	DefaultLogLevel        = "info"
)

// Settings controls a provisioning run.
type Settings struct {
	// Policy is what happens after a stage fails: "continue" or "stop".
	Policy string `mapstructure:"policy" yaml:"policy"`

	// WaitTimeout bounds the wait for the compute system operation.
	// Zero waits forever.
	WaitTimeout time.Duration `mapstructure:"wait_timeout" yaml:"wait_timeout"`

	// ComputeSystemID is the identity the compute system is created under.
	ComputeSystemID string `mapstructure:"compute_system_id" yaml:"compute_system_id"`

	// DeviceHost enables the device host stage.
	DeviceHost bool `mapstructure:"device_host" yaml:"device_host"`

	// AddToGroup adds the current user to Group before provisioning.
	AddToGroup bool   `mapstructure:"add_to_group" yaml:"add_to_group"`
	Group      string `mapstructure:"group" yaml:"group"`

	Output   string `mapstructure:"output" yaml:"output"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns the settings used when nothing is configured.
func Default() *Settings {
	return &Settings{
		Policy:          DefaultPolicy,
		ComputeSystemID: DefaultComputeSystemID,
		DeviceHost:      true,
		Group:           DefaultGroup,
		Output:          DefaultOutput,
		LogLevel:        DefaultLogLevel,
	}
}

// flagKeys maps command-line flag names to settings keys.
var flagKeys = map[string]string{
	"policy":            "policy",
	"wait-timeout":      "wait_timeout",
	"compute-system-id": "compute_system_id",
	"device-host":       "device_host",
	"add-to-group":      "add_to_group",
	"group":             "group",
	"output":            "output",
	"log-level":         "log_level",
}

// Load resolves settings from, in increasing precedence: defaults, the YAML
// file at path (optional, skipped when empty), HVPROV_* environment variables
// and flags that were set on the command line. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("policy", defaults.Policy)
	v.SetDefault("wait_timeout", defaults.WaitTimeout)
	v.SetDefault("compute_system_id", defaults.ComputeSystemID)
	v.SetDefault("device_host", defaults.DeviceHost)
	v.SetDefault("add_to_group", defaults.AddToGroup)
	v.SetDefault("group", defaults.Group)
	v.SetDefault("output", defaults.Output)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("settings file %s: %w", path, err)
		}
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	s.Normalize()

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	return &s, nil
}

// Normalize sanitizes user input to consistent formats.
func (s *Settings) Normalize() {
	s.Policy = strings.ToLower(strings.TrimSpace(s.Policy))
	s.Output = strings.ToLower(strings.TrimSpace(s.Output))
	s.LogLevel = strings.ToLower(strings.TrimSpace(s.LogLevel))

	// The compute system id is passed to the host verbatim apart from
	// surrounding space.
	s.ComputeSystemID = strings.TrimSpace(s.ComputeSystemID)
	s.Group = strings.TrimSpace(s.Group)

	if s.Policy == "" {
		s.Policy = DefaultPolicy
	}
	if s.Output == "" {
		s.Output = DefaultOutput
	}
	if s.LogLevel == "" {
		s.LogLevel = DefaultLogLevel
	}
}

// Validate checks the settings for errors.
func (s *Settings) Validate() error {
	var errs []error

	switch s.Policy {
	case "continue", "stop":
	default:
		errs = append(errs, fmt.Errorf("policy must be one of continue, stop; got %q", s.Policy))
	}

	if s.WaitTimeout < 0 {
		errs = append(errs, fmt.Errorf("wait_timeout must be >= 0, got %s", s.WaitTimeout))
	}

	if s.ComputeSystemID == "" {
		errs = append(errs, errors.New("compute_system_id is required"))
	}

	if s.AddToGroup && s.Group == "" {
		errs = append(errs, errors.New("group is required when add_to_group is set"))
	}

	switch s.Output {
	case "table", "yaml", "json":
	default:
		errs = append(errs, fmt.Errorf("output must be one of table, yaml, json; got %q", s.Output))
	}

	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", s.LogLevel))
	}

	return errors.Join(errs...)
}
