package provision

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jbweber/hvprov/internal/config"
	"github.com/jbweber/hvprov/internal/hostapi"
)

// Policy decides what happens after a stage does not succeed.
type Policy string

const (
	// PolicyContinue runs every stage regardless of earlier failures.
	PolicyContinue Policy = "continue"
	// PolicyStop skips the remaining stages after the first failure.
	PolicyStop Policy = "stop"
)

// ParsePolicy parses a policy name. The empty string is PolicyContinue.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", PolicyContinue:
		return PolicyContinue, nil
	case PolicyStop:
		return PolicyStop, nil
	default:
		return "", fmt.Errorf("unknown policy %q (valid policies: continue, stop)", s)
	}
}

// Document is the part of the configuration document the stages read.
// *document.Document satisfies it.
type Document interface {
	GUID(path ...string) (uuid.UUID, error)
	Object(path ...string) (string, error)
}

// Options controls a provisioning run.
type Options struct {
	// ConfigPath is recorded in the report.
	ConfigPath string

	// ComputeSystemID is the identity the compute system is created under.
	ComputeSystemID string

	// WaitTimeout bounds the wait for the compute system operation.
	// Zero waits until the host completes it or ctx is canceled.
	WaitTimeout time.Duration

	Policy Policy

	// DeviceHost enables the device host stage.
	DeviceHost bool
}

// DefaultOptions returns the options of a run with nothing configured.
func DefaultOptions() Options {
	return Options{
		ComputeSystemID: config.DefaultComputeSystemID,
		Policy:          PolicyContinue,
		DeviceHost:      true,
	}
}

// OptionsFromSettings builds run options from tool settings.
func OptionsFromSettings(s *config.Settings, configPath string) (Options, error) {
	policy, err := ParsePolicy(s.Policy)
	if err != nil {
		return Options{}, err
	}

	return Options{
		ConfigPath:      configPath,
		ComputeSystemID: s.ComputeSystemID,
		WaitTimeout:     s.WaitTimeout,
		Policy:          policy,
		DeviceHost:      s.DeviceHost,
	}, nil
}

func (o Options) withDefaults() Options {
	if o.ComputeSystemID == "" {
		o.ComputeSystemID = config.DefaultComputeSystemID
	}
	if o.Policy == "" {
		o.Policy = PolicyContinue
	}
	if o.WaitTimeout < 0 {
		o.WaitTimeout = hostapi.InfiniteTimeout
	}
	return o
}
