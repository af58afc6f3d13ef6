package output

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/hvprov/api/v1alpha1"
	"github.com/jbweber/hvprov/internal/hostapi"
)

// YAMLFormatter formats output as YAML.
type YAMLFormatter struct{}

// FormatReport formats a report as a YAML document.
func (f *YAMLFormatter) FormatReport(r *v1alpha1.ProvisionReport) (string, error) {
	v1alpha1.SetDefaultAPIVersion(r)

	data, err := yaml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report to YAML: %w", err)
	}

	return string(data), nil
}

// FormatBindings formats binding states as a YAML sequence.
func (f *YAMLFormatter) FormatBindings(states []hostapi.EntryState) (string, error) {
	if len(states) == 0 {
		return "[]\n", nil
	}

	data, err := yaml.Marshal(states)
	if err != nil {
		return "", fmt.Errorf("failed to marshal bindings to YAML: %w", err)
	}

	return string(data), nil
}
