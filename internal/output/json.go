package output

import (
	"encoding/json"
	"fmt"

	"github.com/jbweber/hvprov/api/v1alpha1"
	"github.com/jbweber/hvprov/internal/hostapi"
)

// JSONFormatter formats output as indented JSON.
type JSONFormatter struct{}

// FormatReport formats a report as JSON.
func (f *JSONFormatter) FormatReport(r *v1alpha1.ProvisionReport) (string, error) {
	v1alpha1.SetDefaultAPIVersion(r)

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report to JSON: %w", err)
	}

	return string(data) + "\n", nil
}

// FormatBindings formats binding states as a JSON array.
func (f *JSONFormatter) FormatBindings(states []hostapi.EntryState) (string, error) {
	if len(states) == 0 {
		return "[]\n", nil
	}

	data, err := json.MarshalIndent(states, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal bindings to JSON: %w", err)
	}

	return string(data) + "\n", nil
}
