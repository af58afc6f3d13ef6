// Package output renders provisioning reports and binding tables as tables,
// YAML or JSON.
package output

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jbweber/hvprov/api/v1alpha1"
	"github.com/jbweber/hvprov/internal/hostapi"
)

// Format names an output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
	FormatJSON  Format = "json"
)

// Formats lists the supported formats, default first.
var Formats = []Format{FormatTable, FormatYAML, FormatJSON}

// ErrUnknownFormat is returned for a format name outside Formats.
var ErrUnknownFormat = errors.New("unknown output format")

// Formatter renders hvprov output.
type Formatter interface {
	FormatReport(r *v1alpha1.ProvisionReport) (string, error)
	FormatBindings(states []hostapi.EntryState) (string, error)
}

// ParseFormat parses a format name, ignoring case and surrounding space.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Formats, f) {
		return "", unknownFormat(s)
	}
	return f, nil
}

// New returns the formatter for f. noHeaders only affects FormatTable.
func New(f Format, noHeaders bool) (Formatter, error) {
	switch f {
	case FormatTable:
		return &TableFormatter{NoHeaders: noHeaders}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	default:
		return nil, unknownFormat(string(f))
	}
}

func unknownFormat(name string) error {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return fmt.Errorf("%w %q (supported: %s)", ErrUnknownFormat, name, strings.Join(names, ", "))
}
