package output

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jbweber/hvprov/api/v1alpha1"
	"github.com/jbweber/hvprov/internal/hostapi"
)

// TableFormatter formats output as human-readable tables.
type TableFormatter struct {
	// NoHeaders omits the header rows.
	NoHeaders bool
}

// FormatReport formats a report as a summary row followed by one row per
// stage and, if any, the release errors.
func (f *TableFormatter) FormatReport(r *v1alpha1.ProvisionReport) (string, error) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "NAME\tPHASE\tPOLICY\tCONFIG\tAGE")
	}

	phase := string(r.Status.Phase)
	if phase == "" {
		phase = "-"
	}
	age := "-"
	if !r.CreationTimestamp.IsZero() {
		age = formatAge(time.Since(r.CreationTimestamp.Time))
	}
	_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		orDash(r.Name), phase, orDash(r.Spec.Policy), orDash(r.Spec.ConfigPath), age)
	_ = w.Flush()

	if len(r.Status.Stages) == 0 {
		return buf.String(), nil
	}

	buf.WriteString("\n")
	w = tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "STAGE\tOUTCOME\tCALLS\tMESSAGE")
	}
	for _, s := range r.Status.Stages {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			s.Name, s.Outcome, formatCalls(s.Calls), orDash(oneLine(s.Message)))
	}
	_ = w.Flush()

	if len(r.Status.ReleaseErrors) > 0 {
		buf.WriteString("\nRelease errors:\n")
		for _, e := range r.Status.ReleaseErrors {
			buf.WriteString("  " + oneLine(e) + "\n")
		}
	}

	return buf.String(), nil
}

// FormatBindings formats binding states as a table.
func (f *TableFormatter) FormatBindings(states []hostapi.EntryState) (string, error) {
	if len(states) == 0 {
		return "No entry points\n", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "LIBRARY\tENTRY\tSTATE\tERROR")
	}

	for _, s := range states {
		state := "unavailable"
		if s.Resolved {
			state = "resolved"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Library, s.Entry, state, orDash(oneLine(s.Error)))
	}

	_ = w.Flush()
	return buf.String(), nil
}

// formatCalls renders calls as "Entry=HRESULT" pairs.
func formatCalls(calls []v1alpha1.HostCall) string {
	if len(calls) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(calls))
	for _, c := range calls {
		parts = append(parts, c.Entry+"="+c.HResult)
	}
	return strings.Join(parts, ",")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// oneLine keeps multi-line messages (joined errors, CUE output) on one row.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// formatAge formats a duration as a human-readable age string.
// Examples: "5s", "2m", "3h", "4d"
func formatAge(d time.Duration) string {
	if d < 0 {
		return "unknown"
	}

	seconds := int(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}

	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}

	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%dh", hours)
	}

	return fmt.Sprintf("%dd", hours/24)
}
