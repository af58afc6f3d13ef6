package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jbweber/hvprov/api/v1alpha1"
	"github.com/jbweber/hvprov/internal/hostapi"
)

const validDocument = `{
  "HcnNetwork": {"ID": "5f0b6c1e-3a52-4a0e-9d43-7c0e5c2b1a01"},
  "HcnEndpoint": {"HostComputeNetwork": "5f0b6c1e-3a52-4a0e-9d43-7c0e5c2b1a01"},
  "HcsSystem": {
    "VirtualMachine": {
      "Devices": {
        "NetworkAdapters": {
          "default": {"EndpointId": "5f0b6c1e-3a52-4a0e-9d43-7c0e5c2b1a02"}
        }
      }
    }
  }
}`

// unavailableLoader fails every library load.
type unavailableLoader struct{}

func (unavailableLoader) Load(name string) (hostapi.Module, error) {
	return nil, errors.New("library not present")
}

type mockRunner struct {
	calls [][]string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.calls = append(m.calls, append([]string{name}, args...))
	return []byte("The command completed successfully."), nil
}

type result struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, a *app, stdin string, args ...string) result {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.ExecuteContext(context.Background())
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func newTestApp() *app {
	return &app{loader: unavailableLoader{}, runner: &mockRunner{}}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func decodeReport(t *testing.T, out string) *v1alpha1.ProvisionReport {
	t.Helper()
	var r v1alpha1.ProvisionReport
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("failed to decode report: %v\n%s", err, out)
	}
	return &r
}

func TestProvision_MissingFile(t *testing.T) {
	res := execute(t, newTestApp(), "", "provision", filepath.Join(t.TempDir(), "missing.json"))

	if got := exitCode(res.err); got != 2 {
		t.Errorf("exit code = %d, want 2 (err: %v)", got, res.err)
	}
	if strings.TrimSpace(res.stdout) != "----No such file exists----" {
		t.Errorf("stdout = %q, want only the no such file banner", res.stdout)
	}
	if strings.Contains(res.stderr, "----") {
		t.Errorf("banner written to stderr:\n%s", res.stderr)
	}
}

// With the table format the prompt, banners and log lines share stdout with
// the report.
func TestProvision_TableConsole(t *testing.T) {
	path := writeFile(t, "hypervm.json", validDocument)

	res := execute(t, newTestApp(), path+"\n", "provision")
	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}
	if res.stderr != "" {
		t.Errorf("stderr = %q, want empty", res.stderr)
	}

	prompt := strings.Index(res.stdout, "Enter the path of hypervm.json (without quotes): ")
	started := strings.Index(res.stdout, "----Execution started----")
	finishedLog := strings.Index(res.stdout, "Provisioning finished")
	report := strings.Index(res.stdout, "STAGE")
	finished := strings.Index(res.stdout, "----Execution finished----")
	if prompt != 0 || started < prompt || finishedLog < started || report < finishedLog || finished < report {
		t.Errorf("console output missing or out of order:\n%s", res.stdout)
	}
}

func TestProvision_HostUnavailable(t *testing.T) {
	path := writeFile(t, "hypervm.json", validDocument)

	res := execute(t, newTestApp(), "", "provision", path, "-o", "json")
	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}

	report := decodeReport(t, res.stdout)
	for _, name := range v1alpha1.Stages {
		if got := report.Stage(name).Outcome; got != v1alpha1.StageUnavailable {
			t.Errorf("%s outcome = %s, want Unavailable", name, got)
		}
	}
	if report.Spec.ConfigPath != path {
		t.Errorf("config path = %q, want %q", report.Spec.ConfigPath, path)
	}

	started := strings.Index(res.stderr, "----Execution started----")
	finished := strings.Index(res.stderr, "----Execution finished----")
	if started < 0 || finished < started {
		t.Errorf("banners missing or out of order:\n%s", res.stderr)
	}
}

func TestProvision_PromptsForPath(t *testing.T) {
	path := writeFile(t, "hypervm.json", validDocument)

	res := execute(t, newTestApp(), `"`+path+`"`+"\r\n", "provision", "-o", "json")
	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}
	if !strings.Contains(res.stderr, "Enter the path of hypervm.json (without quotes): ") {
		t.Errorf("prompt not shown:\n%s", res.stderr)
	}
	if report := decodeReport(t, res.stdout); report.Spec.ConfigPath != path {
		t.Errorf("config path = %q, want %q", report.Spec.ConfigPath, path)
	}
}

func TestProvision_UnparsableDocument(t *testing.T) {
	path := writeFile(t, "hypervm.json", "{not json")

	res := execute(t, newTestApp(), "", "provision", path, "-o", "json")
	if res.err != nil {
		t.Fatalf("unparsable document should not fail the run: %v", res.err)
	}

	report := decodeReport(t, res.stdout)
	if s := report.Stage(v1alpha1.StageNetwork); s.Outcome != v1alpha1.StageFailed || !strings.Contains(s.Message, "missing path") {
		t.Errorf("network = %s %q, want Failed with missing path", s.Outcome, s.Message)
	}
	if !strings.Contains(res.stderr, "Failed to load configuration document") {
		t.Errorf("load failure not logged:\n%s", res.stderr)
	}
}

func TestProvision_StopPolicyFlag(t *testing.T) {
	path := writeFile(t, "hypervm.json", validDocument)

	res := execute(t, newTestApp(), "", "provision", path, "-o", "json", "--policy", "stop")
	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}

	report := decodeReport(t, res.stdout)
	if report.Status.Phase != v1alpha1.ReportPhaseAborted {
		t.Errorf("phase = %s, want Aborted", report.Status.Phase)
	}
	if got := report.Stage(v1alpha1.StageEndpoint).Outcome; got != v1alpha1.StageSkipped {
		t.Errorf("endpoint outcome = %s, want Skipped", got)
	}
}

func TestProvision_AddToGroup(t *testing.T) {
	t.Setenv("USERNAME", "operator")
	path := writeFile(t, "hypervm.json", validDocument)
	runner := &mockRunner{}
	a := &app{loader: unavailableLoader{}, runner: runner}

	res := execute(t, a, "", "provision", path, "--add-to-group", "--group", "Lab Admins")
	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}

	want := [][]string{{"net", "localgroup", "Lab Admins", "/add", "operator"}}
	if diff := cmp.Diff(want, runner.calls); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestProvision_InvalidSettings(t *testing.T) {
	path := writeFile(t, "hypervm.json", validDocument)

	res := execute(t, newTestApp(), "", "provision", path, "--policy", "sometimes")
	if res.err == nil {
		t.Fatal("expected error for invalid policy")
	}
	if got := exitCode(res.err); got != 1 {
		t.Errorf("exit code = %d, want 1", got)
	}
}

func TestBindings(t *testing.T) {
	res := execute(t, newTestApp(), "", "bindings", "-o", "json")
	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}

	var states []hostapi.EntryState
	if err := json.Unmarshal([]byte(res.stdout), &states); err != nil {
		t.Fatalf("failed to decode bindings: %v", err)
	}

	total := 0
	for _, lib := range hostapi.Libraries {
		total += len(lib.Entries)
	}
	if len(states) != total {
		t.Fatalf("got %d entry states, want %d", len(states), total)
	}
	for _, s := range states {
		if s.Resolved {
			t.Errorf("%s reported resolved", s.Entry)
		}
		if !strings.Contains(s.Error, "library not present") {
			t.Errorf("%s error = %q", s.Entry, s.Error)
		}
	}
}

func TestBindings_NoHeaders(t *testing.T) {
	res := execute(t, newTestApp(), "", "bindings", "--no-headers")
	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}
	if strings.Contains(res.stdout, "LIBRARY") {
		t.Errorf("headers printed:\n%s", res.stdout)
	}
	if !strings.Contains(res.stdout, "HcnOpenNetwork") {
		t.Errorf("entry points missing:\n%s", res.stdout)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantErr  bool
		contains string
	}{
		{name: "valid", content: validDocument, contains: "valid"},
		{name: "missing endpoint", content: `{"HcnNetwork": {"ID": "5f0b6c1e-3a52-4a0e-9d43-7c0e5c2b1a01"}}`, wantErr: true, contains: "HcnEndpoint"},
		{name: "not json", content: "[", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "hypervm.json", tt.content)

			res := execute(t, newTestApp(), "", "validate", path)
			if tt.wantErr {
				if res.err == nil {
					t.Fatal("expected error")
				}
				if got := exitCode(res.err); got != 1 {
					t.Errorf("exit code = %d, want 1", got)
				}
				if tt.contains != "" && !strings.Contains(res.err.Error(), tt.contains) {
					t.Errorf("error %q should mention %q", res.err, tt.contains)
				}
				return
			}
			if res.err != nil {
				t.Fatalf("unexpected error: %v", res.err)
			}
			if !strings.Contains(res.stdout, tt.contains) {
				t.Errorf("stdout = %q", res.stdout)
			}
		})
	}
}

func TestConfigShow(t *testing.T) {
	t.Setenv("HVPROV_POLICY", "stop")
	settings := writeFile(t, "settings.yaml", "compute_system_id: lab-vm\nwait_timeout: 5m\n")

	res := execute(t, newTestApp(), "", "config", "show", "--settings", settings)
	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}

	for _, want := range []string{"policy: stop", "compute_system_id: lab-vm", "wait_timeout: 5m0s"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("output missing %q:\n%s", want, res.stdout)
		}
	}
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "C:\\vms\\hypervm.json\r\n", want: `C:\vms\hypervm.json`},
		{in: `  "C:\vms\hyper vm.json"  `, want: `C:\vms\hyper vm.json`},
		{in: "\n", want: ""},
		{in: `"`, want: `"`},
	}

	for _, tt := range tests {
		if got := cleanPath(tt.in); got != tt.want {
			t.Errorf("cleanPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "exit error", err: &ExitError{Code: 2}, want: 2},
		{name: "wrapped", err: errors.Join(errors.New("context"), &ExitError{Code: 3}), want: 3},
		{name: "plain", err: errors.New("boom"), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
