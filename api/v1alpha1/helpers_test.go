package v1alpha1

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNewProvisionReport(t *testing.T) {
	r := NewProvisionReport("hypervm")

	if r.APIVersion != "hvprov.cofront.xyz/v1alpha1" {
		t.Errorf("Expected APIVersion 'hvprov.cofront.xyz/v1alpha1', got %s", r.APIVersion)
	}
	if r.Kind != "ProvisionReport" {
		t.Errorf("Expected Kind 'ProvisionReport', got %s", r.Kind)
	}
	if r.Name != "hypervm" {
		t.Errorf("Expected Name 'hypervm', got %s", r.Name)
	}
	if r.UID == "" {
		t.Error("Expected UID to be set")
	}
	if r.CreationTimestamp.IsZero() {
		t.Error("Expected CreationTimestamp to be set")
	}
	if r.GetPhase() != ReportPhasePending {
		t.Errorf("Expected Phase 'Pending', got %s", r.GetPhase())
	}

	if other := NewProvisionReport("hypervm"); other.UID == r.UID {
		t.Error("Expected distinct UIDs per report")
	}
}

func TestSetDefaultAPIVersion(t *testing.T) {
	tests := []struct {
		name        string
		report      *ProvisionReport
		wantVersion string
		wantKind    string
	}{
		{
			name:        "empty type meta",
			report:      &ProvisionReport{},
			wantVersion: "hvprov.cofront.xyz/v1alpha1",
			wantKind:    "ProvisionReport",
		},
		{
			name:        "existing values kept",
			report:      &ProvisionReport{TypeMeta: TypeMeta{APIVersion: "custom/v1", Kind: "Custom"}},
			wantVersion: "custom/v1",
			wantKind:    "Custom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetDefaultAPIVersion(tt.report)
			if tt.report.APIVersion != tt.wantVersion {
				t.Errorf("APIVersion = %s, want %s", tt.report.APIVersion, tt.wantVersion)
			}
			if tt.report.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", tt.report.Kind, tt.wantKind)
			}
		})
	}
}

func TestFormatTimeout(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "infinite"},
		{-time.Second, "infinite"},
		{90 * time.Second, "1m30s"},
	}

	for _, tt := range tests {
		if got := FormatTimeout(tt.in); got != tt.want {
			t.Errorf("FormatTimeout(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProvisionReport_SetStage(t *testing.T) {
	r := NewProvisionReport("hypervm")

	r.SetStage(StageResult{Name: StageNetwork, Outcome: StageFailed})
	r.SetStage(StageResult{Name: StageEndpoint, Outcome: StageSucceeded})
	r.SetStage(StageResult{Name: StageNetwork, Outcome: StageSucceeded, Message: "retried"})

	want := []StageResult{
		{Name: StageNetwork, Outcome: StageSucceeded, Message: "retried"},
		{Name: StageEndpoint, Outcome: StageSucceeded},
	}
	if diff := cmp.Diff(want, r.Status.Stages); diff != "" {
		t.Errorf("stages mismatch (-want +got):\n%s", diff)
	}

	if r.Stage(StageDeviceHost) != nil {
		t.Error("Stage() returned a result for an unrecorded stage")
	}
}

func TestProvisionReport_Outcomes(t *testing.T) {
	r := NewProvisionReport("hypervm")
	r.SetStage(StageResult{Name: StageNetwork, Outcome: StageSucceeded})
	r.SetStage(StageResult{Name: StageEndpoint, Outcome: StageFailed})
	r.SetStage(StageResult{Name: StageComputeSystem, Outcome: StageFailed})
	r.SetStage(StageResult{Name: StageDeviceHost, Outcome: StageSkipped})

	want := map[StageOutcome]int{StageSucceeded: 1, StageFailed: 2, StageSkipped: 1}
	if diff := cmp.Diff(want, r.Outcomes()); diff != "" {
		t.Errorf("Outcomes() mismatch (-want +got):\n%s", diff)
	}
}

func TestProvisionReport_AddReleaseError(t *testing.T) {
	r := NewProvisionReport("hypervm")
	r.AddReleaseError(errors.New("failed to release Endpoint handle: boom"))

	if diff := cmp.Diff([]string{"failed to release Endpoint handle: boom"}, r.Status.ReleaseErrors); diff != "" {
		t.Errorf("ReleaseErrors mismatch (-want +got):\n%s", diff)
	}
}

func TestConditionFor(t *testing.T) {
	tests := []struct {
		stage StageName
		want  string
	}{
		{StageNetwork, ConditionNetworkReady},
		{StageEndpoint, ConditionEndpointReady},
		{StageComputeSystem, ConditionComputeSystemReady},
		{StageDeviceHost, ConditionDeviceHostReady},
		{StageName("Storage"), "StorageReady"},
	}

	for _, tt := range tests {
		if got := ConditionFor(tt.stage); got != tt.want {
			t.Errorf("ConditionFor(%s) = %s, want %s", tt.stage, got, tt.want)
		}
	}
}
