package v1alpha1

import (
	"time"

	"github.com/google/uuid"
)

const (
	// GroupName is the API group for hvprov resources.
	GroupName = "hvprov.cofront.xyz"

	// Version is the API version.
	Version = "v1alpha1"

	// ProvisionReportKind is the kind string for ProvisionReport resources.
	ProvisionReportKind = "ProvisionReport"
)

// NewProvisionReport creates a pending report for a run named name.
func NewProvisionReport(name string) *ProvisionReport {
	return &ProvisionReport{
		TypeMeta: TypeMeta{
			APIVersion: GroupName + "/" + Version,
			Kind:       ProvisionReportKind,
		},
		ObjectMeta: ObjectMeta{
			Name:              name,
			UID:               uuid.New().String(),
			CreationTimestamp: Now(),
		},
		Status: ProvisionReportStatus{
			Phase: ReportPhasePending,
		},
	}
}

// SetDefaultAPIVersion ensures the report has the correct apiVersion and kind.
func SetDefaultAPIVersion(r *ProvisionReport) {
	if r.APIVersion == "" {
		r.APIVersion = GroupName + "/" + Version
	}
	if r.Kind == "" {
		r.Kind = ProvisionReportKind
	}
}

// FormatTimeout renders a wait timeout for the report spec.
func FormatTimeout(d time.Duration) string {
	if d <= 0 {
		return "infinite"
	}
	return d.String()
}

// SetPhase sets the report phase.
func (r *ProvisionReport) SetPhase(phase ReportPhase) {
	r.Status.Phase = phase
}

// GetPhase returns the current report phase.
func (r *ProvisionReport) GetPhase() ReportPhase {
	return r.Status.Phase
}

// Stage returns the result of the named stage, or nil if it has not been
// recorded.
func (r *ProvisionReport) Stage(name StageName) *StageResult {
	for i := range r.Status.Stages {
		if r.Status.Stages[i].Name == name {
			return &r.Status.Stages[i]
		}
	}
	return nil
}

// SetStage records result, replacing an earlier result for the same stage.
func (r *ProvisionReport) SetStage(result StageResult) {
	if existing := r.Stage(result.Name); existing != nil {
		*existing = result
		return
	}
	r.Status.Stages = append(r.Status.Stages, result)
}

// Outcomes counts stage results by outcome.
func (r *ProvisionReport) Outcomes() map[StageOutcome]int {
	counts := make(map[StageOutcome]int)
	for _, s := range r.Status.Stages {
		counts[s.Outcome]++
	}
	return counts
}

// AddReleaseError records a failure to release a handle at the end of a run.
func (r *ProvisionReport) AddReleaseError(err error) {
	r.Status.ReleaseErrors = append(r.Status.ReleaseErrors, err.Error())
}

// ConditionFor returns the condition type tracking the named stage.
func ConditionFor(name StageName) string {
	switch name {
	case StageNetwork:
		return ConditionNetworkReady
	case StageEndpoint:
		return ConditionEndpointReady
	case StageComputeSystem:
		return ConditionComputeSystemReady
	case StageDeviceHost:
		return ConditionDeviceHostReady
	default:
		return string(name) + "Ready"
	}
}
