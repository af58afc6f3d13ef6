// Package status manages ProvisionReport status: conditions, stage results
// and phase transitions.
package status

import (
	"fmt"

	"github.com/jbweber/hvprov/api/v1alpha1"
)

// SetCondition adds or updates a condition in the report status.
// The LastTransitionTime is only updated if the status changes.
func SetCondition(r *v1alpha1.ProvisionReport, condType string, status v1alpha1.ConditionStatus, reason, message string) {
	now := v1alpha1.Now()

	for i := range r.Status.Conditions {
		if r.Status.Conditions[i].Type == condType {
			existing := &r.Status.Conditions[i]

			if existing.Status != status {
				existing.LastTransitionTime = now
			}

			existing.Status = status
			existing.Reason = reason
			existing.Message = message
			return
		}
	}

	r.Status.Conditions = append(r.Status.Conditions, v1alpha1.Condition{
		Type:               condType,
		Status:             status,
		LastTransitionTime: now,
		Reason:             reason,
		Message:            message,
	})
}

// GetCondition returns a condition by type, or nil if not found.
func GetCondition(r *v1alpha1.ProvisionReport, condType string) *v1alpha1.Condition {
	for i := range r.Status.Conditions {
		if r.Status.Conditions[i].Type == condType {
			return &r.Status.Conditions[i]
		}
	}
	return nil
}

// RecordStage stores result in the report and sets the stage's condition from
// its outcome.
func RecordStage(r *v1alpha1.ProvisionReport, result v1alpha1.StageResult) {
	r.SetStage(result)

	condType := v1alpha1.ConditionFor(result.Name)
	switch result.Outcome {
	case v1alpha1.StageSucceeded:
		SetCondition(r, condType, v1alpha1.ConditionTrue, string(result.Name)+"Provisioned", result.Message)
	case v1alpha1.StageFailed:
		SetCondition(r, condType, v1alpha1.ConditionFalse, string(result.Name)+"Failed", result.Message)
	case v1alpha1.StageUnavailable:
		SetCondition(r, condType, v1alpha1.ConditionFalse, "EntryPointUnavailable", result.Message)
	case v1alpha1.StageSkipped:
		SetCondition(r, condType, v1alpha1.ConditionUnknown, "Skipped", result.Message)
	}
}

// MarkSkipped records every stage in names that has no result yet as
// Skipped with the given reason.
func MarkSkipped(r *v1alpha1.ProvisionReport, names []v1alpha1.StageName, message string) {
	for _, name := range names {
		if r.Stage(name) != nil {
			continue
		}
		RecordStage(r, v1alpha1.StageResult{Name: name, Outcome: v1alpha1.StageSkipped, Message: message})
	}
}

// failedStages lists the stages whose outcome is Failed or Unavailable.
func failedStages(r *v1alpha1.ProvisionReport) []v1alpha1.StageName {
	var failed []v1alpha1.StageName
	for _, s := range r.Status.Stages {
		if s.Outcome == v1alpha1.StageFailed || s.Outcome == v1alpha1.StageUnavailable {
			failed = append(failed, s.Name)
		}
	}
	return failed
}

func describeFailed(failed []v1alpha1.StageName) string {
	switch len(failed) {
	case 0:
		return "run stopped early"
	case 1:
		return fmt.Sprintf("stage %s did not succeed", failed[0])
	default:
		return fmt.Sprintf("stages %v did not succeed", failed)
	}
}
