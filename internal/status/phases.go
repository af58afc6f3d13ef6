package status

import (
	"fmt"

	"github.com/jbweber/hvprov/api/v1alpha1"
)

// TransitionToProvisioning transitions the report phase to Provisioning.
// This should be called before the first stage runs.
func TransitionToProvisioning(r *v1alpha1.ProvisionReport) error {
	if r.GetPhase() != v1alpha1.ReportPhasePending {
		return fmt.Errorf("cannot transition to Provisioning from phase %s", r.GetPhase())
	}

	r.SetPhase(v1alpha1.ReportPhaseProvisioning)
	SetCondition(r, v1alpha1.ConditionReady, v1alpha1.ConditionFalse, "Provisioning", "provisioning in progress")
	return nil
}

// Finish moves a provisioning report to its terminal phase: Aborted if
// aborted is set, Completed if no stage failed, Degraded otherwise. It sets
// the Ready condition and the completion time.
func Finish(r *v1alpha1.ProvisionReport, aborted bool) error {
	if r.GetPhase() != v1alpha1.ReportPhaseProvisioning {
		return fmt.Errorf("cannot finish from phase %s", r.GetPhase())
	}

	failed := failedStages(r)
	switch {
	case aborted:
		r.SetPhase(v1alpha1.ReportPhaseAborted)
		SetCondition(r, v1alpha1.ConditionReady, v1alpha1.ConditionFalse, "Aborted", describeFailed(failed))
	case len(failed) == 0:
		r.SetPhase(v1alpha1.ReportPhaseCompleted)
		SetCondition(r, v1alpha1.ConditionReady, v1alpha1.ConditionTrue, "Provisioned", "every enabled stage succeeded")
	default:
		r.SetPhase(v1alpha1.ReportPhaseDegraded)
		SetCondition(r, v1alpha1.ConditionReady, v1alpha1.ConditionFalse, "Degraded", describeFailed(failed))
	}

	r.Status.CompletionTime = v1alpha1.Now()
	return nil
}

// IsSuccessful returns true if the run provisioned everything it attempted.
func IsSuccessful(phase v1alpha1.ReportPhase) bool {
	return phase == v1alpha1.ReportPhaseCompleted
}
