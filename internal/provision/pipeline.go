// Package provision runs the Hyper-V provisioning pipeline: network, endpoint,
// compute system and device host, in that order.
//
// Each stage reads its part of the configuration document, calls the host
// through a hostapi.Table and hands every handle it acquires to a
// registry.Registry. Stage failures never abort the process; they are
// recorded in the returned ProvisionReport and, under PolicyStop, end the
// run early. Every owned handle is released exactly once when Run returns.
package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/jbweber/hvprov/api/v1alpha1"
	"github.com/jbweber/hvprov/internal/hostapi"
	"github.com/jbweber/hvprov/internal/registry"
	"github.com/jbweber/hvprov/internal/status"
)

type pipeline struct {
	doc  Document
	api  *hostapi.Table
	reg  *registry.Registry
	opts Options
}

type namedStage struct {
	name v1alpha1.StageName
	run  func(context.Context) v1alpha1.StageResult
}

// Run provisions every resource described by doc and returns the report of
// the run. api may be nil or partially bound; stages whose entry points are
// missing report Unavailable. Canceling ctx skips the stages that have not
// started and stops waiting for the compute system.
func Run(ctx context.Context, doc Document, api *hostapi.Table, opts Options) *v1alpha1.ProvisionReport {
	opts = opts.withDefaults()
	logger := log.FromContext(ctx)

	report := v1alpha1.NewProvisionReport(opts.ComputeSystemID)
	report.Spec = v1alpha1.ProvisionReportSpec{
		ConfigPath:      opts.ConfigPath,
		ComputeSystemID: opts.ComputeSystemID,
		Policy:          string(opts.Policy),
		WaitTimeout:     v1alpha1.FormatTimeout(opts.WaitTimeout),
		DeviceHost:      opts.DeviceHost,
	}
	_ = status.TransitionToProvisioning(report)

	if api == nil {
		api = &hostapi.Table{}
	}

	p := &pipeline{
		doc:  doc,
		api:  api,
		reg:  registry.New(),
		opts: opts,
	}

	defer func() {
		logger.Debug("Releasing handles", "kinds", p.reg.Kinds())
		if err := p.reg.Close(); err != nil {
			for _, e := range splitJoined(err) {
				logger.Warn("Failed to release handle", "err", e)
				report.AddReleaseError(e)
			}
		}
	}()

	stages := []namedStage{
		{v1alpha1.StageNetwork, p.provisionNetwork},
		{v1alpha1.StageEndpoint, p.provisionEndpoint},
		{v1alpha1.StageComputeSystem, p.provisionComputeSystem},
		{v1alpha1.StageDeviceHost, p.provisionDeviceHost},
	}

	aborted := false
	for i, st := range stages {
		if err := ctx.Err(); err != nil {
			logger.Warn("Provisioning canceled", "err", err)
			status.MarkSkipped(report, remaining(stages[i:]), fmt.Sprintf("canceled: %v", err))
			aborted = true
			break
		}

		result := st.run(ctx)
		status.RecordStage(report, result)

		if opts.Policy == PolicyStop && !succeeded(result) && i < len(stages)-1 {
			logger.Warn("Stopping after failed stage", "stage", string(st.name), "outcome", string(result.Outcome))
			status.MarkSkipped(report, remaining(stages[i+1:]),
				fmt.Sprintf("skipped after %s was %s", st.name, result.Outcome))
			aborted = true
			break
		}
	}

	if err := status.Finish(report, aborted); err != nil {
		logger.Error("Failed to finish report", "err", err)
	}
	if phase := report.GetPhase(); status.IsSuccessful(phase) {
		logger.Info("Provisioning finished", "phase", string(phase))
	} else if ready := status.GetCondition(report, v1alpha1.ConditionReady); ready != nil {
		logger.Warn("Provisioning finished", "phase", string(phase), "reason", ready.Reason, "message", ready.Message)
	} else {
		logger.Warn("Provisioning finished", "phase", string(phase))
	}

	return report
}

func remaining(stages []namedStage) []v1alpha1.StageName {
	names := make([]v1alpha1.StageName, 0, len(stages))
	for _, st := range stages {
		names = append(names, st.name)
	}
	return names
}

// splitJoined undoes errors.Join so each release failure is reported on its
// own.
func splitJoined(err error) []error {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return joined.Unwrap()
	}
	return []error{err}
}
