package provision

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"

	"github.com/jbweber/hvprov/api/v1alpha1"
	"github.com/jbweber/hvprov/internal/hostapi"
)

// stage accumulates the host calls and outcome of one pipeline stage.
type stage struct {
	name   v1alpha1.StageName
	log    *log.Logger
	calls  []v1alpha1.HostCall
	result string
}

func newStage(ctx context.Context, name v1alpha1.StageName) *stage {
	return &stage{
		name: name,
		log:  log.FromContext(ctx).With("stage", string(name)),
	}
}

// call records the outcome of one host call and logs it as a status line.
// It returns err unchanged.
func (s *stage) call(entry hostapi.Entry, err error) error {
	rec := v1alpha1.HostCall{
		Entry:   string(entry),
		HResult: hostapi.Code(err).String(),
	}

	var hostErr *hostapi.HostError
	switch {
	case errors.As(err, &hostErr):
		rec.ErrorRecord = hostErr.Record
	case err != nil:
		rec.ErrorRecord = err.Error()
	}
	s.calls = append(s.calls, rec)

	if err != nil {
		s.log.Warn(string(entry), "hresult", rec.HResult, "record", rec.ErrorRecord)
	} else {
		s.log.Info(string(entry), "hresult", rec.HResult)
	}
	return err
}

func (s *stage) succeed(message string) v1alpha1.StageResult {
	s.log.Info("Stage succeeded", "message", message)
	return v1alpha1.StageResult{
		Name:    s.name,
		Outcome: v1alpha1.StageSucceeded,
		Message: message,
		Calls:   s.calls,
		Result:  s.result,
	}
}

// fail ends the stage with err. Missing entry points are reported as
// Unavailable, everything else as Failed.
func (s *stage) fail(err error) v1alpha1.StageResult {
	outcome := v1alpha1.StageFailed
	if errors.Is(err, hostapi.ErrUnavailable) {
		outcome = v1alpha1.StageUnavailable
	}

	s.log.Error("Stage did not succeed", "outcome", string(outcome), "err", err)
	return v1alpha1.StageResult{
		Name:    s.name,
		Outcome: outcome,
		Message: err.Error(),
		Calls:   s.calls,
		Result:  s.result,
	}
}

func (s *stage) skip(message string) v1alpha1.StageResult {
	s.log.Info("Stage skipped", "reason", message)
	return v1alpha1.StageResult{
		Name:    s.name,
		Outcome: v1alpha1.StageSkipped,
		Message: message,
	}
}

// succeeded reports whether a stage result lets a stop-policy run continue.
func succeeded(r v1alpha1.StageResult) bool {
	return r.Outcome == v1alpha1.StageSucceeded || r.Outcome == v1alpha1.StageSkipped
}
