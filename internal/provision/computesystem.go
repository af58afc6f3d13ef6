package provision

import (
	"context"
	"fmt"

	"github.com/jbweber/hvprov/api/v1alpha1"
	"github.com/jbweber/hvprov/internal/document"
	"github.com/jbweber/hvprov/internal/hostapi"
	"github.com/jbweber/hvprov/internal/registry"
)

// provisionComputeSystem creates the compute system and waits for the host to
// finish building it. The operation handle is released exactly once on every
// path; it is never stored in the registry.
func (p *pipeline) provisionComputeSystem(ctx context.Context) v1alpha1.StageResult {
	s := newStage(ctx, v1alpha1.StageComputeSystem)

	settings, err := p.doc.Object(document.ComputeSystemPath...)
	if err != nil {
		return s.fail(fmt.Errorf("failed to read compute system settings: %w", err))
	}

	if err := p.api.Require(
		hostapi.HcsCreateOperation,
		hostapi.HcsCloseOperation,
		hostapi.HcsCreateComputeSystem,
		hostapi.HcsWaitForOperationResult,
		hostapi.HcsCloseComputeSystem,
	); err != nil {
		return s.fail(err)
	}

	s.log.Info("Creating operation...")
	op, err := p.api.CreateOperation()
	if s.call(hostapi.HcsCreateOperation, err) != nil {
		return s.fail(err)
	}

	s.log.Info("Creating compute system...", "id", p.opts.ComputeSystemID)
	system, err := p.api.CreateComputeSystem(p.opts.ComputeSystemID, settings, op)
	if s.call(hostapi.HcsCreateComputeSystem, err) != nil {
		_ = s.call(hostapi.HcsCloseOperation, p.api.CloseOperation(op))
		return s.fail(err)
	}

	if err := p.reg.Own(registry.ComputeSystem, system, p.api.CloseComputeSystem); err != nil {
		_ = s.call(hostapi.HcsCloseOperation, p.api.CloseOperation(op))
		return s.fail(err)
	}

	s.log.Info("Waiting for compute system...", "timeout", v1alpha1.FormatTimeout(p.opts.WaitTimeout))
	result, err := p.waitForOperation(ctx, s, op)
	s.result = result
	if err != nil {
		// The system was never built; later stages must not use its handle.
		if relErr := p.reg.Release(registry.ComputeSystem); relErr != nil {
			s.log.Warn("Failed to release compute system", "err", relErr)
		}
		return s.fail(err)
	}

	return s.succeed(fmt.Sprintf("compute system %s created", p.opts.ComputeSystemID))
}

type waitResult struct {
	doc      string
	err      error
	closeErr error
}

// waitForOperation waits for op on a separate goroutine so that canceling
// ctx returns control to the caller. The goroutine always closes op once
// the host reports a result, even after ctx is done.
func (p *pipeline) waitForOperation(ctx context.Context, s *stage, op hostapi.Handle) (string, error) {
	done := make(chan waitResult, 1)
	logger := s.log

	go func() {
		doc, err := p.api.WaitForOperationResult(op, p.opts.WaitTimeout)
		closeErr := p.api.CloseOperation(op)
		if ctx.Err() != nil {
			logger.Debug("Abandoned operation completed", "err", err, "closeErr", closeErr)
		}
		done <- waitResult{doc: doc, err: err, closeErr: closeErr}
	}()

	select {
	case r := <-done:
		_ = s.call(hostapi.HcsWaitForOperationResult, r.err)
		_ = s.call(hostapi.HcsCloseOperation, r.closeErr)
		return r.doc, r.err
	case <-ctx.Done():
		return "", fmt.Errorf("stopped waiting for compute system: %w", ctx.Err())
	}
}
