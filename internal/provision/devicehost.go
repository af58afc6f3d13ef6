package provision

import (
	"context"
	"errors"

	"github.com/jbweber/hvprov/api/v1alpha1"
	"github.com/jbweber/hvprov/internal/hostapi"
	"github.com/jbweber/hvprov/internal/registry"
)

// ErrNoComputeSystem is returned by the device host stage when the compute
// system stage left no handle.
var ErrNoComputeSystem = errors.New("no compute system handle")

func (p *pipeline) provisionDeviceHost(ctx context.Context) v1alpha1.StageResult {
	s := newStage(ctx, v1alpha1.StageDeviceHost)

	if !p.opts.DeviceHost {
		return s.skip("device host disabled")
	}

	if err := p.api.Require(hostapi.HdvInitializeDeviceHost, hostapi.HdvTeardownDeviceHost); err != nil {
		return s.fail(err)
	}

	system, ok := p.reg.Handle(registry.ComputeSystem)
	if !ok {
		return s.fail(ErrNoComputeSystem)
	}

	s.log.Info("Initializing device host...")
	h, err := p.api.InitializeDeviceHost(system)
	if s.call(hostapi.HdvInitializeDeviceHost, err) != nil {
		return s.fail(err)
	}

	if err := p.reg.Own(registry.DeviceHost, h, p.api.TeardownDeviceHost); err != nil {
		return s.fail(err)
	}

	return s.succeed("device host initialized")
}
