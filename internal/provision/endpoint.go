package provision

import (
	"context"
	"fmt"

	"github.com/jbweber/hvprov/api/v1alpha1"
	"github.com/jbweber/hvprov/internal/document"
	"github.com/jbweber/hvprov/internal/hostapi"
	"github.com/jbweber/hvprov/internal/registry"
)

// provisionEndpoint replaces the configured endpoint: endpoints cannot be
// updated in place, so any endpoint with the same id is deleted and the
// endpoint is created again on the owned network.
func (p *pipeline) provisionEndpoint(ctx context.Context) v1alpha1.StageResult {
	s := newStage(ctx, v1alpha1.StageEndpoint)

	id, err := p.doc.GUID(document.EndpointIDPath...)
	if err != nil {
		return s.fail(fmt.Errorf("failed to read endpoint id: %w", err))
	}
	settings, err := p.doc.Object(document.EndpointPath...)
	if err != nil {
		return s.fail(fmt.Errorf("failed to read endpoint settings: %w", err))
	}

	if err := p.api.Require(hostapi.HcnDeleteEndpoint, hostapi.HcnCreateEndpoint, hostapi.HcnCloseEndpoint); err != nil {
		return s.fail(err)
	}

	s.log.Info("Deleting existing endpoint...", "id", id)
	err = s.call(hostapi.HcnDeleteEndpoint, p.api.DeleteEndpoint(id))
	switch {
	case err == nil:
		s.log.Info("Deleted existing endpoint", "id", id)
	case hostapi.IsCode(err, hostapi.CodeEndpointNotFound):
		s.log.Info("No existing endpoint", "id", id)
	default:
		s.log.Warn("Failed to delete endpoint, creating anyway", "id", id, "err", err)
	}

	// A missing network handle is passed as null; the host rejects it.
	network, ok := p.reg.Handle(registry.Network)
	if !ok {
		s.log.Warn("No network handle owned, creating endpoint on the null network")
	}

	s.log.Info("Creating endpoint...", "id", id)
	h, err := p.api.CreateEndpoint(network, id, settings)
	if s.call(hostapi.HcnCreateEndpoint, err) != nil {
		return s.fail(err)
	}

	if err := p.reg.Own(registry.Endpoint, h, p.api.CloseEndpoint); err != nil {
		return s.fail(err)
	}

	return s.succeed(fmt.Sprintf("endpoint %s ready", id))
}
