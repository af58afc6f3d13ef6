package provision

import (
	"context"
	"fmt"

	"github.com/jbweber/hvprov/api/v1alpha1"
	"github.com/jbweber/hvprov/internal/document"
	"github.com/jbweber/hvprov/internal/hostapi"
	"github.com/jbweber/hvprov/internal/registry"
)

// provisionNetwork opens the configured network, creating it when the host
// does not know it.
func (p *pipeline) provisionNetwork(ctx context.Context) v1alpha1.StageResult {
	s := newStage(ctx, v1alpha1.StageNetwork)

	id, err := p.doc.GUID(document.NetworkIDPath...)
	if err != nil {
		return s.fail(fmt.Errorf("failed to read network id: %w", err))
	}
	settings, err := p.doc.Object(document.NetworkPath...)
	if err != nil {
		return s.fail(fmt.Errorf("failed to read network settings: %w", err))
	}

	if err := p.api.Require(hostapi.HcnOpenNetwork, hostapi.HcnCloseNetwork); err != nil {
		return s.fail(err)
	}

	s.log.Info("Opening network...", "id", id)
	h, err := p.api.OpenNetwork(id)
	_ = s.call(hostapi.HcnOpenNetwork, err)

	if hostapi.IsCode(err, hostapi.CodeNetworkNotFound) {
		if err := p.api.Require(hostapi.HcnCreateNetwork); err != nil {
			return s.fail(err)
		}

		s.log.Info("Network not found, creating network...", "id", id)
		h, err = p.api.CreateNetwork(id, settings)
		_ = s.call(hostapi.HcnCreateNetwork, err)
	}
	if err != nil {
		return s.fail(err)
	}

	if err := p.reg.Own(registry.Network, h, p.api.CloseNetwork); err != nil {
		return s.fail(err)
	}

	return s.succeed(fmt.Sprintf("network %s ready", id))
}
