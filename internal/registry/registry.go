// Package registry owns the host resource handles acquired while
// provisioning.
//
// The registry holds at most one handle per Kind. Each handle is stored with
// the entry point that releases it, and Close releases every owned handle
// exactly once, newest first. Provisioners hand ownership to the registry as
// soon as the host returns a handle, so a failure later in the same stage
// cannot leak it.
package registry

import (
	"errors"
	"fmt"

	"github.com/jbweber/hvprov/internal/hostapi"
)

// Kind is the kind of host resource a handle refers to.
type Kind int

// Resource kinds, in pipeline order.
const (
	Network Kind = iota
	Endpoint
	ComputeSystem
	DeviceHost
)

func (k Kind) String() string {
	switch k {
	case Network:
		return "Network"
	case Endpoint:
		return "Endpoint"
	case ComputeSystem:
		return "ComputeSystem"
	case DeviceHost:
		return "DeviceHost"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

var (
	// ErrNullHandle is returned when asked to own the null handle.
	ErrNullHandle = errors.New("null handle")

	// ErrClosed is returned by Own after Close.
	ErrClosed = errors.New("registry closed")
)

// Releaser releases a host handle. Table close/teardown entry points satisfy
// it.
type Releaser func(hostapi.Handle) error

type owned struct {
	kind    Kind
	handle  hostapi.Handle
	release Releaser
}

// Registry is the set of owned host handles for one provisioning run.
// It is not safe for concurrent use; the pipeline is single-threaded.
type Registry struct {
	owned  []*owned
	closed bool
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{}
}

// Own transfers ownership of h to the registry. A handle of the same kind
// that is already owned is released first. If Own returns an error other
// than from that prior release, h was released immediately.
func (r *Registry) Own(kind Kind, h hostapi.Handle, release Releaser) error {
	if h == 0 {
		return fmt.Errorf("cannot own %s: %w", kind, ErrNullHandle)
	}
	if release == nil {
		return fmt.Errorf("cannot own %s handle without a releaser", kind)
	}
	if r.closed {
		if err := release(h); err != nil {
			return fmt.Errorf("cannot own %s: %w (release failed: %v)", kind, ErrClosed, err)
		}
		return fmt.Errorf("cannot own %s: %w", kind, ErrClosed)
	}

	var prevErr error
	if _, ok := r.Handle(kind); ok {
		prevErr = r.Release(kind)
	}

	r.owned = append(r.owned, &owned{kind: kind, handle: h, release: release})

	if prevErr != nil {
		return fmt.Errorf("failed to release previous %s handle: %w", kind, prevErr)
	}
	return nil
}

// Handle returns the owned handle of the given kind.
func (r *Registry) Handle(kind Kind) (hostapi.Handle, bool) {
	for _, o := range r.owned {
		if o.kind == kind {
			return o.handle, true
		}
	}
	return 0, false
}

// Release releases the owned handle of the given kind now. It is a no-op if
// no handle of that kind is owned. The handle is dropped from the registry
// even if the release entry point fails, so it is never released twice.
func (r *Registry) Release(kind Kind) error {
	for i, o := range r.owned {
		if o.kind != kind {
			continue
		}

		r.owned = append(r.owned[:i], r.owned[i+1:]...)
		if err := o.release(o.handle); err != nil {
			return fmt.Errorf("failed to release %s handle: %w", kind, err)
		}
		return nil
	}
	return nil
}

// Kinds returns the kinds currently owned, in acquisition order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.owned))
	for _, o := range r.owned {
		kinds = append(kinds, o.kind)
	}
	return kinds
}

// Len returns the number of owned handles.
func (r *Registry) Len() int {
	return len(r.owned)
}

// Close releases every owned handle in reverse acquisition order. All
// releases are attempted; their errors are joined. Close is idempotent.
func (r *Registry) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	for i := len(r.owned) - 1; i >= 0; i-- {
		o := r.owned[i]
		if err := o.release(o.handle); err != nil {
			errs = append(errs, fmt.Errorf("failed to release %s handle: %w", o.kind, err))
		}
	}
	r.owned = nil

	return errors.Join(errs...)
}
