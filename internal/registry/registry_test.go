package registry

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jbweber/hvprov/internal/hostapi"
)

// releaseRecorder records every release call.
type releaseRecorder struct {
	calls []hostapi.Handle
	fail  map[hostapi.Handle]error
}

func (r *releaseRecorder) release(h hostapi.Handle) error {
	r.calls = append(r.calls, h)
	return r.fail[h]
}

func TestRegistry_OwnAndHandle(t *testing.T) {
	rec := &releaseRecorder{}
	reg := New()

	if err := reg.Own(Network, 10, rec.release); err != nil {
		t.Fatalf("Own() error = %v", err)
	}
	if err := reg.Own(Endpoint, 20, rec.release); err != nil {
		t.Fatalf("Own() error = %v", err)
	}

	h, ok := reg.Handle(Network)
	if !ok || h != 10 {
		t.Errorf("Handle(Network) = %v, %v; want 10, true", h, ok)
	}
	if _, ok := reg.Handle(ComputeSystem); ok {
		t.Error("Handle(ComputeSystem) reported an unowned handle")
	}
	if reg.Len() != 2 {
		t.Errorf("Len() = %d, want 2", reg.Len())
	}
	if len(rec.calls) != 0 {
		t.Errorf("unexpected release calls: %v", rec.calls)
	}
}

func TestRegistry_OwnRejectsInvalid(t *testing.T) {
	reg := New()

	err := reg.Own(Network, 0, func(hostapi.Handle) error { return nil })
	if !errors.Is(err, ErrNullHandle) {
		t.Errorf("expected ErrNullHandle, got %v", err)
	}

	if err := reg.Own(Network, 1, nil); err == nil {
		t.Error("expected error for nil releaser")
	}

	if reg.Len() != 0 {
		t.Errorf("registry should be empty, has %d handles", reg.Len())
	}
}

func TestRegistry_OwnReplacesSameKind(t *testing.T) {
	rec := &releaseRecorder{}
	reg := New()

	_ = reg.Own(Network, 10, rec.release)
	if err := reg.Own(Network, 11, rec.release); err != nil {
		t.Fatalf("Own() error = %v", err)
	}

	if diff := cmp.Diff([]hostapi.Handle{10}, rec.calls); diff != "" {
		t.Errorf("release calls mismatch (-want +got):\n%s", diff)
	}
	if h, _ := reg.Handle(Network); h != 11 {
		t.Errorf("Handle(Network) = %v, want 11", h)
	}
	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}
}

func TestRegistry_CloseReleasesInReverseOrder(t *testing.T) {
	rec := &releaseRecorder{}
	reg := New()

	_ = reg.Own(Network, 1, rec.release)
	_ = reg.Own(Endpoint, 2, rec.release)
	_ = reg.Own(ComputeSystem, 3, rec.release)
	_ = reg.Own(DeviceHost, 4, rec.release)

	if err := reg.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	want := []hostapi.Handle{4, 3, 2, 1}
	if diff := cmp.Diff(want, rec.calls); diff != "" {
		t.Errorf("release order mismatch (-want +got):\n%s", diff)
	}

	// Second close is a no-op
	if err := reg.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if len(rec.calls) != 4 {
		t.Errorf("handles released more than once: %v", rec.calls)
	}
}

func TestRegistry_CloseJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	rec := &releaseRecorder{fail: map[hostapi.Handle]error{2: boom}}
	reg := New()

	_ = reg.Own(Network, 1, rec.release)
	_ = reg.Own(Endpoint, 2, rec.release)

	err := reg.Close()
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to wrap boom, got %v", err)
	}
	if !strings.Contains(err.Error(), "Endpoint") {
		t.Errorf("expected error to name the kind, got %q", err)
	}

	// The failing release does not stop the others
	if diff := cmp.Diff([]hostapi.Handle{2, 1}, rec.calls); diff != "" {
		t.Errorf("release calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_Release(t *testing.T) {
	boom := errors.New("boom")
	rec := &releaseRecorder{fail: map[hostapi.Handle]error{3: boom}}
	reg := New()

	_ = reg.Own(Network, 1, rec.release)
	_ = reg.Own(ComputeSystem, 3, rec.release)

	if err := reg.Release(ComputeSystem); !errors.Is(err, boom) {
		t.Errorf("Release() error = %v, want boom", err)
	}
	if _, ok := reg.Handle(ComputeSystem); ok {
		t.Error("handle still owned after failed release")
	}

	// Releasing an unowned kind is a no-op
	if err := reg.Release(DeviceHost); err != nil {
		t.Errorf("Release(unowned) error = %v", err)
	}

	_ = reg.Close()
	if diff := cmp.Diff([]hostapi.Handle{3, 1}, rec.calls); diff != "" {
		t.Errorf("release calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_OwnAfterClose(t *testing.T) {
	rec := &releaseRecorder{}
	reg := New()
	_ = reg.Close()

	err := reg.Own(Network, 7, rec.release)
	if !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if diff := cmp.Diff([]hostapi.Handle{7}, rec.calls); diff != "" {
		t.Errorf("handle offered after close must be released (-want +got):\n%s", diff)
	}
}

func TestRegistry_Kinds(t *testing.T) {
	reg := New()
	noop := func(hostapi.Handle) error { return nil }

	_ = reg.Own(ComputeSystem, 3, noop)
	_ = reg.Own(Network, 1, noop)

	if diff := cmp.Diff([]Kind{ComputeSystem, Network}, reg.Kinds()); diff != "" {
		t.Errorf("Kinds() mismatch (-want +got):\n%s", diff)
	}
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Network, "Network"},
		{Endpoint, "Endpoint"},
		{ComputeSystem, "ComputeSystem"},
		{DeviceHost, "DeviceHost"},
		{Kind(9), "Kind(9)"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}
