package hostapi

import (
	"time"

	"github.com/google/uuid"
)

// Handle is an opaque host resource handle. The zero value is the null handle.
type Handle uintptr

// Entry names an entry point exported by a host library.
type Entry string

// Network service (computenetwork.dll).
const (
	HcnOpenNetwork    Entry = "HcnOpenNetwork"
	HcnCreateNetwork  Entry = "HcnCreateNetwork"
	HcnCloseNetwork   Entry = "HcnCloseNetwork"
	HcnCreateEndpoint Entry = "HcnCreateEndpoint"
	HcnDeleteEndpoint Entry = "HcnDeleteEndpoint"
	HcnCloseEndpoint  Entry = "HcnCloseEndpoint"
)

// Compute service (computecore.dll).
const (
	HcsCreateOperation        Entry = "HcsCreateOperation"
	HcsCloseOperation         Entry = "HcsCloseOperation"
	HcsCreateComputeSystem    Entry = "HcsCreateComputeSystem"
	HcsWaitForOperationResult Entry = "HcsWaitForOperationResult"
	HcsCloseComputeSystem     Entry = "HcsCloseComputeSystem"
)

// Device host service (vmdevicehost.dll).
const (
	HdvInitializeDeviceHost Entry = "HdvInitializeDeviceHost"
	HdvTeardownDeviceHost   Entry = "HdvTeardownDeviceHost"
)

// Library is a host library and the entry points bound from it.
type Library struct {
	Name    string
	Entries []Entry
}

// Libraries lists every library and entry point bound at startup.
var Libraries = []Library{
	{
		Name: "computenetwork.dll",
		Entries: []Entry{
			HcnOpenNetwork, HcnCreateNetwork, HcnCloseNetwork,
			HcnCreateEndpoint, HcnDeleteEndpoint, HcnCloseEndpoint,
		},
	},
	{
		Name: "computecore.dll",
		Entries: []Entry{
			HcsCreateOperation, HcsCloseOperation, HcsCreateComputeSystem,
			HcsWaitForOperationResult, HcsCloseComputeSystem,
		},
	},
	{
		Name:    "vmdevicehost.dll",
		Entries: []Entry{HdvInitializeDeviceHost, HdvTeardownDeviceHost},
	},
}

// InfiniteTimeout makes WaitForOperationResult block until the host completes
// the operation. Any timeout <= 0 is treated the same way.
const InfiniteTimeout time.Duration = 0

// Table holds the typed host entry points. A nil field means the entry point
// could not be resolved on this host. The table is populated once by Bind
// and never modified afterwards.
//
// Settings arguments are JSON documents; the Windows adapter passes them to
// the host as UTF-16 text.
type Table struct {
	OpenNetwork   func(id uuid.UUID) (Handle, error)
	CreateNetwork func(id uuid.UUID, settings string) (Handle, error)
	CloseNetwork  func(network Handle) error

	CreateEndpoint func(network Handle, id uuid.UUID, settings string) (Handle, error)
	DeleteEndpoint func(id uuid.UUID) error
	CloseEndpoint  func(endpoint Handle) error

	CreateOperation func() (Handle, error)
	CloseOperation  func(op Handle) error
	// CreateComputeSystem submits the request; the result is observed through
	// WaitForOperationResult on the same operation.
	CreateComputeSystem func(id, settings string, op Handle) (Handle, error)
	// WaitForOperationResult returns the host result document.
	WaitForOperationResult func(op Handle, timeout time.Duration) (string, error)
	CloseComputeSystem     func(system Handle) error

	InitializeDeviceHost func(system Handle) (Handle, error)
	TeardownDeviceHost   func(host Handle) error
}

// Available reports whether the entry point is bound.
func (t *Table) Available(e Entry) bool {
	if t == nil {
		return false
	}

	switch e {
	case HcnOpenNetwork:
		return t.OpenNetwork != nil
	case HcnCreateNetwork:
		return t.CreateNetwork != nil
	case HcnCloseNetwork:
		return t.CloseNetwork != nil
	case HcnCreateEndpoint:
		return t.CreateEndpoint != nil
	case HcnDeleteEndpoint:
		return t.DeleteEndpoint != nil
	case HcnCloseEndpoint:
		return t.CloseEndpoint != nil
	case HcsCreateOperation:
		return t.CreateOperation != nil
	case HcsCloseOperation:
		return t.CloseOperation != nil
	case HcsCreateComputeSystem:
		return t.CreateComputeSystem != nil
	case HcsWaitForOperationResult:
		return t.WaitForOperationResult != nil
	case HcsCloseComputeSystem:
		return t.CloseComputeSystem != nil
	case HdvInitializeDeviceHost:
		return t.InitializeDeviceHost != nil
	case HdvTeardownDeviceHost:
		return t.TeardownDeviceHost != nil
	default:
		return false
	}
}

// Require returns an *UnavailableError for the first entry point that is not
// bound, or nil when all of them are.
func (t *Table) Require(entries ...Entry) error {
	for _, e := range entries {
		if !t.Available(e) {
			return &UnavailableError{Entry: e}
		}
	}
	return nil
}

// Missing returns every known entry point that is not bound, in library order.
func (t *Table) Missing() []Entry {
	var missing []Entry
	for _, lib := range Libraries {
		for _, e := range lib.Entries {
			if !t.Available(e) {
				missing = append(missing, e)
			}
		}
	}
	return missing
}
