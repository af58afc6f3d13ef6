// Package hosttest provides an in-memory host that implements every entry
// point of hostapi.Table, for tests that drive provisioning without Hyper-V.
package hosttest

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jbweber/hvprov/internal/hostapi"
)

// Kind is the kind of resource a fake handle refers to.
type Kind string

// Resource kinds tracked by Host.
const (
	KindNetwork       Kind = "network"
	KindEndpoint      Kind = "endpoint"
	KindOperation     Kind = "operation"
	KindComputeSystem Kind = "compute-system"
	KindDeviceHost    Kind = "device-host"
)

// Call is one recorded entry point invocation.
type Call struct {
	Entry hostapi.Entry
	Err   error
}

// Host is a fake Hyper-V host. The zero value is not usable; call New.
//
// Fail* fields inject failures: when set for an entry point, that call
// returns the given error without changing host state.
type Host struct {
	mu sync.Mutex

	Networks       map[uuid.UUID]string
	Endpoints      map[uuid.UUID]string
	ComputeSystems map[string]string

	// Fail injects an error for the named entry point.
	Fail map[hostapi.Entry]error
	// WaitResult is the result document WaitForOperationResult returns.
	WaitResult string
	// WaitBlock, if set, makes WaitForOperationResult block until it is closed.
	WaitBlock chan struct{}
	// WaitTimeouts holds the timeout of every WaitForOperationResult call.
	WaitTimeouts []time.Duration

	Calls []Call

	nextHandle hostapi.Handle
	open       map[hostapi.Handle]Kind
	closed     map[hostapi.Handle]int
	withheld   map[hostapi.Entry]bool
}

// New returns an empty host.
func New() *Host {
	return &Host{
		Networks:       make(map[uuid.UUID]string),
		Endpoints:      make(map[uuid.UUID]string),
		ComputeSystems: make(map[string]string),
		Fail:           make(map[hostapi.Entry]error),
		open:           make(map[hostapi.Handle]Kind),
		closed:         make(map[hostapi.Handle]int),
		withheld:       make(map[hostapi.Entry]bool),
		nextHandle:     0x1000,
	}
}

// Withhold leaves the named entry points nil in tables built afterwards.
func (h *Host) Withhold(entries ...hostapi.Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range entries {
		h.withheld[e] = true
	}
}

// Table returns a hostapi.Table bound to this host.
func (h *Host) Table() *hostapi.Table {
	h.mu.Lock()
	defer h.mu.Unlock()

	t := &hostapi.Table{
		OpenNetwork:            h.openNetwork,
		CreateNetwork:          h.createNetwork,
		CloseNetwork:           h.closer(hostapi.HcnCloseNetwork, KindNetwork),
		CreateEndpoint:         h.createEndpoint,
		DeleteEndpoint:         h.deleteEndpoint,
		CloseEndpoint:          h.closer(hostapi.HcnCloseEndpoint, KindEndpoint),
		CreateOperation:        h.createOperation,
		CloseOperation:         h.closer(hostapi.HcsCloseOperation, KindOperation),
		CreateComputeSystem:    h.createComputeSystem,
		WaitForOperationResult: h.waitForOperationResult,
		CloseComputeSystem:     h.closer(hostapi.HcsCloseComputeSystem, KindComputeSystem),
		InitializeDeviceHost:   h.initializeDeviceHost,
		TeardownDeviceHost:     h.closer(hostapi.HdvTeardownDeviceHost, KindDeviceHost),
	}

	for e := range h.withheld {
		switch e {
		case hostapi.HcnOpenNetwork:
			t.OpenNetwork = nil
		case hostapi.HcnCreateNetwork:
			t.CreateNetwork = nil
		case hostapi.HcnCloseNetwork:
			t.CloseNetwork = nil
		case hostapi.HcnCreateEndpoint:
			t.CreateEndpoint = nil
		case hostapi.HcnDeleteEndpoint:
			t.DeleteEndpoint = nil
		case hostapi.HcnCloseEndpoint:
			t.CloseEndpoint = nil
		case hostapi.HcsCreateOperation:
			t.CreateOperation = nil
		case hostapi.HcsCloseOperation:
			t.CloseOperation = nil
		case hostapi.HcsCreateComputeSystem:
			t.CreateComputeSystem = nil
		case hostapi.HcsWaitForOperationResult:
			t.WaitForOperationResult = nil
		case hostapi.HcsCloseComputeSystem:
			t.CloseComputeSystem = nil
		case hostapi.HdvInitializeDeviceHost:
			t.InitializeDeviceHost = nil
		case hostapi.HdvTeardownDeviceHost:
			t.TeardownDeviceHost = nil
		}
	}

	return t
}

// CallCount returns how many times the entry point was invoked.
func (h *Host) CallCount(e hostapi.Entry) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, c := range h.Calls {
		if c.Entry == e {
			n++
		}
	}
	return n
}

// Entries returns the invoked entry points in call order.
func (h *Host) Entries() []hostapi.Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]hostapi.Entry, 0, len(h.Calls))
	for _, c := range h.Calls {
		out = append(out, c.Entry)
	}
	return out
}

// OpenHandles returns the handles issued and not yet closed.
func (h *Host) OpenHandles() map[hostapi.Handle]Kind {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[hostapi.Handle]Kind, len(h.open))
	for k, v := range h.open {
		out[k] = v
	}
	return out
}

// CloseCounts returns how many times each handle was closed.
func (h *Host) CloseCounts() map[hostapi.Handle]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[hostapi.Handle]int, len(h.closed))
	for k, v := range h.closed {
		out[k] = v
	}
	return out
}

func (h *Host) record(e hostapi.Entry, err error) error {
	h.Calls = append(h.Calls, Call{Entry: e, Err: err})
	return err
}

func (h *Host) issue(kind Kind) hostapi.Handle {
	h.nextHandle++
	h.open[h.nextHandle] = kind
	return h.nextHandle
}

func (h *Host) openNetwork(id uuid.UUID) (hostapi.Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Fail[hostapi.HcnOpenNetwork]; err != nil {
		return 0, h.record(hostapi.HcnOpenNetwork, err)
	}
	if _, ok := h.Networks[id]; !ok {
		return 0, h.record(hostapi.HcnOpenNetwork, &hostapi.HostError{
			Entry:  hostapi.HcnOpenNetwork,
			Code:   hostapi.CodeNetworkNotFound,
			Record: fmt.Sprintf(`{"Error":"network %s not found"}`, id),
		})
	}
	_ = h.record(hostapi.HcnOpenNetwork, nil)
	return h.issue(KindNetwork), nil
}

func (h *Host) createNetwork(id uuid.UUID, settings string) (hostapi.Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Fail[hostapi.HcnCreateNetwork]; err != nil {
		return 0, h.record(hostapi.HcnCreateNetwork, err)
	}
	h.Networks[id] = settings
	_ = h.record(hostapi.HcnCreateNetwork, nil)
	return h.issue(KindNetwork), nil
}

func (h *Host) createEndpoint(network hostapi.Handle, id uuid.UUID, settings string) (hostapi.Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Fail[hostapi.HcnCreateEndpoint]; err != nil {
		return 0, h.record(hostapi.HcnCreateEndpoint, err)
	}
	if h.open[network] != KindNetwork {
		return 0, h.record(hostapi.HcnCreateEndpoint, &hostapi.HostError{
			Entry: hostapi.HcnCreateEndpoint,
			Code:  hostapi.CodeNetworkNotFound,
		})
	}
	if _, ok := h.Endpoints[id]; ok {
		return 0, h.record(hostapi.HcnCreateEndpoint, &hostapi.HostError{
			Entry:  hostapi.HcnCreateEndpoint,
			Code:   hostapi.CodeFail,
			Record: fmt.Sprintf(`{"Error":"endpoint %s already exists"}`, id),
		})
	}
	h.Endpoints[id] = settings
	_ = h.record(hostapi.HcnCreateEndpoint, nil)
	return h.issue(KindEndpoint), nil
}

func (h *Host) deleteEndpoint(id uuid.UUID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Fail[hostapi.HcnDeleteEndpoint]; err != nil {
		return h.record(hostapi.HcnDeleteEndpoint, err)
	}
	if _, ok := h.Endpoints[id]; !ok {
		return h.record(hostapi.HcnDeleteEndpoint, &hostapi.HostError{
			Entry: hostapi.HcnDeleteEndpoint,
			Code:  hostapi.CodeEndpointNotFound,
		})
	}
	delete(h.Endpoints, id)
	return h.record(hostapi.HcnDeleteEndpoint, nil)
}

func (h *Host) createOperation() (hostapi.Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Fail[hostapi.HcsCreateOperation]; err != nil {
		return 0, h.record(hostapi.HcsCreateOperation, err)
	}
	_ = h.record(hostapi.HcsCreateOperation, nil)
	return h.issue(KindOperation), nil
}

func (h *Host) createComputeSystem(id, settings string, op hostapi.Handle) (hostapi.Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Fail[hostapi.HcsCreateComputeSystem]; err != nil {
		return 0, h.record(hostapi.HcsCreateComputeSystem, err)
	}
	if h.open[op] != KindOperation {
		return 0, h.record(hostapi.HcsCreateComputeSystem, &hostapi.HostError{
			Entry: hostapi.HcsCreateComputeSystem,
			Code:  hostapi.CodeFail,
		})
	}
	h.ComputeSystems[id] = settings
	_ = h.record(hostapi.HcsCreateComputeSystem, nil)
	return h.issue(KindComputeSystem), nil
}

func (h *Host) waitForOperationResult(op hostapi.Handle, timeout time.Duration) (string, error) {
	h.mu.Lock()
	h.WaitTimeouts = append(h.WaitTimeouts, timeout)
	block := h.WaitBlock
	h.mu.Unlock()

	if block != nil {
		<-block
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Fail[hostapi.HcsWaitForOperationResult]; err != nil {
		return "", h.record(hostapi.HcsWaitForOperationResult, err)
	}
	if h.open[op] != KindOperation {
		return "", h.record(hostapi.HcsWaitForOperationResult, &hostapi.HostError{
			Entry: hostapi.HcsWaitForOperationResult,
			Code:  hostapi.CodeFail,
		})
	}
	_ = h.record(hostapi.HcsWaitForOperationResult, nil)
	return h.WaitResult, nil
}

func (h *Host) initializeDeviceHost(system hostapi.Handle) (hostapi.Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Fail[hostapi.HdvInitializeDeviceHost]; err != nil {
		return 0, h.record(hostapi.HdvInitializeDeviceHost, err)
	}
	if h.open[system] != KindComputeSystem {
		return 0, h.record(hostapi.HdvInitializeDeviceHost, &hostapi.HostError{
			Entry: hostapi.HdvInitializeDeviceHost,
			Code:  hostapi.CodeFail,
		})
	}
	_ = h.record(hostapi.HdvInitializeDeviceHost, nil)
	return h.issue(KindDeviceHost), nil
}

// closer builds a close entry point that only accepts open handles of kind.
func (h *Host) closer(e hostapi.Entry, kind Kind) func(hostapi.Handle) error {
	return func(handle hostapi.Handle) error {
		h.mu.Lock()
		defer h.mu.Unlock()

		h.closed[handle]++
		if err := h.Fail[e]; err != nil {
			return h.record(e, err)
		}
		if h.open[handle] != kind {
			return h.record(e, &hostapi.HostError{Entry: e, Code: hostapi.CodeFail})
		}
		delete(h.open, handle)
		return h.record(e, nil)
	}
}
