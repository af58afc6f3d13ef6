//go:build windows

package hostapi

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
	"unsafe"

	"github.com/google/uuid"
	"golang.org/x/sys/windows"
)

// newTable wraps every resolved proc in a typed adapter.
func newTable(r *Resolution) *Table {
	t := &Table{}

	if p := r.proc(HcnOpenNetwork); p != nil {
		t.OpenNetwork = func(id uuid.UUID) (Handle, error) {
			g := toGUID(id)
			var h Handle
			var record *uint16
			r1, _, _ := p.Call(
				uintptr(unsafe.Pointer(&g)),
				uintptr(unsafe.Pointer(&h)),
				uintptr(unsafe.Pointer(&record)),
			)
			return h, check(HcnOpenNetwork, r1, takeString(record))
		}
	}

	if p := r.proc(HcnCreateNetwork); p != nil {
		t.CreateNetwork = func(id uuid.UUID, settings string) (Handle, error) {
			g := toGUID(id)
			s, err := windows.UTF16PtrFromString(settings)
			if err != nil {
				return 0, fmt.Errorf("%s: invalid settings: %w", HcnCreateNetwork, err)
			}
			var h Handle
			var record *uint16
			r1, _, _ := p.Call(
				uintptr(unsafe.Pointer(&g)),
				uintptr(unsafe.Pointer(s)),
				uintptr(unsafe.Pointer(&h)),
				uintptr(unsafe.Pointer(&record)),
			)
			return h, check(HcnCreateNetwork, r1, takeString(record))
		}
	}

	if p := r.proc(HcnCloseNetwork); p != nil {
		t.CloseNetwork = func(network Handle) error {
			r1, _, _ := p.Call(uintptr(network))
			return check(HcnCloseNetwork, r1, "")
		}
	}

	if p := r.proc(HcnCreateEndpoint); p != nil {
		t.CreateEndpoint = func(network Handle, id uuid.UUID, settings string) (Handle, error) {
			g := toGUID(id)
			s, err := windows.UTF16PtrFromString(settings)
			if err != nil {
				return 0, fmt.Errorf("%s: invalid settings: %w", HcnCreateEndpoint, err)
			}
			var h Handle
			var record *uint16
			r1, _, _ := p.Call(
				uintptr(network),
				uintptr(unsafe.Pointer(&g)),
				uintptr(unsafe.Pointer(s)),
				uintptr(unsafe.Pointer(&h)),
				uintptr(unsafe.Pointer(&record)),
			)
			return h, check(HcnCreateEndpoint, r1, takeString(record))
		}
	}

	if p := r.proc(HcnDeleteEndpoint); p != nil {
		t.DeleteEndpoint = func(id uuid.UUID) error {
			g := toGUID(id)
			var record *uint16
			r1, _, _ := p.Call(
				uintptr(unsafe.Pointer(&g)),
				uintptr(unsafe.Pointer(&record)),
			)
			return check(HcnDeleteEndpoint, r1, takeString(record))
		}
	}

	if p := r.proc(HcnCloseEndpoint); p != nil {
		t.CloseEndpoint = func(endpoint Handle) error {
			r1, _, _ := p.Call(uintptr(endpoint))
			return check(HcnCloseEndpoint, r1, "")
		}
	}

	if p := r.proc(HcsCreateOperation); p != nil {
		t.CreateOperation = func() (Handle, error) {
			// No context and no completion callback: the result is
			// collected with HcsWaitForOperationResult.
			r1, _, lastErr := p.Call(0, 0)
			if r1 == 0 {
				return 0, &HostError{Entry: HcsCreateOperation, Code: fromLastError(lastErr)}
			}
			return Handle(r1), nil
		}
	}

	if p := r.proc(HcsCloseOperation); p != nil {
		t.CloseOperation = func(op Handle) error {
			_, _, _ = p.Call(uintptr(op))
			return nil
		}
	}

	if p := r.proc(HcsCreateComputeSystem); p != nil {
		t.CreateComputeSystem = func(id, settings string, op Handle) (Handle, error) {
			idPtr, err := windows.UTF16PtrFromString(id)
			if err != nil {
				return 0, fmt.Errorf("%s: invalid id: %w", HcsCreateComputeSystem, err)
			}
			s, err := windows.UTF16PtrFromString(settings)
			if err != nil {
				return 0, fmt.Errorf("%s: invalid settings: %w", HcsCreateComputeSystem, err)
			}
			var h Handle
			r1, _, _ := p.Call(
				uintptr(unsafe.Pointer(idPtr)),
				uintptr(unsafe.Pointer(s)),
				uintptr(op),
				0, // default security descriptor
				uintptr(unsafe.Pointer(&h)),
			)
			return h, check(HcsCreateComputeSystem, r1, "")
		}
	}

	if p := r.proc(HcsWaitForOperationResult); p != nil {
		t.WaitForOperationResult = func(op Handle, timeout time.Duration) (string, error) {
			var result *uint16
			r1, _, _ := p.Call(
				uintptr(op),
				uintptr(timeoutMillis(timeout)),
				uintptr(unsafe.Pointer(&result)),
			)
			doc := takeString(result)
			return doc, check(HcsWaitForOperationResult, r1, doc)
		}
	}

	if p := r.proc(HcsCloseComputeSystem); p != nil {
		t.CloseComputeSystem = func(system Handle) error {
			_, _, _ = p.Call(uintptr(system))
			return nil
		}
	}

	if p := r.proc(HdvInitializeDeviceHost); p != nil {
		t.InitializeDeviceHost = func(system Handle) (Handle, error) {
			var h Handle
			r1, _, _ := p.Call(uintptr(system), uintptr(unsafe.Pointer(&h)))
			return h, check(HdvInitializeDeviceHost, r1, "")
		}
	}

	if p := r.proc(HdvTeardownDeviceHost); p != nil {
		t.TeardownDeviceHost = func(host Handle) error {
			r1, _, _ := p.Call(uintptr(host))
			return check(HdvTeardownDeviceHost, r1, "")
		}
	}

	return t
}

// check converts a returned HRESULT into a *HostError.
func check(entry Entry, r1 uintptr, record string) error {
	hr := HRESULT(int32(uint32(r1)))
	if !hr.Failed() {
		return nil
	}
	return &HostError{Entry: entry, Code: hr, Record: record}
}

// takeString copies a host-allocated UTF-16 string and frees it.
func takeString(p *uint16) string {
	if p == nil {
		return ""
	}
	s := windows.UTF16PtrToString(p)
	windows.CoTaskMemFree(unsafe.Pointer(p))
	return s
}

// toGUID converts the RFC 4122 byte order used by uuid.UUID into the
// mixed-endian in-memory layout of a Windows GUID.
func toGUID(id uuid.UUID) windows.GUID {
	return windows.GUID{
		Data1: binary.BigEndian.Uint32(id[0:4]),
		Data2: binary.BigEndian.Uint16(id[4:6]),
		Data3: binary.BigEndian.Uint16(id[6:8]),
		Data4: [8]byte(id[8:16]),
	}
}

func timeoutMillis(timeout time.Duration) uint32 {
	if timeout <= InfiniteTimeout {
		return windows.INFINITE
	}
	ms := timeout.Milliseconds()
	if ms >= int64(windows.INFINITE) {
		return windows.INFINITE - 1
	}
	return uint32(ms)
}

// fromLastError maps a Win32 error to HRESULT_FROM_WIN32.
func fromLastError(err error) HRESULT {
	var errno windows.Errno
	if errors.As(err, &errno) && errno != 0 {
		return HRESULT(int32(0x80070000 | uint32(errno)&0xFFFF))
	}
	return CodeFail
}
