package hostapi

import (
	"errors"
	"fmt"
)

// HRESULT is a Windows status code. Negative values are failures.
type HRESULT int32

// Failed reports whether the code is a failure code.
func (hr HRESULT) Failed() bool {
	return hr < 0
}

// String formats the code the way the Windows SDK headers spell it.
func (hr HRESULT) String() string {
	return fmt.Sprintf("0x%08X", uint32(hr))
}

// Status codes hvprov reacts to.
const (
	CodeOK HRESULT = 0
	// CodeFail is E_FAIL, used when the host gave no better code.
	CodeFail HRESULT = 0x80004005 - 1<<32
	// CodeNetworkNotFound is HCN_E_NETWORK_NOT_FOUND.
	CodeNetworkNotFound HRESULT = 0x803B0001 - 1<<32
	// CodeEndpointNotFound is HCN_E_ENDPOINT_NOT_FOUND.
	CodeEndpointNotFound HRESULT = 0x803B0002 - 1<<32
)

var (
	// ErrUnavailable is matched by every *UnavailableError.
	ErrUnavailable = errors.New("entry point unavailable")

	// ErrUnsupportedPlatform is returned by SystemLoader off Windows.
	ErrUnsupportedPlatform = errors.New("host provisioning API requires Windows")
)

// UnavailableError reports a call through an entry point that Bind could not
// resolve.
type UnavailableError struct {
	Entry Entry
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: %v", e.Entry, ErrUnavailable)
}

// Is makes errors.Is(err, ErrUnavailable) match.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

// HostError is a failed host call. Record holds the error record (or result
// document) the host returned alongside the code, if any.
type HostError struct {
	Entry  Entry
	Code   HRESULT
	Record string
}

func (e *HostError) Error() string {
	if e.Record != "" {
		return fmt.Sprintf("%s failed with %s: %s", e.Entry, e.Code, e.Record)
	}
	return fmt.Sprintf("%s failed with %s", e.Entry, e.Code)
}

// Code extracts the HRESULT from err. It returns CodeOK for nil and CodeFail
// for errors that did not come from the host.
func Code(err error) HRESULT {
	if err == nil {
		return CodeOK
	}

	var hostErr *HostError
	if errors.As(err, &hostErr) {
		return hostErr.Code
	}
	return CodeFail
}

// IsCode reports whether err is a *HostError with the given code.
func IsCode(err error, code HRESULT) bool {
	var hostErr *HostError
	return errors.As(err, &hostErr) && hostErr.Code == code
}
