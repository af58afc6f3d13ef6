package hostapi

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
)

func fullTable() *Table {
	return &Table{
		OpenNetwork:            func(uuid.UUID) (Handle, error) { return 1, nil },
		CreateNetwork:          func(uuid.UUID, string) (Handle, error) { return 1, nil },
		CloseNetwork:           func(Handle) error { return nil },
		CreateEndpoint:         func(Handle, uuid.UUID, string) (Handle, error) { return 2, nil },
		DeleteEndpoint:         func(uuid.UUID) error { return nil },
		CloseEndpoint:          func(Handle) error { return nil },
		CreateOperation:        func() (Handle, error) { return 3, nil },
		CloseOperation:         func(Handle) error { return nil },
		CreateComputeSystem:    func(string, string, Handle) (Handle, error) { return 4, nil },
		WaitForOperationResult: nil,
		CloseComputeSystem:     func(Handle) error { return nil },
		InitializeDeviceHost:   func(Handle) (Handle, error) { return 5, nil },
		TeardownDeviceHost:     func(Handle) error { return nil },
	}
}

func TestTable_Available(t *testing.T) {
	api := fullTable()

	for _, lib := range Libraries {
		for _, e := range lib.Entries {
			want := e != HcsWaitForOperationResult
			if got := api.Available(e); got != want {
				t.Errorf("Available(%s) = %v, want %v", e, got, want)
			}
		}
	}

	if api.Available(Entry("HcsStartComputeSystem")) {
		t.Error("unknown entry point reported as available")
	}

	var nilTable *Table
	if nilTable.Available(HcnOpenNetwork) {
		t.Error("nil table reported entry as available")
	}
}

func TestTable_Require(t *testing.T) {
	api := fullTable()

	if err := api.Require(HcnOpenNetwork, HcnCloseNetwork); err != nil {
		t.Errorf("Require() unexpected error: %v", err)
	}

	err := api.Require(HcsCreateOperation, HcsWaitForOperationResult, HcsCloseOperation)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	var unavailable *UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected *UnavailableError, got %T", err)
	}
	if unavailable.Entry != HcsWaitForOperationResult {
		t.Errorf("expected first missing entry HcsWaitForOperationResult, got %s", unavailable.Entry)
	}
}

func TestTable_Missing(t *testing.T) {
	missing := fullTable().Missing()
	if len(missing) != 1 || missing[0] != HcsWaitForOperationResult {
		t.Errorf("Missing() = %v, want [HcsWaitForOperationResult]", missing)
	}

	empty := (&Table{}).Missing()
	total := 0
	for _, lib := range Libraries {
		total += len(lib.Entries)
	}
	if len(empty) != total {
		t.Errorf("expected %d missing entries on empty table, got %d", total, len(empty))
	}
}

func TestHRESULT(t *testing.T) {
	tests := []struct {
		name       string
		code       HRESULT
		wantString string
		wantFailed bool
	}{
		{"S_OK", CodeOK, "0x00000000", false},
		{"E_FAIL", CodeFail, "0x80004005", true},
		{"network not found", CodeNetworkNotFound, "0x803B0001", true},
		{"endpoint not found", CodeEndpointNotFound, "0x803B0002", true},
		{"S_FALSE", HRESULT(1), "0x00000001", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.code.String(); got != tt.wantString {
				t.Errorf("String() = %q, want %q", got, tt.wantString)
			}
			if got := tt.code.Failed(); got != tt.wantFailed {
				t.Errorf("Failed() = %v, want %v", got, tt.wantFailed)
			}
		})
	}
}

func TestHostError(t *testing.T) {
	err := fmt.Errorf("failed to open network: %w", &HostError{
		Entry:  HcnOpenNetwork,
		Code:   CodeNetworkNotFound,
		Record: `{"Error":"not found"}`,
	})

	if !IsCode(err, CodeNetworkNotFound) {
		t.Error("expected IsCode to match wrapped HostError")
	}
	if IsCode(err, CodeEndpointNotFound) {
		t.Error("IsCode matched the wrong code")
	}
	if got := Code(err); got != CodeNetworkNotFound {
		t.Errorf("Code() = %s, want %s", got, CodeNetworkNotFound)
	}
	if errors.Is(err, ErrUnavailable) {
		t.Error("host failure must not match ErrUnavailable")
	}

	want := `failed to open network: HcnOpenNetwork failed with 0x803B0001: {"Error":"not found"}`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCode(t *testing.T) {
	if got := Code(nil); got != CodeOK {
		t.Errorf("Code(nil) = %s, want S_OK", got)
	}
	if got := Code(errors.New("boom")); got != CodeFail {
		t.Errorf("Code(non-host error) = %s, want E_FAIL", got)
	}
	if got := Code(&UnavailableError{Entry: HcnOpenNetwork}); got != CodeFail {
		t.Errorf("Code(unavailable) = %s, want E_FAIL", got)
	}
}
