package hostapi

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fakeProc is a Proc that is never called by these tests.
type fakeProc struct{}

func (fakeProc) Call(args ...uintptr) (uintptr, uintptr, error) {
	return 0, 0, nil
}

// fakeModule resolves every entry except the ones listed in missing.
type fakeModule struct {
	missing map[Entry]bool
}

func (m fakeModule) Find(entry Entry) (Proc, error) {
	if m.missing[entry] {
		return nil, fmt.Errorf("procedure %s not found", entry)
	}
	return fakeProc{}, nil
}

// fakeLoader fails to load the libraries in failing and hides the entries
// in missing.
type fakeLoader struct {
	failing map[string]bool
	missing map[Entry]bool
	loads   []string
}

func (l *fakeLoader) Load(name string) (Module, error) {
	l.loads = append(l.loads, name)
	if l.failing[name] {
		return nil, fmt.Errorf("failed to load %s: the specified module could not be found", name)
	}
	return fakeModule{missing: l.missing}, nil
}

func unresolved(r *Resolution) []Entry {
	var out []Entry
	for _, s := range r.States() {
		if !s.Resolved {
			out = append(out, s.Entry)
		}
	}
	return out
}

func resolved(r *Resolution, e Entry) bool {
	return r.proc(e) != nil
}

func TestResolve_AllResolved(t *testing.T) {
	l := &fakeLoader{}
	r := Resolve(l)

	if missing := unresolved(r); len(missing) != 0 {
		t.Errorf("expected no missing entries, got %v", missing)
	}

	wantLoads := []string{"computenetwork.dll", "computecore.dll", "vmdevicehost.dll"}
	if diff := cmp.Diff(wantLoads, l.loads); diff != "" {
		t.Errorf("library load order mismatch (-want +got):\n%s", diff)
	}

	for _, lib := range Libraries {
		for _, e := range lib.Entries {
			if !resolved(r, e) {
				t.Errorf("expected %s to be resolved", e)
			}
		}
	}
}

func TestResolve_LibraryLoadFailure(t *testing.T) {
	l := &fakeLoader{failing: map[string]bool{"vmdevicehost.dll": true}}
	r := Resolve(l)

	want := []Entry{HdvInitializeDeviceHost, HdvTeardownDeviceHost}
	if diff := cmp.Diff(want, unresolved(r)); diff != "" {
		t.Errorf("missing entries mismatch (-want +got):\n%s", diff)
	}

	// Libraries after the failing one are still loaded
	if !resolved(r, HcsCreateComputeSystem) {
		t.Error("expected computecore.dll entries to stay resolved")
	}

	for _, s := range r.States() {
		if s.Library == "vmdevicehost.dll" && s.Error == "" {
			t.Errorf("expected load error recorded for %s", s.Entry)
		}
	}
}

func TestResolve_MissingSymbol(t *testing.T) {
	l := &fakeLoader{missing: map[Entry]bool{HcnDeleteEndpoint: true}}
	r := Resolve(l)

	if diff := cmp.Diff([]Entry{HcnDeleteEndpoint}, unresolved(r)); diff != "" {
		t.Errorf("missing entries mismatch (-want +got):\n%s", diff)
	}
	if !resolved(r, HcnCreateEndpoint) {
		t.Error("expected sibling entry HcnCreateEndpoint to stay resolved")
	}
}

func TestResolve_StatesCoverEveryEntry(t *testing.T) {
	r := Resolve(&fakeLoader{})

	total := 0
	for _, lib := range Libraries {
		total += len(lib.Entries)
	}
	if got := len(r.States()); got != total {
		t.Errorf("expected %d entry states, got %d", total, got)
	}

	// States returns a copy
	states := r.States()
	states[0].Resolved = false
	if !r.States()[0].Resolved {
		t.Error("modifying States() result changed the resolution")
	}
}
