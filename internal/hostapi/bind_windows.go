//go:build windows

package hostapi

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// SystemLoader loads host libraries from the system directory. Loaded
// libraries are never released; they live as long as the process.
type SystemLoader struct{}

// Load implements Loader.
func (SystemLoader) Load(name string) (Module, error) {
	dll := windows.NewLazySystemDLL(name)
	if err := dll.Load(); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	return lazyModule{dll: dll}, nil
}

type lazyModule struct {
	dll *windows.LazyDLL
}

func (m lazyModule) Find(entry Entry) (Proc, error) {
	proc := m.dll.NewProc(string(entry))
	if err := proc.Find(); err != nil {
		return nil, fmt.Errorf("failed to resolve %s in %s: %w", entry, m.dll.Name, err)
	}
	return proc, nil
}
