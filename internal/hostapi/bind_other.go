//go:build !windows

package hostapi

import "fmt"

// SystemLoader loads host libraries from the system directory. Off Windows
// every load fails with ErrUnsupportedPlatform.
type SystemLoader struct{}

// Load implements Loader.
func (SystemLoader) Load(name string) (Module, error) {
	return nil, fmt.Errorf("failed to load %s: %w", name, ErrUnsupportedPlatform)
}

// newTable returns a table with every entry unavailable; there is no calling
// convention for host entry points off Windows.
func newTable(*Resolution) *Table {
	return &Table{}
}
