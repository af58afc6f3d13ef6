// Package hostapi binds the Hyper-V host provisioning API at runtime.
//
// The host exposes its network (HCN), compute (HCS) and device host (HDV)
// services as exported functions of system DLLs. Not every host version ships
// every entry point, so hvprov never links against them statically. Instead,
// Bind loads each library once at startup and resolves every entry point into
// a typed function on a Table:
//
//	api, _ := hostapi.Bind(hostapi.SystemLoader{})
//	for _, e := range api.Missing() {
//	    logger.Warn("entry point unavailable", "entry", e)
//	}
//
// A library that fails to load leaves all of its entry points unresolved;
// an entry point that fails to resolve leaves only that field nil. Neither is
// an error at bind time.
//
// Call Sites:
//
// Every caller must check availability before invoking an entry point. Use
// Require, which returns an *UnavailableError (matching ErrUnavailable) for
// the first missing entry:
//
//	if err := api.Require(hostapi.HcnOpenNetwork, hostapi.HcnCloseNetwork); err != nil {
//	    return err
//	}
//	h, err := api.OpenNetwork(id)
//
// Host failures are returned as *HostError carrying the HRESULT and the
// host-supplied error record, so "entry point missing" and "host call
// failed" stay distinct.
//
// Platforms:
//
// The typed adapters are only built on Windows. On other platforms
// SystemLoader reports every library as unsupported and Bind returns a Table
// with every entry unavailable; tests drive the pipeline through the fake
// host in package hosttest instead.
package hostapi
