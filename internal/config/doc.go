// Package config defines the format-agnostic configuration model for plume:
// build profiles with their hand-maintained order lists, the live deployment
// settings and the reload notification target.
//
// The Loader interface is implemented in the hcl package. The defaults that
// ship with the binary are embedded from defaults.hcl.
package config
