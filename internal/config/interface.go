package config

import (
	"context"
	_ "embed"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given files or directories and
	// translates it into the format-agnostic model. With no paths it loads
	// the embedded defaults.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

//go:embed defaults.hcl
var defaultSource []byte

// DefaultSource returns the embedded default configuration.
func DefaultSource() []byte {
	return defaultSource
}
