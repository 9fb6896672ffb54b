package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given paths and translates it into
	// the format-agnostic model. Later paths override settings of earlier
	// ones.
	Load(ctx context.Context, paths ...string) (*Model, error)

	// LoadSource translates a single in-memory document. filename only
	// appears in diagnostics.
	LoadSource(ctx context.Context, filename string, src []byte) (*Model, error)
}
