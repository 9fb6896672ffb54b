package config

import (
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of the application
// configuration.
type Model struct {
	EffectsFile string
	LogLevel    string
	LogFormat   string

	Rune  *Rune
	Sync  *Sync
	Admin *Admin

	Definitions map[string]*DefinitionManifest
	Effects     []*EffectDefault
}

// Rune configures glyph generation.
type Rune struct {
	Width       int
	Height      int
	MinLines    int
	MaxLines    int
	MaxAttempts int
	Seed        uint64
}

// Sync configures the socket.io replica link.
type Sync struct {
	URL       string
	Path      string
	Namespace string
}

// Admin configures the admin HTTP server.
type Admin struct {
	Port int
}

// EffectDefault is an effect written to a fresh effects file.
type EffectDefault struct {
	Name string
	Body string
}

// --- Definition Manifest Models ---

// DefinitionManifest describes the inputs a built-in definition accepts.
type DefinitionManifest struct {
	Name        string
	Description string
	Inputs      map[string]*InputDefinition
}

// InputDefinition defines a single input argument of a definition.
type InputDefinition struct {
	Name        string
	Type        cty.Type
	Description string
	Default     *cty.Value
	Optional    bool
}
