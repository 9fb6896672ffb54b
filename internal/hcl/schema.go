package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is the top-level structure of a configuration file.
type fileRoot struct {
	EffectsFile *string            `hcl:"effects_file,optional"`
	LogLevel    *string            `hcl:"log_level,optional"`
	LogFormat   *string            `hcl:"log_format,optional"`
	Rune        *runeBlock         `hcl:"rune,block"`
	Sync        *syncBlock         `hcl:"sync,block"`
	Admin       *adminBlock        `hcl:"admin,block"`
	Definitions []*definitionBlock `hcl:"definition,block"`
	Effects     []*effectBlock     `hcl:"effect,block"`
}

// runeBlock configures glyph generation. Zero values select defaults.
type runeBlock struct {
	Width       int    `hcl:"width,optional"`
	Height      int    `hcl:"height,optional"`
	MinLines    int    `hcl:"min_lines,optional"`
	MaxLines    int    `hcl:"max_lines,optional"`
	MaxAttempts int    `hcl:"max_attempts,optional"`
	Seed        uint64 `hcl:"seed,optional"`
}

type syncBlock struct {
	URL       string `hcl:"url"`
	Path      string `hcl:"path,optional"`
	Namespace string `hcl:"namespace,optional"`
}

type adminBlock struct {
	Port int `hcl:"port"`
}

// definitionBlock is the manifest of a built-in definition.
type definitionBlock struct {
	Name        string        `hcl:"name,label"`
	Description string        `hcl:"description,optional"`
	Inputs      []*inputBlock `hcl:"input,block"`
}

// inputBlock defines a single input argument of a definition.
type inputBlock struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type,optional"`
	Description string         `hcl:"description,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
	Optional    *bool          `hcl:"optional,optional"`
}

// effectBlock is an effect written to a fresh effects file.
type effectBlock struct {
	Name string `hcl:"name,label"`
	Body string `hcl:"body"`
}
