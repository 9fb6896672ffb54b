package app

import "errors"

// DefaultEffectsFile is used when neither the CLI nor the configuration
// names an effects file.
const DefaultEffectsFile = "effects.txt"

// Config holds all the necessary configuration for an App instance to run.
// Empty fields fall back to the HCL configuration, then to defaults.
type Config struct {
	ConfigPaths []string // hcl files or directories
	EffectsPath string

	LogFormat string
	LogLevel  string
	AdminPort int
	SyncURL   string

	Print    bool
	Cast     string
	Messages []string // spell messages set before casting
	Present  []string // names the demo world detects
	Serve    bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.Cast == "" && (len(cfg.Messages) > 0 || len(cfg.Present) > 0) {
		return nil, errors.New("-message and -present require -cast")
	}
	if cfg.AdminPort < 0 || cfg.AdminPort > 65535 {
		return nil, errors.New("admin port must be between 0 and 65535")
	}
	return &cfg, nil
}
