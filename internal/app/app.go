package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/arcanebooks/internal/cast"
	"github.com/vk/arcanebooks/internal/config"
	"github.com/vk/arcanebooks/internal/ctxlog"
	"github.com/vk/arcanebooks/internal/definition"
	"github.com/vk/arcanebooks/internal/effects"
	"github.com/vk/arcanebooks/internal/runes"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW        io.Writer
	logger      *slog.Logger
	config      *Config
	model       *config.Model
	definitions *definition.Registry
	effects     *effects.Registry
	runes       *runes.Registry
	effectsPath string
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own logger and registries. Errors in
// the configuration or a mismatch between manifests and Go definitions are
// startup failures and panic.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...definition.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	model, err := loadConfig(ctx, loader, appConfig.ConfigPaths)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	if (appConfig.LogLevel == "" && model.LogLevel != "") || (appConfig.LogFormat == "" && model.LogFormat != "") {
		logger = newLogger(firstNonEmpty(appConfig.LogLevel, model.LogLevel), firstNonEmpty(appConfig.LogFormat, model.LogFormat), outW)
		ctx = ctxlog.WithLogger(ctx, logger)
	}
	logger.Debug("Configuration loaded and translated into unified model.",
		"definitions", len(model.Definitions), "default_effects", len(model.Effects))

	defs := definition.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	defs.RegisterModules(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules))

	defs.ApplyManifests(ctx, model.Definitions)
	if err := defs.Validate(ctx); err != nil {
		panic(err)
	}
	if err := cast.CheckHandlers(defs); err != nil {
		panic(err)
	}
	logger.Debug("Definition validation passed.", "definitions", defs.Len())

	a := &App{
		outW:        outW,
		logger:      logger,
		config:      appConfig,
		model:       model,
		definitions: defs,
		effects:     effects.New(defs, logger),
		runes:       newRuneRegistry(model.Rune),
		effectsPath: firstNonEmpty(appConfig.EffectsPath, model.EffectsFile, DefaultEffectsFile),
	}
	a.effects.Subscribe(a.trackRunes)
	return a
}

// Definitions returns the definition registry. This is primarily for testing.
func (a *App) Definitions() *definition.Registry { return a.definitions }

// Effects returns the effect registry.
func (a *App) Effects() *effects.Registry { return a.effects }

// Runes returns the rune registry.
func (a *App) Runes() *runes.Registry { return a.runes }

// EffectsPath returns the resolved path of the effects file.
func (a *App) EffectsPath() string { return a.effectsPath }

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
