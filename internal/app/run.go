package app

import (
	"context"
	"fmt"

	"github.com/vk/arcanebooks/internal/cast"
	"github.com/vk/arcanebooks/internal/condition"
	"github.com/vk/arcanebooks/internal/ctxlog"
	"github.com/vk/arcanebooks/internal/effectfile"
	"github.com/vk/arcanebooks/internal/effects"
)

// Run loads the effects file and then performs the requested actions:
// printing, casting, and serving until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if err := a.LoadEffects(ctx); err != nil {
		return err
	}

	if a.config.Print {
		fmt.Fprint(a.outW, a.effects.Serialize())
	}

	if a.config.Cast != "" {
		if err := a.Cast(ctx, a.config.Cast, a.config.Messages, a.config.Present); err != nil {
			return err
		}
	}

	if a.config.Serve {
		if err := a.Serve(ctx); err != nil {
			return err
		}
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// LoadEffects reads the effects file, creating it from the configured
// defaults when it does not exist, and logs a summary.
func (a *App) LoadEffects(ctx context.Context) error {
	report, err := effectfile.LoadOrCreate(ctx, a.effectsPath, a.effects, a.model.Effects)
	if err != nil {
		return fmt.Errorf("failed to load effects: %w", err)
	}
	for _, issue := range report.Skipped {
		a.logger.Warn("Skipped effect line.", "file", a.effectsPath, "issue", issue.String())
	}

	a.effects.UpdateBacklog()
	compiled, backlogged := a.effects.Len()
	a.logger.Info("📖 Effects loaded.",
		"file", a.effectsPath,
		"compiled", compiled,
		"backlogged", backlogged,
		"definitions", a.definitions.Len(),
		"runes", len(a.runes.Identities()),
	)
	for name, missing := range a.effects.Missing() {
		a.logger.Warn("Effect waits for definitions.", "effect", name, "missing", missing)
	}
	return nil
}

// Cast runs the compiled effect name against a logging world. messages are
// set on the spell before the first phrase; present lists what the world
// detects.
func (a *App) Cast(ctx context.Context, name string, messages, present []string) error {
	e, ok := a.effects.Get(name)
	if !ok {
		if a.effects.Status(name) == effects.StatusBacklogged {
			return fmt.Errorf("effect '%s' is waiting for definitions %v", name, a.effects.Missing()[name])
		}
		return fmt.Errorf("effect '%s' not found", name)
	}

	world := &cast.LogWorld{Present: make(map[string]bool, len(present))}
	for _, p := range present {
		world.Present[p] = true
	}
	spell := condition.NewMessages(messages...)

	a.logger.Info("✨ Casting effect.", "effect", name, "body", e.Body())
	if err := cast.Cast(ctx, e, world, spell); err != nil {
		return fmt.Errorf("cast failed: %w", err)
	}
	a.logger.Info("🏁 Cast finished.", "effect", name, "spell_messages", spell.Names())
	return nil
}
