package cast

import (
	"context"
	"log/slog"

	"github.com/vk/arcanebooks/internal/ctxlog"
)

// World is the host the built-in definitions act on.
type World interface {
	Heal(ctx context.Context, amount float64) error
	Damage(ctx context.Context, amount float64, fire bool) error
	BreakBlock(ctx context.Context, radius float64, drop bool) error
	GivePotionEffect(ctx context.Context, effect string, duration, amplifier int) error
	// Detect reports whether something matching what is within reach.
	Detect(ctx context.Context, what string, reach float64) (bool, error)
}

// LogWorld is a World that only logs what would happen. Detect succeeds
// for the names in Present.
type LogWorld struct {
	Present map[string]bool
}

func (w *LogWorld) logger(ctx context.Context) *slog.Logger {
	return ctxlog.FromContext(ctx).With("world", "log")
}

func (w *LogWorld) Heal(ctx context.Context, amount float64) error {
	w.logger(ctx).Info("Heal.", "amount", amount)
	return nil
}

func (w *LogWorld) Damage(ctx context.Context, amount float64, fire bool) error {
	w.logger(ctx).Info("Damage.", "amount", amount, "fire", fire)
	return nil
}

func (w *LogWorld) BreakBlock(ctx context.Context, radius float64, drop bool) error {
	w.logger(ctx).Info("Break block.", "radius", radius, "drop", drop)
	return nil
}

func (w *LogWorld) GivePotionEffect(ctx context.Context, effect string, duration, amplifier int) error {
	w.logger(ctx).Info("Potion effect.", "effect", effect, "duration", duration, "amplifier", amplifier)
	return nil
}

func (w *LogWorld) Detect(ctx context.Context, what string, reach float64) (bool, error) {
	found := w.Present[what]
	w.logger(ctx).Info("Detect.", "what", what, "reach", reach, "found", found)
	return found, nil
}
