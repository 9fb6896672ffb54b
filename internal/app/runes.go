package app

import (
	"math/rand/v2"

	"github.com/vk/arcanebooks/internal/config"
	"github.com/vk/arcanebooks/internal/effects"
	"github.com/vk/arcanebooks/internal/runes"
)

// Rune defaults used for settings the configuration leaves at zero.
const (
	defaultRuneWidth    = 5
	defaultRuneHeight   = 5
	defaultRuneMinLines = 2
	defaultRuneMaxLines = 5
)

// newRuneRegistry builds a registry drawing random designs. A zero seed
// selects a random one.
func newRuneRegistry(cfg *config.Rune) *runes.Registry {
	c := config.Rune{}
	if cfg != nil {
		c = *cfg
	}
	width := orDefault(c.Width, defaultRuneWidth)
	height := orDefault(c.Height, defaultRuneHeight)
	lo := orDefault(c.MinLines, defaultRuneMinLines)
	hi := max(orDefault(c.MaxLines, defaultRuneMaxLines), lo)

	seed := c.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	gen := runes.RandomGenerator(runes.NewDomain(width, height), lo, hi)
	return runes.NewRegistry(gen, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), c.MaxAttempts)
}

// trackRunes keeps one rune per compiled effect.
func (a *App) trackRunes(ev effects.Event) {
	switch ev.Kind {
	case effects.EventAdded:
		for _, name := range ev.Names {
			d, err := a.runes.Assign(name)
			if err != nil {
				a.logger.Warn("Failed to assign rune.", "effect", name, "error", err)
				continue
			}
			a.logger.Debug("Rune assigned.", "effect", name, "rune", d.Key())
		}
	case effects.EventRemoved:
		for _, name := range ev.Names {
			a.runes.Release(name)
		}
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
