// Package potion provides the GivePotionEffect definition.
package potion

import (
	"context"
	"errors"
	"reflect"

	"github.com/vk/arcanebooks/internal/cast"
	"github.com/vk/arcanebooks/internal/definition"
)

// Module implements the definition.Module interface for this package.
type Module struct{}

// Input defines the arguments of GivePotionEffect.
type Input struct {
	Effect    string `spell:"value"`
	Duration  int    `spell:"duration"`
	Amplifier int    `spell:"amplifier"`
}

// GivePotionEffect applies a potion effect to the target.
func GivePotionEffect(ctx context.Context, p *cast.Phrase, input *Input) error {
	if input.Effect == "" {
		return errors.New("potion effect name is required")
	}
	return p.World().GivePotionEffect(ctx, input.Effect, input.Duration, input.Amplifier)
}

// Register registers the definition with the registry.
func (m *Module) Register(r *definition.Registry) {
	r.Register(&definition.Definition{
		Name:        "GivePotionEffect",
		Description: "Applies a potion effect to the target.",
		NewInput:    func() any { return new(Input) },
		InputType:   reflect.TypeOf(Input{}),
		Fn:          GivePotionEffect,
	})
}
