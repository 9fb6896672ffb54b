// Package vitals provides the Heal and Damage definitions.
package vitals

import (
	"context"
	"fmt"
	"reflect"

	"github.com/vk/arcanebooks/internal/cast"
	"github.com/vk/arcanebooks/internal/definition"
)

// Module implements the definition.Module interface for this package.
type Module struct{}

// HealInput defines the arguments of Heal.
type HealInput struct {
	Amount float64 `spell:"value"`
}

// DamageInput defines the arguments of Damage.
type DamageInput struct {
	Amount float64 `spell:"value"`
	Fire   bool    `spell:"fire"`
}

// Heal restores Amount health.
func Heal(ctx context.Context, p *cast.Phrase, input *HealInput) error {
	if input.Amount < 0 {
		return fmt.Errorf("heal amount must not be negative, got %g", input.Amount)
	}
	return p.World().Heal(ctx, input.Amount)
}

// Damage deals Amount damage, optionally as fire.
func Damage(ctx context.Context, p *cast.Phrase, input *DamageInput) error {
	if input.Amount < 0 {
		return fmt.Errorf("damage amount must not be negative, got %g", input.Amount)
	}
	return p.World().Damage(ctx, input.Amount, input.Fire)
}

// Register registers the definitions with the registry.
func (m *Module) Register(r *definition.Registry) {
	r.Register(&definition.Definition{
		Name:        "Heal",
		Description: "Restores health.",
		NewInput:    func() any { return new(HealInput) },
		InputType:   reflect.TypeOf(HealInput{}),
		Fn:          Heal,
	})
	r.Register(&definition.Definition{
		Name:        "Damage",
		Description: "Deals damage.",
		NewInput:    func() any { return new(DamageInput) },
		InputType:   reflect.TypeOf(DamageInput{}),
		Fn:          Damage,
	})
}
