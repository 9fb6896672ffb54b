// Package terrain provides the BreakBlock definition.
package terrain

import (
	"context"
	"reflect"

	"github.com/vk/arcanebooks/internal/cast"
	"github.com/vk/arcanebooks/internal/definition"
)

// Module implements the definition.Module interface for this package.
type Module struct{}

// BreakBlockInput defines the arguments of BreakBlock.
type BreakBlockInput struct {
	Radius float64 `spell:"value"`
	Drop   bool    `spell:"drop"`
}

// BreakBlock breaks the blocks within Radius of the target.
func BreakBlock(ctx context.Context, p *cast.Phrase, input *BreakBlockInput) error {
	return p.World().BreakBlock(ctx, max(input.Radius, 0), input.Drop)
}

// Register registers the definition with the registry.
func (m *Module) Register(r *definition.Registry) {
	r.Register(&definition.Definition{
		Name:        "BreakBlock",
		Description: "Breaks blocks around the target.",
		NewInput:    func() any { return new(BreakBlockInput) },
		InputType:   reflect.TypeOf(BreakBlockInput{}),
		Fn:          BreakBlock,
	})
}
