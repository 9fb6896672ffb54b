// Package message provides the Message definition, which sets a message
// directly. A name starting with '%' is set for the whole spell.
package message

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/vk/arcanebooks/internal/cast"
	"github.com/vk/arcanebooks/internal/definition"
)

// Module implements the definition.Module interface for this package.
type Module struct{}

// Input defines the arguments of Message.
type Input struct {
	Name   string `spell:"value"`
	Text   string `spell:"text"`
	Global bool   `spell:"global"`
}

// Message sets the named message.
func Message(ctx context.Context, p *cast.Phrase, input *Input) error {
	name, global := input.Name, input.Global
	if rest, ok := strings.CutPrefix(name, "%"); ok {
		name, global = rest, true
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("message name is required")
	}

	if global {
		p.SetGlobalMessage(name, input.Text)
	} else {
		p.SetMessage(name, input.Text)
	}
	return nil
}

// Register registers the definition with the registry.
func (m *Module) Register(r *definition.Registry) {
	r.Register(&definition.Definition{
		Name:        "Message",
		Description: "Sets a phrase message, or a spell message for names starting with '%'.",
		NewInput:    func() any { return new(Input) },
		InputType:   reflect.TypeOf(Input{}),
		Fn:          Message,
	})
}
