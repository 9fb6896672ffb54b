// Package sense provides the Detect definition. A successful detection sets
// a message that later logical checks can test.
package sense

import (
	"context"
	"errors"
	"reflect"

	"github.com/vk/arcanebooks/internal/cast"
	"github.com/vk/arcanebooks/internal/ctxlog"
	"github.com/vk/arcanebooks/internal/definition"
)

// DefaultMessage is set when Input.Message is empty.
const DefaultMessage = "DETECTED"

// Module implements the definition.Module interface for this package.
type Module struct{}

// Input defines the arguments of Detect.
type Input struct {
	What    string  `spell:"value"`
	Range   float64 `spell:"range"`
	Message string  `spell:"message"`
	Global  bool    `spell:"global"`
}

// Detect asks the world for What within Range and, on success, sets Message
// in the phrase or, with Global, in the whole spell.
func Detect(ctx context.Context, p *cast.Phrase, input *Input) error {
	if input.What == "" {
		return errors.New("detect needs something to look for")
	}
	found, err := p.World().Detect(ctx, input.What, input.Range)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	msg := input.Message
	if msg == "" {
		msg = DefaultMessage
	}
	ctxlog.FromContext(ctx).Debug("Detection succeeded.", "what", input.What, "message", msg, "global", input.Global)
	if input.Global {
		p.SetGlobalMessage(msg, input.What)
	} else {
		p.SetMessage(msg, input.What)
	}
	return nil
}

// Register registers the definition with the registry.
func (m *Module) Register(r *definition.Registry) {
	r.Register(&definition.Definition{
		Name:        "Detect",
		Description: "Looks for something near the target and sets a message when found.",
		NewInput:    func() any { return new(Input) },
		InputType:   reflect.TypeOf(Input{}),
		Fn:          Detect,
	})
}
