// Package cast runs compiled effects against a World.
//
// Each top-level invocation of an effect is a phrase. A phrase owns a fresh
// bag of phrase-local messages and shares the spell-wide bag with every
// other phrase of the same cast. Definitions receive the phrase and decide
// for themselves whether to consult its logical checks or run its nested
// invocations.
package cast

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/vk/arcanebooks/internal/condition"
	"github.com/vk/arcanebooks/internal/ctxlog"
	"github.com/vk/arcanebooks/internal/definition"
	"github.com/vk/arcanebooks/internal/effects"
	"github.com/vk/arcanebooks/internal/modifier"
)

// Func is the handler signature of a definition that takes no input.
// Definitions with an input use func(ctx, *Phrase, *Input) error.
type Func func(ctx context.Context, p *Phrase) error

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	phraseType  = reflect.TypeOf((*Phrase)(nil))
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Cast runs every invocation of e in order and stops at the first error.
// A nil spell bag is replaced by an empty one.
func Cast(ctx context.Context, e effects.Effect, world World, spell *condition.Messages) error {
	if spell == nil {
		spell = condition.NewMessages()
	}
	logger := ctxlog.FromContext(ctx).With("effect", e.Name)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Casting effect.", "phrases", len(e.Invocations))

	for i, inv := range e.Invocations {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := &Phrase{
			effect: e.Name,
			local:  condition.NewMessages(),
			spell:  spell,
			world:  world,
		}
		if err := p.invoke(ctx, inv); err != nil {
			return fmt.Errorf("effect '%s' phrase %d: %w", e.Name, i, err)
		}
	}
	return nil
}

// Phrase is the runtime view a handler gets of its invocation.
type Phrase struct {
	effect string
	inv    modifier.Invocation
	input  any
	local  *condition.Messages
	spell  *condition.Messages
	world  World
}

// Effect returns the name of the effect being cast.
func (p *Phrase) Effect() string { return p.effect }

// Name returns the name of the invoked definition.
func (p *Phrase) Name() string { return p.inv.Name() }

// Invocation returns the invocation being run.
func (p *Phrase) Invocation() modifier.Invocation { return p.inv }

// Input returns the decoded input, or nil.
func (p *Phrase) Input() any { return p.input }

// World returns the world the cast acts on.
func (p *Phrase) World() World { return p.world }

// Messages returns the phrase and spell bags as a condition scope.
func (p *Phrase) Messages() condition.Scoped {
	return condition.Scoped{Phrase: p.local, Spell: p.spell}
}

// Check reports whether every logical check of the invocation holds. An
// invocation without checks passes.
func (p *Phrase) Check() bool {
	scope := p.Messages()
	for _, expr := range p.inv.LogicalChecks {
		if !scope.Evaluate(expr) {
			return false
		}
	}
	return true
}

// SetMessage sets a phrase-local message.
func (p *Phrase) SetMessage(name, value string) { p.local.Set(name, value) }

// SetGlobalMessage sets a message visible to every phrase of the cast.
func (p *Phrase) SetGlobalMessage(name, value string) { p.spell.Set(name, value) }

// RunNested runs the nested invocations of the phrase in order. They share
// the phrase's message bags.
func (p *Phrase) RunNested(ctx context.Context) error {
	for _, m := range p.inv.Arguments() {
		inv, ok := m.(modifier.Invocation)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		child := &Phrase{effect: p.effect, local: p.local, spell: p.spell, world: p.world}
		if err := child.invoke(ctx, inv); err != nil {
			return err
		}
	}
	return nil
}

// invoke decodes the input of inv and calls its handler.
func (p *Phrase) invoke(ctx context.Context, inv modifier.Invocation) error {
	def, ok := inv.Definition.(*definition.Definition)
	if !ok || def == nil {
		return fmt.Errorf("invocation '%s' is not bound to a definition", inv.Name())
	}
	p.inv = inv

	input, err := definition.DecodeInput(ctx, def, inv.Parts)
	if err != nil {
		return err
	}
	p.input = input

	if err := checkHandler(def); err != nil {
		return err
	}
	fn := reflect.ValueOf(def.Fn)

	ctxlog.FromContext(ctx).Debug("Invoking definition.", "definition", def.Name)
	args := []reflect.Value{reflect.ValueOf(ctx), reflect.ValueOf(p)}
	if fn.Type().NumIn() == 3 {
		if input == nil {
			args = append(args, reflect.Zero(fn.Type().In(2)))
		} else {
			args = append(args, reflect.ValueOf(input))
		}
	}

	results := fn.Call(args)
	if errResult := results[0].Interface(); errResult != nil {
		return fmt.Errorf("definition '%s': %w", def.Name, errResult.(error))
	}
	return nil
}

// checkHandler verifies that def.Fn has one of the handler signatures.
func checkHandler(def *definition.Definition) error {
	if def.Fn == nil {
		return fmt.Errorf("definition '%s' has no handler", def.Name)
	}
	t := reflect.TypeOf(def.Fn)
	if t.Kind() != reflect.Func {
		return fmt.Errorf("definition '%s': handler is %s, not a function", def.Name, t)
	}
	if t.NumOut() != 1 || t.Out(0) != errorType {
		return fmt.Errorf("definition '%s': handler must return exactly one error", def.Name)
	}
	if t.NumIn() < 2 || t.NumIn() > 3 || t.In(0) != contextType || t.In(1) != phraseType {
		return fmt.Errorf("definition '%s': handler must take (context.Context, *cast.Phrase[, *Input])", def.Name)
	}
	if t.NumIn() == 3 {
		if def.InputType == nil {
			return fmt.Errorf("definition '%s': handler takes an input but the definition declares none", def.Name)
		}
		if t.In(2) != reflect.PointerTo(def.InputType) {
			return fmt.Errorf("definition '%s': handler input is %s, definition input is *%s", def.Name, t.In(2), def.InputType)
		}
	}
	return nil
}

// CheckHandlers verifies the handler signature of every registered
// definition.
func CheckHandlers(defs *definition.Registry) error {
	var errs []error
	for _, name := range defs.Names() {
		def, _ := defs.Get(name)
		if err := checkHandler(def); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
