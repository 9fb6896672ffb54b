// Package conditional provides the If and IfNot definitions, which gate their
// nested invocations on the invocation's logical checks.
package conditional

import (
	"context"

	"github.com/vk/arcanebooks/internal/cast"
	"github.com/vk/arcanebooks/internal/ctxlog"
	"github.com/vk/arcanebooks/internal/definition"
)

// Module implements the definition.Module interface for this package.
type Module struct{}

// If runs the nested invocations when every logical check holds.
func If(ctx context.Context, p *cast.Phrase) error {
	if !p.Check() {
		ctxlog.FromContext(ctx).Debug("Condition not met, skipping nested invocations.", "checks", p.Invocation().LogicalChecks)
		return nil
	}
	return p.RunNested(ctx)
}

// IfNot runs the nested invocations when at least one logical check fails.
func IfNot(ctx context.Context, p *cast.Phrase) error {
	if p.Check() {
		ctxlog.FromContext(ctx).Debug("Condition met, skipping nested invocations.", "checks", p.Invocation().LogicalChecks)
		return nil
	}
	return p.RunNested(ctx)
}

// Register registers the definitions with the registry.
func (m *Module) Register(r *definition.Registry) {
	r.Register(&definition.Definition{
		Name:        "If",
		Description: "Runs the nested invocations when all logical checks hold.",
		Fn:          cast.Func(If),
	})
	r.Register(&definition.Definition{
		Name:        "IfNot",
		Description: "Runs the nested invocations when a logical check fails.",
		Fn:          cast.Func(IfNot),
	})
}
