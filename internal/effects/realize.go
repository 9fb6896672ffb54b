package effects

import (
	"slices"

	"github.com/vk/arcanebooks/internal/modifier"
)

// realizeAll binds every top-level reference of an effect body. It fails
// as a whole when any reference at any depth does not resolve; the input
// tree is never modified.
func realizeAll(defs Resolver, mods []modifier.Modifier) ([]modifier.Invocation, bool) {
	invs := make([]modifier.Invocation, 0, len(mods))
	for _, m := range mods {
		realized, ok := realize(defs, m)
		if !ok {
			return nil, false
		}
		inv, ok := realized.(modifier.Invocation)
		if !ok {
			return nil, false
		}
		invs = append(invs, inv)
	}
	return invs, true
}

func realize(defs Resolver, m modifier.Modifier) (modifier.Modifier, bool) {
	switch v := m.(type) {
	case modifier.PendingRef:
		if defs == nil {
			return nil, false
		}
		h, found := defs.Resolve(v.Name)
		if !found {
			return nil, false
		}
		parts, ok := realizeParts(defs, v.Parts)
		if !ok {
			return nil, false
		}
		return modifier.Invocation{Definition: h, Parts: parts}, true

	case modifier.Basic:
		parts, ok := realizeParts(defs, v.Parts)
		if !ok {
			return nil, false
		}
		return modifier.Basic{Name: v.Name, Parts: parts}, true

	default:
		// Leaves and existing invocations are already final.
		return m, true
	}
}

func realizeParts(defs Resolver, p modifier.Parts) (modifier.Parts, bool) {
	out := modifier.Parts{
		Value:         p.Value,
		LogicalChecks: slices.Clone(p.LogicalChecks),
	}
	if len(p.SubModifiers) == 0 {
		return out, true
	}

	out.SubModifiers = make([]modifier.Modifier, len(p.SubModifiers))
	for i, sub := range p.SubModifiers {
		realized, ok := realize(defs, sub)
		if !ok {
			return modifier.Parts{}, false
		}
		out.SubModifiers[i] = realized
	}
	return out, true
}

// missingNames returns the sorted, de-duplicated reference names in mods
// that do not resolve.
func missingNames(defs Resolver, mods []modifier.Modifier) []string {
	var missing []string
	for _, m := range mods {
		modifier.Walk(m, func(n modifier.Modifier) bool {
			ref, ok := n.(modifier.PendingRef)
			if !ok {
				return true
			}
			if defs == nil {
				missing = append(missing, ref.Name)
				return true
			}
			if _, found := defs.Resolve(ref.Name); !found {
				missing = append(missing, ref.Name)
			}
			return true
		})
	}
	slices.Sort(missing)
	return slices.Compact(missing)
}

// checks returns every logical check in mods, depth first.
func checks(mods []modifier.Modifier) []string {
	var out []string
	for _, m := range mods {
		modifier.Walk(m, func(n modifier.Modifier) bool {
			if c, ok := n.(modifier.Composite); ok {
				out = append(out, c.Components().LogicalChecks...)
			}
			return true
		})
	}
	return out
}
