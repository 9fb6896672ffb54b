// Package modifier parses single fields of spell-effect text into modifier
// trees and renders them back to canonical text.
package modifier

import (
	"strconv"
	"strings"
)

// Kind enumerates the closed set of modifier variants.
type Kind int

// Modifier kinds.
const (
	KindNumeric      Kind = iota // Bare number
	KindPlain                    // Implicit trailing value
	KindBasic                    // Lower-case argument or property
	KindLogicalCheck             // Content of a [...] group
	KindPendingRef               // Definition reference not yet resolved
	KindInvocation               // Definition reference bound to a handler
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindPlain:
		return "plain"
	case KindBasic:
		return "basic"
	case KindLogicalCheck:
		return "logical_check"
	case KindPendingRef:
		return "pending_ref"
	case KindInvocation:
		return "invocation"
	default:
		return "unknown"
	}
}

// Modifier is a node of a parsed spell-effect tree. The set of
// implementations is closed; switch on the concrete type or on Kind.
type Modifier interface {
	// Kind reports the variant.
	Kind() Kind
	// String renders the canonical text that Parse reads back as an equal tree.
	String() string

	modifier()
}

// Handle identifies a registered definition that an Invocation is bound to.
type Handle interface {
	DefinitionName() string
}

// Parts holds the children shared by Basic, PendingRef and Invocation.
//
// When Value is set, SubModifiers ends with the implicit PlainValue carrying
// the same text.
type Parts struct {
	Value         *string    // Text after the first top-level colon
	LogicalChecks []string   // Contents of top-level [...] groups, in order
	SubModifiers  []Modifier // Parsed (...) arguments, then the implicit value
}

// Components returns the parts themselves. It lets callers reach the
// children of any composite modifier through one interface.
func (p Parts) Components() Parts { return p }

// ValueText returns the value suffix and whether one was present.
func (p Parts) ValueText() (string, bool) {
	if p.Value == nil {
		return "", false
	}
	return *p.Value, true
}

// Arguments returns the sub-modifiers without the implicit trailing value.
func (p Parts) Arguments() []Modifier {
	n := len(p.SubModifiers)
	if p.Value != nil && n > 0 {
		if _, ok := p.SubModifiers[n-1].(PlainValue); ok {
			return p.SubModifiers[:n-1]
		}
	}
	return p.SubModifiers
}

// Checks returns the logical checks as LogicalCheck nodes.
func (p Parts) Checks() []LogicalCheck {
	out := make([]LogicalCheck, len(p.LogicalChecks))
	for i, c := range p.LogicalChecks {
		out[i] = LogicalCheck{Name: c}
	}
	return out
}

// Composite is implemented by the variants that carry Parts.
type Composite interface {
	Modifier
	Components() Parts
}

// Numeric is a bare number.
type Numeric struct {
	Value float64
}

// PlainValue is the implicit last sub-modifier produced by a ": value" suffix.
type PlainValue struct {
	Text string
}

// Basic is a lower-case led modifier: a standard argument or property.
type Basic struct {
	Name string
	Parts
}

// LogicalCheck is the text of a [...] group. It is only ever used as a
// condition atom.
type LogicalCheck struct {
	Name string
}

// PendingRef is an upper-case led modifier that must resolve against the
// definition registry before it can run.
type PendingRef struct {
	Name string
	Parts
}

// Invocation is a PendingRef whose name matched a registered definition.
type Invocation struct {
	Definition Handle
	Parts
}

// Name returns the name of the bound definition.
func (i Invocation) Name() string {
	if i.Definition == nil {
		return ""
	}
	return i.Definition.DefinitionName()
}

func (Numeric) Kind() Kind      { return KindNumeric }
func (PlainValue) Kind() Kind   { return KindPlain }
func (Basic) Kind() Kind        { return KindBasic }
func (LogicalCheck) Kind() Kind { return KindLogicalCheck }
func (PendingRef) Kind() Kind   { return KindPendingRef }
func (Invocation) Kind() Kind   { return KindInvocation }

func (Numeric) modifier()      {}
func (PlainValue) modifier()   {}
func (Basic) modifier()        {}
func (LogicalCheck) modifier() {}
func (PendingRef) modifier()   {}
func (Invocation) modifier()   {}

func (n Numeric) String() string      { return strconv.FormatFloat(n.Value, 'g', -1, 64) }
func (p PlainValue) String() string   { return p.Text }
func (b Basic) String() string        { return format(b.Name, b.Parts) }
func (c LogicalCheck) String() string { return c.Name }
func (r PendingRef) String() string   { return format(r.Name, r.Parts) }
func (i Invocation) String() string   { return format(i.Name(), i.Parts) }

// NameOf returns the identifying text of any modifier: the name of named
// variants, the canonical number, or the plain text.
func NameOf(m Modifier) string {
	switch v := m.(type) {
	case Basic:
		return v.Name
	case PendingRef:
		return v.Name
	case Invocation:
		return v.Name()
	case LogicalCheck:
		return v.Name
	case nil:
		return ""
	default:
		return m.String()
	}
}

// Walk visits m and its sub-modifiers depth first. Returning false from fn
// skips the children of the visited node.
func Walk(m Modifier, fn func(Modifier) bool) {
	if m == nil || !fn(m) {
		return
	}

	c, ok := m.(Composite)
	if !ok {
		return
	}
	for _, sub := range c.Components().SubModifiers {
		Walk(sub, fn)
	}
}

// format renders a composite modifier canonically.
func format(name string, p Parts) string {
	var sb strings.Builder
	sb.WriteString(name)
	for _, c := range p.LogicalChecks {
		sb.WriteByte('[')
		sb.WriteString(c)
		sb.WriteByte(']')
	}

	if args := p.Arguments(); len(args) > 0 {
		sb.WriteByte('(')
		writeFields(&sb, args)
		sb.WriteByte(')')
	}

	if v, ok := p.ValueText(); ok {
		sb.WriteString(": ")
		sb.WriteString(v)
	}

	return sb.String()
}
