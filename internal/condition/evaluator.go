// Package condition evaluates the logical-check mini-language used by
// conditional definitions such as If[a && (b || !%c)].
//
// Grammar, lowest precedence first:
//
//	Or   := And ('||' And)*
//	And  := Not ('&&' Not)*
//	Not  := '!' Not | Atom
//	Atom := '(' Or ')' | ['%'] Identifier
//
// Both binary operators are left-associative. Identifiers are upper-cased
// before lookup; a '%' prefix selects the spell-wide scope.
package condition

import (
	"errors"
	"fmt"
	"strings"
)

// Scope selects which message set an identifier is looked up in.
type Scope int

const (
	// Local is the message set of the current phrase.
	Local Scope = iota
	// Global is the message set of the whole spell cast ('%' prefix).
	Global
)

func (s Scope) String() string {
	if s == Global {
		return "global"
	}
	return "local"
}

// Lookup reports whether the message name is present in scope. Names are
// already upper-cased.
type Lookup func(name string, scope Scope) bool

// ErrMalformed is returned by Validate for structurally broken expressions.
var ErrMalformed = errors.New("malformed condition")

// Evaluate parses and evaluates expr against lookup. It never fails:
// a missing operand evaluates to false, an unmatched ')' is ignored, an
// unclosed '(' closes at the end of the expression and trailing tokens after
// a complete expression are ignored.
func Evaluate(expr string, lookup Lookup) bool {
	p := newParser(expr)
	n := p.parseOr()
	if lookup == nil {
		lookup = func(string, Scope) bool { return false }
	}
	return n.eval(lookup)
}

// Validate reports the first structural problem in expr, wrapping
// ErrMalformed. A nil result means Evaluate will not need any of its
// recovery rules.
func Validate(expr string) error {
	p := newParser(expr)
	p.parseOr()
	if p.err == nil && p.peek().kind != tokEOF {
		p.fail(p.peek(), "unexpected %s after expression", p.peek())
	}
	if p.err == nil && p.stray >= 0 {
		p.err = fmt.Errorf("%w: unmatched ')' at offset %d", ErrMalformed, p.stray)
	}
	return p.err
}

// --- AST ---

type node interface {
	eval(Lookup) bool
}

type (
	constNode bool
	atomNode  struct {
		name  string
		scope Scope
	}
	notNode struct{ x node }
	andNode struct{ l, r node }
	orNode  struct{ l, r node }
)

func (c constNode) eval(Lookup) bool     { return bool(c) }
func (a atomNode) eval(look Lookup) bool { return look(a.name, a.scope) }
func (n notNode) eval(look Lookup) bool  { return !n.x.eval(look) }
func (n andNode) eval(look Lookup) bool  { return n.l.eval(look) && n.r.eval(look) }
func (n orNode) eval(look Lookup) bool   { return n.l.eval(look) || n.r.eval(look) }

// --- Tokens ---

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokNot
	tokAnd
	tokOr
	tokLParen
	tokRParen
)

type token struct {
	kind   tokKind
	text   string
	global bool
	pos    int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of expression"
	case tokIdent:
		return fmt.Sprintf("identifier %q", t.text)
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

// tokenize splits expr into tokens. A single '&' or '|' is read as the
// doubled operator. Unmatched ')' tokens are dropped; the offset of the
// first one is returned, or -1.
func tokenize(expr string) ([]token, int) {
	var (
		toks  []token
		depth int
		stray = -1
	)

	isDelim := func(c byte) bool {
		switch c {
		case ' ', '\t', '\n', '\r', '!', '&', '|', '(', ')':
			return true
		}
		return false
	}

	for i := 0; i < len(expr); {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '!':
			toks = append(toks, token{kind: tokNot, text: "!", pos: i})
			i++
		case c == '&' || c == '|':
			kind, text := tokAnd, "&&"
			if c == '|' {
				kind, text = tokOr, "||"
			}
			toks = append(toks, token{kind: kind, text: text, pos: i})
			i++
			if i < len(expr) && expr[i] == c {
				i++
			}
		case c == '(':
			depth++
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			if depth == 0 {
				if stray < 0 {
					stray = i
				}
				i++
				continue
			}
			depth--
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		default:
			start := i
			global := false
			if c == '%' {
				global = true
				i++
			}
			for i < len(expr) && !isDelim(expr[i]) {
				i++
			}
			name := strings.ToUpper(expr[start:i])
			if global {
				name = name[1:]
			}
			toks = append(toks, token{kind: tokIdent, text: name, global: global, pos: start})
		}
	}

	return append(toks, token{kind: tokEOF, pos: len(expr)}), stray
}

// --- Parser ---

type parser struct {
	toks  []token
	pos   int
	stray int
	err   error
}

func newParser(expr string) *parser {
	toks, stray := tokenize(expr)
	return &parser{toks: toks, stray: stray}
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// fail records the first problem only.
func (p *parser) fail(t token, format string, args ...any) {
	if p.err != nil {
		return
	}
	p.err = fmt.Errorf("%w: %s at offset %d", ErrMalformed, fmt.Sprintf(format, args...), t.pos)
}

func (p *parser) parseOr() node {
	left := p.parseAnd()
	for p.peek().kind == tokOr {
		p.next()
		left = orNode{l: left, r: p.parseAnd()}
	}
	return left
}

func (p *parser) parseAnd() node {
	left := p.parseNot()
	for p.peek().kind == tokAnd {
		p.next()
		left = andNode{l: left, r: p.parseNot()}
	}
	return left
}

func (p *parser) parseNot() node {
	if p.peek().kind == tokNot {
		p.next()
		return notNode{x: p.parseNot()}
	}
	return p.parseAtom()
}

func (p *parser) parseAtom() node {
	t := p.peek()
	switch t.kind {
	case tokLParen:
		p.next()
		inner := p.parseOr()
		if p.peek().kind == tokRParen {
			p.next()
		} else {
			p.fail(p.peek(), "missing ')' for '(' opened at offset %d", t.pos)
		}
		return inner
	case tokIdent:
		p.next()
		if t.text == "" {
			p.fail(t, "empty message name after '%%'")
			return constNode(false)
		}
		scope := Local
		if t.global {
			scope = Global
		}
		return atomNode{name: t.text, scope: scope}
	default:
		// Missing operand; the token is left for the caller.
		p.fail(t, "expected operand, found %s", t)
		return constNode(false)
	}
}
