package modifier

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/vk/arcanebooks/internal/csvsplit"
)

// span is a top-level bracket group; close is len(field) when unterminated.
type span struct {
	open, close int
}

// layout is the result of scanning one field.
type layout struct {
	nameEnd    int    // end of the name
	valueStart int    // first byte after the separating colon, -1 if none
	rounds     []span // top-level (...) groups
	squares    []span // top-level [...] groups
}

// Parse decomposes a single field into a modifier tree.
//
// The name is everything before the first top-level '(', '[' or ':'. Every
// top-level [...] group becomes a logical check. The contents of all
// top-level (...) groups are joined, re-split and parsed recursively as
// sub-modifiers. Everything after the first top-level colon is the value; a
// non-empty value is also appended as an implicit trailing PlainValue.
//
// When forceRef is set, or the name starts with an upper-case letter, the
// result is a PendingRef. A bare number becomes Numeric and anything else is
// Basic. Parse never fails.
func Parse(field string, forceRef bool) Modifier {
	field = strings.TrimSpace(field)
	l := scan(field)

	name := strings.TrimSpace(field[:l.nameEnd])
	var parts Parts

	for _, sq := range l.squares {
		parts.LogicalChecks = append(parts.LogicalChecks, strings.TrimSpace(field[sq.open+1:sq.close]))
	}

	if len(l.rounds) > 0 {
		contents := make([]string, 0, len(l.rounds))
		for _, r := range l.rounds {
			contents = append(contents, field[r.open+1:r.close])
		}
		if joined := strings.Join(contents, ","); strings.TrimSpace(joined) != "" {
			for _, f := range csvsplit.Split(joined) {
				if f == "" {
					continue
				}
				parts.SubModifiers = append(parts.SubModifiers, Parse(f, false))
			}
		}
	}

	if l.valueStart >= 0 {
		if v := strings.TrimSpace(field[l.valueStart:]); v != "" {
			parts.Value = &v
			parts.SubModifiers = append(parts.SubModifiers, PlainValue{Text: v})
		}
	}

	switch {
	case forceRef || startsUpper(name):
		return PendingRef{Name: name, Parts: parts}
	case len(l.rounds) == 0 && len(l.squares) == 0 && parts.Value == nil && looksNumeric(name):
		if f, err := strconv.ParseFloat(name, 64); err == nil {
			return Numeric{Value: f}
		}
	}

	return Basic{Name: name, Parts: parts}
}

// ParseBody parses the definitions of one effect: the text after the
// effect name. Every non-blank field is forced to a definition reference.
func ParseBody(body string) []Modifier {
	var out []Modifier
	for _, f := range csvsplit.Split(body) {
		if f == "" {
			continue
		}
		out = append(out, Parse(f, true))
	}
	return out
}

// SplitEntry splits one line of an effects file at its first top-level
// colon into the effect name and its body. It reports false when the line
// has no such colon or the name is empty.
func SplitEntry(line string) (name, body string, ok bool) {
	line = strings.TrimSpace(line)
	l := scan(line)
	if l.valueStart < 0 {
		return "", "", false
	}
	name = strings.TrimSpace(line[:l.valueStart-1])
	if name == "" {
		return "", "", false
	}
	return name, strings.TrimSpace(line[l.valueStart:]), true
}

// FormatBody renders modifiers as a canonical effect body.
func FormatBody(mods []Modifier) string {
	var sb strings.Builder
	writeFields(&sb, mods)
	return sb.String()
}

// writeFields writes mods separated by ", ", quoting fields that would not
// survive a split.
func writeFields(sb *strings.Builder, mods []Modifier) {
	for i, m := range mods {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(csvsplit.Quote(m.String()))
	}
}

// scan walks field once. Precedence, highest first: backslash escape, quote
// pairs, brackets, the unbracketed colon. Round and square brackets share a
// depth counter but are recorded separately.
func scan(field string) layout {
	l := layout{nameEnd: len(field), valueStart: -1}

	var (
		depth   int
		quote   byte
		escaped bool
		open    int
		kind    byte
	)

	closeSpan := func(end int) {
		s := span{open: open, close: end}
		if kind == '(' {
			l.rounds = append(l.rounds, s)
		} else {
			l.squares = append(l.squares, s)
		}
	}

scan:
	for i := 0; i < len(field); i++ {
		c := field[i]
		switch {
		case escaped:
			escaped = false
			continue
		case c == '\\':
			escaped = true
			continue
		case quote != 0:
			if c == quote {
				quote = 0
			}
			continue
		case c == '"' || c == '\'':
			quote = c
			continue
		}

		switch c {
		case '(', '[':
			if depth == 0 {
				open, kind = i, c
				if l.nameEnd == len(field) {
					l.nameEnd = i
				}
			}
			depth++
		case ')', ']':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				closeSpan(i)
			}
		case ':':
			if depth == 0 {
				if l.nameEnd == len(field) {
					l.nameEnd = i
				}
				l.valueStart = i + 1
				break scan
			}
		}
	}

	if depth > 0 {
		closeSpan(len(field))
	}

	return l
}

// startsUpper reports whether s begins with an upper-case letter.
func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r != utf8.RuneError && unicode.IsUpper(r)
}

// looksNumeric keeps words such as "nan" or "inf" out of the numeric branch.
func looksNumeric(s string) bool {
	if s == "" {
		return false
	}
	switch c := s[0]; {
	case c >= '0' && c <= '9', c == '-', c == '+', c == '.':
		return true
	}
	return false
}
