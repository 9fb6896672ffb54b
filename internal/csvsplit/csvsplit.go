// Package csvsplit splits delimited spell-effect text into fields while
// respecting bracket nesting, quote pairs and backslash escapes.
//
// The splitter never fails. Unterminated brackets or quotes close implicitly
// at the end of the line, so malformed input still yields a best-effort list
// of fields.
package csvsplit

import "strings"

// Separator is the field separator recognised by Split.
const Separator = ','

// Split splits line on top-level commas.
//
// A comma terminates a field only when no bracket ((), [], {}) or quote
// ('...', "...") is open. A backslash escapes the next character. At the top
// level the backslash is dropped and the character is kept literally; inside
// an open bracket or quote both are kept so that a nested re-split still sees
// the escape. Escaped characters never open or close anything.
//
// Each field is trimmed. A field wrapped in double quotes is unwrapped and
// its doubled quotes ("") collapse to a single quote unless the pair is
// itself escaped by an odd run of backslashes.
func Split(line string) []string {
	var (
		fields  []string
		buf     strings.Builder
		closers []rune // expected closing characters, innermost last
		escaped bool
	)

	for _, r := range line {
		if escaped {
			escaped = false
			buf.WriteRune(r)
			continue
		}

		if r == '\\' {
			escaped = true
			if len(closers) > 0 {
				buf.WriteRune(r)
			}
			continue
		}

		if n := len(closers); n > 0 {
			top := closers[n-1]
			if r == top {
				closers = closers[:n-1]
				buf.WriteRune(r)
				continue
			}
			// Nothing opens inside a quote.
			if top == '"' || top == '\'' {
				buf.WriteRune(r)
				continue
			}
		}

		switch r {
		case '(':
			closers = append(closers, ')')
		case '[':
			closers = append(closers, ']')
		case '{':
			closers = append(closers, '}')
		case '"', '\'':
			closers = append(closers, r)
		case Separator:
			if len(closers) == 0 {
				fields = append(fields, finish(buf.String()))
				buf.Reset()
				continue
			}
		}
		buf.WriteRune(r)
	}

	// A dangling backslash has nothing to escape.
	if escaped && len(closers) == 0 {
		buf.WriteRune('\\')
	}

	return append(fields, finish(buf.String()))
}

// Quote returns field in a form that Split reads back as exactly field and
// that leaves no bracket or quote open, so it can be embedded inside another
// group. Safe fields are returned as they are. Otherwise the field is wrapped
// in double quotes with inner quotes doubled, or, when that does not read
// back, every special character is escaped with a backslash.
func Quote(field string) string {
	candidates := []string{
		field,
		`"` + strings.ReplaceAll(field, `"`, `""`) + `"`,
		escape(field),
	}
	for _, c := range candidates {
		if parts := Split(c); len(parts) == 1 && parts[0] == field && Balanced(c) {
			return c
		}
	}

	return candidates[len(candidates)-1]
}

// Balanced reports whether s closes every bracket and quote it opens, in
// order, with no stray closer and no dangling backslash.
func Balanced(s string) bool {
	var (
		closers []rune
		escaped bool
	)
	for _, r := range s {
		if escaped {
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}

		if n := len(closers); n > 0 {
			top := closers[n-1]
			if r == top {
				closers = closers[:n-1]
				continue
			}
			if top == '"' || top == '\'' {
				continue
			}
		}

		switch r {
		case '(':
			closers = append(closers, ')')
		case '[':
			closers = append(closers, ']')
		case '{':
			closers = append(closers, '}')
		case '"', '\'':
			closers = append(closers, r)
		case ')', ']', '}':
			return false
		}
	}

	return !escaped && len(closers) == 0
}

// escape prefixes every character Split treats specially with a backslash.
func escape(field string) string {
	var b strings.Builder
	b.Grow(len(field) * 2)
	for _, r := range field {
		if strings.ContainsRune(`\()[]{}'",`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}

	return b.String()
}

// finish applies the per-field post-processing.
func finish(field string) string {
	field = strings.TrimSpace(field)
	if len(field) < 2 || field[0] != '"' || field[len(field)-1] != '"' {
		return field
	}

	return collapseQuotes(field[1 : len(field)-1])
}

// collapseQuotes turns "" into " unless the first quote of the pair is
// preceded by an odd number of backslashes.
func collapseQuotes(s string) string {
	if !strings.Contains(s, `""`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	backslashes := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' && i+1 < len(s) && s[i+1] == '"' && backslashes%2 == 0 {
			b.WriteByte('"')
			i++
			backslashes = 0
			continue
		}

		if c == '\\' {
			backslashes++
		} else {
			backslashes = 0
		}
		b.WriteByte(c)
	}

	return b.String()
}
