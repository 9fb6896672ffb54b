package csvsplit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	testCases := []struct {
		name     string
		line     string
		expected []string
	}{
		{
			name:     "escaped and bracketed commas stay joined",
			line:     `a,b\,c,(d,e)`,
			expected: []string{"a", "b,c", "(d,e)"},
		},
		{
			name:     "empty input yields one empty field",
			line:     "",
			expected: []string{""},
		},
		{
			name:     "trailing separator yields empty last field",
			line:     "a,",
			expected: []string{"a", ""},
		},
		{
			name:     "fields are trimmed",
			line:     "  Heal: 5 ,   Damage: 3  ",
			expected: []string{"Heal: 5", "Damage: 3"},
		},
		{
			name:     "nested mixed brackets",
			line:     "If[a, b](Heal: 5, Damage{x, y}: 3), Detect",
			expected: []string{"If[a, b](Heal: 5, Damage{x, y}: 3)", "Detect"},
		},
		{
			name:     "double quoted field is unwrapped",
			line:     `"a,b", c`,
			expected: []string{"a,b", "c"},
		},
		{
			name:     "doubled quotes collapse inside a quoted field",
			line:     `x, "say ""hi"""`,
			expected: []string{"x", `say "hi"`},
		},
		{
			name:     "escaped doubled quote is kept",
			line:     `"a\""b"`,
			expected: []string{`a\""b`},
		},
		{
			name:     "single quotes protect commas but are not stripped",
			line:     `'a,b',c`,
			expected: []string{"'a,b'", "c"},
		},
		{
			name:     "escape inside brackets keeps the backslash",
			line:     `Heal(a\,b),c`,
			expected: []string{`Heal(a\,b)`, "c"},
		},
		{
			name:     "unterminated bracket closes at end of line",
			line:     "Heal(a, b",
			expected: []string{"Heal(a, b"},
		},
		{
			name:     "unterminated quote closes at end of line",
			line:     `a, "b, c`,
			expected: []string{"a", `"b, c`},
		},
		{
			name:     "mismatched closer is literal",
			line:     "(a],b), c",
			expected: []string{"(a],b)", "c"},
		},
		{
			name:     "escaped bracket does not open",
			line:     `a\(,b`,
			expected: []string{"a(", "b"},
		},
		{
			name:     "dangling backslash is kept",
			line:     `a\`,
			expected: []string{`a\`},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Split(tc.line))
		})
	}
}

func TestQuote_RoundTrip(t *testing.T) {
	fields := []string{
		"plain",
		"",
		"a,b",
		`a,"b"`,
		`x"y,z`,
		" padded ",
		`a\,b`,
		"Heal(a, b): 5",
		`say "hi", friend`,
		")",
		"x: it's)",
		`a"b`,
		`x: "q)`,
		`a\`,
		`"a\b"`,
		"(]",
	}

	for _, field := range fields {
		t.Run(field, func(t *testing.T) {
			quoted := Quote(field)
			got := Split(quoted)
			require.Len(t, got, 1, "quoted field %q split into several fields", quoted)
			assert.Equal(t, field, got[0])
			assert.True(t, Balanced(quoted), "quoted field %q leaves a group open", quoted)
		})
	}
}

func TestQuote_LeavesSafeFieldsAlone(t *testing.T) {
	assert.Equal(t, "Heal(a, b): 5", Quote("Heal(a, b): 5"))
	assert.Equal(t, `"a,b"`, Quote("a,b"))
	assert.Equal(t, `")"`, Quote(")"))
	assert.Equal(t, `"it's"`, Quote("it's"))
}

func TestBalanced(t *testing.T) {
	testCases := []struct {
		in       string
		expected bool
	}{
		{in: "", expected: true},
		{in: "Heal(a, [b]): {c}", expected: true},
		{in: `Message: "it's (fine"`, expected: true},
		{in: `a\)`, expected: true},
		{in: ")", expected: false},
		{in: "(]", expected: false},
		{in: "it's", expected: false},
		{in: `"open`, expected: false},
		{in: `a\`, expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.expected, Balanced(tc.in))
		})
	}
}
