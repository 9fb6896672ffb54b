package runes

import (
	"cmp"
	"hash/fnv"
	"slices"
	"strconv"
	"strings"
)

// Design is an immutable, canonically ordered set of strokes.
type Design struct {
	strokes []Stroke
	key     string
}

func compareStrokes(a, b Stroke) int {
	return cmp.Or(
		cmp.Compare(a.Flavour, b.Flavour),
		cmp.Compare(a.Line.Start.X, b.Line.Start.X),
		cmp.Compare(a.Line.Start.Y, b.Line.Start.Y),
		cmp.Compare(a.Line.End.X, b.Line.End.X),
		cmp.Compare(a.Line.End.Y, b.Line.End.Y),
	)
}

func newDesign(strokes []Stroke) Design {
	s := slices.Clone(strokes)
	slices.SortFunc(s, compareStrokes)
	s = slices.Compact(s)

	var sb strings.Builder
	for i, st := range s {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(strconv.Itoa(int(st.Flavour)))
		sb.WriteByte(':')
		sb.WriteString(st.Line.String())
	}
	return Design{strokes: s, key: sb.String()}
}

// Strokes returns a copy of the strokes in canonical order.
func (d Design) Strokes() []Stroke { return slices.Clone(d.strokes) }

// Lines returns the lines in canonical order, ignoring flavours.
func (d Design) Lines() []Line {
	out := make([]Line, len(d.strokes))
	for i, s := range d.strokes {
		out[i] = s.Line
	}
	return out
}

// Len returns the number of strokes.
func (d Design) Len() int { return len(d.strokes) }

// Key returns a canonical text form. Equal designs have equal keys, so the
// key can be used as a map key.
func (d Design) Key() string { return d.key }

// Hash returns a 64-bit FNV-1a hash of the key.
func (d Design) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(d.key))
	return h.Sum64()
}

// Equal reports whether both designs hold the same strokes.
func (d Design) Equal(o Design) bool { return d.key == o.key }

func (d Design) String() string { return d.key }
