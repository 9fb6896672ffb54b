package runes

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

// Flavour styles a line of a design.
type Flavour int

const (
	FlavourDefault Flavour = iota
	FlavourEmphasis
	FlavourFaint
)

func (f Flavour) String() string {
	switch f {
	case FlavourEmphasis:
		return "emphasis"
	case FlavourFaint:
		return "faint"
	default:
		return "default"
	}
}

// Stroke is a line together with its flavour.
type Stroke struct {
	Line    Line
	Flavour Flavour
}

// Domain is an inclusive rectangle of grid points.
type Domain struct {
	MinX, MinY, MaxX, MaxY int
}

// NewDomain returns the domain of width x height points starting at (0,0).
func NewDomain(width, height int) Domain {
	return Domain{MaxX: width - 1, MaxY: height - 1}
}

// Width returns the number of columns.
func (d Domain) Width() int { return d.MaxX - d.MinX + 1 }

// Height returns the number of rows.
func (d Domain) Height() int { return d.MaxY - d.MinY + 1 }

// Contains reports whether p lies inside the domain.
func (d Domain) Contains(p Point) bool {
	return p.X >= d.MinX && p.X <= d.MaxX && p.Y >= d.MinY && p.Y <= d.MaxY
}

func (d Domain) valid() bool { return d.MinX <= d.MaxX && d.MinY <= d.MaxY }

// Builder accumulates strokes. It is a value: every method returns a new
// Builder and leaves the receiver untouched, so intermediate builders can
// be kept and branched. The first error sticks; later calls are no-ops and
// Make reports it.
type Builder struct {
	domain  Domain
	strokes []Stroke
	err     error
}

// NewBuilder returns an empty builder over domain.
func NewBuilder(domain Domain) Builder {
	b := Builder{domain: domain}
	if !domain.valid() {
		b.err = fmt.Errorf("%w: empty domain %+v", ErrInvalidRange, domain)
	}
	return b
}

// Domain returns the current domain. Quarter turns of a non-square domain
// swap its extents around the centre.
func (b Builder) Domain() Domain { return b.domain }

// Err returns the sticky error, if any.
func (b Builder) Err() error { return b.err }

// with returns a copy of b holding strokes.
func (b Builder) with(strokes []Stroke) Builder {
	b.strokes = strokes
	return b
}

func (b Builder) fail(err error) Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// AddLine adds a line with the given flavour. Both ends must lie in the
// domain.
func (b Builder) AddLine(l Line, f Flavour) Builder {
	if b.err != nil {
		return b
	}
	if !b.domain.Contains(l.Start) || !b.domain.Contains(l.End) {
		return b.fail(fmt.Errorf("%w: %s not within %+v", ErrOutOfDomain, l, b.domain))
	}
	return b.with(append(slices.Clip(b.strokes), Stroke{Line: l, Flavour: f}))
}

// directions are the eight compass steps random lines follow.
var directions = [8]Point{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}

// AddRandomLine adds one line of at least unit length. It starts at a
// random point and runs horizontally, vertically or diagonally.
func (b Builder) AddRandomLine(rng *rand.Rand) Builder {
	if b.err != nil {
		return b
	}
	d := b.domain
	if d.Width() < 2 && d.Height() < 2 {
		return b.fail(fmt.Errorf("%w: domain %+v has room for no line", ErrInvalidRange, d))
	}

	for {
		start := Point{d.MinX + rng.IntN(d.Width()), d.MinY + rng.IntN(d.Height())}
		for _, i := range rng.Perm(len(directions)) {
			step := directions[i]
			n := maxSteps(d, start, step)
			if n == 0 {
				continue
			}
			k := 1 + rng.IntN(n)
			end := Point{start.X + step.X*k, start.Y + step.Y*k}
			return b.AddLine(Line{Start: start, End: end}, FlavourDefault)
		}
	}
}

// maxSteps counts how far p can move by step while staying in d.
func maxSteps(d Domain, p, step Point) int {
	n := 0
	for q := (Point{p.X + step.X, p.Y + step.Y}); d.Contains(q); q = (Point{q.X + step.X, q.Y + step.Y}) {
		n++
	}
	return n
}

// AddRandomLines adds between lo and hi random lines, inclusive.
func (b Builder) AddRandomLines(rng *rand.Rand, lo, hi int) Builder {
	if b.err != nil {
		return b
	}
	if lo < 0 || lo > hi {
		return b.fail(fmt.Errorf("%w: min %d > max %d", ErrInvalidRange, lo, hi))
	}
	n := lo + rng.IntN(hi-lo+1)
	for i := 0; i < n; i++ {
		b = b.AddRandomLine(rng)
	}
	return b
}

// Exclude removes line from every stroke, cutting collinear strokes where
// they overlap it.
func (b Builder) Exclude(line Line) Builder {
	if b.err != nil {
		return b
	}
	out := make([]Stroke, 0, len(b.strokes))
	for _, s := range b.strokes {
		for _, piece := range Subtract(s.Line, line) {
			out = append(out, Stroke{Line: piece, Flavour: s.Flavour})
		}
	}
	return b.with(out)
}

// transform maps every point through f.
func (b Builder) transform(domain Domain, f func(Point) Point) Builder {
	out := make([]Stroke, len(b.strokes))
	for i, s := range b.strokes {
		out[i] = Stroke{Line: Line{Start: f(s.Line.Start), End: f(s.Line.End)}, Flavour: s.Flavour}
	}
	b.domain = domain
	return b.with(out)
}

// Rotate90 turns the design a quarter turn counter-clockwise about the
// domain centre. Width and height must have equal parity.
func (b Builder) Rotate90() Builder { return b.quarterTurns(1) }

// Rotate180 turns the design half a turn.
func (b Builder) Rotate180() Builder { return b.quarterTurns(2) }

// Rotate270 turns the design three quarter turns counter-clockwise. Width
// and height must have equal parity.
func (b Builder) Rotate270() Builder { return b.quarterTurns(3) }

// Rotate360 returns the builder unchanged.
func (b Builder) Rotate360() Builder { return b.quarterTurns(4) }

func (b Builder) quarterTurns(n int) Builder {
	if b.err != nil {
		return b
	}
	d := b.domain
	sx, sy := d.MinX+d.MaxX, d.MinY+d.MaxY

	switch n % 4 {
	case 0:
		return b.with(slices.Clone(b.strokes))
	case 2:
		return b.transform(d, func(p Point) Point { return Point{sx - p.X, sy - p.Y} })
	}

	if (sx+sy)%2 != 0 {
		return b.fail(fmt.Errorf("%w: width %d, height %d", ErrParityMismatch, d.Width(), d.Height()))
	}
	h, k := (sx+sy)/2, (sy-sx)/2
	rot := func(p Point) Point { return Point{h - p.Y, p.X + k} }
	if n%4 == 3 {
		rot = func(p Point) Point { return Point{p.Y - k, h - p.X} }
	}

	lo, hi := rot(Point{d.MinX, d.MinY}), rot(Point{d.MaxX, d.MaxY})
	nd := Domain{MinX: min(lo.X, hi.X), MinY: min(lo.Y, hi.Y), MaxX: max(lo.X, hi.X), MaxY: max(lo.Y, hi.Y)}
	return b.transform(nd, rot)
}

// FlipVertically mirrors the design top to bottom.
func (b Builder) FlipVertically() Builder {
	if b.err != nil {
		return b
	}
	sy := b.domain.MinY + b.domain.MaxY
	return b.transform(b.domain, func(p Point) Point { return Point{p.X, sy - p.Y} })
}

// FlipHorizontally mirrors the design left to right.
func (b Builder) FlipHorizontally() Builder {
	if b.err != nil {
		return b
	}
	sx := b.domain.MinX + b.domain.MaxX
	return b.transform(b.domain, func(p Point) Point { return Point{sx - p.X, p.Y} })
}

// Consolidate repeatedly merges pairs of same-flavour strokes that are
// collinear and touch, until no pair is left.
func (b Builder) Consolidate() Builder {
	if b.err != nil {
		return b
	}
	out := slices.Clone(b.strokes)

	for merged := true; merged; {
		merged = false
	scan:
		for i := 0; i < len(out); i++ {
			for j := i + 1; j < len(out); j++ {
				if out[i].Flavour != out[j].Flavour {
					continue
				}
				m, err := Merge(out[i].Line, out[j].Line)
				if err != nil {
					continue
				}
				out[i].Line = m
				out = slices.Delete(out, j, j+1)
				merged = true
				break scan
			}
		}
	}
	return b.with(out)
}

// Make returns the finished design: strokes sorted and de-duplicated.
func (b Builder) Make() (Design, error) {
	if b.err != nil {
		return Design{}, b.err
	}
	return newDesign(b.strokes), nil
}
