// Package runes builds the small line diagrams used as identifying glyphs
// for effects and definitions.
//
// Coordinates are integers on an inclusive rectangular domain. A Builder
// accumulates lines, transforms them and produces an immutable Design whose
// line order is canonical, so equal sets of lines yield equal designs no
// matter how they were built.
package runes

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDisconnected is returned when merging lines that are not collinear
	// or do not touch.
	ErrDisconnected = errors.New("lines don't connect")
	// ErrInvalidRange is returned for min > max or other unusable bounds.
	ErrInvalidRange = errors.New("invalid range")
	// ErrParityMismatch is returned when a quarter turn would need
	// non-integer coordinates.
	ErrParityMismatch = errors.New("domain width and height parity mismatch")
	// ErrOutOfDomain is returned for lines outside the builder's domain.
	ErrOutOfDomain = errors.New("line outside domain")
	// ErrExhausted is returned when no unique design was found in time.
	ErrExhausted = errors.New("no unique design found")
)

// Point is a grid coordinate.
type Point struct {
	X, Y int
}

func (p Point) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

func (p Point) sub(o Point) Point { return Point{p.X - o.X, p.Y - o.Y} }

func cross(a, b Point) int { return a.X*b.Y - a.Y*b.X }

func dot(a, b Point) int { return a.X*b.X + a.Y*b.Y }

// Line is a directed segment. Two lines are equal only when both starts
// and both ends match; a line and its reverse are different values.
type Line struct {
	Start, End Point
}

// L is shorthand for a line from (x1,y1) to (x2,y2).
func L(x1, y1, x2, y2 int) Line {
	return Line{Start: Point{x1, y1}, End: Point{x2, y2}}
}

func (l Line) String() string { return l.Start.String() + "-" + l.End.String() }

func (l Line) dir() Point { return l.End.sub(l.Start) }

// IsPoint reports whether the line has zero length.
func (l Line) IsPoint() bool { return l.Start == l.End }

// Reverse returns the line with start and end swapped.
func (l Line) Reverse() Line { return Line{Start: l.End, End: l.Start} }

// Angle returns the direction of the line in turns, in [0, 1). Parallel
// lines have equal angles modulo 0.5.
func (l Line) Angle() float64 {
	d := l.dir()
	a := math.Atan2(float64(d.Y), float64(d.X)) / (2 * math.Pi)
	if a < 0 {
		a++
	}
	return a
}

// Parallel reports whether the lines point the same or opposite way.
// A zero-length line is parallel to everything.
func (l Line) Parallel(o Line) bool {
	return cross(l.dir(), o.dir()) == 0
}

// Collinear reports whether both lines lie on one infinite line.
func (l Line) Collinear(o Line) bool {
	d := l.dir()
	if d == (Point{}) {
		d = o.dir()
	}
	if d == (Point{}) {
		return l.Start == o.Start
	}
	return cross(d, o.Start.sub(l.Start)) == 0 && cross(d, o.End.sub(l.Start)) == 0
}

// axis returns the direction used to order points of two collinear lines.
func axis(a, b Line) Point {
	if d := a.dir(); d != (Point{}) {
		return d
	}
	return b.dir()
}

// span returns the projections of l onto d, smallest first.
func span(l Line, origin, d Point) (lo, hi int) {
	s, e := dot(l.Start.sub(origin), d), dot(l.End.sub(origin), d)
	if s > e {
		s, e = e, s
	}
	return s, e
}

// Touches reports whether the lines are collinear and overlap or share an
// end point.
func (l Line) Touches(o Line) bool {
	if !l.Collinear(o) {
		return false
	}
	d := axis(l, o)
	alo, ahi := span(l, l.Start, d)
	blo, bhi := span(o, l.Start, d)
	return alo <= bhi && blo <= ahi
}

// Merge returns the smallest line covering both inputs. The result is
// oriented along a. It fails with ErrDisconnected unless the lines are
// collinear and touch.
func Merge(a, b Line) (Line, error) {
	if !a.Touches(b) {
		return Line{}, fmt.Errorf("%w: %s and %s", ErrDisconnected, a, b)
	}
	d := axis(a, b)
	if d == (Point{}) {
		return a, nil
	}

	pts := [4]Point{a.Start, a.End, b.Start, b.End}
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		t := dot(p.sub(a.Start), d)
		if t < dot(lo.sub(a.Start), d) {
			lo = p
		}
		if t > dot(hi.sub(a.Start), d) {
			hi = p
		}
	}
	return Line{Start: lo, End: hi}, nil
}

// Subtract removes the part of l covered by cut. Lines that are not
// collinear with cut, or only share a point with it, are returned as they
// are. The remaining pieces keep l's orientation.
func Subtract(l, cut Line) []Line {
	if !l.Collinear(cut) {
		return []Line{l}
	}
	if l.IsPoint() {
		if cut.Touches(l) {
			return nil
		}
		return []Line{l}
	}

	d := l.dir()
	total := dot(d, d)
	clo, chi := span(cut, l.Start, d)
	if clo >= total || chi <= 0 {
		return []Line{l}
	}

	cutLo, cutHi := cut.Start, cut.End
	if dot(cutLo.sub(l.Start), d) > dot(cutHi.sub(l.Start), d) {
		cutLo, cutHi = cutHi, cutLo
	}

	var out []Line
	if clo > 0 {
		out = append(out, Line{Start: l.Start, End: cutLo})
	}
	if chi < total {
		out = append(out, Line{Start: cutHi, End: l.End})
	}
	return out
}
