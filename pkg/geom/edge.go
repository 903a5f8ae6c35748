package geom

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Edge is a parametric curve segment of a path. The parameter u runs from
// 0 at Start to 1 at End.
type Edge interface {
	ValueAt(u float64) r3.Vec
	// TangentAt returns the unit tangent in the direction of increasing u.
	TangentAt(u float64) r3.Vec
	Length() float64
	Start() r3.Vec
	End() r3.Vec
}

// Line is a straight edge.
type Line struct {
	From, To r3.Vec
}

func (l Line) ValueAt(u float64) r3.Vec {
	return r3.Add(l.From, r3.Scale(u, r3.Sub(l.To, l.From)))
}

func (l Line) TangentAt(float64) r3.Vec { return Unit(r3.Sub(l.To, l.From)) }
func (l Line) Length() float64          { return Distance(l.From, l.To) }
func (l Line) Start() r3.Vec            { return l.From }
func (l Line) End() r3.Vec              { return l.To }

// Arc is a circular edge. Angles are measured in the plane normal to
// Normal, from XRef towards Normal×XRef. A positive Sweep runs
// counter-clockwise about Normal.
type Arc struct {
	Center r3.Vec
	Normal r3.Vec
	XRef   r3.Vec
	Radius float64
	Begin  float64 // start angle, radians
	Sweep  float64 // signed sweep, radians
}

func (a Arc) frame() (x, y r3.Vec) {
	n := Unit(a.Normal)
	x = Unit(r3.Sub(a.XRef, r3.Scale(r3.Dot(a.XRef, n), n)))
	return x, r3.Cross(n, x)
}

func (a Arc) ValueAt(u float64) r3.Vec {
	x, y := a.frame()
	t := a.Begin + a.Sweep*u
	s, c := math.Sincos(t)
	return r3.Add(a.Center, r3.Add(r3.Scale(a.Radius*c, x), r3.Scale(a.Radius*s, y)))
}

func (a Arc) TangentAt(u float64) r3.Vec {
	x, y := a.frame()
	t := a.Begin + a.Sweep*u
	s, c := math.Sincos(t)
	d := r3.Add(r3.Scale(-s, x), r3.Scale(c, y))
	if a.Sweep < 0 {
		d = r3.Scale(-1, d)
	}
	return d
}

func (a Arc) Length() float64 { return a.Radius * math.Abs(a.Sweep) }
func (a Arc) Start() r3.Vec   { return a.ValueAt(0) }
func (a Arc) End() r3.Vec     { return a.ValueAt(1) }

// IntersectionCLines returns the point where the centre-lines of e1 and e2
// meet, each line taken through the edge start along its start tangent.
// Skew lines yield the midpoint of their common perpendicular. The second
// result is false for parallel centre-lines.
func IntersectionCLines(e1, e2 Edge) (r3.Vec, bool) {
	p1, d1 := e1.Start(), e1.TangentAt(0)
	p2, d2 := e2.Start(), e2.TangentAt(0)
	w0 := r3.Sub(p1, p2)
	a := r3.Dot(d1, d1)
	b := r3.Dot(d1, d2)
	c := r3.Dot(d2, d2)
	d := r3.Dot(d1, w0)
	e := r3.Dot(d2, w0)
	den := a*c - b*b
	if math.Abs(den) < Tolerance {
		return e1.End(), false
	}
	s := (b*e - c*d) / den
	t := (a*e - b*d) / den
	q1 := r3.Add(p1, r3.Scale(s, d1))
	q2 := r3.Add(p2, r3.Scale(t, d2))
	return r3.Scale(0.5, r3.Add(q1, q2)), true
}

// EdgeSpec is the serializable form of an edge.
type EdgeSpec struct {
	Kind   string     `json:"kind" msgpack:"kind" yaml:"kind"`
	From   [3]float64 `json:"from,omitempty" msgpack:"from,omitempty" yaml:"from,omitempty"`
	To     [3]float64 `json:"to,omitempty" msgpack:"to,omitempty" yaml:"to,omitempty"`
	Center [3]float64 `json:"center,omitempty" msgpack:"center,omitempty" yaml:"center,omitempty"`
	Normal [3]float64 `json:"normal,omitempty" msgpack:"normal,omitempty" yaml:"normal,omitempty"`
	XRef   [3]float64 `json:"xref,omitempty" msgpack:"xref,omitempty" yaml:"xref,omitempty"`
	Radius float64    `json:"radius,omitempty" msgpack:"radius,omitempty" yaml:"radius,omitempty"`
	Begin  float64    `json:"begin,omitempty" msgpack:"begin,omitempty" yaml:"begin,omitempty"`
	Sweep  float64    `json:"sweep,omitempty" msgpack:"sweep,omitempty" yaml:"sweep,omitempty"`
}

// ErrUnknownEdge is returned when an edge spec names no known edge kind.
var ErrUnknownEdge = errors.New("geom: unknown edge kind")

// Spec converts an edge into its serializable form.
func Spec(e Edge) EdgeSpec {
	switch v := e.(type) {
	case Line:
		return EdgeSpec{Kind: "line", From: Array(v.From), To: Array(v.To)}
	case Arc:
		return EdgeSpec{
			Kind: "arc", Center: Array(v.Center), Normal: Array(v.Normal), XRef: Array(v.XRef),
			Radius: v.Radius, Begin: v.Begin, Sweep: v.Sweep,
		}
	}
	// Unknown implementations are approximated by their chord.
	return EdgeSpec{Kind: "line", From: Array(e.Start()), To: Array(e.End())}
}

// FromSpec rebuilds an edge from its serializable form.
func FromSpec(s EdgeSpec) (Edge, error) {
	switch s.Kind {
	case "line":
		return Line{From: Vec(s.From), To: Vec(s.To)}, nil
	case "arc":
		return Arc{
			Center: Vec(s.Center), Normal: Vec(s.Normal), XRef: Vec(s.XRef),
			Radius: s.Radius, Begin: s.Begin, Sweep: s.Sweep,
		}, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownEdge, s.Kind)
}

// Array converts a vector to a plain array.
func Array(v r3.Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

// Vec converts a plain array to a vector.
func Vec(a [3]float64) r3.Vec { return r3.Vec{X: a[0], Y: a[1], Z: a[2]} }
