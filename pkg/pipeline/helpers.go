// Package pipeline lays pipes and elbows out along paths: the placement
// helpers, the PypeLine container that bulk-builds a run of parts, and
// the Branch container that keeps its tubes and curves laid out on its
// base path at every recompute.
package pipeline

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/pypeline/pkg/doc"
	"github.com/chazu/pypeline/pkg/feature"
	"github.com/chazu/pypeline/pkg/geom"
)

var (
	ErrInvalidBase      = errors.New("pipeline: base path missing or without edges")
	ErrDegenerateBranch = errors.New("pipeline: degenerate branch")
)

// Sizing carries the parameters used to make pipes and elbows.
type Sizing struct {
	PSize      string
	PRating    string
	OD         float64
	Thk        float64
	Height     float64
	BendAngle  float64
	BendRadius float64
}

// MakePipe adds a pipe of length s.Height at pos with its axis along z.
func MakePipe(d *doc.Document, s Sizing, pos, z r3.Vec) *feature.Pipe {
	p := feature.NewPipe(s.PSize, s.OD, s.Thk, s.Height)
	if s.PRating != "" {
		p.Base().PRating = s.PRating
	}
	p.Base().Placement = geom.NewPlacement(pos, z)
	d.Add(p)
	return p
}

// MakeElbow adds an elbow with its apex at pos and its bend plane normal
// to z.
func MakeElbow(d *doc.Document, s Sizing, pos, z r3.Vec) *feature.Elbow {
	ba := s.BendAngle
	if ba == 0 {
		ba = 90
	}
	e := feature.NewElbow(s.PSize, s.OD, s.Thk, ba, s.BendRadius)
	if s.PRating != "" {
		e.Base().PRating = s.PRating
	}
	e.Base().Placement = geom.NewPlacement(pos, z)
	d.Add(e)
	return e
}

// MakeElbowBetweenThings adds an elbow joining two edges at the
// intersection of their centre-lines. The edges may come in either order;
// the one ending nearer the intersection is taken as incoming.
func MakeElbowBetweenThings(d *doc.Document, e1, e2 geom.Edge, s Sizing) *feature.Elbow {
	P, _ := geom.IntersectionCLines(e1, e2)
	in, out := e1, e2
	if geom.Distance(e2.End(), P) < geom.Distance(e1.End(), P) {
		in, out = e2, e1
	}
	e := MakeElbow(d, s, P, geom.ZAxis)
	PlaceTheElbow(e, in.TangentAt(1), out.TangentAt(0), P)
	return e
}

// PlaceTheElbow sets the bend angle of c from the flow directions v1 and
// v2 and orients it with its apex at P, port 0 facing back along v1 and
// port 1 facing forward along v2.
func PlaceTheElbow(c *feature.Elbow, v1, v2, P r3.Vec) {
	ba := geom.AngleBetween(v1, v2) * 180 / math.Pi
	if math.Abs(c.BendAngle-ba) > geom.Tolerance {
		c.BendAngle = ba
		c.Base().Touch()
	}
	c.UpdatePorts()
	b := c.Base()
	if geom.IsParallel(v1, v2) {
		b.Placement = geom.Placement{Base: P}
		return
	}
	dirs := c.PortDirs()
	back := r3.Scale(-1, v1)
	rot := geom.AlignFrames(
		geom.Bisect(dirs[0], dirs[1]), geom.Ortho(dirs[0], dirs[1]),
		geom.Bisect(back, v2), geom.Ortho(back, v2),
	)
	b.Placement = geom.Placement{Base: P, Rotation: rot}
}

// PortsPos returns the ports of f in world coordinates.
func PortsPos(f feature.Feature) []r3.Vec {
	return f.Base().WorldPorts()
}

// ExtendTheBeam moves whichever end of the pipe is nearer to the plane
// through target, normal to the pipe axis, onto that plane.
func ExtendTheBeam(p *feature.Pipe, target r3.Vec) {
	b := p.Base()
	ax := geom.BeamAx(b.Placement, r3.Vec{})
	distBase := r3.Dot(r3.Sub(target, b.Placement.Base), ax)
	end := r3.Add(b.Placement.Base, r3.Scale(p.Height, ax))
	distEnd := r3.Dot(r3.Sub(target, end), ax)
	if math.Abs(distBase) > math.Abs(distEnd) {
		setHeight(p, p.Height+distEnd)
		return
	}
	setHeight(p, p.Height-distBase)
	b.Placement.Base = r3.Add(b.Placement.Base, r3.Scale(distBase, ax))
}

// MoveToPyLi tags f into the pipeline's group.
func MoveToPyLi(l *PypeLine, f feature.Feature) {
	l.AddToGroup(f)
}

func setHeight(p *feature.Pipe, h float64) {
	if h < 0 {
		h = 0
	}
	if p.Height != h {
		p.Height = h
		p.Base().Touch()
	}
}
