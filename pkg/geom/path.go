package geom

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNoEdges is returned for a path that has nothing to lay pipes on.
var ErrNoEdges = errors.New("geom: path has no edges")

// Path is an ordered chain of edges used as the base of pipelines and
// branches.
type Path struct {
	Name  string
	Edges []Edge
}

// Polyline builds a path of straight edges through pts. Coincident
// consecutive points are skipped.
func Polyline(name string, pts ...r3.Vec) *Path {
	p := &Path{Name: name}
	for i := 1; i < len(pts); i++ {
		if Near(pts[i-1], pts[i], Tolerance) {
			continue
		}
		p.Edges = append(p.Edges, Line{From: pts[i-1], To: pts[i]})
	}
	return p
}

// Validate reports ErrNoEdges for a nil or empty path.
func (p *Path) Validate() error {
	if p == nil || len(p.Edges) == 0 {
		return ErrNoEdges
	}
	return nil
}

// Length returns the summed length of all edges.
func (p *Path) Length() float64 {
	var l float64
	for _, e := range p.Edges {
		l += e.Length()
	}
	return l
}

// Specs returns the serializable form of the path edges.
func (p *Path) Specs() []EdgeSpec {
	specs := make([]EdgeSpec, len(p.Edges))
	for i, e := range p.Edges {
		specs[i] = Spec(e)
	}
	return specs
}

// PathFromSpecs rebuilds a path from serialized edges.
func PathFromSpecs(name string, specs []EdgeSpec) (*Path, error) {
	p := &Path{Name: name}
	for _, s := range specs {
		e, err := FromSpec(s)
		if err != nil {
			return nil, err
		}
		p.Edges = append(p.Edges, e)
	}
	return p, nil
}
