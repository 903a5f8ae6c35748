package feature

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/pypeline/pkg/geom"
	"github.com/chazu/pypeline/pkg/kernel"
)

// Pipe is a straight tube along local Z from z=0 to z=Height.
type Pipe struct {
	b       Base
	OD      float64
	Thk     float64
	ID      float64
	Height  float64
	Profile string
}

// NewPipe returns a pipe of nominal size dn.
func NewPipe(dn string, od, thk, h float64) *Pipe {
	p := &Pipe{b: newBase(TypePipe, "SCH-STD", dn), OD: od, Thk: thk, Height: h}
	p.b.Label = "Tube"
	p.ID = od - 2*thk
	p.Profile = dim(od) + "x" + dim(thk)
	return p
}

func (p *Pipe) Base() *Base { return &p.b }

func (p *Pipe) Properties() []Property {
	return append(p.b.properties(),
		LengthProp("OD", "Pipe", "Outside diameter", &p.OD),
		LengthProp("thk", "Pipe", "Wall thickness", &p.Thk),
		LengthProp("ID", "Pipe", "Inside diameter", &p.ID),
		LengthProp("Height", "Pipe", "Length of tube", &p.Height),
		StringProp("Profile", "Pipe", "Section dim.", &p.Profile),
	)
}

func (p *Pipe) OnChanged(prop string) {
	if prop == "ID" && p.ID < p.OD {
		p.Thk = (p.OD - p.ID) / 2
	}
}

// Execute rebuilds the tube. A pipe without length keeps its ports but
// has no shape.
func (p *Pipe) Execute(k kernel.Kernel) error {
	if p.OD <= 0 {
		return ErrInvalidDimensions
	}
	if p.Thk > p.OD/2 {
		p.Thk = p.OD / 2
	}
	p.ID = p.OD - 2*p.Thk
	p.Profile = dim(p.OD) + "x" + dim(p.Thk)
	p.b.Ports = []r3.Vec{{}, {Z: p.Height}}
	if p.Height <= geom.Tolerance {
		p.b.Shape = nil
		return nil
	}
	s := k.Cylinder(p.Height, p.OD/2, 0)
	if p.ID > 0 {
		s = k.Difference(s, k.Cylinder(p.Height, p.ID/2, 0))
	}
	p.b.Shape = lift(k, s, p.Height)
	return nil
}

// section returns the ring (or disc, when id is zero) swept by tubes.
func section(k kernel.Kernel, od, id float64) kernel.Profile {
	prof := k.Circle(od / 2)
	if id > 0 {
		prof = k.Difference2D(prof, k.Circle(id/2))
	}
	return prof
}
