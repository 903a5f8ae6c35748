package feature

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/pypeline/pkg/kernel"
)

// Elbow is a bend with its apex (the intersection of the two port axes)
// at the local origin, lying in the local XY plane. With a 90 degree bend
// port 0 sits on +Y and port 1 on +X.
type Elbow struct {
	b          Base
	OD         float64
	Thk        float64
	ID         float64
	BendAngle  float64 // degrees
	BendRadius float64
	Profile    string
}

func NewElbow(dn string, od, thk, ba, br float64) *Elbow {
	e := &Elbow{b: newBase(TypeElbow, "SCH-STD", dn), OD: od, Thk: thk, BendAngle: ba, BendRadius: br}
	e.ID = od - 2*thk
	e.Profile = dim(od) + "x" + dim(thk)
	e.UpdatePorts()
	return e
}

// UpdatePorts recomputes the ports from the bend parameters without
// rebuilding the shape. Bends that cannot be built keep their ports.
func (e *Elbow) UpdatePorts() {
	if e.Executable() {
		e.b.Ports = e.ports()
	}
}

func (e *Elbow) Base() *Base { return &e.b }

func (e *Elbow) Properties() []Property {
	return append(e.b.properties(),
		LengthProp("OD", "Elbow", "Outside diameter", &e.OD),
		LengthProp("thk", "Elbow", "Wall thickness", &e.Thk),
		LengthProp("ID", "Elbow", "Inside diameter", &e.ID),
		AngleProp("BendAngle", "Elbow", "Bend Angle", &e.BendAngle),
		LengthProp("BendRadius", "Elbow", "Bend Radius", &e.BendRadius),
		StringProp("Profile", "Elbow", "Section dim.", &e.Profile),
	)
}

func (e *Elbow) OnChanged(prop string) {
	if prop == "ID" && e.ID < e.OD {
		e.Thk = (e.OD - e.ID) / 2
	}
}

// Executable reports whether the bend angle can be built.
func (e *Elbow) Executable() bool {
	return e.BendAngle >= 0 && e.BendAngle < 180
}

// arc returns the bend centre and the start/end angles (radians) of the
// centre-line, measured about local Z.
func (e *Elbow) arc() (centre r3.Vec, a0, a1 float64) {
	half := e.BendAngle / 2 * math.Pi / 180
	d := e.BendRadius / math.Cos(half)
	centre = r3.Vec{X: d / math.Sqrt2, Y: d / math.Sqrt2}
	mid := 225 * math.Pi / 180
	return centre, mid - half, mid + half
}

func (e *Elbow) ports() []r3.Vec {
	if e.BendAngle == 0 {
		return []r3.Vec{{}, {}}
	}
	c, a0, a1 := e.arc()
	r := e.BendRadius
	return []r3.Vec{
		{X: c.X + r*math.Cos(a0), Y: c.Y + r*math.Sin(a0)},
		{X: c.X + r*math.Cos(a1), Y: c.Y + r*math.Sin(a1)},
	}
}

// PortDirs returns the outward unit directions of the two ports in the
// local frame.
func (e *Elbow) PortDirs() [2]r3.Vec {
	half := e.BendAngle / 2 * math.Pi / 180
	mid := 225 * math.Pi / 180
	a0, a1 := mid-half, mid+half
	return [2]r3.Vec{
		{X: math.Sin(a0), Y: -math.Cos(a0)},
		{X: -math.Sin(a1), Y: math.Cos(a1)},
	}
}

// Execute rebuilds the bend. Bends of 180 degrees or more are rejected
// and the previous shape is kept.
func (e *Elbow) Execute(k kernel.Kernel) error {
	if !e.Executable() {
		return ErrNotExecutable
	}
	if e.OD <= 0 {
		return ErrInvalidDimensions
	}
	if e.Thk > e.OD/2 {
		e.Thk = e.OD / 2
	}
	e.ID = e.OD - 2*e.Thk
	e.Profile = dim(e.OD) + "x" + dim(e.Thk)
	e.b.Ports = e.ports()
	if e.BendAngle == 0 {
		e.b.Shape = nil
		return nil
	}
	c, a0, _ := e.arc()
	ring := k.Translate2D(section(k, e.OD, e.ID), e.BendRadius, 0)
	s := k.Revolve(ring, e.BendAngle)
	s = k.RotateAxis(s, [3]float64{0, 0, 1}, a0*180/math.Pi)
	e.b.Shape = k.Translate(s, c.X, c.Y, 0)
	return nil
}
