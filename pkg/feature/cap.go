package feature

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/pypeline/pkg/kernel"
)

// Cap is a dished end. Its open face lies on z=0 and the dome rises
// along +Z.
type Cap struct {
	b       Base
	OD      float64
	Thk     float64
	ID      float64
	Profile string
}

func NewCap(dn string, od, thk float64) *Cap {
	c := &Cap{b: newBase(TypeCap, "SCH-STD", dn), OD: od, Thk: thk}
	c.ID = od - 2*thk
	c.Profile = dim(od) + "x" + dim(thk)
	return c
}

func (c *Cap) Base() *Base { return &c.b }

func (c *Cap) Properties() []Property {
	return append(c.b.properties(),
		LengthProp("OD", "Cap", "Outside diameter", &c.OD),
		LengthProp("thk", "Cap", "Wall thickness", &c.Thk),
		LengthProp("ID", "Cap", "Inside diameter", &c.ID),
		StringProp("Profile", "Cap", "Section dim.", &c.Profile),
	)
}

func (c *Cap) OnChanged(string) {}

func (c *Cap) Execute(k kernel.Kernel) error {
	if c.OD <= 0 || c.Thk <= 0 {
		return ErrInvalidDimensions
	}
	if c.Thk > c.OD/2 {
		c.Thk = c.OD / 2.1
	}
	c.ID = c.OD - 2*c.Thk
	c.Profile = dim(c.OD) + "x" + dim(c.Thk)
	D, s := c.OD, c.Thk

	z0 := -(0.55*D - 6*s)
	sphere := k.Translate(k.Sphere(0.8*D), 0, 0, z0)
	cylH := 1.7 * D
	cyl := k.Translate(k.Cylinder(cylH, D/2, 0), 0, 0, z0-1+cylH/2)
	dome := k.Hollow(k.RoundIntersection(sphere, cyl, D/6.5), s)

	// Keep z >= 0; the cut face is left open.
	keep := k.Translate(k.Box(2.2*D, 2.2*D, 2*D), -1.1*D, -1.1*D, 0)
	c.b.Shape = k.Intersection(dome, keep)
	c.b.Ports = []r3.Vec{{}}
	return nil
}
