package feature

import (
	"github.com/chazu/pypeline/pkg/kernel"
)

// Ubolt is a U-shaped clamp in the local XY plane: a half circle of
// diameter C over y >= 0 and two legs reaching down to y = C/2-H.
type Ubolt struct {
	b         Base
	ClampType string
	C         float64
	H         float64
	D         float64 // rod diameter
	Thread    string
}

func NewUbolt(dn, ctype string, C, H, d float64) *Ubolt {
	u := &Ubolt{b: newBase(TypeClamp, "", dn), ClampType: ctype, C: C, H: H, D: d}
	u.b.Label = "Ubolt"
	u.Thread = "M" + dim(d)
	return u
}

func (u *Ubolt) Base() *Base { return &u.b }

func (u *Ubolt) Properties() []Property {
	return append(u.b.properties(),
		StringProp("ClampType", "Ubolt", "Type of clamp", &u.ClampType),
		LengthProp("C", "Ubolt", "Arc diameter", &u.C),
		LengthProp("H", "Ubolt", "Overall height", &u.H),
		LengthProp("d", "Ubolt", "Rod diameter", &u.D),
		StringProp("thread", "Ubolt", "Size of thread", &u.Thread),
	)
}

func (u *Ubolt) OnChanged(string) {}

// Execute sweeps the rod along the U. Clamps carry no ports.
func (u *Ubolt) Execute(k kernel.Kernel) error {
	if u.C <= 0 || u.D <= 0 {
		return ErrInvalidDimensions
	}
	u.Thread = "M" + dim(u.D)
	r := u.C / 2
	s := k.Revolve(k.Translate2D(k.Circle(u.D/2), r, 0), 180)
	if leg := u.H - r; leg > 0 {
		rod := k.RotateAxis(k.Cylinder(leg, u.D/2, 0), [3]float64{1, 0, 0}, 90)
		s = k.Union(s, k.Translate(rod, r, -leg/2, 0))
		s = k.Union(s, k.Translate(rod, -r, -leg/2, 0))
	}
	u.b.Shape = s
	u.b.Ports = nil
	return nil
}
