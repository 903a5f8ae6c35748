package feature

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/pypeline/pkg/kernel"
)

// Reduct is a concentric or eccentric reducer from OD at z=0 to OD2 at
// z=Height.
type Reduct struct {
	b       Base
	OD      float64
	OD2     float64
	Thk     float64
	Thk2    float64
	CalcH   bool
	Height  float64
	Profile string
	Conc    bool
}

// NewReduct returns a reducer. A zero thk2 reuses thk; a zero h derives
// the length from the diameters and keeps it derived.
func NewReduct(dn string, od, od2, thk, thk2, h float64, conc bool) *Reduct {
	r := &Reduct{b: newBase(TypeReduct, "SCH-STD", dn), OD: od, OD2: od2, Thk: thk, Thk2: thk2, Conc: conc}
	if thk2 == 0 {
		r.Thk2 = thk
	}
	if h == 0 {
		r.CalcH = true
		r.Height = 3 * (od - od2)
	} else {
		r.Height = h
	}
	r.Profile = dim(od) + "x" + dim(od2)
	return r
}

func (r *Reduct) Base() *Base { return &r.b }

func (r *Reduct) Properties() []Property {
	return append(r.b.properties(),
		LengthProp("OD", "Reduct", "Major diameter", &r.OD),
		LengthProp("OD2", "Reduct", "Minor diameter", &r.OD2),
		LengthProp("thk", "Reduct", "Wall thickness", &r.Thk),
		LengthProp("thk2", "Reduct", "Wall thickness", &r.Thk2),
		BoolProp("calcH", "Reduct", "Make the length variable", &r.CalcH),
		LengthProp("Height", "Reduct", "Length of reduct", &r.Height),
		StringProp("Profile", "Reduct", "Section dim.", &r.Profile),
		BoolProp("conc", "Reduct", "Concentric or Eccentric", &r.Conc),
	)
}

func (r *Reduct) OnChanged(prop string) {
	switch prop {
	case "OD", "OD2":
		if r.CalcH {
			r.Height = 3 * (r.OD - r.OD2)
		}
	case "Height":
		r.CalcH = r.Height == 0
	}
}

// Offset is the X shift of the minor end of an eccentric reducer.
func (r *Reduct) Offset() float64 {
	if r.Conc {
		return 0
	}
	return (r.OD - r.OD2) / 2
}

// Execute rebuilds the reducer. When OD does not exceed OD2 nothing is
// built and the previous shape is kept.
func (r *Reduct) Execute(k kernel.Kernel) error {
	if r.OD <= r.OD2 || r.OD2 <= 0 {
		return ErrInvalidDimensions
	}
	if r.Thk > r.OD/2 {
		r.Thk = r.OD / 2.1
	}
	if r.Thk2 > r.OD2/2 {
		r.Thk2 = r.OD2 / 2.1
	}
	if r.CalcH || r.Height == 0 {
		r.Height = 3 * (r.OD - r.OD2)
	}
	r.Profile = dim(r.OD) + "x" + dim(r.OD2)
	h := r.Height
	if r.Conc {
		outer := k.Cone(h, r.OD/2, r.OD2/2)
		inner := k.Cone(h, r.OD/2-r.Thk, r.OD2/2-r.Thk2)
		r.b.Shape = lift(k, k.Difference(outer, inner), h)
		r.b.Ports = []r3.Vec{{}, {Z: h}}
		return nil
	}
	off := r.Offset()
	outer := k.Loft(k.Circle(r.OD/2), k.Translate2D(k.Circle(r.OD2/2), off, 0), h)
	inner := k.Loft(k.Circle(r.OD/2-r.Thk), k.Translate2D(k.Circle(r.OD2/2-r.Thk2), off, 0), h)
	r.b.Shape = lift(k, k.Difference(outer, inner), h)
	r.b.Ports = []r3.Vec{{}, {X: off, Z: h}}
	return nil
}
