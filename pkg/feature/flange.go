package feature

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/pypeline/pkg/kernel"
)

// Flange is a bolted disc from z=0 to z=t.
type Flange struct {
	b          Base
	FlangeType string
	D          float64 // flange diameter
	Bore       float64 // d
	Df         float64 // bolt circle diameter
	F          float64 // bolt hole diameter
	T          float64
	N          int
}

func NewFlange(dn, ftype string, D, d, df, f, t float64, n int) *Flange {
	return &Flange{
		b:          newBase(TypeFlange, "DIN-PN16", dn),
		FlangeType: ftype,
		D:          D,
		Bore:       d,
		Df:         df,
		F:          f,
		T:          t,
		N:          n,
	}
}

func (f *Flange) Base() *Base { return &f.b }

func (f *Flange) Properties() []Property {
	return append(f.b.properties(),
		StringProp("FlangeType", "Flange", "Type of flange", &f.FlangeType),
		LengthProp("D", "Flange", "Flange diameter", &f.D),
		LengthProp("d", "Flange", "Bore diameter", &f.Bore),
		LengthProp("df", "Flange", "Bolts distance", &f.Df),
		LengthProp("f", "Flange", "Bolts hole diameter", &f.F),
		LengthProp("t", "Flange", "Thickness of flange", &f.T),
		IntProp("n", "Flange", "Nr. of bolts", &f.N),
	)
}

func (f *Flange) OnChanged(string) {}

// HoleCenters returns the bolt hole centres on the z=0 face. The first
// hole is offset by half a pitch from +X.
func (f *Flange) HoleCenters() []r3.Vec {
	if f.N <= 0 {
		return nil
	}
	out := make([]r3.Vec, f.N)
	pitch := 2 * math.Pi / float64(f.N)
	for i := range out {
		a := pitch/2 + float64(i)*pitch
		out[i] = r3.Vec{X: f.Df / 2 * math.Cos(a), Y: f.Df / 2 * math.Sin(a)}
	}
	return out
}

func (f *Flange) Execute(k kernel.Kernel) error {
	if f.D <= 0 || f.T <= 0 || f.Bore >= f.D || f.N < 0 {
		return ErrInvalidDimensions
	}
	face := k.Circle(f.D / 2)
	if f.Bore > 0 {
		face = k.Difference2D(face, k.Circle(f.Bore/2))
	}
	if f.F > 0 {
		for _, c := range f.HoleCenters() {
			face = k.Difference2D(face, k.Translate2D(k.Circle(f.F/2), c.X, c.Y))
		}
	}
	f.b.Shape = lift(k, k.Extrude(face, f.T), f.T)
	f.b.Ports = []r3.Vec{{}, {Z: f.T}}
	return nil
}
