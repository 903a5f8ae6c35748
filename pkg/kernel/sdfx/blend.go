package sdfx

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// roundIntersection is the intersection of two SDFs with a polynomial
// smooth maximum, which fillets the common edges by roughly k.
type roundIntersection struct {
	a, b sdf.SDF3
	k    float64
}

func (s *roundIntersection) Evaluate(p v3.Vec) float64 {
	return smoothMax(s.a.Evaluate(p), s.b.Evaluate(p), s.k)
}

// BoundingBox is the overlap of the two input boxes.
func (s *roundIntersection) BoundingBox() sdf.Box3 {
	ba, bb := s.a.BoundingBox(), s.b.BoundingBox()
	return sdf.Box3{
		Min: v3.Vec{X: math.Max(ba.Min.X, bb.Min.X), Y: math.Max(ba.Min.Y, bb.Min.Y), Z: math.Max(ba.Min.Z, bb.Min.Z)},
		Max: v3.Vec{X: math.Min(ba.Max.X, bb.Max.X), Y: math.Min(ba.Max.Y, bb.Max.Y), Z: math.Min(ba.Max.Z, bb.Max.Z)},
	}
}

// hollow keeps the band of thickness t just inside the surface of s.
type hollow struct {
	s sdf.SDF3
	t float64
}

func (h *hollow) Evaluate(p v3.Vec) float64 {
	d := h.s.Evaluate(p)
	return math.Max(d, -(d + h.t))
}

func (h *hollow) BoundingBox() sdf.Box3 {
	return h.s.BoundingBox()
}

// smoothMax is -smoothMin(-a, -b, k).
func smoothMax(a, b, k float64) float64 {
	h := math.Max(0, math.Min(1, 0.5-0.5*(b-a)/k))
	return b*(1-h) + a*h + k*h*(1-h)
}
