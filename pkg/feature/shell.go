package feature

import (
	"github.com/chazu/pypeline/pkg/kernel"
)

// Shell is the lateral shell of a rectangular tank: four plates of
// thickness thk around an L x W footprint, open at the bottom and top.
type Shell struct {
	b   Base
	L   float64
	W   float64
	H   float64
	Thk float64
}

func NewShell(L, W, H, thk float64) *Shell {
	s := &Shell{b: newBase(TypeShell, "", ""), L: L, W: W, H: H, Thk: thk}
	return s
}

func (s *Shell) Base() *Base { return &s.b }

func (s *Shell) Properties() []Property {
	return append(s.b.properties(),
		LengthProp("L", "Tank", "Tank's length", &s.L),
		LengthProp("W", "Tank", "Tank's width", &s.W),
		LengthProp("H", "Tank", "Tank's height", &s.H),
		LengthProp("thk", "Tank", "Thickness of tank's shell", &s.Thk),
	)
}

func (s *Shell) OnChanged(string) {}

func (s *Shell) Execute(k kernel.Kernel) error {
	if s.L <= 0 || s.W <= 0 || s.H <= 0 || s.Thk <= 0 || 2*s.Thk >= s.L || 2*s.Thk >= s.W {
		return ErrInvalidDimensions
	}
	outer := k.Box(s.L, s.W, s.H)
	inner := k.Translate(k.Box(s.L-2*s.Thk, s.W-2*s.Thk, s.H+2), s.Thk, s.Thk, -1)
	s.b.Shape = k.Difference(outer, inner)
	return nil
}
