// Package feature defines the dimensional piping features (pipes, elbows,
// reducers, flanges, caps, U-bolts and tank shells), the typed property
// table they expose, and the common base every feature carries.
package feature

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/pypeline/pkg/geom"
	"github.com/chazu/pypeline/pkg/kernel"
)

// ID identifies a feature within a document.
type ID string

// NewID returns a fresh random feature ID.
func NewID() ID {
	return ID(uuid.NewString())
}

var (
	ErrUnknownProperty   = errors.New("feature: unknown property")
	ErrReadOnly          = errors.New("feature: read-only property")
	ErrInvalidValue      = errors.New("feature: invalid property value")
	ErrNotExecutable     = errors.New("feature: parameters cannot be executed")
	ErrInvalidDimensions = errors.New("feature: invalid dimensions")
	ErrUnknownType       = errors.New("feature: unknown type")
)

// PType discriminators.
const (
	TypePipe   = "Pipe"
	TypeElbow  = "Elbow"
	TypeReduct = "Reduct"
	TypeFlange = "Flange"
	TypeCap    = "Cap"
	TypeClamp  = "Clamp"
	TypeShell  = "Shell"
)

// Feature is a parametric object that can rebuild its shape.
//
// OnChanged is called after a property has been written. Execute rebuilds
// Shape and Ports from the current parameters; on error the previous
// shape must be left in place.
type Feature interface {
	Base() *Base
	Properties() []Property
	OnChanged(prop string)
	Execute(k kernel.Kernel) error
}

// Base holds the attributes shared by every feature.
type Base struct {
	ID      ID
	Label   string
	PType   string
	PRating string
	PSize   string
	Kv      float64
	// Ports are connection points in the feature's local frame.
	Ports     []r3.Vec
	Placement geom.Placement
	// Shape is the last successfully built solid, in the local frame.
	Shape kernel.Solid

	touched bool
}

func newBase(ptype, rating, size string) Base {
	return Base{
		ID:      NewID(),
		Label:   ptype,
		PType:   ptype,
		PRating: rating,
		PSize:   size,
		touched: true,
	}
}

// Touch marks the feature as needing a recompute.
func (b *Base) Touch() { b.touched = true }

// Touched reports whether the feature needs a recompute.
func (b *Base) Touched() bool { return b.touched }

// Untouch clears the recompute mark.
func (b *Base) Untouch() { b.touched = false }

// WorldPorts returns the ports mapped through the placement.
func (b *Base) WorldPorts() []r3.Vec {
	out := make([]r3.Vec, len(b.Ports))
	for i, p := range b.Ports {
		out[i] = b.Placement.MultVec(p)
	}
	return out
}

func (b *Base) properties() []Property {
	return []Property{
		StringProp("Label", "Base", "User name of the object", &b.Label),
		readOnly(StringProp("PType", "PBase", "Type of tubeFeature", &b.PType)),
		StringProp("PRating", "PBase", "Rating of pipeFeature", &b.PRating),
		StringProp("PSize", "PBase", "Nominal diameter", &b.PSize),
		readOnly(VectorsProp("Ports", "PBase", "Ports position relative to the origin of Shape", &b.Ports)),
		FloatProp("Kv", "PBase", "Flow factor (m3/h/bar)", &b.Kv),
	}
}

// Placed returns the feature's shape transformed into world coordinates,
// or nil when the feature has no shape.
func Placed(k kernel.Kernel, f Feature) kernel.Solid {
	b := f.Base()
	if b.Shape == nil {
		return nil
	}
	s := b.Shape
	axis, angle := geom.AxisAngle(b.Placement.Rot())
	if angle != 0 {
		s = k.RotateAxis(s, geom.Array(axis), angle*180/math.Pi)
	}
	p := b.Placement.Base
	if p != (r3.Vec{}) {
		s = k.Translate(s, p.X, p.Y, p.Z)
	}
	return s
}

// New returns a default-sized feature of the given dimensional type.
func New(ptype string) (Feature, error) {
	switch ptype {
	case TypePipe:
		return NewPipe("DN50", 60.3, 3, 100), nil
	case TypeElbow:
		return NewElbow("DN50", 60.3, 3, 90, 45.225), nil
	case TypeReduct:
		return NewReduct("DN50", 60.3, 48.3, 3, 0, 0, true), nil
	case TypeFlange:
		return NewFlange("DN50", "SO", 160, 60.3, 132, 14, 15, 4), nil
	case TypeCap:
		return NewCap("DN50", 60.3, 3), nil
	case TypeClamp:
		return NewUbolt("DN50", "DIN-UBolt", 76, 109, 10), nil
	case TypeShell:
		return NewShell(800, 400, 500, 6), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, ptype)
}

// dim formats a dimension the way profile labels show it.
func dim(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// lift moves a solid centred on the origin so that it spans z=0..h.
func lift(k kernel.Kernel, s kernel.Solid, h float64) kernel.Solid {
	return k.Translate(s, 0, 0, h/2)
}
