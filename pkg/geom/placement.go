package geom

import "gonum.org/v1/gonum/spatial/r3"

// Placement positions a feature's local frame in the world: a rotation
// about the local origin followed by a translation to Base.
// The zero value is the identity placement.
type Placement struct {
	Base     r3.Vec      `json:"base" msgpack:"base"`
	Rotation r3.Rotation `json:"rotation" msgpack:"rotation"`
}

// NewPlacement returns a placement at pos whose local Z axis points along z.
func NewPlacement(pos, z r3.Vec) Placement {
	return Placement{Base: pos, Rotation: RotationTo(ZAxis, z)}
}

// Rot returns the placement rotation, mapping the zero value to the identity.
func (p Placement) Rot() r3.Rotation {
	return normalized(p.Rotation)
}

// MultVec maps a point from the local frame to world coordinates.
func (p Placement) MultVec(v r3.Vec) r3.Vec {
	return r3.Add(p.Base, p.Rot().Rotate(v))
}

// Axis maps a local direction to world coordinates.
func (p Placement) Axis(v r3.Vec) r3.Vec {
	return p.Rot().Rotate(v)
}

// Multiply returns the placement p∘q: q is applied first.
func (p Placement) Multiply(q Placement) Placement {
	return Placement{
		Base:     p.MultVec(q.Base),
		Rotation: Compose(p.Rot(), q.Rot()),
	}
}

// BeamAx returns the world direction of a feature's local axis. A zero
// local vector selects the local Z axis, the flow axis of straight parts.
func BeamAx(p Placement, local r3.Vec) r3.Vec {
	if local == (r3.Vec{}) {
		local = ZAxis
	}
	return Unit(p.Axis(local))
}
