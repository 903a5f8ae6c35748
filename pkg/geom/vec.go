package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Tolerance is the geometric tolerance used for parallelism and
// coincidence checks, in model units (mm).
const Tolerance = 1e-7

var (
	// XAxis, YAxis and ZAxis are the unit vectors of the global frame.
	XAxis = r3.Vec{X: 1}
	YAxis = r3.Vec{Y: 1}
	ZAxis = r3.Vec{Z: 1}
)

// Identity is the rotation that leaves every vector unchanged.
var Identity = r3.Rotation{Real: 1}

// Unit returns v scaled to length 1. The zero vector is returned unchanged.
func Unit(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n < Tolerance {
		return r3.Vec{}
	}
	return r3.Scale(1/n, v)
}

// Distance returns |a-b|.
func Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// Near reports whether a and b coincide within tol.
func Near(a, b r3.Vec, tol float64) bool {
	return Distance(a, b) <= tol
}

// IsParallel reports whether a and b are parallel or antiparallel.
// A zero vector is parallel to everything.
func IsParallel(a, b r3.Vec) bool {
	na, nb := r3.Norm(a), r3.Norm(b)
	if na < Tolerance || nb < Tolerance {
		return true
	}
	return r3.Norm(r3.Cross(a, b)) <= Tolerance*na*nb
}

// Ortho returns the unit normal of the plane spanned by a and b.
func Ortho(a, b r3.Vec) r3.Vec {
	return Unit(r3.Cross(a, b))
}

// Bisect returns the unit bisector of directions a and b.
func Bisect(a, b r3.Vec) r3.Vec {
	return Unit(r3.Add(Unit(a), Unit(b)))
}

// AngleBetween returns the angle between a and b in radians, in [0, π].
func AngleBetween(a, b r3.Vec) float64 {
	na, nb := r3.Norm(a), r3.Norm(b)
	if na < Tolerance || nb < Tolerance {
		return 0
	}
	return math.Acos(clamp(r3.Dot(a, b)/(na*nb), -1, 1))
}

// Perpendicular returns some unit vector perpendicular to v.
func Perpendicular(v r3.Vec) r3.Vec {
	u := Unit(v)
	ref := XAxis
	if math.Abs(u.X) > 0.9 {
		ref = YAxis
	}
	return Unit(r3.Cross(u, ref))
}

// RotationTo returns the minimal rotation taking direction from onto
// direction to. Antiparallel inputs rotate by π about an arbitrary axis
// perpendicular to from.
func RotationTo(from, to r3.Vec) r3.Rotation {
	f, t := Unit(from), Unit(to)
	if f == (r3.Vec{}) || t == (r3.Vec{}) {
		return Identity
	}
	c := clamp(r3.Dot(f, t), -1, 1)
	switch {
	case c > 1-Tolerance:
		return Identity
	case c < -1+Tolerance:
		return r3.NewRotation(math.Pi, Perpendicular(f))
	}
	return r3.NewRotation(math.Acos(c), Unit(r3.Cross(f, t)))
}

// AlignFrames returns the rotation that takes direction a onto a2 and,
// around it, the normal b onto b2. a must be perpendicular to b and a2 to
// b2. When b or b2 is degenerate only the direction is aligned.
func AlignFrames(a, b, a2, b2 r3.Vec) r3.Rotation {
	if Unit(b) == (r3.Vec{}) || Unit(b2) == (r3.Vec{}) {
		return RotationTo(a, a2)
	}
	r1 := RotationTo(b, b2)
	ra := r1.Rotate(Unit(a))
	t := Unit(a2)
	c := clamp(r3.Dot(ra, t), -1, 1)
	var r2 r3.Rotation
	switch {
	case c > 1-Tolerance:
		r2 = Identity
	case c < -1+Tolerance:
		r2 = r3.NewRotation(math.Pi, Unit(b2))
	default:
		axis := Unit(r3.Cross(ra, t))
		r2 = r3.NewRotation(math.Acos(c), axis)
	}
	return Compose(r2, r1)
}

// Compose returns the rotation applying b first, then a.
func Compose(a, b r3.Rotation) r3.Rotation {
	return r3.Rotation(quat.Mul(quat.Number(normalized(a)), quat.Number(normalized(b))))
}

// AxisAngle returns the rotation axis and angle (radians) of r.
// The identity yields the Z axis and a zero angle.
func AxisAngle(r r3.Rotation) (axis r3.Vec, angle float64) {
	q := normalized(r)
	if q.Real < 0 {
		q = r3.Rotation{Real: -q.Real, Imag: -q.Imag, Jmag: -q.Jmag, Kmag: -q.Kmag}
	}
	angle = 2 * math.Acos(clamp(q.Real, -1, 1))
	s := math.Sqrt(1 - q.Real*q.Real)
	if s < 1e-12 {
		return ZAxis, 0
	}
	return r3.Vec{X: q.Imag / s, Y: q.Jmag / s, Z: q.Kmag / s}, angle
}

// normalized maps the zero value to the identity and rescales r to a unit
// quaternion.
func normalized(r r3.Rotation) r3.Rotation {
	if r == (r3.Rotation{}) {
		return Identity
	}
	n := quat.Abs(quat.Number(r))
	if n == 1 || n == 0 {
		return r
	}
	return r3.Rotation(quat.Scale(1/n, quat.Number(r)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
