// Package kernel defines the abstract geometry kernel interface.
// Implementations provide solid modeling, 2D profiles and boolean
// operations behind this interface so that piping features can build
// their shapes without knowing which backend renders them.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
	// Contains reports whether the point lies inside the solid.
	Contains(p [3]float64) bool
}

// Profile is an opaque handle to a closed 2D region in the XY plane.
type Profile interface {
	// Bounds returns the axis-aligned bounding rectangle.
	Bounds() (min, max [2]float64)
}

// Kernel is the abstract geometry kernel interface.
//
// Constructors panic when the backend rejects their arguments; callers
// that recompute features recover those panics into errors.
type Kernel interface {
	// Primitives. Cylinder and Cone are centred on the origin along Z;
	// Cone has radius r0 at the bottom and r1 at the top.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid
	Cone(height, r0, r1 float64) Solid
	Sphere(radius float64) Solid

	// 2D profiles
	Circle(radius float64) Profile
	Translate2D(p Profile, x, y float64) Profile
	Rotate2D(p Profile, deg float64) Profile
	Difference2D(a, b Profile) Profile

	// Profile to solid. Extrude and Loft are centred on the origin along Z.
	// Revolve sweeps the profile (x as radius, y as height) about Z,
	// counter-clockwise from +X through deg degrees.
	Extrude(p Profile, height float64) Solid
	Revolve(p Profile, deg float64) Solid
	Loft(bottom, top Profile, height float64) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid
	// RoundIntersection intersects a and b with a fillet of the given
	// radius along the common edges.
	RoundIntersection(a, b Solid, radius float64) Solid
	// Hollow keeps a skin of the given thickness inside the surface of s.
	Hollow(s Solid, thickness float64) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees
	RotateAxis(s Solid, axis [3]float64, deg float64) Solid

	// Output
	ToMesh(s Solid) (*Mesh, error)
	ExportSTL(s Solid, path string) error
}
