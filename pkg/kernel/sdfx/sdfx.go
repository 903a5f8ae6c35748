// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/pypeline/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// DefaultMeshCells controls marching cubes tessellation resolution.
const DefaultMeshCells = 200

// maxRefine bounds how often ToMesh doubles the grid of an empty mesh.
const maxRefine = 3

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// Contains reports whether p is inside or on the surface.
func (s *sdfxSolid) Contains(p [3]float64) bool {
	return s.s.Evaluate(v3.Vec{X: p[0], Y: p[1], Z: p[2]}) <= 0
}

// sdfxProfile wraps an sdf.SDF2 to implement kernel.Profile.
type sdfxProfile struct {
	s sdf.SDF2
}

func (p *sdfxProfile) Bounds() (min, max [2]float64) {
	bb := p.s.BoundingBox()
	return [2]float64{bb.Min.X, bb.Min.Y}, [2]float64{bb.Max.X, bb.Max.Y}
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	meshCells int
}

// New returns a new SdfxKernel with the default mesh resolution.
func New() *SdfxKernel {
	return &SdfxKernel{meshCells: DefaultMeshCells}
}

// NewWithCells returns an SdfxKernel that tessellates with the given
// number of marching cubes cells along the longest bounding box axis.
func NewWithCells(cells int) *SdfxKernel {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	return &SdfxKernel{meshCells: cells}
}

// unwrap extracts the underlying sdf.SDF3 from a kernel.Solid.
func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*sdfxSolid).s
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

func unwrap2(p kernel.Profile) sdf.SDF2 {
	return p.(*sdfxProfile).s
}

func wrap2(s sdf.SDF2) kernel.Profile {
	return &sdfxProfile{s: s}
}

func must3(op string, s sdf.SDF3, err error) kernel.Solid {
	if err != nil {
		panic(fmt.Sprintf("sdfx.%s: %v", op, err))
	}
	return wrap(s)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Box creates a box with the given dimensions. The resulting solid has its
// minimum corner at the origin (0,0,0) so that placement translations work
// intuitively. sdf.Box3D centers the box at the origin, so we translate by
// half-dimensions.
func (k *SdfxKernel) Box(x, y, z float64) kernel.Solid {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	// Shift from center-origin to min-corner-origin.
	m := sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})
	return wrap(sdf.Transform3D(s, m))
}

// Cylinder creates a cylinder with the given height and radius.
// The segments parameter is ignored since SDF represents smooth surfaces.
func (k *SdfxKernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	s, err := sdf.Cylinder3D(height, radius, 0)
	return must3("Cylinder3D", s, err)
}

// Cone creates a truncated cone, radius r0 at the bottom and r1 at the top.
func (k *SdfxKernel) Cone(height, r0, r1 float64) kernel.Solid {
	s, err := sdf.Cone3D(height, r0, r1, 0)
	return must3("Cone3D", s, err)
}

// Sphere creates a sphere centred on the origin.
func (k *SdfxKernel) Sphere(radius float64) kernel.Solid {
	s, err := sdf.Sphere3D(radius)
	return must3("Sphere3D", s, err)
}

// Circle creates a disc centred on the origin.
func (k *SdfxKernel) Circle(radius float64) kernel.Profile {
	s, err := sdf.Circle2D(radius)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Circle2D: %v", err))
	}
	return wrap2(s)
}

// Translate2D moves a profile by (x, y).
func (k *SdfxKernel) Translate2D(p kernel.Profile, x, y float64) kernel.Profile {
	return wrap2(sdf.Transform2D(unwrap2(p), sdf.Translate2d(v2.Vec{X: x, Y: y})))
}

// Rotate2D rotates a profile about the origin, counter-clockwise in degrees.
func (k *SdfxKernel) Rotate2D(p kernel.Profile, deg float64) kernel.Profile {
	return wrap2(sdf.Transform2D(unwrap2(p), sdf.Rotate2d(radians(deg))))
}

// Difference2D returns a - b.
func (k *SdfxKernel) Difference2D(a, b kernel.Profile) kernel.Profile {
	return wrap2(sdf.Difference2D(unwrap2(a), unwrap2(b)))
}

// Extrude extrudes a profile along Z, centred on the origin.
func (k *SdfxKernel) Extrude(p kernel.Profile, height float64) kernel.Solid {
	return wrap(sdf.Extrude3D(unwrap2(p), height))
}

// Revolve sweeps a profile about the Z axis. A full turn or more gives a
// closed solid of revolution.
func (k *SdfxKernel) Revolve(p kernel.Profile, deg float64) kernel.Solid {
	if deg >= 360 {
		s, err := sdf.Revolve3D(unwrap2(p))
		return must3("Revolve3D", s, err)
	}
	s, err := sdf.RevolveTheta3D(unwrap2(p), radians(deg))
	return must3("RevolveTheta3D", s, err)
}

// Loft blends from the bottom profile to the top profile over height.
func (k *SdfxKernel) Loft(bottom, top kernel.Profile, height float64) kernel.Solid {
	s, err := sdf.Loft3D(unwrap2(bottom), unwrap2(top), height, 0)
	return must3("Loft3D", s, err)
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

// Intersection returns the intersection of two solids.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Intersect3D(unwrap(a), unwrap(b)))
}

// RoundIntersection returns the intersection of a and b with the common
// edges rounded by radius.
func (k *SdfxKernel) RoundIntersection(a, b kernel.Solid, radius float64) kernel.Solid {
	if radius <= 0 {
		return k.Intersection(a, b)
	}
	return wrap(&roundIntersection{a: unwrap(a), b: unwrap(b), k: radius})
}

// Hollow keeps a skin of the given thickness inside the surface of s.
func (k *SdfxKernel) Hollow(s kernel.Solid, thickness float64) kernel.Solid {
	if thickness <= 0 {
		panic(fmt.Sprintf("sdfx.Hollow: thickness %g must be positive", thickness))
	}
	return wrap(&hollow{s: unwrap(s), t: thickness})
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *SdfxKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.RotateZ(radians(z)).Mul(sdf.RotateY(radians(y))).Mul(sdf.RotateX(radians(x)))
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// RotateAxis rotates a solid about an axis through the origin.
func (k *SdfxKernel) RotateAxis(s kernel.Solid, axis [3]float64, deg float64) kernel.Solid {
	if deg == 0 {
		return s
	}
	m := sdf.Rotate3d(v3.Vec{X: axis[0], Y: axis[1], Z: axis[2]}, radians(deg))
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	sdf3 := unwrap(s)

	// Thin walls on long parts can fall between the grid points; refine
	// a few times before giving up on an empty result.
	cells := k.cells()
	triangles := render.ToTriangles(sdf3, render.NewMarchingCubesUniform(cells))
	for i := 0; len(triangles) == 0 && i < maxRefine; i++ {
		cells *= 2
		triangles = render.ToTriangles(sdf3, render.NewMarchingCubesUniform(cells))
	}

	numTri := len(triangles)
	numVerts := numTri * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Compute face normal.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}

// ErrEmptyPath is returned by ExportSTL when no output path is given.
var ErrEmptyPath = errors.New("sdfx: empty STL path")

// ExportSTL writes the solid as an STL file, tessellated with an octree
// marching cubes renderer.
func (k *SdfxKernel) ExportSTL(s kernel.Solid, path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	render.ToSTL(unwrap(s), path, render.NewMarchingCubesOctree(k.cells()))
	return nil
}

func (k *SdfxKernel) cells() int {
	if k.meshCells <= 0 {
		return DefaultMeshCells
	}
	return k.meshCells
}
