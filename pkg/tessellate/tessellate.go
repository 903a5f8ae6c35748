// Package tessellate walks a piping document and produces triangle meshes
// using its geometry kernel. One mesh is produced per shaped feature;
// containers contribute their children.
package tessellate

import (
	"errors"
	"fmt"

	"github.com/chazu/pypeline/pkg/doc"
	"github.com/chazu/pypeline/pkg/feature"
	"github.com/chazu/pypeline/pkg/kernel"
)

var (
	ErrNoShape = errors.New("tessellate: nothing to export")
	ErrUnknown = errors.New("tessellate: no feature with that label")
)

// Tessellate walks the document roots and produces one world-space mesh
// per feature that has a shape. Features are visited in document order,
// containers before their children. The document is not modified.
func Tessellate(d *doc.Document) ([]*kernel.Mesh, error) {
	if d == nil {
		return nil, nil
	}
	if d.Kernel == nil {
		return nil, doc.ErrNoKernel
	}
	w := &walker{d: d, k: d.Kernel, seen: make(map[feature.ID]bool)}
	var meshes []*kernel.Mesh
	for _, root := range d.Roots() {
		collected, err := w.walk(root)
		if err != nil {
			return nil, fmt.Errorf("tessellate: error walking %s: %w", root.Base().Label, err)
		}
		meshes = append(meshes, collected...)
	}
	return meshes, nil
}

type walker struct {
	d    *doc.Document
	k    kernel.Kernel
	seen map[feature.ID]bool
}

func (w *walker) walk(f feature.Feature) ([]*kernel.Mesh, error) {
	b := f.Base()
	if w.seen[b.ID] {
		return nil, nil
	}
	w.seen[b.ID] = true

	var meshes []*kernel.Mesh
	if b.Shape != nil {
		m, err := w.mesh(f)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, m)
	}
	if c, ok := f.(doc.Container); ok {
		for _, id := range c.Children() {
			child := w.d.Get(id)
			if child == nil {
				continue
			}
			collected, err := w.walk(child)
			if err != nil {
				return nil, err
			}
			meshes = append(meshes, collected...)
		}
	}
	return meshes, nil
}

// mesh converts one feature, turning kernel panics into errors.
func (w *walker) mesh(f feature.Feature) (m *kernel.Mesh, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", doc.ErrKernel, r)
		}
	}()
	m, err = w.k.ToMesh(feature.Placed(w.k, f))
	if err != nil {
		return nil, fmt.Errorf("ToMesh failed for %s: %w", f.Base().Label, err)
	}
	m.PartName = f.Base().Label
	m.PType = f.Base().PType
	return m, nil
}

// Solid returns the world-space solid of the labelled feature. A
// container yields the union of its shaped descendants.
func Solid(d *doc.Document, label string) (kernel.Solid, error) {
	f := d.ByLabel(label)
	if f == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, label)
	}
	var out kernel.Solid
	seen := make(map[feature.ID]bool)
	var collect func(f feature.Feature)
	collect = func(f feature.Feature) {
		if seen[f.Base().ID] {
			return
		}
		seen[f.Base().ID] = true
		if s := feature.Placed(d.Kernel, f); s != nil {
			if out == nil {
				out = s
			} else {
				out = d.Kernel.Union(out, s)
			}
		}
		if c, ok := f.(doc.Container); ok {
			for _, id := range c.Children() {
				if child := d.Get(id); child != nil {
					collect(child)
				}
			}
		}
	}
	collect(f)
	if out == nil {
		return nil, fmt.Errorf("%w: %s has no shape", ErrNoShape, label)
	}
	return out, nil
}

// ExportSTL writes the labelled feature, or everything a container owns,
// to an STL file at path.
func ExportSTL(d *doc.Document, label, path string) (err error) {
	if d.Kernel == nil {
		return doc.ErrNoKernel
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", doc.ErrKernel, r)
		}
	}()
	s, err := Solid(d, label)
	if err != nil {
		return err
	}
	return d.Kernel.ExportSTL(s, path)
}
