// Package doc holds the piping document: the arena of features, their
// labels and ownership, the named base paths that containers follow, and
// the ordered recompute that rebuilds touched features.
package doc

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/chazu/pypeline/pkg/feature"
	"github.com/chazu/pypeline/pkg/geom"
	"github.com/chazu/pypeline/pkg/kernel"
)

var (
	ErrNotFound   = errors.New("doc: feature not found")
	ErrNoKernel   = errors.New("doc: no geometry kernel")
	ErrKernel     = errors.New("doc: kernel failure")
	ErrEmptyLabel = errors.New("doc: empty label")
)

// Container is a feature that owns other features.
type Container interface {
	feature.Feature
	Children() []feature.ID
	// Release drops id from the container without deleting it.
	Release(id feature.ID)
}

// Attacher is implemented by features that need their document, such as
// containers that create or look up other features.
type Attacher interface {
	Attach(d *Document)
}

// Document is an ordered arena of features.
type Document struct {
	Name    string
	Kernel  kernel.Kernel
	Console *Console

	features map[feature.ID]feature.Feature
	order    []feature.ID
	labels   map[string]feature.ID
	paths    map[string]*geom.Path
}

// New creates an empty document that builds shapes with k.
func New(name string, k kernel.Kernel) *Document {
	return &Document{
		Name:     name,
		Kernel:   k,
		Console:  NewConsole(log.Writer()),
		features: make(map[feature.ID]feature.Feature),
		labels:   make(map[string]feature.ID),
		paths:    make(map[string]*geom.Path),
	}
}

// UniqueLabel returns label, or label followed by the first free
// three-digit suffix.
func (d *Document) UniqueLabel(label string) string {
	if _, taken := d.labels[label]; !taken {
		return label
	}
	for i := 1; ; i++ {
		l := fmt.Sprintf("%s%03d", label, i)
		if _, taken := d.labels[l]; !taken {
			return l
		}
	}
}

// Add inserts f, making its label unique. Attachers are bound to d.
func (d *Document) Add(f feature.Feature) feature.Feature {
	b := f.Base()
	if b.ID == "" {
		b.ID = feature.NewID()
	}
	if b.Label == "" {
		b.Label = b.PType
	}
	b.Label = d.UniqueLabel(b.Label)
	d.features[b.ID] = f
	d.order = append(d.order, b.ID)
	d.labels[b.Label] = b.ID
	if a, ok := f.(Attacher); ok {
		a.Attach(d)
	}
	return f
}

// Get returns the feature with the given ID, or nil.
func (d *Document) Get(id feature.ID) feature.Feature {
	return d.features[id]
}

// ByLabel returns the feature with the given label, or nil.
func (d *Document) ByLabel(label string) feature.Feature {
	id, ok := d.labels[label]
	if !ok {
		return nil
	}
	return d.features[id]
}

// Remove deletes a feature and releases it from its owner. The
// feature's own children are left in the document.
func (d *Document) Remove(id feature.ID) error {
	f, ok := d.features[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if owner := d.Owner(id); owner != nil {
		owner.Release(id)
	}
	delete(d.features, id)
	if d.labels[f.Base().Label] == id {
		delete(d.labels, f.Base().Label)
	}
	for i, oid := range d.order {
		if oid == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return nil
}

// Features returns every feature in insertion order.
func (d *Document) Features() []feature.Feature {
	out := make([]feature.Feature, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.features[id])
	}
	return out
}

// Len returns the number of features.
func (d *Document) Len() int {
	return len(d.order)
}

// Owner returns the container that lists id as a child, or nil.
func (d *Document) Owner(id feature.ID) Container {
	for _, oid := range d.order {
		c, ok := d.features[oid].(Container)
		if !ok {
			continue
		}
		for _, cid := range c.Children() {
			if cid == id {
				return c
			}
		}
	}
	return nil
}

// Roots returns the features not owned by any container.
func (d *Document) Roots() []feature.Feature {
	owned := make(map[feature.ID]bool)
	for _, f := range d.features {
		if c, ok := f.(Container); ok {
			for _, cid := range c.Children() {
				owned[cid] = true
			}
		}
	}
	var roots []feature.Feature
	for _, id := range d.order {
		if !owned[id] {
			roots = append(roots, d.features[id])
		}
	}
	return roots
}

// Set writes a property through the change notification path. Label
// changes are made unique and re-indexed.
func (d *Document) Set(id feature.ID, prop string, value any) error {
	f, ok := d.features[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if prop != "Label" {
		return feature.Set(f, prop, value)
	}
	label, ok := value.(string)
	if !ok {
		return fmt.Errorf("%w: Label expects string, got %T", feature.ErrInvalidValue, value)
	}
	if label == "" {
		return ErrEmptyLabel
	}
	old := f.Base().Label
	if label == old {
		return nil
	}
	delete(d.labels, old)
	label = d.UniqueLabel(label)
	d.labels[label] = id
	return feature.Set(f, "Label", label)
}

// AddPath stores a base path, replacing any path of the same name, and
// touches the features that link to it.
func (d *Document) AddPath(p *geom.Path) error {
	if p == nil || p.Name == "" {
		return fmt.Errorf("doc: path needs a name")
	}
	d.paths[p.Name] = p
	for _, id := range d.order {
		f := d.features[id]
		for _, prop := range f.Properties() {
			if prop.Kind == feature.KindLink && prop.Value() == p.Name {
				f.Base().Touch()
			}
		}
	}
	return nil
}

// Path returns the named base path.
func (d *Document) Path(name string) (*geom.Path, bool) {
	p, ok := d.paths[name]
	return p, ok
}

// Paths returns all base paths sorted by name.
func (d *Document) Paths() []*geom.Path {
	out := make([]*geom.Path, 0, len(d.paths))
	for _, p := range d.paths {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RemovePath deletes a base path.
func (d *Document) RemovePath(name string) {
	delete(d.paths, name)
}
