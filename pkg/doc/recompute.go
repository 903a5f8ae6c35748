package doc

import (
	"fmt"

	"github.com/chazu/pypeline/pkg/feature"
)

// Failure records a feature whose recompute failed. Its previous shape
// is left in place.
type Failure struct {
	ID    feature.ID
	Label string
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Label, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Recompute executes every touched feature. Roots run in insertion order
// and each container runs before its children, so containers can lay out
// the features they own before those rebuild.
func (d *Document) Recompute() []Failure {
	var failures []Failure
	seen := make(map[feature.ID]bool)
	var visit func(f feature.Feature)
	visit = func(f feature.Feature) {
		b := f.Base()
		if seen[b.ID] {
			return
		}
		seen[b.ID] = true
		if b.Touched() {
			if err := d.execute(f); err != nil {
				d.Console.Errorf("%s: %v", b.Label, err)
				failures = append(failures, Failure{ID: b.ID, Label: b.Label, Err: err})
			} else {
				b.Untouch()
			}
		}
		if c, ok := f.(Container); ok {
			for _, cid := range c.Children() {
				if child := d.features[cid]; child != nil {
					visit(child)
				}
			}
		}
	}
	for _, f := range d.Roots() {
		visit(f)
	}
	return failures
}

// TouchAll marks every feature for recompute.
func (d *Document) TouchAll() {
	for _, f := range d.features {
		f.Base().Touch()
	}
}

// execute runs f.Execute, turning kernel panics into errors.
func (d *Document) execute(f feature.Feature) (err error) {
	if d.Kernel == nil {
		return ErrNoKernel
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrKernel, r)
		}
	}()
	return f.Execute(d.Kernel)
}
