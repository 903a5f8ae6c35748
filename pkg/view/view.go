// Package view adapts documents for display: icons per feature type, the
// object tree with containers claiming their children, and the delete
// flow that keeps owned parts from being orphaned.
package view

import (
	"embed"
	"fmt"
	"path"

	"github.com/chazu/pypeline/pkg/doc"
	"github.com/chazu/pypeline/pkg/feature"
	"github.com/chazu/pypeline/pkg/pipeline"
)

//go:embed icons/*.svg
var icons embed.FS

const QueryIcon = "icons/query.svg"

// IconPath returns the embedded icon path for a feature type.
func IconPath(ptype string) string {
	switch ptype {
	case pipeline.TypePypeLine:
		return "icons/pypeline.svg"
	case pipeline.TypeBranch:
		return "icons/branch.svg"
	}
	return "icons/feature.svg"
}

// Icon returns the SVG bytes at name, as returned by IconPath.
func Icon(name string) ([]byte, error) {
	data, err := icons.ReadFile(path.Clean(name))
	if err != nil {
		return nil, fmt.Errorf("view: icon %s: %w", name, err)
	}
	return data, nil
}

type Node struct {
	ID       feature.ID `json:"id"`
	Label    string     `json:"label"`
	PType    string     `json:"ptype"`
	Icon     string     `json:"icon"`
	Touched  bool       `json:"touched"`
	Children []Node     `json:"children,omitempty"`
}

// Tree returns the document's roots with every container's children
// nested beneath it.
func Tree(d *doc.Document) []Node {
	roots := d.Roots()
	out := make([]Node, 0, len(roots))
	for _, f := range roots {
		out = append(out, node(d, f, map[feature.ID]bool{}))
	}
	return out
}

func node(d *doc.Document, f feature.Feature, seen map[feature.ID]bool) Node {
	b := f.Base()
	seen[b.ID] = true
	n := Node{ID: b.ID, Label: b.Label, PType: b.PType, Icon: IconPath(b.PType), Touched: b.Touched()}
	if c, ok := f.(doc.Container); ok {
		for _, id := range c.Children() {
			child := d.Get(id)
			if child == nil || seen[id] {
				continue
			}
			n.Children = append(n.Children, node(d, child, seen))
		}
	}
	return n
}

// DeleteSet lists the labels that deleting id would remove: the feature
// itself and, for a branch, its tubes and curves.
func DeleteSet(d *doc.Document, id feature.ID) ([]string, error) {
	f := d.Get(id)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", doc.ErrNotFound, id)
	}
	out := []string{f.Base().Label}
	if b, ok := f.(*pipeline.Branch); ok {
		for _, cid := range b.Children() {
			if c := d.Get(cid); c != nil {
				out = append(out, c.Base().Label)
			}
		}
	}
	return out, nil
}

// OnDelete removes a feature. A branch purges its parts first; the
// members of a pipeline group are released and stay in the document.
func OnDelete(d *doc.Document, id feature.ID) error {
	f := d.Get(id)
	if f == nil {
		return fmt.Errorf("%w: %s", doc.ErrNotFound, id)
	}
	if b, ok := f.(*pipeline.Branch); ok {
		b.Purge()
	}
	return d.Remove(id)
}
