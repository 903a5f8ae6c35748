package view

import (
	"bytes"
	"io"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/pypeline/pkg/doc"
	"github.com/chazu/pypeline/pkg/feature"
	"github.com/chazu/pypeline/pkg/geom"
	"github.com/chazu/pypeline/pkg/kernel/sdfx"
	"github.com/chazu/pypeline/pkg/pipeline"
)

func newDoc(t *testing.T) (*doc.Document, *pipeline.Branch) {
	t.Helper()
	d := doc.New("v", sdfx.New())
	d.Console = doc.NewConsole(io.Discard)
	d.AddPath(geom.Polyline("r", r3.Vec{}, r3.Vec{X: 500}, r3.Vec{X: 500, Y: 500}))
	b, err := pipeline.NewBranch(d, "B", "r", "DN50", "SCH-STD", 60.3, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	return d, b
}

func TestIcons(t *testing.T) {
	for _, tt := range []struct{ ptype, want string }{
		{pipeline.TypePypeLine, "icons/pypeline.svg"},
		{pipeline.TypeBranch, "icons/branch.svg"},
		{feature.TypePipe, "icons/feature.svg"},
	} {
		if got := IconPath(tt.ptype); got != tt.want {
			t.Errorf("IconPath(%s) = %s", tt.ptype, got)
		}
		data, err := Icon(IconPath(tt.ptype))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.HasPrefix(data, []byte("<svg")) {
			t.Errorf("%s is not an svg", tt.want)
		}
	}
	if _, err := Icon(QueryIcon); err != nil {
		t.Error(err)
	}
	if _, err := Icon("icons/missing.svg"); err == nil {
		t.Error("missing icon should fail")
	}
}

func TestTreeClaimsChildren(t *testing.T) {
	d, _ := newDoc(t)
	d.Add(feature.NewCap("DN50", 60.3, 3))
	tree := Tree(d)
	if len(tree) != 2 {
		t.Fatalf("roots = %d, want branch and cap", len(tree))
	}
	if tree[0].Label != "B" || len(tree[0].Children) != 3 {
		t.Errorf("branch node = %+v", tree[0])
	}
	if tree[0].Icon != "icons/branch.svg" || tree[1].Icon != "icons/feature.svg" {
		t.Errorf("icons = %s, %s", tree[0].Icon, tree[1].Icon)
	}
}

func TestOnDeleteBranch(t *testing.T) {
	d, b := newDoc(t)
	labels, err := DeleteSet(d, b.Base().ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(labels) != 4 || labels[0] != "B" {
		t.Errorf("DeleteSet = %v", labels)
	}
	if err := OnDelete(d, b.Base().ID); err != nil {
		t.Fatal(err)
	}
	if d.Len() != 0 {
		t.Errorf("%d features left after deleting the branch", d.Len())
	}
	if err := OnDelete(d, b.Base().ID); err == nil {
		t.Error("second delete should fail")
	}
}

func TestOnDeletePypeLineKeepsMembers(t *testing.T) {
	d := doc.New("v", sdfx.New())
	d.Console = doc.NewConsole(io.Discard)
	l := pipeline.NewPypeLine("L", "DN50", "SCH-STD", 60.3, 3, 0)
	d.Add(l)
	p := d.Add(feature.NewPipe("DN50", 60.3, 3, 100))
	l.AddToGroup(p)
	if err := OnDelete(d, l.Base().ID); err != nil {
		t.Fatal(err)
	}
	if d.Get(p.Base().ID) == nil {
		t.Error("group member deleted with the pipeline")
	}
}
