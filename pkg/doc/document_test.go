package doc

import (
	"errors"
	"io"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/pypeline/pkg/feature"
	"github.com/chazu/pypeline/pkg/geom"
	"github.com/chazu/pypeline/pkg/kernel"
	"github.com/chazu/pypeline/pkg/kernel/sdfx"
)

// group is a minimal container that records execution order.
type group struct {
	b    feature.Base
	Kids []feature.ID
	Path string
	log  *[]string
	d    *Document
}

func newGroup(label string, log *[]string) *group {
	g := &group{b: feature.Base{ID: feature.NewID(), Label: label, PType: "Group"}, log: log}
	g.b.Touch()
	return g
}

func (g *group) Base() *feature.Base { return &g.b }
func (g *group) Properties() []feature.Property {
	return []feature.Property{
		feature.StringProp("Label", "Base", "", &g.b.Label),
		feature.LinkProp("Base", "Group", "", &g.Path),
		feature.LinkListProp("Kids", "Group", "", &g.Kids),
	}
}
func (g *group) OnChanged(string) {}
func (g *group) Execute(kernel.Kernel) error {
	if g.log != nil {
		*g.log = append(*g.log, g.b.Label)
	}
	return nil
}
func (g *group) Children() []feature.ID { return g.Kids }
func (g *group) Release(id feature.ID) {
	for i, k := range g.Kids {
		if k == id {
			g.Kids = append(g.Kids[:i], g.Kids[i+1:]...)
			return
		}
	}
}
func (g *group) Attach(d *Document) { g.d = d }

// recorder wraps a feature and logs its execution.
type recorder struct {
	feature.Feature
	log *[]string
}

func (r *recorder) Execute(k kernel.Kernel) error {
	*r.log = append(*r.log, r.Base().Label)
	return r.Feature.Execute(k)
}

// panicky always panics in Execute, like a kernel rejecting its input.
type panicky struct{ *feature.Pipe }

func (p panicky) Execute(kernel.Kernel) error { panic("degenerate sweep") }

func newDoc() *Document {
	d := New("test", sdfx.New())
	d.Console = NewConsole(io.Discard)
	return d
}

func TestAddUniqueLabels(t *testing.T) {
	d := newDoc()
	a := d.Add(feature.NewPipe("DN50", 60.3, 3, 100))
	b := d.Add(feature.NewPipe("DN50", 60.3, 3, 100))
	c := d.Add(feature.NewPipe("DN50", 60.3, 3, 100))

	want := []string{"Tube", "Tube001", "Tube002"}
	for i, f := range []feature.Feature{a, b, c} {
		if f.Base().Label != want[i] {
			t.Errorf("label %d = %q, want %q", i, f.Base().Label, want[i])
		}
	}
	if d.ByLabel("Tube001") != b {
		t.Error("ByLabel(Tube001) returned wrong feature")
	}
	if d.Get(c.Base().ID) != c {
		t.Error("Get returned wrong feature")
	}
	if d.Len() != 3 {
		t.Errorf("Len = %d, want 3", d.Len())
	}
}

func TestSetLabel(t *testing.T) {
	d := newDoc()
	a := d.Add(feature.NewPipe("DN50", 60.3, 3, 100))
	d.Add(feature.NewElbow("DN50", 60.3, 3, 90, 45))

	if err := d.Set(a.Base().ID, "Label", "Elbow"); err != nil {
		t.Fatal(err)
	}
	if a.Base().Label != "Elbow001" {
		t.Errorf("label = %q, want Elbow001", a.Base().Label)
	}
	if d.ByLabel("Tube") != nil {
		t.Error("old label should be released")
	}
	if d.ByLabel("Elbow001") != a {
		t.Error("new label not indexed")
	}
	if err := d.Set(a.Base().ID, "Label", ""); !errors.Is(err, ErrEmptyLabel) {
		t.Errorf("empty label error = %v", err)
	}
	if err := d.Set("missing", "OD", 1.0); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing feature error = %v", err)
	}
}

func TestRemoveReleasesFromOwner(t *testing.T) {
	d := newDoc()
	p := d.Add(feature.NewPipe("DN50", 60.3, 3, 100))
	g := newGroup("G", nil)
	g.Kids = []feature.ID{p.Base().ID}
	d.Add(g)
	if g.d != d {
		t.Fatal("container was not attached")
	}
	if d.Owner(p.Base().ID) != g {
		t.Fatal("owner not found")
	}
	if err := d.Remove(p.Base().ID); err != nil {
		t.Fatal(err)
	}
	if len(g.Kids) != 0 {
		t.Errorf("kids = %v, want none", g.Kids)
	}
	if d.Get(p.Base().ID) != nil || d.ByLabel("Tube") != nil {
		t.Error("feature still present")
	}
	if err := d.Remove(p.Base().ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second remove error = %v", err)
	}
}

func TestRecomputeOrder(t *testing.T) {
	var log []string
	d := newDoc()
	loose := d.Add(&recorder{feature.NewPipe("DN50", 60.3, 3, 100), &log})
	child := d.Add(&recorder{feature.NewElbow("DN50", 60.3, 3, 90, 45), &log})
	g := newGroup("G", &log)
	g.Kids = []feature.ID{child.Base().ID}
	d.Add(g)

	if fails := d.Recompute(); len(fails) != 0 {
		t.Fatalf("failures: %v", fails)
	}
	want := "Tube,G,Elbow"
	if got := strings.Join(log, ","); got != want {
		t.Errorf("order = %s, want %s", got, want)
	}
	if loose.Base().Touched() || child.Base().Touched() || g.Base().Touched() {
		t.Error("recompute should clear touched flags")
	}

	// Nothing touched: nothing runs.
	log = nil
	d.Recompute()
	if len(log) != 0 {
		t.Errorf("untouched recompute ran %v", log)
	}

	if err := d.Set(child.Base().ID, "BendAngle", 45.0); err != nil {
		t.Fatal(err)
	}
	d.Recompute()
	if strings.Join(log, ",") != "Elbow" {
		t.Errorf("only the touched elbow should run, got %v", log)
	}
}

func TestRecomputeKeepsLastGoodShape(t *testing.T) {
	d := newDoc()
	e := d.Add(feature.NewElbow("DN50", 60.3, 3, 90, 45)).(*feature.Elbow)
	d.Recompute()
	good := e.Base().Shape
	if good == nil {
		t.Fatal("no shape after first recompute")
	}

	if err := d.Set(e.Base().ID, "BendAngle", 200.0); err != nil {
		t.Fatal(err)
	}
	fails := d.Recompute()
	if len(fails) != 1 || !errors.Is(fails[0], feature.ErrNotExecutable) {
		t.Fatalf("failures = %v", fails)
	}
	if e.Base().Shape != good {
		t.Error("failed recompute replaced the shape")
	}
	if !e.Base().Touched() {
		t.Error("failed feature should stay touched")
	}
	errs := d.Console.Lines(LevelError)
	if len(errs) != 1 || !strings.HasPrefix(errs[0], "Elbow:") {
		t.Errorf("console errors = %v", errs)
	}
}

func TestRecomputeRecoversPanic(t *testing.T) {
	d := newDoc()
	d.Add(panicky{feature.NewPipe("DN50", 60.3, 3, 100)})
	fails := d.Recompute()
	if len(fails) != 1 || !errors.Is(fails[0], ErrKernel) {
		t.Fatalf("failures = %v", fails)
	}
	if !strings.Contains(fails[0].Error(), "degenerate sweep") {
		t.Errorf("failure text = %q", fails[0].Error())
	}
}

func TestRecomputeWithoutKernel(t *testing.T) {
	d := New("bare", nil)
	d.Console = NewConsole(io.Discard)
	d.Add(feature.NewPipe("DN50", 60.3, 3, 100))
	fails := d.Recompute()
	if len(fails) != 1 || !errors.Is(fails[0], ErrNoKernel) {
		t.Fatalf("failures = %v", fails)
	}
}

func TestAddPathTouchesLinks(t *testing.T) {
	d := newDoc()
	g := newGroup("G", nil)
	g.Path = "route"
	d.Add(g)
	d.Recompute()
	if g.Base().Touched() {
		t.Fatal("group should be clean")
	}
	if err := d.AddPath(geom.Polyline("route", r3.Vec{}, r3.Vec{X: 100})); err != nil {
		t.Fatal(err)
	}
	if !g.Base().Touched() {
		t.Error("path change should touch linked features")
	}
	if p, ok := d.Path("route"); !ok || len(p.Edges) != 1 {
		t.Errorf("Path(route) = %v, %v", p, ok)
	}
	if err := d.AddPath(&geom.Path{}); err == nil {
		t.Error("unnamed path should be rejected")
	}
	d.RemovePath("route")
	if len(d.Paths()) != 0 {
		t.Error("path not removed")
	}
}

func TestRoots(t *testing.T) {
	d := newDoc()
	a := d.Add(feature.NewPipe("DN50", 60.3, 3, 100))
	b := d.Add(feature.NewPipe("DN50", 60.3, 3, 100))
	g := newGroup("G", nil)
	g.Kids = []feature.ID{b.Base().ID}
	d.Add(g)
	roots := d.Roots()
	if len(roots) != 2 || roots[0] != a || roots[1] != g {
		t.Errorf("roots = %v", roots)
	}
}

func TestConsole(t *testing.T) {
	var sb strings.Builder
	c := NewConsole(&sb)
	c.Printf("Created group %s\n", "L_pieces")
	c.Warningf("Base has changed")
	c.Errorf("Base has not valid edges")
	if len(c.Messages()) != 3 {
		t.Fatalf("messages = %v", c.Messages())
	}
	if got := c.Lines(LevelMessage); len(got) != 1 || got[0] != "Created group L_pieces" {
		t.Errorf("messages = %v", got)
	}
	out := sb.String()
	if !strings.Contains(out, "WARNING: Base has changed") || !strings.Contains(out, "ERROR: Base has not valid edges") {
		t.Errorf("log output = %q", out)
	}
	c.Reset()
	if len(c.Messages()) != 0 {
		t.Error("Reset should drop messages")
	}
}
