package pipeline

import (
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/pypeline/pkg/doc"
	"github.com/chazu/pypeline/pkg/feature"
	"github.com/chazu/pypeline/pkg/geom"
	"github.com/chazu/pypeline/pkg/kernel/sdfx"
)

const tol = 1e-6

func newDoc() *doc.Document {
	d := doc.New("test", sdfx.New())
	d.Console = doc.NewConsole(io.Discard)
	return d
}

func vecNear(t *testing.T, name string, got, want r3.Vec) {
	t.Helper()
	if !geom.Near(got, want, tol) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func route(name string) *geom.Path {
	return geom.Polyline(name,
		r3.Vec{},
		r3.Vec{X: 1000},
		r3.Vec{X: 1500, Y: 500},
		r3.Vec{X: 1500, Y: 500, Z: 800},
	)
}

func TestPlaceTheElbow(t *testing.T) {
	tests := []struct {
		name   string
		v1, v2 r3.Vec
		angle  float64
	}{
		{"right", r3.Vec{X: 1}, r3.Vec{Y: 1}, 90},
		{"forty-five", r3.Vec{X: 1}, geom.Unit(r3.Vec{X: 1, Y: 1}), 45},
		{"vertical", geom.Unit(r3.Vec{X: 1, Y: 1}), r3.Vec{Z: 1}, 90},
		{"obtuse", r3.Vec{X: 1}, geom.Unit(r3.Vec{X: -1, Z: 1}), 135},
	}
	P := r3.Vec{X: 10, Y: 20, Z: 30}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := feature.NewElbow("DN50", 60.3, 3, 90, 45)
			PlaceTheElbow(c, tt.v1, tt.v2, P)
			if math.Abs(c.BendAngle-tt.angle) > tol {
				t.Fatalf("BendAngle = %g, want %g", c.BendAngle, tt.angle)
			}
			reach := 45 * math.Tan(tt.angle/2*math.Pi/180)
			ports := PortsPos(c)
			vecNear(t, "port0", ports[0], r3.Sub(P, r3.Scale(reach, tt.v1)))
			vecNear(t, "port1", ports[1], r3.Add(P, r3.Scale(reach, tt.v2)))
		})
	}
}

func TestPlaceTheElbowStraight(t *testing.T) {
	c := feature.NewElbow("DN50", 60.3, 3, 90, 45)
	P := r3.Vec{X: 5}
	PlaceTheElbow(c, r3.Vec{X: 1}, r3.Vec{X: 1}, P)
	if c.BendAngle != 0 {
		t.Errorf("BendAngle = %g, want 0", c.BendAngle)
	}
	for _, p := range PortsPos(c) {
		vecNear(t, "port", p, P)
	}
}

func TestExtendTheBeam(t *testing.T) {
	tests := []struct {
		name     string
		target   r3.Vec
		wantBase r3.Vec
		wantH    float64
	}{
		{"trim end", r3.Vec{X: 80, Y: 7}, r3.Vec{}, 80},
		{"extend end", r3.Vec{X: 150}, r3.Vec{}, 150},
		{"trim base", r3.Vec{X: 20, Z: -3}, r3.Vec{X: 20}, 80},
		{"extend base", r3.Vec{X: -30}, r3.Vec{X: -30}, 130},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := feature.NewPipe("DN50", 60.3, 3, 100)
			p.Base().Placement = geom.NewPlacement(r3.Vec{}, r3.Vec{X: 1})
			ExtendTheBeam(p, tt.target)
			vecNear(t, "base", p.Base().Placement.Base, tt.wantBase)
			if math.Abs(p.Height-tt.wantH) > tol {
				t.Errorf("Height = %g, want %g", p.Height, tt.wantH)
			}
		})
	}
}

func TestMakeElbowBetweenThingsOrder(t *testing.T) {
	d := newDoc()
	a := geom.Line{From: r3.Vec{}, To: r3.Vec{X: 1000}}
	b := geom.Line{From: r3.Vec{X: 1000}, To: r3.Vec{X: 1000, Y: 1000}}
	s := Sizing{PSize: "DN50", OD: 60.3, Thk: 3, BendAngle: 90, BendRadius: 45}
	for _, pair := range [][2]geom.Edge{{a, b}, {b, a}} {
		c := MakeElbowBetweenThings(d, pair[0], pair[1], s)
		ports := PortsPos(c)
		vecNear(t, "port0", ports[0], r3.Vec{X: 955})
		vecNear(t, "port1", ports[1], r3.Vec{X: 1000, Y: 45})
	}
}

func TestPypeLineUpdate(t *testing.T) {
	d := newDoc()
	l := NewPypeLine("L", "DN50", "SCH-STD", 60.3, 3, 0)
	d.Add(l)
	if l.Group != "L_pieces" {
		t.Errorf("Group = %q", l.Group)
	}
	if got := d.Console.Lines(doc.LevelMessage); len(got) != 1 || got[0] != "Created group L_pieces" {
		t.Errorf("console = %v", got)
	}
	d.AddPath(geom.Polyline("run", r3.Vec{}, r3.Vec{X: 1000}, r3.Vec{X: 1000, Y: 1000}, r3.Vec{X: 2000, Y: 1000}))
	if err := d.Set(l.Base().ID, "Base", "run"); err != nil {
		t.Fatal(err)
	}
	if err := l.Update(nil); err != nil {
		t.Fatal(err)
	}

	var pipes []*feature.Pipe
	var elbows []*feature.Elbow
	for _, id := range l.Members {
		switch f := d.Get(id).(type) {
		case *feature.Pipe:
			pipes = append(pipes, f)
		case *feature.Elbow:
			elbows = append(elbows, f)
		}
	}
	if len(pipes) != 3 || len(elbows) != 2 {
		t.Fatalf("pipes=%d elbows=%d", len(pipes), len(elbows))
	}
	br := 0.75 * 60.3
	wantH := []float64{1000 - br, 1000 - 2*br, 1000 - br}
	for i, p := range pipes {
		if math.Abs(p.Height-wantH[i]) > tol {
			t.Errorf("pipe %d Height = %g, want %g", i, p.Height, wantH[i])
		}
	}
	vecNear(t, "pipe1 base", pipes[1].Base().Placement.Base, r3.Vec{X: 1000, Y: br})

	if fails := d.Recompute(); len(fails) != 0 {
		t.Fatalf("recompute: %v", fails)
	}
	for i, e := range elbows {
		ports := PortsPos(e)
		vecNear(t, "pipe end", PortsPos(pipes[i])[1], ports[0])
		vecNear(t, "next pipe start", PortsPos(pipes[i+1])[0], ports[1])
	}
}

func TestPypeLineStraightRun(t *testing.T) {
	d := newDoc()
	l := NewPypeLine("L", "DN50", "SCH-STD", 60.3, 3, 0)
	d.Add(l)
	err := l.Update([]geom.Edge{
		geom.Line{From: r3.Vec{}, To: r3.Vec{Z: 500}},
		geom.Line{From: r3.Vec{Z: 500}, To: r3.Vec{Z: 900}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Members) != 2 {
		t.Errorf("members = %d, want 2 pipes and no elbow", len(l.Members))
	}
}

func TestPypeLineInvalidBase(t *testing.T) {
	d := newDoc()
	l := NewPypeLine("L", "DN50", "SCH-STD", 60.3, 3, 0)
	d.Add(l)
	if err := l.Update(nil); !errors.Is(err, ErrInvalidBase) {
		t.Fatalf("err = %v", err)
	}
	l.BasePath = "ghost"
	if err := l.Update(nil); !errors.Is(err, ErrInvalidBase) {
		t.Fatalf("err = %v", err)
	}
	d.AddPath(&geom.Path{Name: "empty"})
	l.BasePath = "empty"
	if err := l.Update(nil); !errors.Is(err, ErrInvalidBase) {
		t.Fatalf("err = %v", err)
	}
	want := []string{"L: Base is not set", `L: Base "ghost" not found`, "Base has not valid edges"}
	errs := d.Console.Lines(doc.LevelError)
	if len(errs) != len(want) {
		t.Fatalf("console errors = %v", errs)
	}
	for i := range want {
		if errs[i] != want[i] {
			t.Errorf("console error %d = %q, want %q", i, errs[i], want[i])
		}
	}
	if d.Len() != 1 {
		t.Errorf("aborted update left %d features", d.Len())
	}
}

func TestPypeLineOnChanged(t *testing.T) {
	d := newDoc()
	l := NewPypeLine("L", "DN50", "SCH-STD", 60.3, 3, 0)
	d.Add(l)
	if err := d.Set(l.Base().ID, "Label", "Main"); err != nil {
		t.Fatal(err)
	}
	if l.Group != "Main_pieces" {
		t.Errorf("Group = %q", l.Group)
	}
	if err := d.Set(l.Base().ID, "OD", 114.3); err != nil {
		t.Fatal(err)
	}
	if math.Abs(l.BendRadius-0.75*114.3) > tol {
		t.Errorf("BendRadius = %g", l.BendRadius)
	}
	d.AddPath(route("r"))
	if err := d.Set(l.Base().ID, "Base", "r"); err != nil {
		t.Fatal(err)
	}
	if w := d.Console.Lines(doc.LevelWarning); len(w) != 1 || !strings.Contains(w[0], "Base has changed") {
		t.Errorf("warnings = %v", w)
	}
}

func TestPypeLinePurge(t *testing.T) {
	d := newDoc()
	l := NewPypeLine("L", "DN50", "SCH-STD", 60.3, 3, 0)
	d.Add(l)
	d.AddPath(route("r"))
	l.BasePath = "r"
	if err := l.Update(nil); err != nil {
		t.Fatal(err)
	}
	fl := d.Add(feature.NewFlange("DN50", "SO", 160, 60.3, 125, 18, 15, 4))
	l.AddToGroup(fl)
	l.AddToGroup(fl)

	l.Purge()
	if len(l.Members) != 1 || l.Members[0] != fl.Base().ID {
		t.Errorf("members after purge = %v", l.Members)
	}
	for _, f := range d.Features() {
		switch f.Base().PType {
		case feature.TypePipe, feature.TypeElbow:
			t.Errorf("%s survived purge", f.Base().Label)
		}
	}
	if d.Len() != 2 {
		t.Errorf("Len = %d, want pipeline and flange", d.Len())
	}
}

// checkContiguous verifies that every tube ends on the first port of the
// following curve and that the next tube starts on its second port.
func checkContiguous(t *testing.T, b *Branch, p *geom.Path) {
	t.Helper()
	tubes, curves, err := b.parts()
	if err != nil {
		t.Fatal(err)
	}
	vecNear(t, "first tube start", PortsPos(tubes[0])[0], p.Edges[0].Start())
	for i, c := range curves {
		ports := PortsPos(c)
		vecNear(t, "tube end", PortsPos(tubes[i])[1], ports[0])
		vecNear(t, "tube start", PortsPos(tubes[i+1])[0], ports[1])
	}
	vecNear(t, "last tube end", PortsPos(tubes[len(tubes)-1])[1], p.Edges[len(p.Edges)-1].End())
}

func TestBranchContiguity(t *testing.T) {
	d := newDoc()
	p := route("r")
	d.AddPath(p)
	b, err := NewBranch(d, "B", "r", "DN50", "SCH-STD", 60.3, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Tubes) != 3 || len(b.Curves) != 2 {
		t.Fatalf("tubes=%d curves=%d", len(b.Tubes), len(b.Curves))
	}
	if fails := d.Recompute(); len(fails) != 0 {
		t.Fatalf("recompute: %v", fails)
	}
	checkContiguous(t, b, p)

	_, curves, _ := b.parts()
	if math.Abs(curves[0].BendAngle-45) > tol || math.Abs(curves[1].BendAngle-90) > tol {
		t.Errorf("bend angles = %g, %g", curves[0].BendAngle, curves[1].BendAngle)
	}
	if res := doc.ValidateAll(d); !res.OK() || len(res.Warnings) != 0 {
		t.Errorf("validation: %v %v", res.Errors, res.Warnings)
	}
}

func TestBranchIdempotent(t *testing.T) {
	d := newDoc()
	d.AddPath(route("r"))
	b, err := NewBranch(d, "B", "r", "DN50", "SCH-STD", 60.3, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	d.Recompute()
	tubes, curves, _ := b.parts()
	var heights []float64
	var bases []r3.Vec
	for _, tb := range tubes {
		heights = append(heights, tb.Height)
		bases = append(bases, tb.Base().Placement.Base)
	}

	if err := b.Execute(d.Kernel); err != nil {
		t.Fatal(err)
	}
	for i, tb := range tubes {
		if tb.Height != heights[i] {
			t.Errorf("tube %d Height %g -> %g", i, heights[i], tb.Height)
		}
		vecNear(t, "tube base", tb.Base().Placement.Base, bases[i])
		if tb.Base().Touched() {
			t.Errorf("tube %d touched by a no-op layout", i)
		}
	}
	for i, c := range curves {
		if c.Base().Touched() {
			t.Errorf("curve %d touched by a no-op layout", i)
		}
	}
}

func TestBranchFollowsPath(t *testing.T) {
	d := newDoc()
	d.AddPath(route("r"))
	b, err := NewBranch(d, "B", "r", "DN50", "SCH-STD", 60.3, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	d.Recompute()

	moved := geom.Polyline("r",
		r3.Vec{Y: -200},
		r3.Vec{X: 1200},
		r3.Vec{X: 1200, Y: 900},
		r3.Vec{X: 600, Y: 900, Z: 400},
	)
	if err := d.AddPath(moved); err != nil {
		t.Fatal(err)
	}
	if !b.Base().Touched() {
		t.Fatal("path change should touch the branch")
	}
	if fails := d.Recompute(); len(fails) != 0 {
		t.Fatalf("recompute: %v", fails)
	}
	checkContiguous(t, b, moved)
}

func TestBranchDegenerate(t *testing.T) {
	d := newDoc()
	d.AddPath(geom.Polyline("one", r3.Vec{}, r3.Vec{X: 100}))
	b, err := NewBranch(d, "B", "one", "DN50", "SCH-STD", 60.3, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	fails := d.Recompute()
	if len(fails) != 1 || !errors.Is(fails[0], ErrDegenerateBranch) {
		t.Fatalf("failures = %v", fails)
	}

	// A path that gains edges leaves the parts short until redraw.
	d.AddPath(route("one"))
	fails = d.Recompute()
	if len(fails) != 1 || !errors.Is(fails[0], ErrDegenerateBranch) {
		t.Fatalf("failures = %v", fails)
	}
	res := doc.ValidateAll(d)
	found := false
	for _, e := range res.Errors {
		if strings.Contains(e.Message, "tubes for 3 edges") {
			found = true
		}
	}
	if !found {
		t.Errorf("branch check missing: %v", res.Errors)
	}
	if err := b.Redraw(b.OD, b.Thk, b.BendRadius); err != nil {
		t.Fatal(err)
	}
	if fails := d.Recompute(); len(fails) != 0 {
		t.Fatalf("after redraw: %v", fails)
	}
}

func TestBranchInvalidBase(t *testing.T) {
	d := newDoc()
	b, err := NewBranch(d, "B", "missing", "DN50", "SCH-STD", 60.3, 3, 0)
	if !errors.Is(err, ErrInvalidBase) {
		t.Fatalf("err = %v", err)
	}
	if b.BasePath != "" || len(b.Children()) != 0 {
		t.Errorf("invalid branch kept base %q and %d parts", b.BasePath, len(b.Children()))
	}
	if errs := d.Console.Lines(doc.LevelError); len(errs) != 1 || errs[0] != "Base not valid" {
		t.Errorf("console = %v", errs)
	}
	if errs := b.Check(d); len(errs) != 1 || errs[0].Severity != doc.SeverityWarning {
		t.Errorf("empty branch check = %v, want one warning", errs)
	}
}

func TestBranchPurge(t *testing.T) {
	d := newDoc()
	d.AddPath(route("r"))
	b, err := NewBranch(d, "B", "r", "DN50", "SCH-STD", 60.3, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if d.Len() != 6 {
		t.Fatalf("Len = %d, want branch + 3 tubes + 2 curves", d.Len())
	}
	b.Purge()
	if len(b.Tubes) != 0 || len(b.Curves) != 0 {
		t.Error("lists not cleared")
	}
	if d.Len() != 1 {
		t.Errorf("Len = %d after purge", d.Len())
	}
	if err := b.Redraw(88.9, 4, 0); err != nil {
		t.Fatal(err)
	}
	if d.Len() != 6 || math.Abs(b.BendRadius-0.75*88.9) > tol {
		t.Errorf("redraw: Len=%d BR=%g", d.Len(), b.BendRadius)
	}
}

func TestNewFactory(t *testing.T) {
	for _, pt := range []string{TypePypeLine, TypeBranch, feature.TypePipe, feature.TypeClamp} {
		f, err := New(pt)
		if err != nil {
			t.Fatalf("New(%s): %v", pt, err)
		}
		if f.Base().PType != pt {
			t.Errorf("New(%s).PType = %s", pt, f.Base().PType)
		}
	}
	if _, err := New("Valve"); !errors.Is(err, feature.ErrUnknownType) {
		t.Errorf("err = %v", err)
	}
}
