package pipeline

import (
	"fmt"
	"math"

	"github.com/chazu/pypeline/pkg/doc"
	"github.com/chazu/pypeline/pkg/feature"
	"github.com/chazu/pypeline/pkg/geom"
	"github.com/chazu/pypeline/pkg/kernel"
)

// Branch is a single run of tubes joined by curves that follows its base
// path. Redraw instantiates the parts; Execute re-lays them out on the
// current edges of the path without recreating them.
type Branch struct {
	b          feature.Base
	BasePath   string
	Tubes      []feature.ID
	Curves     []feature.ID
	OD         float64
	Thk        float64
	BendRadius float64

	d *doc.Document
}

// NewBranch adds a branch along the named path to d and draws its parts.
// An invalid base is reported on the console and returned as
// ErrInvalidBase; the branch is still added, without parts.
func NewBranch(d *doc.Document, label, base, dn, rating string, od, thk, br float64) (*Branch, error) {
	if br == 0 {
		br = 0.75 * od
	}
	if label == "" {
		label = TypeBranch
	}
	b := &Branch{
		b:          feature.Base{ID: feature.NewID(), Label: label, PType: TypeBranch, PRating: rating, PSize: dn},
		OD:         od,
		Thk:        thk,
		BendRadius: br,
	}
	b.b.Touch()
	d.Add(b)
	b.BasePath = base
	if _, err := b.edges(); err != nil {
		b.BasePath = ""
		d.Console.Errorf("Base not valid")
		return b, err
	}
	if err := b.Redraw(od, thk, br); err != nil {
		return b, err
	}
	return b, nil
}

func (b *Branch) Base() *feature.Base { return &b.b }

func (b *Branch) Properties() []feature.Property {
	return []feature.Property{
		feature.StringProp("Label", "Base", "User name of the object", &b.b.Label),
		readOnly(feature.StringProp("PType", "PBase", "Type of tubeFeature", &b.b.PType)),
		feature.StringProp("PRating", "PBase", "Rating of pipeFeature", &b.b.PRating),
		feature.StringProp("PSize", "PBase", "Nominal diameter", &b.b.PSize),
		feature.LinkProp("Base", "PypeBranch", "The path.", &b.BasePath),
		feature.LinkListProp("Tubes", "PypeBranch", "The tubes of the branch.", &b.Tubes),
		feature.LinkListProp("Curves", "PypeBranch", "The curves of the branch.", &b.Curves),
		feature.LengthProp("OD", "PypeBranch", "Outside diameter used by redraw", &b.OD),
		feature.LengthProp("thk", "PypeBranch", "Wall thickness used by redraw", &b.Thk),
		feature.LengthProp("BendRadius", "PypeBranch", "Bend radius used by redraw", &b.BendRadius),
	}
}

func (b *Branch) Attach(d *doc.Document) { b.d = d }

func (b *Branch) OnChanged(string) {}

func (b *Branch) Children() []feature.ID {
	out := make([]feature.ID, 0, len(b.Tubes)+len(b.Curves))
	out = append(out, b.Tubes...)
	return append(out, b.Curves...)
}

func (b *Branch) Release(id feature.ID) {
	b.Tubes = without(b.Tubes, id)
	b.Curves = without(b.Curves, id)
}

func (b *Branch) edges() ([]geom.Edge, error) {
	if b.d == nil {
		return nil, fmt.Errorf("pipeline: %s is not in a document", b.b.Label)
	}
	p, ok := b.d.Path(b.BasePath)
	if !ok || len(p.Edges) == 0 {
		return nil, ErrInvalidBase
	}
	return p.Edges, nil
}

// Redraw deletes the current parts and builds one tube per edge and one
// curve between every pair of consecutive edges.
func (b *Branch) Redraw(od, thk, br float64) error {
	edges, err := b.edges()
	if err != nil {
		if b.d != nil {
			b.d.Console.Errorf("%s: Base not valid", b.b.Label)
		}
		return err
	}
	if br == 0 {
		br = 0.75 * od
	}
	b.Purge()
	b.OD, b.Thk, b.BendRadius = od, thk, br
	size := Sizing{PSize: b.b.PSize, PRating: b.b.PRating, OD: od, Thk: thk, BendAngle: 90, BendRadius: br}
	for _, e := range edges {
		s := size
		s.Height = e.Length()
		t := MakePipe(b.d, s, e.ValueAt(0), e.TangentAt(0))
		b.Tubes = append(b.Tubes, t.Base().ID)
	}
	for i := 0; i < len(edges)-1; i++ {
		c := MakeElbowBetweenThings(b.d, edges[i], edges[i+1], size)
		b.Curves = append(b.Curves, c.Base().ID)
	}
	b.b.Touch()
	return nil
}

// Execute lays the tubes and curves out on the current edges so that
// every tube ends on the port of the curve that follows it.
func (b *Branch) Execute(kernel.Kernel) error {
	edges, err := b.edges()
	if err != nil {
		return err
	}
	tubes, curves, err := b.parts()
	if err != nil {
		return err
	}
	n := len(edges)
	if n < 2 || len(tubes) != n || len(curves) != n-1 {
		return fmt.Errorf("%w: %d edges, %d tubes, %d curves", ErrDegenerateBranch, n, len(tubes), len(curves))
	}
	for i := 0; i < n-1; i++ {
		v1, v2 := edges[i].TangentAt(0), edges[i+1].TangentAt(0)
		P, _ := geom.IntersectionCLines(edges[i], edges[i+1])
		PlaceTheElbow(curves[i], v1, v2, P)
		base := edges[i].ValueAt(0)
		if i > 0 {
			base = PortsPos(curves[i-1])[1]
		}
		tubes[i].Base().Placement = geom.NewPlacement(base, edges[i].TangentAt(0))
		h := math.Inf(1)
		for _, port := range PortsPos(curves[i]) {
			h = math.Min(h, geom.Distance(base, port))
		}
		setHeight(tubes[i], h)
	}
	last := tubes[n-1]
	base := PortsPos(curves[n-2])[1]
	last.Base().Placement = geom.NewPlacement(base, edges[n-1].TangentAt(0))
	setHeight(last, geom.Distance(base, edges[n-1].End()))
	return nil
}

func (b *Branch) parts() ([]*feature.Pipe, []*feature.Elbow, error) {
	tubes := make([]*feature.Pipe, 0, len(b.Tubes))
	for _, id := range b.Tubes {
		t, ok := b.d.Get(id).(*feature.Pipe)
		if !ok {
			return nil, nil, fmt.Errorf("%w: tube %s is missing or not a pipe", ErrDegenerateBranch, id)
		}
		tubes = append(tubes, t)
	}
	curves := make([]*feature.Elbow, 0, len(b.Curves))
	for _, id := range b.Curves {
		c, ok := b.d.Get(id).(*feature.Elbow)
		if !ok {
			return nil, nil, fmt.Errorf("%w: curve %s is missing or not an elbow", ErrDegenerateBranch, id)
		}
		curves = append(curves, c)
	}
	return tubes, curves, nil
}

// Purge deletes every tube and curve and clears both lists. It must run
// before the branch itself is removed.
func (b *Branch) Purge() {
	ids := b.Children()
	b.Tubes, b.Curves = nil, nil
	if b.d == nil {
		return
	}
	for _, id := range ids {
		if b.d.Get(id) != nil {
			_ = b.d.Remove(id)
		}
	}
}

// Check reports the part counts and types the layout depends on.
func (b *Branch) Check(d *doc.Document) []doc.ValidationError {
	var errs []doc.ValidationError
	p, ok := d.Path(b.BasePath)
	if !ok || len(p.Edges) == 0 {
		sev := doc.SeverityError
		if len(b.Tubes)+len(b.Curves) == 0 {
			// Nothing was drawn; the console already carries the error.
			sev = doc.SeverityWarning
		}
		return append(errs, doc.Finding(b, sev, "Base not valid"))
	}
	n := len(p.Edges)
	if len(b.Tubes) != n {
		errs = append(errs, doc.Finding(b, doc.SeverityError, "%d tubes for %d edges", len(b.Tubes), n))
	}
	if len(b.Curves) != n-1 {
		errs = append(errs, doc.Finding(b, doc.SeverityError, "%d curves for %d edges", len(b.Curves), n))
	}
	for _, id := range b.Tubes {
		if _, ok := d.Get(id).(*feature.Pipe); !ok {
			errs = append(errs, doc.Finding(b, doc.SeverityError, "tube %s is not a pipe", id))
		}
	}
	for _, id := range b.Curves {
		if _, ok := d.Get(id).(*feature.Elbow); !ok {
			errs = append(errs, doc.Finding(b, doc.SeverityError, "curve %s is not an elbow", id))
		}
	}
	return errs
}
