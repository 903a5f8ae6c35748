package pipeline

import (
	"fmt"

	"github.com/chazu/pypeline/pkg/doc"
	"github.com/chazu/pypeline/pkg/feature"
	"github.com/chazu/pypeline/pkg/geom"
	"github.com/chazu/pypeline/pkg/kernel"
)

const (
	TypePypeLine = "PypeLine"
	TypeBranch   = "PypeBranch"
)

// PypeLine is a labelled group of parts. Update builds pipes and elbows
// along a run of edges; parts added by other means are kept but never
// re-laid out or purged.
type PypeLine struct {
	b          feature.Base
	OD         float64
	Thk        float64
	BendRadius float64
	Group      string
	BasePath   string
	Members    []feature.ID

	d *doc.Document
}

// NewPypeLine returns an unattached pipeline. A zero br defaults to
// 0.75*od.
func NewPypeLine(label, dn, rating string, od, thk, br float64) *PypeLine {
	if br == 0 {
		br = 0.75 * od
	}
	if label == "" {
		label = "PypeLine"
	}
	l := &PypeLine{
		b:          feature.Base{ID: feature.NewID(), Label: label, PType: TypePypeLine, PRating: rating, PSize: dn},
		OD:         od,
		Thk:        thk,
		BendRadius: br,
	}
	l.Group = label + "_pieces"
	return l
}

func (l *PypeLine) Base() *feature.Base { return &l.b }

func (l *PypeLine) Properties() []feature.Property {
	return []feature.Property{
		feature.StringProp("Label", "Base", "User name of the object", &l.b.Label),
		readOnly(feature.StringProp("PType", "PBase", "Type of tubeFeature", &l.b.PType)),
		feature.StringProp("PRating", "PBase", "Rating of pipeFeature", &l.b.PRating),
		feature.StringProp("PSize", "PBase", "Nominal diameter", &l.b.PSize),
		feature.LengthProp("BendRadius", "PypeLine2", "the radius of bending", &l.BendRadius),
		feature.LengthProp("OD", "PypeLine2", "Outside diameter", &l.OD),
		feature.LengthProp("thk", "PypeLine2", "Wall thickness", &l.Thk),
		readOnly(feature.StringProp("Group", "PypeLine2", "The group.", &l.Group)),
		feature.LinkProp("Base", "PypeLine2", "the edges", &l.BasePath),
		feature.LinkListProp("Members", "PypeLine2", "The parts of the group", &l.Members),
	}
}

func readOnly(p feature.Property) feature.Property {
	p.ReadOnly = true
	return p
}

// Attach binds the pipeline to its document.
func (l *PypeLine) Attach(d *doc.Document) {
	l.d = d
	l.Group = l.b.Label + "_pieces"
	d.Console.Printf("Created group %s", l.Group)
}

func (l *PypeLine) OnChanged(prop string) {
	switch prop {
	case "Label":
		l.Group = l.b.Label + "_pieces"
	case "Base":
		if l.BasePath != "" && l.d != nil {
			l.d.Console.Warningf("%s Base has changed to %s", l.b.Label, l.BasePath)
		}
	case "OD":
		l.BendRadius = 0.75 * l.OD
	}
}

// Execute does nothing: a pipeline is only rebuilt by Update.
func (l *PypeLine) Execute(kernel.Kernel) error { return nil }

func (l *PypeLine) Children() []feature.ID { return l.Members }

func (l *PypeLine) Release(id feature.ID) {
	l.Members = without(l.Members, id)
}

// AddToGroup tags f into the group.
func (l *PypeLine) AddToGroup(f feature.Feature) {
	id := f.Base().ID
	for _, m := range l.Members {
		if m == id {
			return
		}
	}
	l.Members = append(l.Members, id)
}

// Update builds a pipe per edge and an elbow between every pair of
// non-parallel consecutive pipes, trimming both pipes onto the elbow
// ports. Without edges the Base path is used.
func (l *PypeLine) Update(edges []geom.Edge) error {
	if l.d == nil {
		return fmt.Errorf("pipeline: %s is not in a document", l.b.Label)
	}
	if len(edges) == 0 {
		if l.BasePath == "" {
			l.d.Console.Errorf("%s: Base is not set", l.b.Label)
			return ErrInvalidBase
		}
		p, ok := l.d.Path(l.BasePath)
		if !ok {
			l.d.Console.Errorf("%s: Base %q not found", l.b.Label, l.BasePath)
			return ErrInvalidBase
		}
		if len(p.Edges) == 0 {
			l.d.Console.Errorf("Base has not valid edges")
			return ErrInvalidBase
		}
		edges = p.Edges
	}
	size := Sizing{PSize: l.b.PSize, PRating: l.b.PRating, OD: l.OD, Thk: l.Thk, BendAngle: 90, BendRadius: l.BendRadius}
	var pipes []*feature.Pipe
	for _, e := range edges {
		s := size
		s.Height = e.Length()
		p := MakePipe(l.d, s, e.ValueAt(0), e.TangentAt(0))
		MoveToPyLi(l, p)
		pipes = append(pipes, p)
		n := len(pipes) - 1
		if n == 0 {
			continue
		}
		prev, cur := pipes[n-1], pipes[n]
		if geom.IsParallel(geom.BeamAx(cur.Base().Placement, geom.ZAxis), geom.BeamAx(prev.Base().Placement, geom.ZAxis)) {
			continue
		}
		c := MakeElbowBetweenThings(l.d, edges[n], edges[n-1], size)
		ports := PortsPos(c)
		ExtendTheBeam(prev, ports[0])
		ExtendTheBeam(cur, ports[1])
		MoveToPyLi(l, c)
	}
	return nil
}

// Purge deletes every pipe and elbow of the group. Other members stay.
func (l *PypeLine) Purge() {
	if l.d == nil {
		return
	}
	for _, id := range append([]feature.ID(nil), l.Members...) {
		f := l.d.Get(id)
		if f == nil {
			l.Release(id)
			continue
		}
		switch f.Base().PType {
		case feature.TypePipe, feature.TypeElbow:
			_ = l.d.Remove(id)
		}
	}
}

func without(ids []feature.ID, id feature.ID) []feature.ID {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}
