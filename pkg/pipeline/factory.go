package pipeline

import "github.com/chazu/pypeline/pkg/feature"

// New returns a default instance of any feature type, containers
// included. Containers come back empty and unattached; their links are
// expected to be restored before they are added to a document.
func New(ptype string) (feature.Feature, error) {
	switch ptype {
	case TypePypeLine:
		return NewPypeLine("", "DN50", "SCH-STD", 60.3, 3, 0), nil
	case TypeBranch:
		b := &Branch{
			b:          feature.Base{ID: feature.NewID(), Label: TypeBranch, PType: TypeBranch, PRating: "SCH-STD", PSize: "DN50"},
			OD:         60.3,
			Thk:        3,
			BendRadius: 0.75 * 60.3,
		}
		b.b.Touch()
		return b, nil
	}
	return feature.New(ptype)
}
