// Package query answers questions about a document: per-feature reports,
// part lists laid out as sheets, and searches over sheet cells.
package query

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/chazu/pypeline/pkg/doc"
	"github.com/chazu/pypeline/pkg/feature"
	"github.com/chazu/pypeline/pkg/geom"
)

// Report is what the model query prints for one feature.
type Report struct {
	ID         string          `json:"id"`
	Label      string          `json:"label"`
	PType      string          `json:"ptype"`
	Owner      string          `json:"owner,omitempty"`
	Position   [3]float64      `json:"position"`
	Axis       [3]float64      `json:"axis"`
	Angle      float64         `json:"angle"`
	Ports      [][3]float64    `json:"ports"`
	Properties []feature.Value `json:"properties"`
	HasShape   bool            `json:"hasShape"`
}

// Info builds the report for f.
func Info(d *doc.Document, f feature.Feature) Report {
	b := f.Base()
	axis, angle := geom.AxisAngle(b.Placement.Rot())
	r := Report{
		ID:         string(b.ID),
		Label:      b.Label,
		PType:      b.PType,
		Position:   geom.Array(b.Placement.Base),
		Axis:       geom.Array(axis),
		Angle:      angle * 180 / math.Pi,
		Properties: feature.Snapshot(f),
		HasShape:   b.Shape != nil,
	}
	if o := d.Owner(b.ID); o != nil {
		r.Owner = o.Base().Label
	}
	for _, p := range b.WorldPorts() {
		r.Ports = append(r.Ports, geom.Array(p))
	}
	return r
}

func (r Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", r.Label, r.PType)
	if r.Owner != "" {
		fmt.Fprintf(&sb, "  owner: %s\n", r.Owner)
	}
	fmt.Fprintf(&sb, "  position: %s\n", fmtVec(r.Position))
	if r.Angle != 0 {
		fmt.Fprintf(&sb, "  rotation: %s deg about %s\n", num(r.Angle), fmtVec(r.Axis))
	}
	for i, p := range r.Ports {
		fmt.Fprintf(&sb, "  port %d: %s\n", i, fmtVec(p))
	}
	for _, v := range r.Properties {
		fmt.Fprintf(&sb, "  %s = %s\n", v.Name, fmtValue(v))
	}
	return sb.String()
}

func fmtValue(v feature.Value) string {
	switch v.Kind {
	case feature.KindString, feature.KindLink:
		return strconv.Quote(v.Str)
	case feature.KindBool:
		return strconv.FormatBool(v.Bool)
	case feature.KindVectorList:
		parts := make([]string, len(v.Vecs))
		for i, p := range v.Vecs {
			parts[i] = fmtVec(p)
		}
		return "[" + strings.Join(parts, " ") + "]"
	case feature.KindLinkList:
		return "[" + strings.Join(v.Links, " ") + "]"
	}
	return num(v.Num)
}

func fmtVec(v [3]float64) string {
	return fmt.Sprintf("(%s, %s, %s)", num(v[0]), num(v[1]), num(v[2]))
}

func num(f float64) string {
	if math.Abs(f) < 1e-9 {
		f = 0
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

type partKey struct {
	ptype, size, rating, profile string
}

type partRow struct {
	partKey
	qty    int
	length float64
}

// PartList tabulates the dimensional features among ids (all of them
// when ids is nil), one row per distinct type, size, rating and
// profile. Pipe rows carry the total cut length.
func PartList(d *doc.Document, ids []feature.ID) *Sheet {
	var feats []feature.Feature
	if ids == nil {
		feats = d.Features()
	} else {
		for _, id := range ids {
			if f := d.Get(id); f != nil {
				feats = append(feats, f)
			}
		}
	}
	rows := make(map[partKey]*partRow)
	for _, f := range feats {
		if _, ok := f.(doc.Container); ok {
			continue
		}
		b := f.Base()
		k := partKey{ptype: b.PType, size: b.PSize, rating: b.PRating}
		if p, err := feature.Get(f, "Profile"); err == nil {
			k.profile, _ = p.(string)
		}
		row := rows[k]
		if row == nil {
			row = &partRow{partKey: k}
			rows[k] = row
		}
		row.qty++
		if p, ok := f.(*feature.Pipe); ok {
			row.length += p.Height
		}
	}
	sorted := make([]*partRow, 0, len(rows))
	for _, r := range rows {
		sorted = append(sorted, r)
	}
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.ptype != b.ptype {
			return a.ptype < b.ptype
		}
		if a.size != b.size {
			return a.size < b.size
		}
		if a.rating != b.rating {
			return a.rating < b.rating
		}
		return a.profile < b.profile
	})

	s := NewSheet("PartList")
	for c, h := range []string{"PType", "PSize", "PRating", "Profile", "Length", "Qty"} {
		s.SetRC(1, c+1, h)
	}
	for i, r := range sorted {
		row := i + 2
		s.SetRC(row, 1, r.ptype)
		s.SetRC(row, 2, r.size)
		s.SetRC(row, 3, r.rating)
		s.SetRC(row, 4, r.profile)
		if r.length > 0 {
			s.SetRC(row, 5, strconv.FormatFloat(math.Round(r.length*10)/10, 'f', -1, 64))
		}
		s.SetRC(row, 6, strconv.Itoa(r.qty))
	}
	return s
}

// ErrNoFeature is returned by Scope for an unknown label.
var ErrNoFeature = errors.New("query: no feature with that label")

// Scope returns the features a part list over label covers: the
// children of a container, the feature itself otherwise, or nil (every
// feature) when label is empty.
func Scope(d *doc.Document, label string) ([]feature.ID, error) {
	if label == "" {
		return nil, nil
	}
	f := d.ByLabel(label)
	if f == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoFeature, label)
	}
	if c, ok := f.(doc.Container); ok {
		return append([]feature.ID{}, c.Children()...), nil
	}
	return []feature.ID{f.Base().ID}, nil
}
