package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/pypeline/pkg/doc"
	"github.com/chazu/pypeline/pkg/feature"
	"github.com/chazu/pypeline/pkg/geom"
	"github.com/chazu/pypeline/pkg/pipeline"
	"github.com/chazu/pypeline/pkg/sizes"
)

// ---------------------------------------------------------------------------
// Values passed between builtins
// ---------------------------------------------------------------------------

type sexpVec3 struct {
	vec r3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpPath names a base path stored in the document.
type sexpPath struct {
	name  string
	edges int
}

func (p *sexpPath) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(path %q %d edges)", p.name, p.edges)
}
func (p *sexpPath) Type() *zygo.RegisteredType { return nil }

// sexpFeature refers to a feature in the document.
type sexpFeature struct {
	id    feature.ID
	label string
	ptype string
}

func (f *sexpFeature) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %q)", strings.ToLower(f.ptype), f.label)
}
func (f *sexpFeature) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword arguments
// ---------------------------------------------------------------------------

// isKW reports whether s is a keyword produced by preprocessSource.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds a call's keyword and positional arguments.
type kwArgs struct {
	fn         string
	kw         map[string]zygo.Sexp
	order      []string
	positional []zygo.Sexp
}

func parseArgs(fn string, args []zygo.Sexp) kwArgs {
	pa := kwArgs{fn: fn, kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			pa.positional = append(pa.positional, args[i])
			continue
		}
		pa.order = append(pa.order, name)
		if i+1 < len(args) {
			pa.kw[name] = args[i+1]
			i++
		} else {
			pa.kw[name] = zygo.SexpNull
		}
	}
	return pa
}

// label returns the first positional argument as a string, or def.
func (pa kwArgs) label(def string) (string, error) {
	if len(pa.positional) == 0 {
		return def, nil
	}
	s, err := toString(pa.positional[0])
	if err != nil {
		return "", fmt.Errorf("%s: label: %w", pa.fn, err)
	}
	return s, nil
}

// num reads a numeric keyword into *dst when present.
func (pa kwArgs) num(name string, dst *float64) error {
	v, ok := pa.kw[name]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", pa.fn, name, err)
	}
	*dst = f
	return nil
}

func (pa kwArgs) str(name string, dst *string) error {
	v, ok := pa.kw[name]
	if !ok {
		return nil
	}
	s, err := toKeywordString(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", pa.fn, name, err)
	}
	*dst = s
	return nil
}

func (pa kwArgs) vec(name string, dst *r3.Vec) error {
	v, ok := pa.kw[name]
	if !ok {
		return nil
	}
	vec, err := toVec3(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", pa.fn, name, err)
	}
	*dst = vec
	return nil
}

func (pa kwArgs) has(name string) bool {
	_, ok := pa.kw[name]
	return ok
}

// ---------------------------------------------------------------------------
// Value extraction
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString accepts both :name and "name".
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

func toVec3(s zygo.Sexp) (r3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return r3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toValue converts a Lisp value into something feature.Set accepts.
func toValue(s zygo.Sexp) (any, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpStr:
		return strings.TrimPrefix(v.S, kwPrefix), nil
	case *sexpPath:
		return v.name, nil
	case *sexpVec3:
		return []r3.Vec{v.vec}, nil
	}
	if items, err := sexpListToSlice(s); err == nil {
		vecs := make([]r3.Vec, 0, len(items))
		for _, it := range items {
			vec, err := toVec3(it)
			if err != nil {
				return nil, err
			}
			vecs = append(vecs, vec)
		}
		return vecs, nil
	}
	return nil, fmt.Errorf("unsupported value %T (%s)", s, s.SexpString(nil))
}

func toPathName(s zygo.Sexp) (string, error) {
	switch v := s.(type) {
	case *sexpPath:
		return v.name, nil
	case *zygo.SexpStr:
		return v.S, nil
	}
	return "", fmt.Errorf("expected path, got %T (%s)", s, s.SexpString(nil))
}

func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ---------------------------------------------------------------------------
// Builtins
// ---------------------------------------------------------------------------

// builder populates a document from DSL calls.
type builder struct {
	d        *doc.Document
	cat      *sizes.Catalog
	defaults pipeline.Sizing
}

func (b *builder) ref(f feature.Feature) *sexpFeature {
	return &sexpFeature{id: f.Base().ID, label: f.Base().Label, ptype: f.Base().PType}
}

// lookup resolves a feature reference or a label.
func (b *builder) lookup(fn string, s zygo.Sexp) (feature.Feature, error) {
	if r, ok := s.(*sexpFeature); ok {
		if f := b.d.Get(r.id); f != nil {
			return f, nil
		}
		return nil, fmt.Errorf("%s: %s was deleted", fn, r.label)
	}
	label, err := toString(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	f := b.d.ByLabel(label)
	if f == nil {
		return nil, fmt.Errorf("%s: no feature labelled %q", fn, label)
	}
	return f, nil
}

// sizing resolves :size, :rating, :od and :thk, filling OD and thickness
// from the catalog when they are not given.
func (b *builder) sizing(pa kwArgs, s *pipeline.Sizing) error {
	if err := pa.str("size", &s.PSize); err != nil {
		return err
	}
	if err := pa.str("rating", &s.PRating); err != nil {
		return err
	}
	if pa.has("size") && (!pa.has("od") || !pa.has("thk")) {
		p, err := b.cat.Pipe(s.PRating, s.PSize)
		if err != nil {
			return fmt.Errorf("%s: %w", pa.fn, err)
		}
		s.OD, s.Thk = p.OD, p.Thk
	}
	if err := pa.num("od", &s.OD); err != nil {
		return err
	}
	return pa.num("thk", &s.Thk)
}

// add labels f, places it from :at and :axis, and adds it to the
// document.
func (b *builder) add(pa kwArgs, f feature.Feature) (zygo.Sexp, error) {
	label, err := pa.label("")
	if err != nil {
		return zygo.SexpNull, err
	}
	if label != "" {
		f.Base().Label = label
	}
	at, axis := r3.Vec{}, geom.ZAxis
	if err := pa.vec("at", &at); err != nil {
		return zygo.SexpNull, err
	}
	if err := pa.vec("axis", &axis); err != nil {
		return zygo.SexpNull, err
	}
	if r3.Norm(axis) == 0 {
		return zygo.SexpNull, fmt.Errorf("%s: axis must not be zero", pa.fn)
	}
	f.Base().Placement = geom.NewPlacement(at, axis)
	b.d.Add(f)
	return b.ref(f), nil
}

// DefaultSizing sizes parts created without :size, :od or :thk.
func DefaultSizing() pipeline.Sizing {
	return pipeline.Sizing{PSize: "DN50", PRating: "SCH-STD", OD: 60.3, Thk: 3}
}

// defaultSizing returns the sizing parts start from. Only the nominal
// values are copied.
func (b *builder) defaultSizing() pipeline.Sizing {
	d := b.defaults
	return pipeline.Sizing{PSize: d.PSize, PRating: d.PRating, OD: d.OD, Thk: d.Thk}
}

// registerBuiltins installs the pipe DSL into env. Every builtin writes
// into b's document; source must go through preprocessSource first.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// (vec3 x y z)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: geom.Vec(c)}, nil
	})

	// (path "name" p0 p1 ...) stores a polyline base path.
	env.AddFunction("path", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 3 {
			return zygo.SexpNull, fmt.Errorf("path requires a name and at least 2 points")
		}
		pname, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("path: name: %w", err)
		}
		var pts []r3.Vec
		for i, a := range args[1:] {
			v, err := toVec3(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("path: point %d: %w", i, err)
			}
			pts = append(pts, v)
		}
		p := geom.Polyline(pname, pts...)
		if err := p.Validate(); err != nil {
			return zygo.SexpNull, fmt.Errorf("path: %w", err)
		}
		if err := b.d.AddPath(p); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpPath{name: pname, edges: len(p.Edges)}, nil
	})

	// (pipe "label" :size "DN50" :od 60.3 :thk 3 :h 500 :at (vec3 ...) :axis (vec3 ...))
	env.AddFunction("pipe", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(name, args)
		s := b.defaultSizing()
		s.Height = 200
		if err := b.sizing(pa, &s); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.num("h", &s.Height); err != nil {
			return zygo.SexpNull, err
		}
		p := feature.NewPipe(s.PSize, s.OD, s.Thk, s.Height)
		p.Base().PRating = s.PRating
		return b.add(pa, p)
	})

	// (elbow "label" :size "DN50" :angle 90 :radius 45 ...)
	env.AddFunction("elbow", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(name, args)
		s := b.defaultSizing()
		s.BendAngle = 90
		if err := b.sizing(pa, &s); err != nil {
			return zygo.SexpNull, err
		}
		s.BendRadius = 0.75 * s.OD
		if err := pa.num("angle", &s.BendAngle); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.num("radius", &s.BendRadius); err != nil {
			return zygo.SexpNull, err
		}
		e := feature.NewElbow(s.PSize, s.OD, s.Thk, s.BendAngle, s.BendRadius)
		e.Base().PRating = s.PRating
		return b.add(pa, e)
	})

	// (reduct "label" :od 60.3 :od2 48.3 :thk 3 :thk2 2.6 :h 0 :eccentric true)
	env.AddFunction("reduct", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(name, args)
		s := b.defaultSizing()
		if err := b.sizing(pa, &s); err != nil {
			return zygo.SexpNull, err
		}
		od2, thk2, h := 48.3, 0.0, 0.0
		if v, ok := pa.kw["size2"]; ok {
			dn2, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("reduct: size2: %w", err)
			}
			p, err := b.cat.Pipe(s.PRating, dn2)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("reduct: %w", err)
			}
			od2, thk2 = p.OD, p.Thk
		}
		for _, kv := range []struct {
			k string
			p *float64
		}{{"od2", &od2}, {"thk2", &thk2}, {"h", &h}} {
			if err := pa.num(kv.k, kv.p); err != nil {
				return zygo.SexpNull, err
			}
		}
		conc := true
		if v, ok := pa.kw["eccentric"]; ok {
			bv, ok := v.(*zygo.SexpBool)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("reduct: eccentric: expected true or false")
			}
			conc = !bv.Val
		}
		r := feature.NewReduct(s.PSize, s.OD, od2, s.Thk, thk2, h, conc)
		r.Base().PRating = s.PRating
		return b.add(pa, r)
	})

	// (flange "label" :size "DN50" :rating "DIN-PN16" :D 165 :d 60.3 :df 125 :f 18 :t 18 :n 4)
	env.AddFunction("flange", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(name, args)
		fs := sizes.FlangeSize{Type: "SO", D: 160, Bore: 60.3, Df: 132, F: 14, T: 15, N: 4}
		dn, rating := "DN50", "DIN-PN16"
		if err := pa.str("size", &dn); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.str("rating", &rating); err != nil {
			return zygo.SexpNull, err
		}
		if pa.has("size") {
			cs, err := b.cat.Flange(rating, dn)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("flange: %w", err)
			}
			fs = cs
		}
		if err := pa.str("type", &fs.Type); err != nil {
			return zygo.SexpNull, err
		}
		n := float64(fs.N)
		for _, kv := range []struct {
			k string
			p *float64
		}{{"D", &fs.D}, {"d", &fs.Bore}, {"df", &fs.Df}, {"f", &fs.F}, {"t", &fs.T}, {"n", &n}} {
			if err := pa.num(kv.k, kv.p); err != nil {
				return zygo.SexpNull, err
			}
		}
		f := feature.NewFlange(dn, fs.Type, fs.D, fs.Bore, fs.Df, fs.F, fs.T, int(n))
		f.Base().PRating = rating
		return b.add(pa, f)
	})

	// (cap "label" :size "DN50" :od 60.3 :thk 3)
	env.AddFunction("cap", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(name, args)
		s := b.defaultSizing()
		if err := b.sizing(pa, &s); err != nil {
			return zygo.SexpNull, err
		}
		c := feature.NewCap(s.PSize, s.OD, s.Thk)
		c.Base().PRating = s.PRating
		return b.add(pa, c)
	})

	// (ubolt "label" :size "DN50" :C 64 :H 96 :d 10)
	env.AddFunction("ubolt", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(name, args)
		us := sizes.UboltSize{Type: "DIN-UBolt", C: 76, H: 109, D: 10}
		dn := "DN50"
		if err := pa.str("size", &dn); err != nil {
			return zygo.SexpNull, err
		}
		if pa.has("size") {
			cs, err := b.cat.Ubolt(dn)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("ubolt: %w", err)
			}
			us = cs
		}
		if err := pa.str("type", &us.Type); err != nil {
			return zygo.SexpNull, err
		}
		for _, kv := range []struct {
			k string
			p *float64
		}{{"C", &us.C}, {"H", &us.H}, {"d", &us.D}} {
			if err := pa.num(kv.k, kv.p); err != nil {
				return zygo.SexpNull, err
			}
		}
		return b.add(pa, feature.NewUbolt(dn, us.Type, us.C, us.H, us.D))
	})

	// (shell "label" :L 800 :W 400 :H 500 :thk 6)
	env.AddFunction("shell", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(name, args)
		L, W, H, thk := 800.0, 400.0, 500.0, 6.0
		for _, kv := range []struct {
			k string
			p *float64
		}{{"L", &L}, {"W", &W}, {"H", &H}, {"thk", &thk}} {
			if err := pa.num(kv.k, kv.p); err != nil {
				return zygo.SexpNull, err
			}
		}
		return b.add(pa, feature.NewShell(L, W, H, thk))
	})

	// (pypeline "label" :base p :size "DN50" :radius 45) builds pipes and
	// elbows along the base path.
	env.AddFunction("pypeline", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(name, args)
		s, base, label, err := b.containerArgs(pa, "PypeLine")
		if err != nil {
			return zygo.SexpNull, err
		}
		l := pipeline.NewPypeLine(label, s.PSize, s.PRating, s.OD, s.Thk, s.BendRadius)
		b.d.Add(l)
		if base != "" {
			l.BasePath = base
			if err := l.Update(nil); err != nil {
				if !errors.Is(err, pipeline.ErrInvalidBase) {
					return zygo.SexpNull, fmt.Errorf("pypeline: %w", err)
				}
				// Reported on the console; the empty pipeline stays.
				l.BasePath = ""
			}
		}
		return b.ref(l), nil
	})

	// (branch "label" :base p :size "DN50")
	env.AddFunction("branch", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(name, args)
		s, base, label, err := b.containerArgs(pa, pipeline.TypeBranch)
		if err != nil {
			return zygo.SexpNull, err
		}
		br, err := pipeline.NewBranch(b.d, label, base, s.PSize, s.PRating, s.OD, s.Thk, s.BendRadius)
		if err != nil && !errors.Is(err, pipeline.ErrInvalidBase) {
			return zygo.SexpNull, fmt.Errorf("branch: %w", err)
		}
		return b.ref(br), nil
	})

	// (set-prop "Tube" :Height 300 :OD 88.9)
	env.AddFunction("set_prop", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs("set-prop", args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("set-prop requires a feature")
		}
		f, err := b.lookup("set-prop", pa.positional[0])
		if err != nil {
			return zygo.SexpNull, err
		}
		for _, prop := range pa.order {
			v, err := toValue(pa.kw[prop])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("set-prop: %s: %w", prop, err)
			}
			if err := b.d.Set(f.Base().ID, prop, v); err != nil {
				return zygo.SexpNull, fmt.Errorf("set-prop: %w", err)
			}
		}
		return b.ref(f), nil
	})

	// (purge "label") empties a pipeline group or a branch.
	env.AddFunction("purge", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("purge requires a pipeline or branch")
		}
		f, err := b.lookup("purge", args[0])
		if err != nil {
			return zygo.SexpNull, err
		}
		p, ok := f.(interface{ Purge() })
		if !ok {
			return zygo.SexpNull, fmt.Errorf("purge: %s is a %s, not a pipeline or branch", f.Base().Label, f.Base().PType)
		}
		p.Purge()
		return b.ref(f), nil
	})

	// (redraw "branch") rebuilds a branch's parts from its current base.
	env.AddFunction("redraw", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("redraw requires a branch")
		}
		f, err := b.lookup("redraw", args[0])
		if err != nil {
			return zygo.SexpNull, err
		}
		br, ok := f.(*pipeline.Branch)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("redraw: %s is not a branch", f.Base().Label)
		}
		if err := br.Redraw(br.OD, br.Thk, br.BendRadius); err != nil {
			return zygo.SexpNull, fmt.Errorf("redraw: %w", err)
		}
		return b.ref(br), nil
	})

	// (add-to "line" part ...) tags parts into a pipeline group.
	env.AddFunction("add_to", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("add-to requires a pipeline and at least one part")
		}
		f, err := b.lookup("add-to", args[0])
		if err != nil {
			return zygo.SexpNull, err
		}
		l, ok := f.(*pipeline.PypeLine)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("add-to: %s is not a pipeline", f.Base().Label)
		}
		for _, a := range args[1:] {
			part, err := b.lookup("add-to", a)
			if err != nil {
				return zygo.SexpNull, err
			}
			if _, isContainer := part.(doc.Container); isContainer {
				return zygo.SexpNull, fmt.Errorf("add-to: %s is a container", part.Base().Label)
			}
			if owner := b.d.Owner(part.Base().ID); owner != nil && owner != doc.Container(l) {
				return zygo.SexpNull, fmt.Errorf("add-to: %s already belongs to %s", part.Base().Label, owner.Base().Label)
			}
			pipeline.MoveToPyLi(l, part)
		}
		return b.ref(l), nil
	})

	// (labels) lists every feature label, sorted.
	env.AddFunction("labels", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		var ls []string
		for _, f := range b.d.Features() {
			ls = append(ls, f.Base().Label)
		}
		sort.Strings(ls)
		out := make([]zygo.Sexp, len(ls))
		for i, l := range ls {
			out[i] = &zygo.SexpStr{S: l}
		}
		return zygo.MakeList(out), nil
	})
}

// containerArgs reads the arguments shared by pypeline and branch.
func (b *builder) containerArgs(pa kwArgs, def string) (pipeline.Sizing, string, string, error) {
	s := b.defaultSizing()
	if err := b.sizing(pa, &s); err != nil {
		return s, "", "", err
	}
	if err := pa.num("radius", &s.BendRadius); err != nil {
		return s, "", "", err
	}
	label, err := pa.label(def)
	if err != nil {
		return s, "", "", err
	}
	var base string
	if v, ok := pa.kw["base"]; ok {
		if base, err = toPathName(v); err != nil {
			return s, "", "", fmt.Errorf("%s: base: %w", pa.fn, err)
		}
	}
	return s, base, label, nil
}
