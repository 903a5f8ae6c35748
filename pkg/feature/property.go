package feature

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Kind is the value type of a property.
type Kind int

const (
	KindString Kind = iota
	KindLength
	KindAngle
	KindInteger
	KindFloat
	KindBool
	KindVectorList
	KindLink     // reference to a named object (a path or feature label)
	KindLinkList // ordered feature IDs
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindLength:
		return "length"
	case KindAngle:
		return "angle"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindVectorList:
		return "vector-list"
	case KindLink:
		return "link"
	case KindLinkList:
		return "link-list"
	default:
		return "unknown"
	}
}

// Property is a named, typed attribute bound to a field of a feature.
type Property struct {
	Name     string
	Group    string
	Doc      string
	Kind     Kind
	ReadOnly bool

	ref any
}

func StringProp(name, group, doc string, p *string) Property {
	return Property{Name: name, Group: group, Doc: doc, Kind: KindString, ref: p}
}

func LengthProp(name, group, doc string, p *float64) Property {
	return Property{Name: name, Group: group, Doc: doc, Kind: KindLength, ref: p}
}

// AngleProp binds an angle in degrees.
func AngleProp(name, group, doc string, p *float64) Property {
	return Property{Name: name, Group: group, Doc: doc, Kind: KindAngle, ref: p}
}

func FloatProp(name, group, doc string, p *float64) Property {
	return Property{Name: name, Group: group, Doc: doc, Kind: KindFloat, ref: p}
}

func IntProp(name, group, doc string, p *int) Property {
	return Property{Name: name, Group: group, Doc: doc, Kind: KindInteger, ref: p}
}

func BoolProp(name, group, doc string, p *bool) Property {
	return Property{Name: name, Group: group, Doc: doc, Kind: KindBool, ref: p}
}

func VectorsProp(name, group, doc string, p *[]r3.Vec) Property {
	return Property{Name: name, Group: group, Doc: doc, Kind: KindVectorList, ref: p}
}

func LinkProp(name, group, doc string, p *string) Property {
	return Property{Name: name, Group: group, Doc: doc, Kind: KindLink, ref: p}
}

func LinkListProp(name, group, doc string, p *[]ID) Property {
	return Property{Name: name, Group: group, Doc: doc, Kind: KindLinkList, ref: p}
}

func readOnly(p Property) Property {
	p.ReadOnly = true
	return p
}

// Value returns a copy of the current value.
func (p Property) Value() any {
	switch r := p.ref.(type) {
	case *string:
		return *r
	case *float64:
		return *r
	case *int:
		return *r
	case *bool:
		return *r
	case *[]r3.Vec:
		return append([]r3.Vec(nil), (*r)...)
	case *[]ID:
		return append([]ID(nil), (*r)...)
	}
	return nil
}

// assign converts v to the property's type and stores it. Range checks
// apply only when strict is set.
func (p Property) assign(v any, strict bool) error {
	switch r := p.ref.(type) {
	case *string:
		switch s := v.(type) {
		case string:
			*r = s
		case ID:
			*r = string(s)
		default:
			return p.mismatch(v)
		}
	case *float64:
		f, ok := toFloat(v)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return p.mismatch(v)
		}
		if strict && p.Kind == KindLength && f < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %g", ErrInvalidValue, p.Name, f)
		}
		*r = f
	case *int:
		f, ok := toFloat(v)
		if !ok || f != math.Trunc(f) {
			return p.mismatch(v)
		}
		*r = int(f)
	case *bool:
		b, ok := v.(bool)
		if !ok {
			return p.mismatch(v)
		}
		*r = b
	case *[]r3.Vec:
		switch vs := v.(type) {
		case []r3.Vec:
			*r = append([]r3.Vec(nil), vs...)
		case [][3]float64:
			out := make([]r3.Vec, len(vs))
			for i, a := range vs {
				out[i] = r3.Vec{X: a[0], Y: a[1], Z: a[2]}
			}
			*r = out
		default:
			return p.mismatch(v)
		}
	case *[]ID:
		switch ids := v.(type) {
		case []ID:
			*r = append([]ID(nil), ids...)
		case []string:
			out := make([]ID, len(ids))
			for i, s := range ids {
				out[i] = ID(s)
			}
			*r = out
		default:
			return p.mismatch(v)
		}
	default:
		return fmt.Errorf("feature: property %s has no binding", p.Name)
	}
	return nil
}

func (p Property) mismatch(v any) error {
	return fmt.Errorf("%w: %s expects %s, got %T", ErrInvalidValue, p.Name, p.Kind, v)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}

// Props returns the property table of f.
func Props(f Feature) []Property {
	return f.Properties()
}

// Lookup finds a property of f by name.
func Lookup(f Feature, name string) (Property, bool) {
	for _, p := range f.Properties() {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Get reads a property value.
func Get(f Feature, name string) (any, error) {
	p, ok := Lookup(f, name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownProperty, f.Base().PType, name)
	}
	return p.Value(), nil
}

// Set writes a property value, notifies the feature and marks it touched.
func Set(f Feature, name string, v any) error {
	p, ok := Lookup(f, name)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownProperty, f.Base().PType, name)
	}
	if p.ReadOnly {
		return fmt.Errorf("%w: %s", ErrReadOnly, name)
	}
	if err := p.assign(v, true); err != nil {
		return err
	}
	f.OnChanged(name)
	f.Base().Touch()
	return nil
}

// Value is the serialisable form of one property.
type Value struct {
	Name  string       `json:"name" msgpack:"name"`
	Kind  Kind         `json:"kind" msgpack:"kind"`
	Str   string       `json:"str,omitempty" msgpack:"str,omitempty"`
	Num   float64      `json:"num,omitempty" msgpack:"num,omitempty"`
	Bool  bool         `json:"bool,omitempty" msgpack:"bool,omitempty"`
	Vecs  [][3]float64 `json:"vecs,omitempty" msgpack:"vecs,omitempty"`
	Links []string     `json:"links,omitempty" msgpack:"links,omitempty"`
}

// Snapshot captures every property of f.
func Snapshot(f Feature) []Value {
	props := f.Properties()
	out := make([]Value, 0, len(props))
	for _, p := range props {
		v := Value{Name: p.Name, Kind: p.Kind}
		switch r := p.ref.(type) {
		case *string:
			v.Str = *r
		case *float64:
			v.Num = *r
		case *int:
			v.Num = float64(*r)
		case *bool:
			v.Bool = *r
		case *[]r3.Vec:
			for _, vec := range *r {
				v.Vecs = append(v.Vecs, [3]float64{vec.X, vec.Y, vec.Z})
			}
		case *[]ID:
			for _, id := range *r {
				v.Links = append(v.Links, string(id))
			}
		}
		out = append(out, v)
	}
	return out
}

// Restore writes captured values back without change notification.
// PType is fixed by the constructor and is skipped.
func Restore(f Feature, vals []Value) error {
	for _, v := range vals {
		if v.Name == "PType" {
			continue
		}
		p, ok := Lookup(f, v.Name)
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownProperty, f.Base().PType, v.Name)
		}
		var raw any
		switch p.Kind {
		case KindString, KindLink:
			raw = v.Str
		case KindLength, KindAngle, KindFloat, KindInteger:
			raw = v.Num
		case KindBool:
			raw = v.Bool
		case KindVectorList:
			vs := v.Vecs
			if vs == nil {
				vs = [][3]float64{}
			}
			raw = vs
		case KindLinkList:
			ls := v.Links
			if ls == nil {
				ls = []string{}
			}
			raw = ls
		}
		if err := p.assign(raw, false); err != nil {
			return fmt.Errorf("feature: restore %s: %w", v.Name, err)
		}
	}
	return nil
}
