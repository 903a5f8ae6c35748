package feature

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestSetErrors(t *testing.T) {
	tests := []struct {
		name  string
		prop  string
		value any
		want  error
	}{
		{"unknown property", "Bogus", 1.0, ErrUnknownProperty},
		{"read-only type", "PType", "Elbow", ErrReadOnly},
		{"read-only ports", "Ports", []r3.Vec{{}}, ErrReadOnly},
		{"negative length", "OD", -1.0, ErrInvalidValue},
		{"wrong type", "OD", "sixty", ErrInvalidValue},
		{"bool for string", "PSize", true, ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipe("DN50", 60.3, 3, 100)
			err := Set(p, tt.prop, tt.value)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Set(%s) error = %v, want %v", tt.prop, err, tt.want)
			}
		})
	}
}

func TestSetConvertsAndTouches(t *testing.T) {
	f := NewFlange("DN50", "SO", 160, 60.3, 132, 14, 15, 4)
	f.Base().Untouch()

	if err := Set(f, "n", 8.0); err != nil {
		t.Fatalf("Set(n, 8.0): %v", err)
	}
	if f.N != 8 {
		t.Errorf("N = %d, want 8", f.N)
	}
	if !f.Base().Touched() {
		t.Error("Set should mark the feature touched")
	}
	if err := Set(f, "n", 2.5); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("fractional integer error = %v, want ErrInvalidValue", err)
	}
	if err := Set(f, "D", 200); err != nil {
		t.Fatalf("Set(D, int): %v", err)
	}
	if f.D != 200 {
		t.Errorf("D = %g, want 200", f.D)
	}
}

func TestGet(t *testing.T) {
	p := NewPipe("DN80", 88.9, 3.2, 500)
	v, err := Get(p, "PSize")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != "DN80" {
		t.Errorf("PSize = %v, want DN80", v)
	}
	v, err = Get(p, "Height")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.(float64) != 500 {
		t.Errorf("Height = %v, want 500", v)
	}
	if _, err := Get(p, "nope"); !errors.Is(err, ErrUnknownProperty) {
		t.Errorf("Get(nope) error = %v", err)
	}
}

func TestPropsGroups(t *testing.T) {
	groups := map[string]int{}
	for _, p := range Props(NewReduct("DN50", 60.3, 48.3, 3, 0, 0, true)) {
		groups[p.Group]++
	}
	if groups["PBase"] != 5 {
		t.Errorf("PBase properties = %d, want 5", groups["PBase"])
	}
	if groups["Reduct"] != 8 {
		t.Errorf("Reduct properties = %d, want 8", groups["Reduct"])
	}
}

func TestSnapshotRestore(t *testing.T) {
	src := NewReduct("DN80", 88.9, 60.3, 3.2, 2.9, 120, false)
	src.Base().Label = "R1"
	src.Base().Kv = 42

	vals := Snapshot(src)

	dst := NewReduct("DN50", 60.3, 48.3, 3, 0, 0, true)
	if err := Restore(dst, vals); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	// OnChanged must not run during restore, so Height survives the OD write.
	if dst.Height != 120 || dst.CalcH {
		t.Errorf("Height = %g calcH = %v, want 120 false", dst.Height, dst.CalcH)
	}
	if dst.OD != 88.9 || dst.OD2 != 60.3 || dst.Thk2 != 2.9 || dst.Conc {
		t.Errorf("restored dims = %+v", dst)
	}
	if dst.Base().Label != "R1" || dst.Base().PSize != "DN80" || dst.Base().Kv != 42 {
		t.Errorf("restored base = %+v", dst.Base())
	}
	if dst.Base().ID == src.Base().ID {
		t.Error("Restore should not copy the feature ID")
	}
}

func TestRestoreUnknown(t *testing.T) {
	p := NewPipe("DN50", 60.3, 3, 100)
	err := Restore(p, []Value{{Name: "BendAngle", Kind: KindAngle, Num: 90}})
	if !errors.Is(err, ErrUnknownProperty) {
		t.Fatalf("Restore error = %v, want ErrUnknownProperty", err)
	}
}

func TestKindString(t *testing.T) {
	if KindLinkList.String() != "link-list" {
		t.Errorf("KindLinkList = %q", KindLinkList.String())
	}
	if Kind(99).String() != "unknown" {
		t.Errorf("Kind(99) = %q", Kind(99).String())
	}
}
