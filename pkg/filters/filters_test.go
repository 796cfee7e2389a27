package filters

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/Faultbox/meshprep/pkg/geometry"
)

// positions builds a Float position attribute.
func positions(values ...float64) *geometry.Attribute {
	return geometry.NewAttribute(geometry.Float, 3, values)
}

func assertValues(t *testing.T, label string, got, want []float64, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: len = %d, want %d", label, len(got), len(want))
	}
	for i := range want {
		if !scalar.EqualWithinAbsOrRel(got[i], want[i], tol, tol) {
			t.Errorf("%s[%d] = %v, want %v", label, i, got[i], want[i])
		}
	}
}

func assertIndices(t *testing.T, got, want []uint32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("indices = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("indices = %v, want %v", got, want)
		}
	}
}

func assertStructural(t *testing.T, err, target error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %v, got nil", target)
	}
	if !errors.Is(err, target) {
		t.Errorf("error = %v, want %v", err, target)
	}
	if !geometry.IsStructural(err) {
		t.Errorf("error %v is not a StructuralError", err)
	}
}

func TestRequireAttribute(t *testing.T) {
	tests := []struct {
		name string
		attr *geometry.Attribute
		want error
	}{
		{"missing", nil, geometry.ErrMissingAttribute},
		{"no values", geometry.NewAttribute(geometry.Float, 3, nil), geometry.ErrMissingAttribute},
		{"width", geometry.NewAttribute(geometry.Float, 2, []float64{0, 0}), geometry.ErrComponentWidth},
		{"count", geometry.NewAttribute(geometry.Float, 3, []float64{0, 0}), geometry.ErrValueCount},
		{"datatype", geometry.NewAttribute(geometry.UnsignedShort, 3, []float64{0, 0, 0}), geometry.ErrDatatype},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := geometry.New(nil, nil, geometry.Triangles)
			if tt.attr != nil {
				g.Attributes[geometry.Position] = tt.attr
			}
			_, err := requireAttribute("test", g, geometry.Position, 3)
			assertStructural(t, err, tt.want)
		})
	}
}

func TestUnitKeepsZero(t *testing.T) {
	v := unit(vec3At([]float64{0, 0, 0}, 0))
	if v.X != 0 || v.Y != 0 || v.Z != 0 {
		t.Errorf("unit(0) = %v", v)
	}
}
