package formats

import (
	"strings"
	"testing"

	"github.com/Faultbox/meshprep/pkg/geometry"
)

const testYAMLMesh = `
primitive: triangles
attributes:
  position:
    datatype: float
    components: 3
    values: [0, 0, 0, 1, 0, 0, 0, 1, 0]
  st:
    components: 2
    values: [0, 0, 1, 0, 0, 1]
  color:
    datatype: unsigned_byte
    components: 4
    normalize: true
    values: [255, 0, 0, 255, 0, 255, 0, 255, 0, 0, 255, 255]
indices: [0, 1, 2]
`

func TestParseYAML(t *testing.T) {
	g, err := ParseYAML([]byte(testYAMLMesh))
	if err != nil {
		t.Fatalf("ParseYAML failed: %v", err)
	}

	if g.PrimitiveType != geometry.Triangles {
		t.Errorf("expected triangles, got %s", g.PrimitiveType)
	}
	n, err := g.NumberOfVertices()
	if err != nil || n != 3 {
		t.Errorf("NumberOfVertices = %d, %v", n, err)
	}
	if st := g.Attributes[geometry.ST]; st.ComponentDatatype != geometry.Float {
		t.Errorf("st datatype = %s, want float default", st.ComponentDatatype)
	}
	color := g.Attributes[geometry.Color]
	if color.ComponentDatatype != geometry.UnsignedByte || !color.Normalize {
		t.Errorf("color layout = %s normalize=%v", color.ComponentDatatype, color.Normalize)
	}
	if len(g.Indices) != 3 {
		t.Errorf("indices = %v", g.Indices)
	}
}

func TestParseYAML_Defaults(t *testing.T) {
	g, err := ParseYAML([]byte("attributes:\n  position:\n    components: 3\n    values: [1, 2, 3]\n"))
	if err != nil {
		t.Fatalf("ParseYAML failed: %v", err)
	}
	if g.PrimitiveType != geometry.Triangles {
		t.Errorf("expected triangles default, got %s", g.PrimitiveType)
	}
	if g.Indices != nil {
		t.Errorf("expected no indices, got %v", g.Indices)
	}
}

func TestParseYAML_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad primitive", "primitive: hexagons\nattributes: {}\n"},
		{"bad datatype", "attributes:\n  position:\n    datatype: quad\n    components: 3\n    values: [0, 0, 0]\n"},
		{"index out of range", "attributes:\n  position:\n    components: 3\n    values: [0, 0, 0]\nindices: [0, 0, 1]\n"},
		{"value count", "attributes:\n  position:\n    components: 3\n    values: [0, 0]\n"},
		{"not yaml", "attributes: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseYAML([]byte(tt.doc)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestYAML_RoundTrip(t *testing.T) {
	g, err := ParseYAML([]byte(testYAMLMesh))
	if err != nil {
		t.Fatalf("ParseYAML failed: %v", err)
	}

	data, err := EncodeYAML(g)
	if err != nil {
		t.Fatalf("EncodeYAML failed: %v", err)
	}
	if !strings.Contains(string(data), "datatype: unsigned_byte") {
		t.Errorf("expected datatype names in output:\n%s", data)
	}

	got, err := ParseYAML(data)
	if err != nil {
		t.Fatalf("ParseYAML of encoded mesh failed: %v\n%s", err, data)
	}
	for _, name := range g.AttributeNames() {
		want := g.Attributes[name]
		a := got.Attributes[name]
		if a == nil || !a.SameLayout(want) || len(a.Values) != len(want.Values) {
			t.Errorf("attribute %s did not survive the round trip", name)
		}
	}
	if len(got.Indices) != 3 || got.Indices[2] != 2 {
		t.Errorf("indices = %v", got.Indices)
	}
}
