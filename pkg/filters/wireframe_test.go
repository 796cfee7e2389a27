package filters

import (
	"testing"

	"github.com/Faultbox/meshprep/pkg/geometry"
)

func TestToWireframe(t *testing.T) {
	tests := []struct {
		name      string
		primitive geometry.PrimitiveType
		indices   []uint32
		want      []uint32
	}{
		{
			name:      "triangles",
			primitive: geometry.Triangles,
			indices:   []uint32{0, 1, 2, 3, 4, 5},
			want:      []uint32{0, 1, 1, 2, 2, 0, 3, 4, 4, 5, 5, 3},
		},
		{
			name:      "triangle fan",
			primitive: geometry.TriangleFan,
			indices:   []uint32{0, 1, 2, 3},
			want:      []uint32{0, 1, 1, 2, 2, 0, 0, 2, 2, 3, 3, 0},
		},
		{
			name:      "triangle strip",
			primitive: geometry.TriangleStrip,
			indices:   []uint32{0, 1, 2, 3},
			want:      []uint32{0, 1, 1, 2, 2, 0, 2, 3, 3, 1, 1, 2},
		},
		{
			name:      "short strip",
			primitive: geometry.TriangleStrip,
			indices:   []uint32{0, 1},
			want:      []uint32{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := geometry.New(nil, tt.indices, tt.primitive)
			out, err := ToWireframe(g)
			if err != nil {
				t.Fatalf("ToWireframe failed: %v", err)
			}
			if out != g {
				t.Error("expected the geometry to be modified in place")
			}
			if g.PrimitiveType != geometry.Lines {
				t.Errorf("PrimitiveType = %v, want lines", g.PrimitiveType)
			}
			assertIndices(t, g.Indices, tt.want)
		})
	}
}

func TestToWireframeUnchanged(t *testing.T) {
	lines := geometry.New(nil, []uint32{0, 1}, geometry.Lines)
	if _, err := ToWireframe(lines); err != nil {
		t.Fatalf("ToWireframe failed: %v", err)
	}
	assertIndices(t, lines.Indices, []uint32{0, 1})
	if lines.PrimitiveType != geometry.Lines {
		t.Errorf("PrimitiveType = %v", lines.PrimitiveType)
	}

	unindexed := geometry.New(nil, nil, geometry.Triangles)
	if _, err := ToWireframe(unindexed); err != nil {
		t.Fatalf("ToWireframe failed: %v", err)
	}
	if unindexed.PrimitiveType != geometry.Triangles {
		t.Error("unindexed geometry should keep its primitive type")
	}
}

func TestToWireframeErrors(t *testing.T) {
	_, err := ToWireframe(nil)
	assertStructural(t, err, geometry.ErrNilGeometry)

	g := geometry.New(nil, []uint32{0, 1, 2, 3}, geometry.Triangles)
	_, err = ToWireframe(g)
	assertStructural(t, err, geometry.ErrIndexCount)
	if g.PrimitiveType != geometry.Triangles {
		t.Error("geometry modified on error")
	}
}
