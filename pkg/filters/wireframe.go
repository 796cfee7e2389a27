package filters

import (
	"fmt"

	"github.com/Faultbox/meshprep/pkg/geometry"
)

// ToWireframe replaces the triangle index list of g with the LINES list of its
// edges. Triangle strips and fans are expanded first. Other topologies and
// geometries without indices are returned unchanged. g is modified in place.
func ToWireframe(g *geometry.Geometry) (*geometry.Geometry, error) {
	const op = "filters.ToWireframe"
	if g == nil {
		return nil, geometry.Structural(op, "", geometry.ErrNilGeometry, "")
	}
	if g.Indices == nil {
		return g, nil
	}

	var triangles []uint32
	switch g.PrimitiveType {
	case geometry.Triangles:
		if len(g.Indices)%3 != 0 {
			return nil, geometry.Structural(op, "", geometry.ErrIndexCount,
				fmt.Sprintf("%d indices is not a multiple of 3", len(g.Indices)))
		}
		triangles = g.Indices
	case geometry.TriangleStrip:
		triangles = stripTriangles(g.Indices)
	case geometry.TriangleFan:
		triangles = fanTriangles(g.Indices)
	default:
		return g, nil
	}

	lines := make([]uint32, 0, 2*len(triangles))
	for t := 0; t+2 < len(triangles); t += 3 {
		a, b, c := triangles[t], triangles[t+1], triangles[t+2]
		lines = append(lines, a, b, b, c, c, a)
	}
	g.Indices = lines
	g.PrimitiveType = geometry.Lines
	return g, nil
}

// stripTriangles keeps a consistent winding by flipping every odd triangle.
func stripTriangles(strip []uint32) []uint32 {
	if len(strip) < 3 {
		return []uint32{}
	}
	out := make([]uint32, 0, 3*(len(strip)-2))
	for i := 0; i+2 < len(strip); i++ {
		if i%2 == 0 {
			out = append(out, strip[i], strip[i+1], strip[i+2])
		} else {
			out = append(out, strip[i+1], strip[i+2], strip[i])
		}
	}
	return out
}

func fanTriangles(fan []uint32) []uint32 {
	if len(fan) < 3 {
		return []uint32{}
	}
	out := make([]uint32, 0, 3*(len(fan)-2))
	for i := 2; i < len(fan); i++ {
		out = append(out, fan[0], fan[i-1], fan[i])
	}
	return out
}
