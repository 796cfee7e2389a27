// Package filters transforms geometries for efficient rendering: vertex cache
// reordering, 16-bit index splitting, normal and tangent synthesis, map
// projection, high/low position encoding and batching.
//
// Every filter validates its input before writing anything. Filters documented
// as in-place return the geometry they were given; the others leave their input
// untouched and return new geometries.
package filters

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/meshprep/pkg/geometry"
)

// requireAttribute fetches a floating-point attribute of the given width.
func requireAttribute(op string, g *geometry.Geometry, name string, width int) (*geometry.Attribute, error) {
	a, ok := g.Attributes[name]
	if !ok || a == nil {
		return nil, geometry.Structural(op, name, geometry.ErrMissingAttribute, "")
	}
	if a.Values == nil {
		return nil, geometry.Structural(op, name, geometry.ErrMissingAttribute, "no values")
	}
	if a.ComponentsPerAttribute != width {
		return nil, geometry.Structural(op, name, geometry.ErrComponentWidth,
			fmt.Sprintf("got %d, want %d", a.ComponentsPerAttribute, width))
	}
	if len(a.Values)%width != 0 {
		return nil, geometry.Structural(op, name, geometry.ErrValueCount,
			fmt.Sprintf("%d values", len(a.Values)))
	}
	if !a.ComponentDatatype.IsFloat() {
		return nil, geometry.Structural(op, name, geometry.ErrDatatype,
			fmt.Sprintf("got %s, want float or double", a.ComponentDatatype))
	}
	return a, nil
}

// isTriangleList reports whether g has an index list of triangles.
func isTriangleList(g *geometry.Geometry) bool {
	return g.Indices != nil && g.PrimitiveType == geometry.Triangles
}

func checkTriangleIndices(op string, g *geometry.Geometry, n int) error {
	if len(g.Indices)%3 != 0 {
		return geometry.Structural(op, "", geometry.ErrIndexCount,
			fmt.Sprintf("%d indices is not a multiple of 3", len(g.Indices)))
	}
	return g.CheckIndices(op, n)
}

func vec3At(values []float64, i int) r3.Vec {
	return r3.Vec{X: values[3*i], Y: values[3*i+1], Z: values[3*i+2]}
}

func putVec3(values []float64, i int, v r3.Vec) {
	values[3*i] = v.X
	values[3*i+1] = v.Y
	values[3*i+2] = v.Z
}

// unit normalizes v; the zero vector stays zero.
func unit(v r3.Vec) r3.Vec {
	l := r3.Norm(v)
	if l == 0 {
		return r3.Vec{}
	}
	return r3.Vec{X: v.X / l, Y: v.Y / l, Z: v.Z / l}
}

// gather copies the components of each vertex in order into a new value slice.
func gather(a *geometry.Attribute, order []uint32) []float64 {
	w := a.ComponentsPerAttribute
	values := make([]float64, len(order)*w)
	for i, v := range order {
		copy(values[i*w:(i+1)*w], a.Values[int(v)*w:(int(v)+1)*w])
	}
	return values
}
