package filters

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/meshprep/pkg/geometry"
)

// ComputeNormal derives a per-vertex "normal" attribute by summing the
// unnormalized face normal (p1-p0)x(p2-p0) of every triangle into its three
// vertices and normalizing the sums, so larger triangles weigh more.
//
// The input must carry a floating-point "position" attribute of width 3.
// Without a triangle index list the input is returned unchanged. Otherwise a
// new geometry is returned and g is left untouched.
func ComputeNormal(g *geometry.Geometry) (*geometry.Geometry, error) {
	const op = "filters.ComputeNormal"
	if g == nil {
		return nil, geometry.Structural(op, "", geometry.ErrNilGeometry, "")
	}
	position, err := requireAttribute(op, g, geometry.Position, 3)
	if err != nil {
		return nil, err
	}
	if !isTriangleList(g) {
		return g, nil
	}
	n, err := g.NumberOfVertices()
	if err != nil {
		return nil, err
	}
	if err := checkTriangleIndices(op, g, n); err != nil {
		return nil, err
	}

	sums := make([]r3.Vec, n)
	for t := 0; t < len(g.Indices); t += 3 {
		i0, i1, i2 := int(g.Indices[t]), int(g.Indices[t+1]), int(g.Indices[t+2])
		p0 := vec3At(position.Values, i0)
		face := r3.Cross(
			r3.Sub(vec3At(position.Values, i1), p0),
			r3.Sub(vec3At(position.Values, i2), p0),
		)
		sums[i0] = r3.Add(sums[i0], face)
		sums[i1] = r3.Add(sums[i1], face)
		sums[i2] = r3.Add(sums[i2], face)
	}

	normals := make([]float64, 3*n)
	for i, s := range sums {
		putVec3(normals, i, unit(s))
	}

	out := g.Clone()
	out.Attributes[geometry.Normal] = geometry.NewAttribute(geometry.Float, 3, normals)
	return out, nil
}

// ComputeTangentAndBinormal derives per-vertex "tangent" and "binormal"
// attributes from "position", "normal" and "st" texture coordinates.
//
// Each triangle's tangent is solved from its object-space edges and UV deltas
// and accumulated into its vertices. Per vertex the sum is orthogonalized
// against the normal (Gram-Schmidt) and the binormal is normal x tangent, giving
// an orthonormal basis. Triangles with degenerate UVs contribute nothing.
//
// Without a triangle index list the input is returned unchanged. Otherwise a
// new geometry is returned and g is left untouched.
func ComputeTangentAndBinormal(g *geometry.Geometry) (*geometry.Geometry, error) {
	const op = "filters.ComputeTangentAndBinormal"
	if g == nil {
		return nil, geometry.Structural(op, "", geometry.ErrNilGeometry, "")
	}
	position, err := requireAttribute(op, g, geometry.Position, 3)
	if err != nil {
		return nil, err
	}
	normal, err := requireAttribute(op, g, geometry.Normal, 3)
	if err != nil {
		return nil, err
	}
	st, err := requireAttribute(op, g, geometry.ST, 2)
	if err != nil {
		return nil, err
	}
	if !isTriangleList(g) {
		return g, nil
	}

	n := position.Count()
	if normal.Count() != n || st.Count() != n {
		return nil, geometry.Structural(op, "", geometry.ErrVertexCountMismatch,
			fmt.Sprintf("position %d, normal %d, st %d", n, normal.Count(), st.Count()))
	}
	if err := checkTriangleIndices(op, g, n); err != nil {
		return nil, err
	}

	sums := make([]r3.Vec, n)
	for t := 0; t < len(g.Indices); t += 3 {
		i0, i1, i2 := int(g.Indices[t]), int(g.Indices[t+1]), int(g.Indices[t+2])

		p0 := vec3At(position.Values, i0)
		e1 := r3.Sub(vec3At(position.Values, i1), p0)
		e2 := r3.Sub(vec3At(position.Values, i2), p0)

		s0, t0 := st.Values[2*i0], st.Values[2*i0+1]
		s1, t1 := st.Values[2*i1]-s0, st.Values[2*i1+1]-t0
		s2, t2 := st.Values[2*i2]-s0, st.Values[2*i2+1]-t0

		det := s1*t2 - s2*t1
		if det == 0 {
			continue
		}
		r := 1 / det
		sdir := r3.Scale(r, r3.Sub(r3.Scale(t2, e1), r3.Scale(t1, e2)))

		sums[i0] = r3.Add(sums[i0], sdir)
		sums[i1] = r3.Add(sums[i1], sdir)
		sums[i2] = r3.Add(sums[i2], sdir)
	}

	tangents := make([]float64, 3*n)
	binormals := make([]float64, 3*n)
	for i, sum := range sums {
		nrm := vec3At(normal.Values, i)
		tangent := unit(r3.Sub(sum, r3.Scale(r3.Dot(nrm, sum), nrm)))
		putVec3(tangents, i, tangent)
		putVec3(binormals, i, unit(r3.Cross(nrm, tangent)))
	}

	out := g.Clone()
	out.Attributes[geometry.Tangent] = geometry.NewAttribute(geometry.Float, 3, tangents)
	out.Attributes[geometry.Binormal] = geometry.NewAttribute(geometry.Float, 3, binormals)
	return out, nil
}
