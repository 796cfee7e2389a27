package filters

import (
	"github.com/Faultbox/meshprep/pkg/geometry"
	"github.com/Faultbox/meshprep/pkg/tipsify"
)

// ReorderForPreVertexCache renumbers vertices in the order the index list first
// references them and rewrites the index list and every attribute to match.
// Vertices the index list never references are dropped. The geometry is
// modified in place and returned. Geometries without an index list are
// returned unchanged.
func ReorderForPreVertexCache(g *geometry.Geometry) (*geometry.Geometry, error) {
	const op = "filters.ReorderForPreVertexCache"
	if g == nil {
		return nil, geometry.Structural(op, "", geometry.ErrNilGeometry, "")
	}
	n, err := g.NumberOfVertices()
	if err != nil {
		return nil, err
	}
	if g.Indices == nil {
		return g, nil
	}
	if err := g.CheckIndices(op, n); err != nil {
		return nil, err
	}

	oldToNew := make([]int32, n)
	for i := range oldToNew {
		oldToNew[i] = -1
	}
	order := make([]uint32, 0, n)
	indices := make([]uint32, len(g.Indices))
	for i, old := range g.Indices {
		if oldToNew[old] == -1 {
			oldToNew[old] = int32(len(order))
			order = append(order, old)
		}
		indices[i] = uint32(oldToNew[old])
	}

	for _, a := range g.Attributes {
		a.Values = gather(a, order)
	}
	g.Indices = indices
	return g, nil
}

// ReorderForPostVertexCache reorders the triangles of g to reduce misses in a
// vertex cache of cacheSize entries (tipsify.DefaultCacheSize when <= 0).
// Attributes are not touched. The reordered list is kept only when its ACMR
// does not exceed the original's. Geometries without a triangle index list are
// returned unchanged.
func ReorderForPostVertexCache(g *geometry.Geometry, cacheSize int) (*geometry.Geometry, error) {
	const op = "filters.ReorderForPostVertexCache"
	if g == nil {
		return nil, geometry.Structural(op, "", geometry.ErrNilGeometry, "")
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
	if len(g.Indices) == 0 {
		return g, nil
	}
	if cacheSize <= 0 {
		cacheSize = tipsify.DefaultCacheSize
	}

	maximumIndex := tipsify.MaximumIndex(g.Indices)
	reordered, err := tipsify.Reorder(g.Indices, maximumIndex, cacheSize)
	if err != nil {
		return nil, err
	}
	before, err := tipsify.CalculateACMR(g.Indices, maximumIndex, cacheSize)
	if err != nil {
		return nil, err
	}
	after, err := tipsify.CalculateACMR(reordered, maximumIndex, cacheSize)
	if err != nil {
		return nil, err
	}
	if after <= before {
		g.Indices = reordered
	}
	return g, nil
}
