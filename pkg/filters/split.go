package filters

import (
	"github.com/Faultbox/meshprep/pkg/geometry"
)

// FitToUnsignedShortIndices splits g into geometries whose vertices can each be
// addressed by a 16-bit index. Triangles are kept whole; a vertex used by
// triangles in different shards is duplicated into each of them.
//
// When g needs no split (at most geometry.MaxUnsignedShortVertices vertices, or
// no index list) the result is a one-element slice holding g itself, so callers
// can compare pointers to detect that nothing changed. Only TRIANGLES are
// supported.
func FitToUnsignedShortIndices(g *geometry.Geometry) ([]*geometry.Geometry, error) {
	const op = "filters.FitToUnsignedShortIndices"
	if g == nil {
		return nil, geometry.Structural(op, "", geometry.ErrNilGeometry, "")
	}
	if g.PrimitiveType != geometry.Triangles {
		return nil, geometry.Structural(op, "", geometry.ErrPrimitiveType,
			"only triangles are supported, got "+g.PrimitiveType.String())
	}
	n, err := g.NumberOfVertices()
	if err != nil {
		return nil, err
	}
	if g.Indices == nil || n <= geometry.MaxUnsignedShortVertices {
		return []*geometry.Geometry{g}, nil
	}
	if err := checkTriangleIndices(op, g, n); err != nil {
		return nil, err
	}

	s := newSplitter(g, n)
	for t := 0; t < len(g.Indices); t += 3 {
		tri := g.Indices[t : t+3]
		if len(s.order)+s.missing(tri) > geometry.MaxUnsignedShortVertices {
			s.flush()
		}
		for _, v := range tri {
			s.indices = append(s.indices, s.local(v))
		}
	}
	s.flush()
	return s.shards, nil
}

// splitter accumulates one output shard at a time.
type splitter struct {
	src      *geometry.Geometry
	oldToNew []int32  // -1 when the vertex is not in the current shard
	order    []uint32 // source vertex for each shard-local index
	indices  []uint32
	shards   []*geometry.Geometry
}

func newSplitter(g *geometry.Geometry, n int) *splitter {
	s := &splitter{
		src:      g,
		oldToNew: make([]int32, n),
		order:    make([]uint32, 0, geometry.MaxUnsignedShortVertices),
	}
	for i := range s.oldToNew {
		s.oldToNew[i] = -1
	}
	return s
}

// missing counts the distinct vertices of tri that the current shard lacks.
func (s *splitter) missing(tri []uint32) int {
	count := 0
	for i, v := range tri {
		if s.oldToNew[v] != -1 {
			continue
		}
		seen := false
		for _, prev := range tri[:i] {
			if prev == v {
				seen = true
				break
			}
		}
		if !seen {
			count++
		}
	}
	return count
}

func (s *splitter) local(v uint32) uint32 {
	if idx := s.oldToNew[v]; idx != -1 {
		return uint32(idx)
	}
	idx := uint32(len(s.order))
	s.oldToNew[v] = int32(idx)
	s.order = append(s.order, v)
	return idx
}

// flush closes the current shard and resets the remap table.
func (s *splitter) flush() {
	if len(s.indices) == 0 {
		return
	}
	attrs := make(map[string]*geometry.Attribute, len(s.src.Attributes))
	for name, a := range s.src.Attributes {
		attrs[name] = a.WithValues(gather(a, s.order))
	}
	s.shards = append(s.shards, geometry.New(attrs, s.indices, geometry.Triangles))

	for _, v := range s.order {
		s.oldToNew[v] = -1
	}
	s.order = s.order[:0]
	s.indices = nil
}
