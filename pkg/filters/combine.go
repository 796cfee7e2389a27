package filters

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/Faultbox/meshprep/pkg/geometry"
)

// Combine concatenates the geometries of instances into one geometry.
//
// Only attributes present in every instance with the same datatype, width and
// normalization survive; the rest are dropped. Each instance's indices are
// offset by the number of vertices before it. Non-indexed instances mixed with
// indexed ones contribute a sequential index list. The primitive type is taken
// from the first instance. A single instance is returned as is.
func Combine(instances []*geometry.Instance) (*geometry.Geometry, error) {
	const op = "filters.Combine"
	if len(instances) == 0 {
		return nil, geometry.Structural(op, "", geometry.ErrNoInstances, "")
	}
	for i, inst := range instances {
		if inst == nil {
			return nil, geometry.Structural(op, "", geometry.ErrNilGeometry, fmt.Sprintf("instance %d", i))
		}
		if inst.Geometry == nil {
			return nil, geometry.Structural(op, "", geometry.ErrNilGeometry, fmt.Sprintf("instance %d (%s)", i, inst.ID))
		}
	}
	if len(instances) == 1 {
		return instances[0].Geometry, nil
	}

	geometries := lo.Map(instances, func(inst *geometry.Instance, _ int) *geometry.Geometry {
		return inst.Geometry
	})
	counts := make([]int, len(geometries))
	for i, g := range geometries {
		n, err := g.NumberOfVertices()
		if err != nil {
			return nil, fmt.Errorf("%s: instance %d (%s): %w", op, i, instances[i].ID, err)
		}
		if err := g.CheckIndices(op, n); err != nil {
			return nil, fmt.Errorf("instance %d (%s): %w", i, instances[i].ID, err)
		}
		counts[i] = n
	}

	names := commonAttributes(geometries)
	attrs := make(map[string]*geometry.Attribute, len(names))
	for _, name := range names {
		total := lo.SumBy(geometries, func(g *geometry.Geometry) int {
			return len(g.Attributes[name].Values)
		})
		values := make([]float64, 0, total)
		for _, g := range geometries {
			values = append(values, g.Attributes[name].Values...)
		}
		attrs[name] = geometries[0].Attributes[name].WithValues(values)
	}

	var indices []uint32
	if lo.SomeBy(geometries, (*geometry.Geometry).HasIndices) {
		total := 0
		for i, g := range geometries {
			if g.HasIndices() {
				total += len(g.Indices)
			} else {
				total += counts[i]
			}
		}
		indices = make([]uint32, 0, total)
		offset := uint32(0)
		for i, g := range geometries {
			if g.HasIndices() {
				for _, idx := range g.Indices {
					indices = append(indices, idx+offset)
				}
			} else {
				for v := 0; v < counts[i]; v++ {
					indices = append(indices, uint32(v)+offset)
				}
			}
			offset += uint32(counts[i])
		}
	}

	return geometry.New(attrs, indices, geometries[0].PrimitiveType), nil
}

// commonAttributes returns, sorted, the attribute names every geometry carries
// with one layout.
func commonAttributes(geometries []*geometry.Geometry) []string {
	first := geometries[0]
	names := lo.Filter(lo.Keys(first.Attributes), func(name string, _ int) bool {
		want := first.Attributes[name]
		return lo.EveryBy(geometries[1:], func(g *geometry.Geometry) bool {
			a, ok := g.Attributes[name]
			return ok && a != nil && a.SameLayout(want)
		})
	})
	sort.Strings(names)
	return names
}
