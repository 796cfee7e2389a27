package filters

import (
	"github.com/samber/lo"

	"github.com/Faultbox/meshprep/pkg/geometry"
)

// CreateAttributeIndices assigns a shader location to every attribute of g.
// "position" gets location 0 when present; the others follow in name order.
func CreateAttributeIndices(g *geometry.Geometry) map[string]int {
	locations := make(map[string]int, len(g.Attributes))
	next := 0
	if _, ok := g.Attributes[geometry.Position]; ok {
		locations[geometry.Position] = next
		next++
	}
	for _, name := range g.AttributeNames() {
		if name == geometry.Position {
			continue
		}
		locations[name] = next
		next++
	}
	return locations
}

// MapAttributeIndices renames the keys of indices through names. Locations
// whose attribute has no new name are dropped.
func MapAttributeIndices(indices map[string]int, names map[string]string) map[string]int {
	mapped := lo.PickBy(indices, func(name string, _ int) bool {
		_, ok := names[name]
		return ok
	})
	return lo.MapKeys(mapped, func(_ int, name string) string {
		return names[name]
	})
}
