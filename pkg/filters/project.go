package filters

import (
	"fmt"

	"github.com/Faultbox/meshprep/pkg/geometry"
	"github.com/Faultbox/meshprep/pkg/projection"
)

// ProjectTo2D projects the geocentric "position" attribute of g through proj
// (WGS84 geographic when nil). The result holds the original positions as
// "position3D", the projected ones as "position2D" and no "position".
// g is left untouched.
func ProjectTo2D(g *geometry.Geometry, proj projection.MapProjection) (*geometry.Geometry, error) {
	const op = "filters.ProjectTo2D"
	if g == nil {
		return nil, geometry.Structural(op, "", geometry.ErrNilGeometry, "")
	}
	position, err := requireAttribute(op, g, geometry.Position, 3)
	if err != nil {
		return nil, err
	}
	if proj == nil {
		proj = projection.NewGeographic(projection.WGS84)
	}

	n := position.Count()
	projected := make([]float64, 2*n)
	for i := 0; i < n; i++ {
		x, y, err := projection.ProjectCartesian(proj, vec3At(position.Values, i))
		if err != nil {
			return nil, fmt.Errorf("%s: vertex %d: %w", op, i, err)
		}
		projected[2*i] = x
		projected[2*i+1] = y
	}

	out := g.Clone()
	out.Attributes[geometry.Position3D] = out.Attributes[geometry.Position]
	out.Attributes[geometry.Position2D] = position.WithValues(projected)
	out.Attributes[geometry.Position2D].ComponentsPerAttribute = 2
	delete(out.Attributes, geometry.Position)
	return out, nil
}
