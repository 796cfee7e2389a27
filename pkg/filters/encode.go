package filters

import (
	"fmt"

	"github.com/Faultbox/meshprep/pkg/geometry"
)

// EncodeFloat64 splits v into a float32 high part and a float32 residual so that
// float64(high)+float64(low) recovers v far more closely than float32(v) alone.
func EncodeFloat64(v float64) (high, low float32) {
	high = float32(v)
	low = float32(v - float64(high))
	return high, low
}

// EncodeAttribute replaces the width-3 floating-point attribute name
// ("position" when empty) by "<name>High" and "<name>Low" attributes holding
// the EncodeFloat64 split of every component. g is left untouched.
func EncodeAttribute(g *geometry.Geometry, name string) (*geometry.Geometry, error) {
	const op = "filters.EncodeAttribute"
	if g == nil {
		return nil, geometry.Structural(op, "", geometry.ErrNilGeometry, "")
	}
	if g.Attributes == nil {
		return nil, geometry.Structural(op, "", geometry.ErrNoAttributes, "")
	}
	if name == "" {
		name = geometry.Position
	}
	if a, ok := g.Attributes[name]; ok && a != nil && !a.ComponentDatatype.IsFloat() {
		return nil, geometry.Structural(op, name, geometry.ErrDatatype,
			fmt.Sprintf("got %s, want float or double", a.ComponentDatatype))
	}
	a, err := requireAttribute(op, g, name, 3)
	if err != nil {
		return nil, err
	}

	highs := make([]float64, len(a.Values))
	lows := make([]float64, len(a.Values))
	for i, v := range a.Values {
		h, l := EncodeFloat64(v)
		highs[i] = float64(h)
		lows[i] = float64(l)
	}

	out := g.Clone()
	delete(out.Attributes, name)
	out.Attributes[fmt.Sprintf("%sHigh", name)] = geometry.NewAttribute(geometry.Float, 3, highs)
	out.Attributes[fmt.Sprintf("%sLow", name)] = geometry.NewAttribute(geometry.Float, 3, lows)
	return out, nil
}
