// Package geometry provides the mesh container consumed by the preparation filters:
// named vertex attributes, an optional index list and a primitive topology.
package geometry

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// MaxUnsignedShortVertices is the number of distinct vertices a 16-bit index can address.
const MaxUnsignedShortVertices = 64 * 1024

// Attribute is one per-vertex attribute stored as a flat value array.
// Values holds Count()*ComponentsPerAttribute numbers. Integer datatypes are
// carried as float64 and passed through unchanged.
type Attribute struct {
	ComponentDatatype      ComponentDatatype
	ComponentsPerAttribute int
	Normalize              bool
	Values                 []float64
}

// NewAttribute creates an attribute that owns values.
func NewAttribute(datatype ComponentDatatype, components int, values []float64) *Attribute {
	return &Attribute{
		ComponentDatatype:      datatype,
		ComponentsPerAttribute: components,
		Values:                 values,
	}
}

// Count returns the number of vertices described by the attribute.
func (a *Attribute) Count() int {
	if a.ComponentsPerAttribute <= 0 {
		return 0
	}
	return len(a.Values) / a.ComponentsPerAttribute
}

// Validate checks the component width and value count of the attribute.
func (a *Attribute) Validate(op, name string) error {
	if a == nil {
		return Structural(op, name, ErrMissingAttribute, "")
	}
	if a.ComponentsPerAttribute < 1 || a.ComponentsPerAttribute > 4 {
		return Structural(op, name, ErrComponentWidth, fmt.Sprintf("got %d", a.ComponentsPerAttribute))
	}
	if len(a.Values)%a.ComponentsPerAttribute != 0 {
		return Structural(op, name, ErrValueCount,
			fmt.Sprintf("%d values, %d components", len(a.Values), a.ComponentsPerAttribute))
	}
	return nil
}

// SameLayout reports whether a and b share datatype, width and normalization.
func (a *Attribute) SameLayout(b *Attribute) bool {
	return a.ComponentDatatype == b.ComponentDatatype &&
		a.ComponentsPerAttribute == b.ComponentsPerAttribute &&
		a.Normalize == b.Normalize
}

// WithValues returns an attribute with a's layout and the given values.
func (a *Attribute) WithValues(values []float64) *Attribute {
	return &Attribute{
		ComponentDatatype:      a.ComponentDatatype,
		ComponentsPerAttribute: a.ComponentsPerAttribute,
		Normalize:              a.Normalize,
		Values:                 values,
	}
}

// Clone returns a deep copy of a.
func (a *Attribute) Clone() *Attribute {
	values := make([]float64, len(a.Values))
	copy(values, a.Values)
	return a.WithValues(values)
}

// Geometry is a mesh: named attributes, an optional index list and a topology.
// Indices == nil means the geometry is not indexed.
type Geometry struct {
	Attributes    map[string]*Attribute
	Indices       []uint32
	PrimitiveType PrimitiveType
}

// New creates a geometry. A nil attribute map is replaced by an empty one.
func New(attributes map[string]*Attribute, indices []uint32, primitive PrimitiveType) *Geometry {
	if attributes == nil {
		attributes = make(map[string]*Attribute)
	}
	return &Geometry{
		Attributes:    attributes,
		Indices:       indices,
		PrimitiveType: primitive,
	}
}

// HasIndices reports whether the geometry carries an index list.
func (g *Geometry) HasIndices() bool {
	return g.Indices != nil
}

// AttributeNames returns the attribute names in sorted order.
func (g *Geometry) AttributeNames() []string {
	names := make([]string, 0, len(g.Attributes))
	for name := range g.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NumberOfVertices validates every attribute and returns the shared vertex count.
// A geometry without attributes has zero vertices.
func (g *Geometry) NumberOfVertices() (int, error) {
	const op = "geometry.NumberOfVertices"
	if g == nil {
		return 0, Structural(op, "", ErrNilGeometry, "")
	}

	count := -1
	first := ""
	for _, name := range g.AttributeNames() {
		a := g.Attributes[name]
		if err := a.Validate(op, name); err != nil {
			return 0, err
		}
		n := a.Count()
		if count == -1 {
			count = n
			first = name
			continue
		}
		if n != count {
			return 0, Structural(op, name, ErrVertexCountMismatch,
				fmt.Sprintf("%d vertices, %s has %d", n, first, count))
		}
	}
	if count == -1 {
		return 0, nil
	}
	return count, nil
}

// CheckIndices verifies every index addresses one of n vertices.
func (g *Geometry) CheckIndices(op string, n int) error {
	for i, idx := range g.Indices {
		if int(idx) >= n {
			return Structural(op, "", ErrIndexOutOfRange,
				fmt.Sprintf("indices[%d] = %d, %d vertices", i, idx, n))
		}
	}
	return nil
}

// Validate checks all structural invariants: consistent attribute counts and
// in-range indices.
func (g *Geometry) Validate() error {
	n, err := g.NumberOfVertices()
	if err != nil {
		return err
	}
	if !g.PrimitiveType.Valid() {
		return Structural("geometry.Validate", "", ErrPrimitiveType, g.PrimitiveType.String())
	}
	return g.CheckIndices("geometry.Validate", n)
}

// IndexDatatype returns the narrowest index type able to address every vertex.
func (g *Geometry) IndexDatatype() ComponentDatatype {
	n, _ := g.NumberOfVertices()
	if n > MaxUnsignedShortVertices {
		return UnsignedInt
	}
	return UnsignedShort
}

// Clone returns a deep copy of g.
func (g *Geometry) Clone() *Geometry {
	attrs := make(map[string]*Attribute, len(g.Attributes))
	for name, a := range g.Attributes {
		attrs[name] = a.Clone()
	}
	var indices []uint32
	if g.Indices != nil {
		indices = make([]uint32, len(g.Indices))
		copy(indices, g.Indices)
	}
	return &Geometry{
		Attributes:    attrs,
		Indices:       indices,
		PrimitiveType: g.PrimitiveType,
	}
}

// Instance wraps a geometry with an identity for batching.
// Any placement transform is assumed to be baked into the positions.
type Instance struct {
	ID       uuid.UUID
	Geometry *Geometry
}

// NewInstance wraps g with a fresh random ID.
func NewInstance(g *Geometry) *Instance {
	return &Instance{ID: uuid.New(), Geometry: g}
}
