package geometry

import (
	"fmt"
	"strings"
)

// ComponentDatatype is the numeric kind of an attribute's components.
type ComponentDatatype uint8

// Component datatypes. The zero value is invalid.
const (
	Byte ComponentDatatype = iota + 1
	UnsignedByte
	Short
	UnsignedShort
	UnsignedInt
	Float
	Double
)

var datatypeNames = map[ComponentDatatype]string{
	Byte:          "byte",
	UnsignedByte:  "unsigned_byte",
	Short:         "short",
	UnsignedShort: "unsigned_short",
	UnsignedInt:   "unsigned_int",
	Float:         "float",
	Double:        "double",
}

// Size returns the width of one component in bytes, or 0 if d is invalid.
func (d ComponentDatatype) Size() int {
	switch d {
	case Byte, UnsignedByte:
		return 1
	case Short, UnsignedShort:
		return 2
	case UnsignedInt, Float:
		return 4
	case Double:
		return 8
	default:
		return 0
	}
}

// IsFloat reports whether d holds floating-point values.
func (d ComponentDatatype) IsFloat() bool {
	return d == Float || d == Double
}

// Valid reports whether d is a known datatype.
func (d ComponentDatatype) Valid() bool {
	_, ok := datatypeNames[d]
	return ok
}

func (d ComponentDatatype) String() string {
	if name, ok := datatypeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("datatype(%d)", uint8(d))
}

// ParseComponentDatatype parses a datatype name such as "float" or "unsigned_short".
func ParseComponentDatatype(s string) (ComponentDatatype, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d, name := range datatypeNames {
		if name == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrDatatype, s)
}

// MarshalText implements encoding.TextMarshaler.
func (d ComponentDatatype) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrDatatype, uint8(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *ComponentDatatype) UnmarshalText(text []byte) error {
	v, err := ParseComponentDatatype(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// PrimitiveType is the topology an index list describes.
type PrimitiveType uint8

// Primitive types.
const (
	Points PrimitiveType = iota
	Lines
	LineLoop
	LineStrip
	Triangles
	TriangleStrip
	TriangleFan
)

var primitiveNames = [...]string{
	Points:        "points",
	Lines:         "lines",
	LineLoop:      "line_loop",
	LineStrip:     "line_strip",
	Triangles:     "triangles",
	TriangleStrip: "triangle_strip",
	TriangleFan:   "triangle_fan",
}

func (p PrimitiveType) String() string {
	if int(p) < len(primitiveNames) {
		return primitiveNames[p]
	}
	return fmt.Sprintf("primitive(%d)", uint8(p))
}

// Valid reports whether p is a known primitive type.
func (p PrimitiveType) Valid() bool {
	return int(p) < len(primitiveNames)
}

// ParsePrimitiveType parses a primitive type name such as "triangles".
func ParsePrimitiveType(s string) (PrimitiveType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range primitiveNames {
		if name == s {
			return PrimitiveType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrPrimitiveType, s)
}

// MarshalText implements encoding.TextMarshaler.
func (p PrimitiveType) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrPrimitiveType, uint8(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PrimitiveType) UnmarshalText(text []byte) error {
	v, err := ParsePrimitiveType(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Well-known attribute names.
const (
	Position   = "position"
	Position3D = "position3D"
	Position2D = "position2D"
	Normal     = "normal"
	Tangent    = "tangent"
	Binormal   = "binormal"
	ST         = "st"
	Color      = "color"
)
