package geometry

import (
	"errors"
	"strings"
)

// Structural errors.
var (
	ErrNilGeometry         = errors.New("geometry is nil")
	ErrNoAttributes        = errors.New("geometry has no attributes")
	ErrMissingAttribute    = errors.New("missing attribute")
	ErrComponentWidth      = errors.New("invalid components per attribute")
	ErrValueCount          = errors.New("value count is not a multiple of components per attribute")
	ErrVertexCountMismatch = errors.New("attributes have different vertex counts")
	ErrIndexOutOfRange     = errors.New("index out of range")
	ErrIndexCount          = errors.New("invalid index count")
	ErrDatatype            = errors.New("unsupported component datatype")
	ErrPrimitiveType       = errors.New("unsupported primitive type")
	ErrNoInstances         = errors.New("no geometry instances")
)

// StructuralError reports a geometry that violates a structural invariant.
// Err is one of the sentinel errors above.
type StructuralError struct {
	Op     string // operation that rejected the geometry
	Name   string // attribute name, if any
	Err    error
	Detail string
}

// Structural builds a *StructuralError.
func Structural(op, name string, err error, detail string) error {
	return &StructuralError{Op: op, Name: name, Err: err, Detail: detail}
}

func (e *StructuralError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Name != "" {
		b.WriteString(e.Name)
		b.WriteString(": ")
	}
	b.WriteString(e.Err.Error())
	if e.Detail != "" {
		b.WriteString(" (")
		b.WriteString(e.Detail)
		b.WriteString(")")
	}
	return b.String()
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

// IsStructural reports whether err carries a *StructuralError.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}
