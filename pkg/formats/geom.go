package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/Faultbox/meshprep/pkg/filters"
	"github.com/Faultbox/meshprep/pkg/geometry"
)

// GEOM format errors.
var (
	ErrInvalidGEOMMagic       = errors.New("invalid GEOM magic: expected 'GEOM'")
	ErrUnsupportedGEOMVersion = errors.New("unsupported GEOM version")
	ErrTruncatedGEOMData      = errors.New("truncated GEOM data")
	ErrGEOMValueRange         = errors.New("value does not fit the attribute datatype")
)

const geomMagic = "GEOM"

// GEOMVersion represents the GEOM container version.
type GEOMVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v GEOMVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// CurrentGEOMVersion is the version written by EncodeGEOM.
var CurrentGEOMVersion = GEOMVersion{Major: 1, Minor: 0}

// ParseGEOM parses a GEOM container from raw bytes and validates the geometry.
func ParseGEOM(data []byte) (*geometry.Geometry, error) {
	if len(data) < 11 {
		return nil, ErrTruncatedGEOMData
	}

	if string(data[0:4]) != geomMagic {
		return nil, ErrInvalidGEOMMagic
	}

	version := GEOMVersion{Major: data[4], Minor: data[5]}
	if version.Major != CurrentGEOMVersion.Major {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGEOMVersion, version)
	}

	primitive := geometry.PrimitiveType(data[6])
	if !primitive.Valid() {
		return nil, fmt.Errorf("invalid GEOM primitive type: %d", data[6])
	}

	r := bytes.NewReader(data[7:])

	var attributeCount uint32
	if err := binary.Read(r, binary.LittleEndian, &attributeCount); err != nil {
		return nil, fmt.Errorf("%w: reading attribute count", ErrTruncatedGEOMData)
	}

	attrs := make(map[string]*geometry.Attribute, min(int(attributeCount), 64))
	for i := uint32(0); i < attributeCount; i++ {
		name, a, err := parseGEOMAttribute(r)
		if err != nil {
			return nil, fmt.Errorf("parsing attribute %d: %w", i, err)
		}
		if _, dup := attrs[name]; dup {
			return nil, fmt.Errorf("duplicate GEOM attribute %q", name)
		}
		attrs[name] = a
	}

	indices, err := parseGEOMIndices(r)
	if err != nil {
		return nil, err
	}

	g := geometry.New(attrs, indices, primitive)
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func parseGEOMAttribute(r *bytes.Reader) (string, *geometry.Attribute, error) {
	var nameLen uint16
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return "", nil, fmt.Errorf("%w: reading name length", ErrTruncatedGEOMData)
	}
	nameBytes := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBytes); err != nil {
		return "", nil, fmt.Errorf("%w: reading name", ErrTruncatedGEOMData)
	}

	var header struct {
		Datatype   uint8
		Components uint8
		Normalize  uint8
		Count      uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return "", nil, fmt.Errorf("%w: reading attribute header", ErrTruncatedGEOMData)
	}

	datatype := geometry.ComponentDatatype(header.Datatype)
	if !datatype.Valid() {
		return "", nil, fmt.Errorf("invalid GEOM datatype %d for %q", header.Datatype, nameBytes)
	}

	values, err := readValues(r, datatype, header.Count)
	if err != nil {
		return "", nil, fmt.Errorf("reading %q values: %w", nameBytes, err)
	}

	a := geometry.NewAttribute(datatype, int(header.Components), values)
	a.Normalize = header.Normalize != 0
	return string(nameBytes), a, nil
}

func parseGEOMIndices(r *bytes.Reader) ([]uint32, error) {
	var header struct {
		Datatype uint8
		Count    uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: reading index header", ErrTruncatedGEOMData)
	}

	datatype := geometry.ComponentDatatype(header.Datatype)
	switch {
	case header.Datatype == 0:
		return nil, nil
	case datatype != geometry.UnsignedShort && datatype != geometry.UnsignedInt:
		return nil, fmt.Errorf("invalid GEOM index datatype: %s", datatype)
	case int64(header.Count)*int64(datatype.Size()) > int64(r.Len()):
		return nil, fmt.Errorf("%w: reading indices", ErrTruncatedGEOMData)
	}

	indices := make([]uint32, header.Count)
	if datatype == geometry.UnsignedShort {
		raw := make([]uint16, header.Count)
		if err := binary.Read(r, binary.LittleEndian, raw); err != nil {
			return nil, fmt.Errorf("%w: reading indices", ErrTruncatedGEOMData)
		}
		for i, v := range raw {
			indices[i] = uint32(v)
		}
		return indices, nil
	}
	if err := binary.Read(r, binary.LittleEndian, indices); err != nil {
		return nil, fmt.Errorf("%w: reading indices", ErrTruncatedGEOMData)
	}
	return indices, nil
}

// readValues decodes count values stored at the native width of datatype.
func readValues(r *bytes.Reader, datatype geometry.ComponentDatatype, count uint32) ([]float64, error) {
	if int64(count)*int64(datatype.Size()) > int64(r.Len()) {
		return nil, ErrTruncatedGEOMData
	}

	values := make([]float64, count)
	var raw any
	switch datatype {
	case geometry.Byte:
		raw = make([]int8, count)
	case geometry.UnsignedByte:
		raw = make([]uint8, count)
	case geometry.Short:
		raw = make([]int16, count)
	case geometry.UnsignedShort:
		raw = make([]uint16, count)
	case geometry.UnsignedInt:
		raw = make([]uint32, count)
	case geometry.Float:
		raw = make([]float32, count)
	case geometry.Double:
		raw = values
	}
	if err := binary.Read(r, binary.LittleEndian, raw); err != nil {
		return nil, ErrTruncatedGEOMData
	}

	switch raw := raw.(type) {
	case []int8:
		for i, v := range raw {
			values[i] = float64(v)
		}
	case []uint8:
		for i, v := range raw {
			values[i] = float64(v)
		}
	case []int16:
		for i, v := range raw {
			values[i] = float64(v)
		}
	case []uint16:
		for i, v := range raw {
			values[i] = float64(v)
		}
	case []uint32:
		for i, v := range raw {
			values[i] = float64(v)
		}
	case []float32:
		for i, v := range raw {
			values[i] = float64(v)
		}
	}
	return values, nil
}

// ParseGEOMFile parses a GEOM file from disk.
func ParseGEOMFile(path string) (*geometry.Geometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading GEOM file: %w", err)
	}
	return ParseGEOM(data)
}

// EncodeGEOM serializes g as a GEOM container. Attributes are written in
// shader location order and indices at the narrowest width that addresses
// every vertex.
func EncodeGEOM(g *geometry.Geometry) ([]byte, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	buf.WriteString(geomMagic)
	buf.WriteByte(CurrentGEOMVersion.Major)
	buf.WriteByte(CurrentGEOMVersion.Minor)
	buf.WriteByte(byte(g.PrimitiveType))
	binary.Write(buf, binary.LittleEndian, uint32(len(g.Attributes)))

	for _, name := range locationOrder(g) {
		a := g.Attributes[name]
		if len(name) > math.MaxUint16 {
			return nil, fmt.Errorf("attribute name too long: %d bytes", len(name))
		}
		binary.Write(buf, binary.LittleEndian, uint16(len(name)))
		buf.WriteString(name)
		buf.WriteByte(byte(a.ComponentDatatype))
		buf.WriteByte(byte(a.ComponentsPerAttribute))
		if a.Normalize {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		binary.Write(buf, binary.LittleEndian, uint32(len(a.Values)))
		if err := writeValues(buf, a); err != nil {
			return nil, fmt.Errorf("writing %q values: %w", name, err)
		}
	}

	if g.Indices == nil {
		buf.WriteByte(0)
		binary.Write(buf, binary.LittleEndian, uint32(0))
		return buf.Bytes(), nil
	}

	datatype := g.IndexDatatype()
	buf.WriteByte(byte(datatype))
	binary.Write(buf, binary.LittleEndian, uint32(len(g.Indices)))
	if datatype == geometry.UnsignedShort {
		raw := make([]uint16, len(g.Indices))
		for i, v := range g.Indices {
			raw[i] = uint16(v)
		}
		binary.Write(buf, binary.LittleEndian, raw)
	} else {
		binary.Write(buf, binary.LittleEndian, g.Indices)
	}
	return buf.Bytes(), nil
}

// locationOrder returns attribute names sorted by shader location.
func locationOrder(g *geometry.Geometry) []string {
	locations := filters.CreateAttributeIndices(g)
	names := g.AttributeNames()
	sort.SliceStable(names, func(i, j int) bool {
		return locations[names[i]] < locations[names[j]]
	})
	return names
}

func writeValues(w io.Writer, a *geometry.Attribute) error {
	var raw any
	switch a.ComponentDatatype {
	case geometry.Byte:
		out := make([]int8, len(a.Values))
		for i, v := range a.Values {
			if v != math.Trunc(v) || v < math.MinInt8 || v > math.MaxInt8 {
				return fmt.Errorf("%w: %v as byte", ErrGEOMValueRange, v)
			}
			out[i] = int8(v)
		}
		raw = out
	case geometry.UnsignedByte:
		out := make([]uint8, len(a.Values))
		for i, v := range a.Values {
			if v != math.Trunc(v) || v < 0 || v > math.MaxUint8 {
				return fmt.Errorf("%w: %v as unsigned byte", ErrGEOMValueRange, v)
			}
			out[i] = uint8(v)
		}
		raw = out
	case geometry.Short:
		out := make([]int16, len(a.Values))
		for i, v := range a.Values {
			if v != math.Trunc(v) || v < math.MinInt16 || v > math.MaxInt16 {
				return fmt.Errorf("%w: %v as short", ErrGEOMValueRange, v)
			}
			out[i] = int16(v)
		}
		raw = out
	case geometry.UnsignedShort:
		out := make([]uint16, len(a.Values))
		for i, v := range a.Values {
			if v != math.Trunc(v) || v < 0 || v > math.MaxUint16 {
				return fmt.Errorf("%w: %v as unsigned short", ErrGEOMValueRange, v)
			}
			out[i] = uint16(v)
		}
		raw = out
	case geometry.UnsignedInt:
		out := make([]uint32, len(a.Values))
		for i, v := range a.Values {
			if v != math.Trunc(v) || v < 0 || v > math.MaxUint32 {
				return fmt.Errorf("%w: %v as unsigned int", ErrGEOMValueRange, v)
			}
			out[i] = uint32(v)
		}
		raw = out
	case geometry.Float:
		out := make([]float32, len(a.Values))
		for i, v := range a.Values {
			out[i] = float32(v)
		}
		raw = out
	case geometry.Double:
		raw = a.Values
	default:
		return fmt.Errorf("invalid datatype %s", a.ComponentDatatype)
	}
	return binary.Write(w, binary.LittleEndian, raw)
}
