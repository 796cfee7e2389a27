package formats

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/meshprep/pkg/geometry"
)

// yamlMesh is the on-disk layout of a YAML mesh document.
type yamlMesh struct {
	Primitive  *geometry.PrimitiveType  `yaml:"primitive,omitempty"`
	Attributes map[string]yamlAttribute `yaml:"attributes"`
	Indices    *[]uint32                `yaml:"indices,flow,omitempty"`
}

type yamlAttribute struct {
	Datatype   geometry.ComponentDatatype `yaml:"datatype"`
	Components int                        `yaml:"components"`
	Normalize  bool                       `yaml:"normalize,omitempty"`
	Values     []float64                  `yaml:"values,flow"`
}

// ParseYAML parses a YAML mesh document and validates the geometry.
// A missing primitive defaults to triangles and a missing datatype to float.
func ParseYAML(data []byte) (*geometry.Geometry, error) {
	var doc yamlMesh
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML mesh: %w", err)
	}

	attrs := make(map[string]*geometry.Attribute, len(doc.Attributes))
	for name, a := range doc.Attributes {
		datatype := a.Datatype
		if datatype == 0 {
			datatype = geometry.Float
		}
		attr := geometry.NewAttribute(datatype, a.Components, a.Values)
		attr.Normalize = a.Normalize
		attrs[name] = attr
	}

	var indices []uint32
	if doc.Indices != nil {
		indices = *doc.Indices
		if indices == nil {
			indices = []uint32{}
		}
	}

	primitive := geometry.Triangles
	if doc.Primitive != nil {
		primitive = *doc.Primitive
	}

	g := geometry.New(attrs, indices, primitive)
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// ParseYAMLFile parses a YAML mesh document from disk.
func ParseYAMLFile(path string) (*geometry.Geometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading YAML mesh: %w", err)
	}
	return ParseYAML(data)
}

// EncodeYAML serializes g as a YAML mesh document.
func EncodeYAML(g *geometry.Geometry) ([]byte, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	primitive := g.PrimitiveType
	doc := yamlMesh{
		Primitive:  &primitive,
		Attributes: make(map[string]yamlAttribute, len(g.Attributes)),
	}
	for name, a := range g.Attributes {
		values := a.Values
		if values == nil {
			values = []float64{}
		}
		doc.Attributes[name] = yamlAttribute{
			Datatype:   a.ComponentDatatype,
			Components: a.ComponentsPerAttribute,
			Normalize:  a.Normalize,
			Values:     values,
		}
	}
	if g.Indices != nil {
		indices := g.Indices
		doc.Indices = &indices
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("encoding YAML mesh: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding YAML mesh: %w", err)
	}
	return buf.Bytes(), nil
}
