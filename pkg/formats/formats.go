// Package formats reads and writes geometries: the binary GEOM container and
// YAML mesh documents.
package formats

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/meshprep/pkg/geometry"
)

// ErrUnknownFormat is returned for file extensions and format names that are not supported.
var ErrUnknownFormat = errors.New("unknown mesh format")

// Format names a mesh file format.
type Format string

const (
	GEOM Format = "geom"
	YAML Format = "yaml"
)

// Ext returns the file extension written for f.
func (f Format) Ext() string {
	return "." + string(f)
}

// ParseFormat parses a format name as used in config files.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "geom":
		return GEOM, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// Parse decodes data in format f.
func Parse(data []byte, f Format) (*geometry.Geometry, error) {
	switch f {
	case GEOM:
		return ParseGEOM(data)
	case YAML:
		return ParseYAML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Encode serializes g in format f.
func Encode(g *geometry.Geometry, f Format) ([]byte, error) {
	switch f {
	case GEOM:
		return EncodeGEOM(g)
	case YAML:
		return EncodeYAML(g)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// ReadFile loads a geometry, choosing the format from the extension.
func ReadFile(path string) (*geometry.Geometry, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mesh file: %w", err)
	}
	g, err := Parse(data, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// WriteFile stores g, choosing the format from the extension.
// Parent directories are created as needed.
func WriteFile(path string, g *geometry.Geometry) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Encode(g, f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing mesh file: %w", err)
	}
	return nil
}
