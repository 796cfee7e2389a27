package projection

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// MapProjection maps geodetic coordinates onto a plane. The returned vector
// holds the projected X and Y with the height carried in Z.
type MapProjection interface {
	Ellipsoid() *Ellipsoid
	Project(c Cartographic) r3.Vec
	Unproject(p r3.Vec) Cartographic
}

// Geographic is the equirectangular projection: longitude and latitude scaled
// by the semi-major axis.
type Geographic struct {
	ellipsoid            *Ellipsoid
	semimajorAxis        float64
	oneOverSemimajorAxis float64
}

// NewGeographic creates a geographic projection on e. A nil e means WGS84.
func NewGeographic(e *Ellipsoid) *Geographic {
	if e == nil {
		e = WGS84
	}
	a := e.MaximumRadius()
	return &Geographic{ellipsoid: e, semimajorAxis: a, oneOverSemimajorAxis: 1 / a}
}

// Ellipsoid returns the projection's ellipsoid.
func (g *Geographic) Ellipsoid() *Ellipsoid { return g.ellipsoid }

// Project projects c to metres.
func (g *Geographic) Project(c Cartographic) r3.Vec {
	return r3.Vec{
		X: c.Longitude * g.semimajorAxis,
		Y: c.Latitude * g.semimajorAxis,
		Z: c.Height,
	}
}

// Unproject inverts Project.
func (g *Geographic) Unproject(p r3.Vec) Cartographic {
	return Cartographic{
		Longitude: p.X * g.oneOverSemimajorAxis,
		Latitude:  p.Y * g.oneOverSemimajorAxis,
		Height:    p.Z,
	}
}

// MaximumMercatorLatitude is the latitude at which Web Mercator becomes square.
var MaximumMercatorLatitude = mercatorAngleToGeodeticLatitude(math.Pi)

// WebMercator is the spherical Mercator projection used by web map tiles.
type WebMercator struct {
	ellipsoid            *Ellipsoid
	semimajorAxis        float64
	oneOverSemimajorAxis float64
}

// NewWebMercator creates a Web Mercator projection on e. A nil e means WGS84.
func NewWebMercator(e *Ellipsoid) *WebMercator {
	if e == nil {
		e = WGS84
	}
	a := e.MaximumRadius()
	return &WebMercator{ellipsoid: e, semimajorAxis: a, oneOverSemimajorAxis: 1 / a}
}

// Ellipsoid returns the projection's ellipsoid.
func (w *WebMercator) Ellipsoid() *Ellipsoid { return w.ellipsoid }

// Project projects c to metres. Latitudes beyond MaximumMercatorLatitude are clamped.
func (w *WebMercator) Project(c Cartographic) r3.Vec {
	return r3.Vec{
		X: c.Longitude * w.semimajorAxis,
		Y: geodeticLatitudeToMercatorAngle(c.Latitude) * w.semimajorAxis,
		Z: c.Height,
	}
}

// Unproject inverts Project.
func (w *WebMercator) Unproject(p r3.Vec) Cartographic {
	return Cartographic{
		Longitude: p.X * w.oneOverSemimajorAxis,
		Latitude:  mercatorAngleToGeodeticLatitude(p.Y * w.oneOverSemimajorAxis),
		Height:    p.Z,
	}
}

func mercatorAngleToGeodeticLatitude(angle float64) float64 {
	return math.Pi/2 - 2*math.Atan(math.Exp(-angle))
}

func geodeticLatitudeToMercatorAngle(lat float64) float64 {
	if lat > MaximumMercatorLatitude {
		lat = MaximumMercatorLatitude
	} else if lat < -MaximumMercatorLatitude {
		lat = -MaximumMercatorLatitude
	}
	sinLat := math.Sin(lat)
	return 0.5 * math.Log((1+sinLat)/(1-sinLat))
}

// ByName returns a WGS84 projection by config name: "geographic" or "webmercator".
func ByName(name string) (MapProjection, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "geographic":
		return NewGeographic(WGS84), nil
	case "webmercator", "web_mercator", "mercator":
		return NewWebMercator(WGS84), nil
	default:
		return nil, fmt.Errorf("unknown projection: %q", name)
	}
}

// ProjectCartesian converts a geocentric position through p to planar coordinates.
func ProjectCartesian(p MapProjection, position r3.Vec) (x, y float64, err error) {
	c, ok := p.Ellipsoid().CartesianToCartographic(position)
	if !ok {
		return 0, 0, fmt.Errorf("%w: (%g, %g, %g)", ErrUnprojectable, position.X, position.Y, position.Z)
	}
	v := p.Project(c)
	return v.X, v.Y, nil
}
