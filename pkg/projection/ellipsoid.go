// Package projection converts geocentric Cartesian positions to geodetic
// coordinates and projects those onto a 2D map.
package projection

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrUnprojectable is returned for points too close to the ellipsoid centre
// to have a geodetic surface point.
var ErrUnprojectable = errors.New("point has no geodetic surface projection")

const (
	epsilon1  = 0.1
	epsilon12 = 1e-12

	// maxNewtonIterations bounds ScaleToGeodeticSurface; it converges in a handful.
	maxNewtonIterations = 50
)

// Cartographic is a geodetic position. Angles are in radians, height in metres
// above the ellipsoid surface.
type Cartographic struct {
	Longitude float64
	Latitude  float64
	Height    float64
}

// Ellipsoid is a triaxial ellipsoid centred at the origin.
type Ellipsoid struct {
	radii               r3.Vec
	radiiSquared        r3.Vec
	oneOverRadii        r3.Vec
	oneOverRadiiSquared r3.Vec
}

// WGS84 is the World Geodetic System 1984 reference ellipsoid.
var WGS84 = NewEllipsoid(6378137.0, 6378137.0, 6356752.3142451793)

// NewEllipsoid creates an ellipsoid with the given radii.
func NewEllipsoid(x, y, z float64) *Ellipsoid {
	return &Ellipsoid{
		radii:               r3.Vec{X: x, Y: y, Z: z},
		radiiSquared:        r3.Vec{X: x * x, Y: y * y, Z: z * z},
		oneOverRadii:        r3.Vec{X: 1 / x, Y: 1 / y, Z: 1 / z},
		oneOverRadiiSquared: r3.Vec{X: 1 / (x * x), Y: 1 / (y * y), Z: 1 / (z * z)},
	}
}

// Radii returns the ellipsoid radii.
func (e *Ellipsoid) Radii() r3.Vec {
	return e.radii
}

// MaximumRadius returns the largest radius.
func (e *Ellipsoid) MaximumRadius() float64 {
	return math.Max(e.radii.X, math.Max(e.radii.Y, e.radii.Z))
}

// GeodeticSurfaceNormal returns the unit surface normal at a surface point p.
func (e *Ellipsoid) GeodeticSurfaceNormal(p r3.Vec) r3.Vec {
	n := r3.Vec{
		X: p.X * e.oneOverRadiiSquared.X,
		Y: p.Y * e.oneOverRadiiSquared.Y,
		Z: p.Z * e.oneOverRadiiSquared.Z,
	}
	return r3.Scale(1/r3.Norm(n), n)
}

// GeodeticSurfaceNormalCartographic returns the surface normal at a geodetic position.
func (e *Ellipsoid) GeodeticSurfaceNormalCartographic(c Cartographic) r3.Vec {
	cosLat := math.Cos(c.Latitude)
	n := r3.Vec{
		X: cosLat * math.Cos(c.Longitude),
		Y: cosLat * math.Sin(c.Longitude),
		Z: math.Sin(c.Latitude),
	}
	return r3.Scale(1/r3.Norm(n), n)
}

// ScaleToGeodeticSurface moves p along the surface normal onto the ellipsoid.
// It reports false when p is at the centre, has a NaN or infinite component,
// or the iteration does not converge.
func (e *Ellipsoid) ScaleToGeodeticSurface(p r3.Vec) (r3.Vec, bool) {
	if !finite(p) {
		return r3.Vec{}, false
	}
	x2 := p.X * p.X * e.oneOverRadiiSquared.X
	y2 := p.Y * p.Y * e.oneOverRadiiSquared.Y
	z2 := p.Z * p.Z * e.oneOverRadiiSquared.Z

	squaredNorm := x2 + y2 + z2
	ratio := math.Sqrt(1 / squaredNorm)
	intersection := r3.Scale(ratio, p)

	// Near the centre the Newton iteration does not converge; use the radial projection.
	if squaredNorm < epsilon1 {
		if math.IsInf(ratio, 0) || math.IsNaN(ratio) {
			return r3.Vec{}, false
		}
		return intersection, true
	}

	gradient := r3.Vec{
		X: intersection.X * e.oneOverRadiiSquared.X * 2,
		Y: intersection.Y * e.oneOverRadiiSquared.Y * 2,
		Z: intersection.Z * e.oneOverRadiiSquared.Z * 2,
	}
	lambda := (1 - ratio) * r3.Norm(p) / (0.5 * r3.Norm(gradient))
	correction := 0.0

	var xm, ym, zm float64
	converged := false
	for i := 0; i < maxNewtonIterations; i++ {
		lambda -= correction

		xm = 1 / (1 + lambda*e.oneOverRadiiSquared.X)
		ym = 1 / (1 + lambda*e.oneOverRadiiSquared.Y)
		zm = 1 / (1 + lambda*e.oneOverRadiiSquared.Z)

		xm2, ym2, zm2 := xm*xm, ym*ym, zm*zm
		xm3, ym3, zm3 := xm2*xm, ym2*ym, zm2*zm

		fn := x2*xm2 + y2*ym2 + z2*zm2 - 1
		denominator := x2*xm3*e.oneOverRadiiSquared.X +
			y2*ym3*e.oneOverRadiiSquared.Y +
			z2*zm3*e.oneOverRadiiSquared.Z
		correction = fn / (-2 * denominator)

		if math.Abs(fn) <= epsilon12 {
			converged = true
			break
		}
	}
	if !converged {
		return r3.Vec{}, false
	}
	return r3.Vec{X: p.X * xm, Y: p.Y * ym, Z: p.Z * zm}, true
}

func finite(p r3.Vec) bool {
	for _, v := range [...]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// CartesianToCartographic converts a geocentric position to geodetic coordinates.
func (e *Ellipsoid) CartesianToCartographic(p r3.Vec) (Cartographic, bool) {
	surface, ok := e.ScaleToGeodeticSurface(p)
	if !ok {
		return Cartographic{}, false
	}
	n := e.GeodeticSurfaceNormal(surface)
	h := r3.Sub(p, surface)

	height := r3.Norm(h)
	if r3.Dot(h, p) < 0 {
		height = -height
	}
	return Cartographic{
		Longitude: math.Atan2(n.Y, n.X),
		Latitude:  math.Asin(n.Z),
		Height:    height,
	}, true
}

// CartographicToCartesian converts geodetic coordinates to a geocentric position.
func (e *Ellipsoid) CartographicToCartesian(c Cartographic) r3.Vec {
	n := e.GeodeticSurfaceNormalCartographic(c)
	k := r3.Vec{
		X: e.radiiSquared.X * n.X,
		Y: e.radiiSquared.Y * n.Y,
		Z: e.radiiSquared.Z * n.Z,
	}
	gamma := math.Sqrt(r3.Dot(n, k))
	k = r3.Scale(1/gamma, k)
	return r3.Add(k, r3.Scale(c.Height, n))
}
