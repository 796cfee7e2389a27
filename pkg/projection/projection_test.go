package projection

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestCartesianToCartographic_Equator(t *testing.T) {
	c, ok := WGS84.CartesianToCartographic(r3.Vec{X: 6378137.0})
	if !ok {
		t.Fatal("expected a surface point")
	}
	if c.Longitude != 0 || c.Latitude != 0 {
		t.Errorf("expected lon/lat 0, got %v/%v", c.Longitude, c.Latitude)
	}
	if !scalar.EqualWithinAbs(c.Height, 0, 1e-6) {
		t.Errorf("expected height 0, got %v", c.Height)
	}
}

func TestCartesianToCartographic_Pole(t *testing.T) {
	c, ok := WGS84.CartesianToCartographic(r3.Vec{Z: 6356752.3142451793 + 100})
	if !ok {
		t.Fatal("expected a surface point")
	}
	if !scalar.EqualWithinAbs(c.Latitude, math.Pi/2, 1e-12) {
		t.Errorf("expected latitude pi/2, got %v", c.Latitude)
	}
	if !scalar.EqualWithinAbs(c.Height, 100, 1e-4) {
		t.Errorf("expected height 100, got %v", c.Height)
	}
}

func TestCartesianToCartographic_Centre(t *testing.T) {
	if _, ok := WGS84.CartesianToCartographic(r3.Vec{}); ok {
		t.Error("expected the centre to have no surface point")
	}
}

func TestScaleToGeodeticSurface_NonFinite(t *testing.T) {
	tests := []r3.Vec{
		{X: math.NaN(), Y: 1, Z: 1},
		{X: math.Inf(1), Y: 1, Z: 1},
		{X: 1, Y: math.Inf(-1), Z: 1},
		{X: 1e300, Y: 1e300, Z: 1e300},
	}

	for _, p := range tests {
		if _, ok := WGS84.ScaleToGeodeticSurface(p); ok {
			t.Errorf("ScaleToGeodeticSurface(%v) reported a surface point", p)
		}
		if _, ok := WGS84.CartesianToCartographic(p); ok {
			t.Errorf("CartesianToCartographic(%v) reported a position", p)
		}
	}
}

func TestCartographicRoundTrip(t *testing.T) {
	tests := []Cartographic{
		{Longitude: 0.5, Latitude: 0.3, Height: 1000},
		{Longitude: -2.1, Latitude: -1.2, Height: -50},
		{Longitude: 3.0, Latitude: 0.0, Height: 0},
	}

	for _, want := range tests {
		p := WGS84.CartographicToCartesian(want)
		got, ok := WGS84.CartesianToCartographic(p)
		if !ok {
			t.Fatalf("no surface point for %+v", want)
		}
		if !scalar.EqualWithinAbs(got.Longitude, want.Longitude, 1e-10) ||
			!scalar.EqualWithinAbs(got.Latitude, want.Latitude, 1e-10) ||
			!scalar.EqualWithinAbs(got.Height, want.Height, 1e-4) {
			t.Errorf("round trip: want %+v, got %+v", want, got)
		}
	}
}

func TestGeographicProject(t *testing.T) {
	g := NewGeographic(nil)
	c := Cartographic{Longitude: math.Pi / 2, Latitude: math.Pi / 4, Height: 12}

	p := g.Project(c)
	if !scalar.EqualWithinAbsOrRel(p.X, math.Pi/2*6378137.0, 1e-9, 1e-12) {
		t.Errorf("unexpected x %v", p.X)
	}
	if !scalar.EqualWithinAbsOrRel(p.Y, math.Pi/4*6378137.0, 1e-9, 1e-12) {
		t.Errorf("unexpected y %v", p.Y)
	}
	if p.Z != 12 {
		t.Errorf("expected height 12, got %v", p.Z)
	}

	back := g.Unproject(p)
	if !scalar.EqualWithinAbs(back.Longitude, c.Longitude, 1e-15) ||
		!scalar.EqualWithinAbs(back.Latitude, c.Latitude, 1e-15) {
		t.Errorf("unproject: want %+v, got %+v", c, back)
	}
}

func TestWebMercator(t *testing.T) {
	w := NewWebMercator(nil)

	if p := w.Project(Cartographic{}); p.X != 0 || p.Y != 0 {
		t.Errorf("expected origin, got %+v", p)
	}

	c := Cartographic{Longitude: 0.2, Latitude: 0.5}
	back := w.Unproject(w.Project(c))
	if !scalar.EqualWithinAbs(back.Latitude, c.Latitude, 1e-12) {
		t.Errorf("round trip latitude: want %v, got %v", c.Latitude, back.Latitude)
	}

	top := w.Project(Cartographic{Latitude: 89 * math.Pi / 180})
	limit := w.Project(Cartographic{Latitude: MaximumMercatorLatitude})
	if top.Y != limit.Y {
		t.Errorf("expected latitude clamp, got %v vs %v", top.Y, limit.Y)
	}
	if !scalar.EqualWithinAbsOrRel(limit.Y, math.Pi*6378137.0, 1e-6, 1e-9) {
		t.Errorf("expected the clamp to square the map, got %v", limit.Y)
	}
}

func TestByName(t *testing.T) {
	if p, err := ByName("geographic"); err != nil {
		t.Errorf("geographic: %v", err)
	} else if _, ok := p.(*Geographic); !ok {
		t.Errorf("expected *Geographic, got %T", p)
	}
	if p, err := ByName("WebMercator"); err != nil {
		t.Errorf("webmercator: %v", err)
	} else if _, ok := p.(*WebMercator); !ok {
		t.Errorf("expected *WebMercator, got %T", p)
	}
	if _, err := ByName("lambert"); err == nil {
		t.Error("expected an error for an unknown projection")
	}
}

func TestProjectCartesian(t *testing.T) {
	g := NewGeographic(WGS84)
	x, y, err := ProjectCartesian(g, r3.Vec{Y: 6378137.0})
	if err != nil {
		t.Fatalf("ProjectCartesian failed: %v", err)
	}
	if !scalar.EqualWithinAbsOrRel(x, math.Pi/2*6378137.0, 1e-9, 1e-12) || y != 0 {
		t.Errorf("unexpected projection (%v, %v)", x, y)
	}

	if _, _, err := ProjectCartesian(g, r3.Vec{}); !errors.Is(err, ErrUnprojectable) {
		t.Errorf("expected ErrUnprojectable, got %v", err)
	}
}
