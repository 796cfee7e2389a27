package filters

import (
	"math"
	"testing"

	"github.com/Faultbox/meshprep/pkg/geometry"
)

func TestEncodeFloat64(t *testing.T) {
	values := []float64{-10000000.0, 0, 10000000.0, 6378137.123456, -1234.5678, math.Pi * 1e6}
	for _, v := range values {
		high, low := EncodeFloat64(v)
		if high != float32(v) {
			t.Errorf("high(%v) = %v, want %v", v, high, float32(v))
		}
		got := float64(high) + float64(low)
		if diff := math.Abs(got - v); diff > 1e-13*math.Abs(v) {
			t.Errorf("high+low(%v) = %v, off by %v", v, got, diff)
		}
	}
}

func TestEncodeAttribute(t *testing.T) {
	c := []float64{-10000000.0, 0.0, 10000000.0}
	g := geometry.New(map[string]*geometry.Attribute{
		geometry.Position: positions(c...),
	}, nil, geometry.Points)

	out, err := EncodeAttribute(g, "")
	if err != nil {
		t.Fatalf("EncodeAttribute failed: %v", err)
	}

	high := out.Attributes["positionHigh"]
	low := out.Attributes["positionLow"]
	if high == nil || low == nil {
		t.Fatalf("encoded attributes missing: %v", out.AttributeNames())
	}
	for i, v := range c {
		h, l := EncodeFloat64(v)
		if high.Values[i] != float64(h) || low.Values[i] != float64(l) {
			t.Errorf("component %d = (%v, %v), want (%v, %v)", i, high.Values[i], low.Values[i], h, l)
		}
	}
	if high.ComponentsPerAttribute != 3 || high.ComponentDatatype != geometry.Float {
		t.Errorf("positionHigh layout = %v/%d", high.ComponentDatatype, high.ComponentsPerAttribute)
	}
	if _, ok := out.Attributes[geometry.Position]; ok {
		t.Error("position should be removed")
	}
	if _, ok := g.Attributes[geometry.Position]; !ok {
		t.Error("input geometry was modified")
	}
}

func TestEncodeAttributeNamed(t *testing.T) {
	g := geometry.New(map[string]*geometry.Attribute{
		"center": positions(1.5, 2.5, 3.5),
	}, nil, geometry.Points)

	out, err := EncodeAttribute(g, "center")
	if err != nil {
		t.Fatalf("EncodeAttribute failed: %v", err)
	}
	if out.Attributes["centerHigh"] == nil || out.Attributes["centerLow"] == nil {
		t.Errorf("attributes = %v", out.AttributeNames())
	}
}

func TestEncodeAttributeErrors(t *testing.T) {
	tests := []struct {
		name string
		g    *geometry.Geometry
		want error
	}{
		{"nil geometry", nil, geometry.ErrNilGeometry},
		{"nil attributes", &geometry.Geometry{}, geometry.ErrNoAttributes},
		{"missing attribute", geometry.New(nil, nil, geometry.Points), geometry.ErrMissingAttribute},
		{
			"not floating point",
			geometry.New(map[string]*geometry.Attribute{
				geometry.Position: geometry.NewAttribute(geometry.UnsignedShort, 3, []float64{0, 0, 0}),
			}, nil, geometry.Points),
			geometry.ErrDatatype,
		},
		{
			"not floating point and wrong width",
			geometry.New(map[string]*geometry.Attribute{
				geometry.Position: geometry.NewAttribute(geometry.UnsignedShort, 1, []float64{0}),
			}, nil, geometry.Points),
			geometry.ErrDatatype,
		},
		{
			"width",
			geometry.New(map[string]*geometry.Attribute{
				geometry.Position: geometry.NewAttribute(geometry.Float, 1, []float64{0}),
			}, nil, geometry.Points),
			geometry.ErrComponentWidth,
		},
		{
			"value count",
			geometry.New(map[string]*geometry.Attribute{
				geometry.Position: geometry.NewAttribute(geometry.Double, 3, []float64{0, 0}),
			}, nil, geometry.Points),
			geometry.ErrValueCount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeAttribute(tt.g, "")
			assertStructural(t, err, tt.want)
		})
	}
}
