package filters

import (
	"strings"
	"testing"

	"github.com/Faultbox/meshprep/pkg/geometry"
)

func TestCombineOneInstance(t *testing.T) {
	g := geometry.New(map[string]*geometry.Attribute{geometry.Position: positions(0, 0, 0)}, nil, geometry.Points)
	inst := geometry.NewInstance(g)

	combined, err := Combine([]*geometry.Instance{inst})
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}
	if combined != g {
		t.Error("expected the instance's geometry back")
	}
}

func TestCombineSeveral(t *testing.T) {
	first := geometry.NewInstance(geometry.New(map[string]*geometry.Attribute{
		geometry.Position: positions(0, 0, 0, 1, 1, 1, 2, 2, 2),
		geometry.Normal:   positions(0, 0, 0, 1, 1, 1, 2, 2, 2),
	}, []uint32{0, 1, 2}, geometry.Triangles))
	second := geometry.NewInstance(geometry.New(map[string]*geometry.Attribute{
		geometry.Position: positions(3, 3, 3, 4, 4, 4, 5, 5, 5),
	}, []uint32{0, 1, 2}, geometry.Triangles))

	combined, err := Combine([]*geometry.Instance{first, second})
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}

	if names := combined.AttributeNames(); len(names) != 1 || names[0] != geometry.Position {
		t.Fatalf("attributes = %v, want [position]", names)
	}
	pos := combined.Attributes[geometry.Position]
	if pos.ComponentDatatype != geometry.Float || pos.ComponentsPerAttribute != 3 {
		t.Errorf("position layout = %v/%d", pos.ComponentDatatype, pos.ComponentsPerAttribute)
	}
	assertValues(t, "position", pos.Values, []float64{
		0, 0, 0,
		1, 1, 1,
		2, 2, 2,
		3, 3, 3,
		4, 4, 4,
		5, 5, 5,
	}, 0)
	if cap(pos.Values) != 18 {
		t.Errorf("cap(values) = %d, want 18", cap(pos.Values))
	}
	assertIndices(t, combined.Indices, []uint32{0, 1, 2, 3, 4, 5})
	if combined.PrimitiveType != geometry.Triangles {
		t.Errorf("PrimitiveType = %v, want triangles", combined.PrimitiveType)
	}
}

func TestCombineDropsMismatchedLayout(t *testing.T) {
	a := geometry.NewInstance(geometry.New(map[string]*geometry.Attribute{
		geometry.Position: positions(0, 0, 0),
		geometry.Color:    geometry.NewAttribute(geometry.UnsignedByte, 4, []float64{255, 0, 0, 255}),
	}, nil, geometry.Points))
	b := geometry.NewInstance(geometry.New(map[string]*geometry.Attribute{
		geometry.Position: positions(1, 1, 1),
		geometry.Color:    geometry.NewAttribute(geometry.Float, 4, []float64{0, 1, 0, 1}),
	}, nil, geometry.Points))

	combined, err := Combine([]*geometry.Instance{a, b})
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}
	if _, ok := combined.Attributes[geometry.Color]; ok {
		t.Error("color has different datatypes and should be dropped")
	}
	if combined.Indices != nil {
		t.Errorf("indices = %v, want none", combined.Indices)
	}
	assertValues(t, "position", combined.Attributes[geometry.Position].Values, []float64{0, 0, 0, 1, 1, 1}, 0)
}

func TestCombineMixedIndexing(t *testing.T) {
	indexed := geometry.NewInstance(geometry.New(map[string]*geometry.Attribute{
		geometry.Position: positions(0, 0, 0, 1, 0, 0, 0, 1, 0, 1, 1, 0),
	}, []uint32{0, 1, 2, 1, 3, 2}, geometry.Triangles))
	plain := geometry.NewInstance(geometry.New(map[string]*geometry.Attribute{
		geometry.Position: positions(5, 5, 5, 6, 6, 6, 7, 7, 7),
	}, nil, geometry.Triangles))

	combined, err := Combine([]*geometry.Instance{indexed, plain})
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}
	assertIndices(t, combined.Indices, []uint32{0, 1, 2, 1, 3, 2, 4, 5, 6})
	if err := combined.Validate(); err != nil {
		t.Errorf("combined geometry invalid: %v", err)
	}
}

func TestCombineErrors(t *testing.T) {
	_, err := Combine(nil)
	assertStructural(t, err, geometry.ErrNoInstances)

	_, err = Combine([]*geometry.Instance{})
	assertStructural(t, err, geometry.ErrNoInstances)

	empty := geometry.NewInstance(nil)
	_, err = Combine([]*geometry.Instance{empty})
	assertStructural(t, err, geometry.ErrNilGeometry)
	if !strings.Contains(err.Error(), empty.ID.String()) {
		t.Errorf("error %q does not name instance %s", err, empty.ID)
	}

	_, err = Combine([]*geometry.Instance{nil})
	assertStructural(t, err, geometry.ErrNilGeometry)

	bad := geometry.NewInstance(geometry.New(map[string]*geometry.Attribute{
		geometry.Position: positions(0, 0, 0),
	}, []uint32{0, 0, 7}, geometry.Triangles))
	good := geometry.NewInstance(geometry.New(map[string]*geometry.Attribute{
		geometry.Position: positions(0, 0, 0),
	}, []uint32{0, 0, 0}, geometry.Triangles))
	_, err = Combine([]*geometry.Instance{good, bad})
	assertStructural(t, err, geometry.ErrIndexOutOfRange)
	if !strings.Contains(err.Error(), "instance 1 ("+bad.ID.String()+")") {
		t.Errorf("error %q does not name instance %s", err, bad.ID)
	}

	uneven := geometry.NewInstance(geometry.New(map[string]*geometry.Attribute{
		geometry.Position: positions(0, 0, 0, 1),
	}, nil, geometry.Points))
	_, err = Combine([]*geometry.Instance{good, uneven})
	assertStructural(t, err, geometry.ErrValueCount)
	if !strings.Contains(err.Error(), uneven.ID.String()) {
		t.Errorf("error %q does not name instance %s", err, uneven.ID)
	}
}
