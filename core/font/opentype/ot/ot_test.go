package ot

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestLookupRecordTypeString(t *testing.T) {
	if GSubLookupTypeChainingContext.GSubString() != "Chaining" {
		t.Errorf("expected GSubLookupTypeChainingContext to have string 'Chaining', has %s",
			GSubLookupTypeChainingContext.GSubString())
	}
	if GSubLookupTypeReverseChaining.GSubString() != "Reverse" {
		t.Errorf("expected GSubLookupTypeReverseChaining to have string 'Reverse', has %s",
			GSubLookupTypeReverseChaining.GSubString())
	}
	if LookupType(42).GSubString() != "42" {
		t.Errorf("expected unknown lookup type to print as number, is %s", LookupType(42).GSubString())
	}
}

func TestTags(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.fonts")
	defer teardown()
	//
	tag := Tag(0x636d6170)
	if tag.String() != "cmap" {
		t.Errorf("expected tag 0x636d6170 to be 'cmap', is %s", tag.String())
	}
	tag = MakeTag([]byte("cmap"))
	if tag.String() != "cmap" {
		t.Errorf("expected tag MakeTag(cmap) to be 'cmap', is %s", tag.String())
	}
	tag = T("OS/2")
	if tag.String() != "OS/2" {
		t.Errorf("expected tag T(OS/2) to be 'OS/2', is %s", tag.String())
	}
}

func TestTableName(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.fonts")
	defer teardown()
	//
	tb := tableBase{}
	tb.name = 0x636d6170
	s := tb.Self().NameTag().String()
	if s != "cmap" {
		t.Errorf("expected table name to be cmap, is %v", s)
	}
}

func TestChecksum(t *testing.T) {
	if c := Checksum([]byte{0, 0, 0, 1, 0, 0, 0, 2}); c != 3 {
		t.Errorf("expected checksum 3, is %d", c)
	}
	// trailing bytes are padded with zeros
	if c := Checksum([]byte{0, 0, 0, 1, 1}); c != 0x01000001 {
		t.Errorf("expected checksum 0x01000001, is %#x", c)
	}
}

func TestBinarySearchParams(t *testing.T) {
	sr, es, rs := binSearchParams(11, 16)
	if sr != 128 || es != 3 || rs != 48 {
		t.Errorf("expected (128, 3, 48) for 11 tables, have (%d, %d, %d)", sr, es, rs)
	}
}

func TestF2Dot14RoundTrip(t *testing.T) {
	for _, v := range []float64{1, 0.5, -0.25, 1.75, -2} {
		b := binarySegm{0, 0}
		x := toF2Dot14(v)
		b[0], b[1] = byte(uint16(x)>>8), byte(x)
		w, err := f2dot14(b, 0)
		if err != nil {
			t.Fatal(err)
		}
		if w != v {
			t.Errorf("expected F2Dot14 round trip of %g, have %g", v, w)
		}
	}
}

func TestSimpleGlyphRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.fonts")
	defer teardown()
	//
	points := []Point{
		{X: 0, Y: 0, OnCurve: true},
		{X: 0, Y: 700, OnCurve: true},
		{X: 300, Y: 700, OnCurve: false},
		{X: 300, Y: 700, OnCurve: true}, // zero delta
		{X: 1000, Y: -200, OnCurve: true},
		{X: 10, Y: 10, OnCurve: true},
		{X: 20, Y: 30, OnCurve: true},
	}
	data, err := EncodeSimpleGlyph([]uint16{4, 6}, points, []byte{0xb0, 0x01})
	if err != nil {
		t.Fatal(err)
	}
	g, err := ParseGlyph(data)
	if err != nil {
		t.Fatal(err)
	}
	if g.NumberOfContours != 2 || len(g.Points) != len(points) {
		t.Fatalf("expected 2 contours with %d points, have %d/%d", len(points),
			g.NumberOfContours, len(g.Points))
	}
	for i, p := range points {
		if g.Points[i] != p {
			t.Errorf("point %d: expected %v, have %v", i, p, g.Points[i])
		}
	}
	if g.XMin != 0 || g.YMin != -200 || g.XMax != 1000 || g.YMax != 700 {
		t.Errorf("unexpected bounding box %d %d %d %d", g.XMin, g.YMin, g.XMax, g.YMax)
	}
	if len(g.Instructions) != 2 {
		t.Errorf("expected instructions to be kept, have %v", g.Instructions)
	}
}

func TestCompositeGlyphRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.fonts")
	defer teardown()
	//
	comps := []Component{
		{Flags: ArgsAreXYValues, Glyph: 3, Arg1: 5, Arg2: -7, Transform: [4]float64{1, 0, 0, 1}},
		{Flags: ArgsAreXYValues, Glyph: 4, Arg1: 300, Arg2: 0, Transform: [4]float64{0.5, 0, 0, 0.5}},
		{Flags: ArgsAreXYValues, Glyph: 5, Arg1: 0, Arg2: 0, Transform: [4]float64{1, 0, 0, -1}},
		{Flags: ArgsAreXYValues, Glyph: 6, Arg1: 0, Arg2: 0, Transform: [4]float64{0, 1, -1, 0}},
		{Glyph: 7, Arg1: 2, Arg2: 0, Transform: [4]float64{1, 0, 0, 1}},
	}
	data, err := EncodeCompositeGlyph([4]int16{0, 0, 1000, 1000}, comps, nil)
	if err != nil {
		t.Fatal(err)
	}
	g, err := ParseGlyph(data)
	if err != nil {
		t.Fatal(err)
	}
	if !g.IsComposite() || len(g.Components) != len(comps) {
		t.Fatalf("expected composite glyph with %d components, have %d", len(comps), len(g.Components))
	}
	for i, c := range comps {
		p := g.Components[i]
		if p.Glyph != c.Glyph || p.Arg1 != c.Arg1 || p.Arg2 != c.Arg2 || p.Transform != c.Transform {
			t.Errorf("component %d: expected %+v, have %+v", i, c, p)
		}
		if p.HasXYOffset() != c.HasXYOffset() {
			t.Errorf("component %d: offset/point-matching flag not preserved", i)
		}
	}
	if g.ComponentsEnd != len(data) {
		t.Errorf("expected components to end at %d, is %d", len(data), g.ComponentsEnd)
	}
}

func TestLocaFormats(t *testing.T) {
	offsets := []uint32{0, 12, 12, 40}
	short := EncodeLoca(offsets, false)
	if len(short) != 8 || u16(short[6:]) != 20 {
		t.Errorf("expected short loca to store halved offsets, have %v", short)
	}
	long := EncodeLoca(offsets, true)
	if len(long) != 16 || u32(long[12:]) != 40 {
		t.Errorf("expected long loca to store plain offsets, have %v", long)
	}
}
