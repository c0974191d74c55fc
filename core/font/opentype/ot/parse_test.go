package ot_test

import (
	"encoding/binary"
	"testing"

	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/font/opentype/ot"
	"github.com/npillmayer/emojifont/internal/fonttest"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"golang.org/x/image/font/sfnt"
)

func parseEmojiFont(t *testing.T) (*ot.Font, fonttest.EmojiGlyphs) {
	t.Helper()
	data, g := fonttest.EmojiFont(t)
	otf, err := ot.Parse(data)
	if err != nil {
		t.Fatalf("cannot parse emoji test font: %v", err)
	}
	return otf, g
}

func TestParseHeader(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.fonts")
	defer teardown()
	//
	otf, g := parseEmojiFont(t)
	if otf.NumGlyphs() != int(g.Unused)+1 {
		t.Errorf("expected %d glyphs, have %d", g.Unused+1, otf.NumGlyphs())
	}
	if otf.Head.UnitsPerEm != fonttest.UnitsPerEm {
		t.Errorf("expected units per em to be %d, is %d", fonttest.UnitsPerEm, otf.Head.UnitsPerEm)
	}
	if otf.FontName() != "Emoji Test" {
		t.Errorf("expected font name 'Emoji Test', is %q", otf.FontName())
	}
	tags := otf.TableTags()
	for i := 1; i < len(tags); i++ {
		if tags[i-1] >= tags[i] {
			t.Errorf("expected table tags to be sorted, have %v", tags)
		}
	}
	for _, tag := range []string{"GPOS", "kern", "OS/2", "post"} {
		if otf.Table(ot.T(tag)) == nil {
			t.Errorf("expected font to contain table %s", tag)
		}
	}
	if err := otf.CheckSubsettable(); err != nil {
		t.Errorf("expected emoji test font to be subsettable, is not: %v", err)
	}
}

func TestParsedFontIsValidForXImage(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.fonts")
	defer teardown()
	//
	data, g := fonttest.EmojiFont(t)
	f, err := sfnt.Parse(data)
	if err != nil {
		t.Fatalf("x/image/sfnt cannot parse test font: %v", err)
	}
	if f.NumGlyphs() != int(g.Unused)+1 {
		t.Errorf("x/image/sfnt reports %d glyphs, expected %d", f.NumGlyphs(), g.Unused+1)
	}
	var buf sfnt.Buffer
	gid, err := f.GlyphIndex(&buf, fonttest.Smile)
	if err != nil || gid != sfnt.GlyphIndex(g.Smile) {
		t.Errorf("x/image/sfnt maps 😀 to %d (%v), expected %d", gid, err, g.Smile)
	}
}

func TestCMapLookup(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.fonts")
	defer teardown()
	//
	otf, g := parseEmojiFont(t)
	for r, expected := range map[rune]ot.GlyphIndex{
		fonttest.Smile:      g.Smile,
		fonttest.Heart:      g.Heart,
		fonttest.Hash:       g.Hash,
		fonttest.CycleStart: g.CycleA,
		fonttest.ZWJ:        0,
		'A':                 0,
		0xffff:              0,
	} {
		if gid := otf.CMap.Lookup(r); gid != expected {
			t.Errorf("expected %U to map to glyph %d, maps to %d", r, expected, gid)
		}
	}
	if r := otf.CMap.GlyphIndexMap.ReverseLookup(g.Man); r != fonttest.Man {
		t.Errorf("expected reverse lookup of glyph %d to be %U, is %U", g.Man, fonttest.Man, r)
	}
	cnt := 0
	otf.CMap.GlyphIndexMap.ForEach(func(rune, ot.GlyphIndex) { cnt++ })
	if cnt != 13 {
		t.Errorf("expected cmap to contain 13 mappings, has %d", cnt)
	}
	var nilmap *ot.CMapTable
	if nilmap.Lookup(fonttest.Smile) != 0 {
		t.Errorf("expected lookup in nil cmap to return .notdef")
	}
}

func TestCMapFormat4Only(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.fonts")
	defer teardown()
	//
	cmap := ot.EncodeCMap([]ot.CMapEntry{{Code: 'a', Glyph: 1}, {Code: 'b', Glyph: 2}, {Code: 'x', Glyph: 1}})
	// keep only the first encoding record, which is format 4 for (0,3)
	binary.BigEndian.PutUint16(cmap[2:], 1)
	b := fonttest.New("Format 4")
	b.Box(0, 0, 10, 10)
	b.Box(0, 0, 10, 10)
	b.Table("cmap", cmap)
	data := b.MustBuild(t)
	otf, err := ot.Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if otf.CMap.Lookup('b') != 2 || otf.CMap.Lookup('x') != 1 || otf.CMap.Lookup('c') != 0 {
		t.Errorf("format 4 lookup failed: b→%d, x→%d, c→%d", otf.CMap.Lookup('b'),
			otf.CMap.Lookup('x'), otf.CMap.Lookup('c'))
	}
}

func TestGSubParsing(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.fonts")
	defer teardown()
	//
	otf, g := parseEmojiFont(t)
	if otf.GSub == nil {
		t.Fatal("expected font to have a GSUB table")
	}
	if len(otf.GSub.Features) != 1 || otf.GSub.Features[0].Tag != ot.T("ccmp") {
		t.Fatalf("expected a single feature 'ccmp', have %v", otf.GSub.Features)
	}
	if len(otf.GSub.Lookups) != 2 {
		t.Fatalf("expected 2 lookups, have %d", len(otf.GSub.Lookups))
	}
	single, ligs := otf.GSub.Lookups[0], otf.GSub.Lookups[1]
	if single.Type != ot.GSubLookupTypeSingle || len(single.Singles) != 1 ||
		single.Singles[0] != (ot.SingleSubst{In: g.Snowman, Out: g.SnowmanAlt}) {
		t.Errorf("unexpected single substitution lookup %+v", single)
	}
	if ligs.Type != ot.GSubLookupTypeLigature || len(ligs.Ligatures) != 4 {
		t.Fatalf("expected 4 ligatures, have %+v", ligs)
	}
	found := false
	for _, l := range ligs.Ligatures {
		if l.Glyph == g.Flag {
			found = true
			if len(l.Components) != 2 || l.Components[0] != g.RegionalU || l.Components[1] != g.RegionalS {
				t.Errorf("unexpected components for flag ligature: %v", l.Components)
			}
		}
	}
	if !found {
		t.Errorf("flag ligature not found")
	}
	if lookups := otf.GSub.LookupsForFeatures(ot.DefaultFeatures); len(lookups) != 2 {
		t.Errorf("expected default features to select 2 lookups, have %v", lookups)
	}
	if lookups := otf.GSub.LookupsForFeatures([]ot.Tag{ot.T("smcp")}); len(lookups) != 0 {
		t.Errorf("expected feature smcp to select no lookups, have %v", lookups)
	}
	var nilgsub *ot.GSubTable
	if nilgsub.LookupsForFeatures(ot.DefaultFeatures) != nil {
		t.Errorf("expected nil GSUB to select no lookups")
	}
}

func TestGlyphOutlines(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.fonts")
	defer teardown()
	//
	otf, g := parseEmojiFont(t)
	smile, err := otf.Glyf.Glyph(g.Smile)
	if err != nil {
		t.Fatal(err)
	}
	if smile.IsComposite() || len(smile.Points) != 4 || smile.XMax != 900 {
		t.Errorf("unexpected outline for 😀: %+v", smile)
	}
	comps, err := otf.Glyf.Components(g.Flag)
	if err != nil {
		t.Fatal(err)
	}
	if len(comps) != 2 || comps[0] != g.Stripe || comps[1] != g.Star {
		t.Errorf("expected flag to be composed of stripe and star, is %v", comps)
	}
	flag, _ := otf.Glyf.Glyph(g.Flag)
	if flag.Components[1].Transform != [4]float64{0.5, 0, 0, 0.5} {
		t.Errorf("expected star to be scaled by 0.5, transform is %v", flag.Components[1].Transform)
	}
	anchored, _ := otf.Glyf.Glyph(g.Anchored)
	if anchored.Components[1].HasXYOffset() {
		t.Errorf("expected second component of anchored glyph to use point matching")
	}
	if comps, _ := otf.Glyf.Components(g.CycleB); len(comps) != 1 || comps[0] != g.CycleA {
		t.Errorf("expected cycle B to reference cycle A, references %v", comps)
	}
	if data, err := otf.Glyf.GlyphData(g.Keycap); err != nil || len(data) != 0 {
		t.Errorf("expected keycap to be an empty glyph, has %d bytes (%v)", len(data), err)
	}
	if _, err := otf.Glyf.GlyphData(ot.GlyphIndex(otf.NumGlyphs())); err == nil {
		t.Errorf("expected glyph index out of range to be an error")
	}
	adv, lsb := otf.HMtx.HMetrics(g.Smile)
	if adv != fonttest.UnitsPerEm || lsb != 100 {
		t.Errorf("expected metrics (1000, 100) for 😀, have (%d, %d)", adv, lsb)
	}
}

func TestColorLayers(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.fonts")
	defer teardown()
	//
	otf, g := parseEmojiFont(t)
	if otf.Color.COLR == nil || otf.Color.CPAL == nil {
		t.Fatal("expected font to have COLR and CPAL tables")
	}
	layers := otf.Color.COLR.LayersOf(g.Heart)
	if len(layers) != 2 || layers[0].Glyph != g.HeartLeft || layers[1].PaletteIndex != 1 {
		t.Errorf("unexpected layers for ❤: %v", layers)
	}
	if otf.Color.COLR.LayersOf(g.Smile) != nil {
		t.Errorf("expected 😀 to have no color layers")
	}
	if otf.Color.CPAL.NumPaletteEntries != 3 || otf.Color.CPAL.NumPalettes != 1 {
		t.Errorf("expected one palette with 3 entries, have %d/%d",
			otf.Color.CPAL.NumPalettes, otf.Color.CPAL.NumPaletteEntries)
	}
}

func TestBitmapStrikes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.fonts")
	defer teardown()
	//
	data, g := fonttest.BitmapFont(t)
	otf, err := ot.Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if otf.Glyf != nil || otf.Loca != nil {
		t.Errorf("expected bitmap font to have no outlines")
	}
	if otf.Color.CBLC == nil || len(otf.Color.CBLC.Strikes) != 1 {
		t.Fatal("expected bitmap font to have one strike")
	}
	strike := otf.Color.CBLC.Strikes[0]
	if strike.PpemY != 109 || len(strike.Glyphs()) != 5 {
		t.Errorf("expected strike for 109 ppem with 5 glyphs, have %d/%d", strike.PpemY, len(strike.Glyphs()))
	}
	bg, ok := strike.Glyph(g.Flag)
	if !ok || bg.ImageFormat != ot.BitmapSmallMetricsPNG {
		t.Fatalf("expected format 17 bitmap for flag, have %+v", bg)
	}
	if len(bg.Data) != 5+4+12 || binary.BigEndian.Uint32(bg.Data[len(bg.Data)-4:]) != uint32(g.Flag) {
		t.Errorf("unexpected image data block for flag: %v", bg.Data)
	}
	if otf.Color.CBLC.HasGlyph(0) {
		t.Errorf("expected .notdef to have no bitmap")
	}
	if err := otf.CheckSubsettable(); err != nil {
		t.Errorf("expected bitmap font to be subsettable: %v", err)
	}
}

func TestBitmapFormat19(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.fonts")
	defer teardown()
	//
	b, g := fonttest.BitmapBuilder()
	data := b.BitmapFormat19().MustBuild(t)
	otf, err := ot.Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	bg, ok := otf.Color.CBLC.Strikes[0].Glyph(g.Heart)
	if !ok || bg.ImageFormat != ot.BitmapPNG {
		t.Fatalf("expected format 19 bitmap for ❤, have %+v", bg)
	}
	if len(bg.BigMetrics) != 8 || bg.BigMetrics[0] != 128 {
		t.Errorf("expected big metrics from CBLC, have %v", bg.BigMetrics)
	}
	if len(bg.Data) != 4+12 {
		t.Errorf("expected 16 bytes of image data, have %d", len(bg.Data))
	}
}

func TestAssembleChecksums(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.fonts")
	defer teardown()
	//
	data, _ := fonttest.EmojiFont(t)
	if sum := ot.Checksum(data); sum != 0xB1B0AFBA {
		t.Errorf("expected whole-font checksum 0xB1B0AFBA, is %#x", sum)
	}
	otf, _ := parseEmojiFont(t)
	for _, tag := range otf.TableTags() {
		off, size := otf.Table(tag).Extent()
		if off%4 != 0 {
			t.Errorf("table %s is not 4-byte aligned", tag)
		}
		if int(off+size) > len(data) {
			t.Errorf("table %s exceeds font bounds", tag)
		}
	}
	if _, err := ot.Assemble(ot.FlavorTrueType, nil); err == nil {
		t.Errorf("expected assembling an empty font to fail")
	}
}

func TestParseErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.fonts")
	defer teardown()
	//
	if _, err := ot.Parse([]byte("not a font")); err == nil {
		t.Errorf("expected garbage to be rejected")
	} else if core.Code(err) != core.EINVALID {
		t.Errorf("expected error code EINVALID, have %d", core.Code(err))
	}
	data, _ := fonttest.EmojiFont(t)
	if _, err := ot.Parse(data[:200]); err == nil {
		t.Errorf("expected truncated font to be rejected")
	}
	wrongType := append([]byte(nil), data...)
	copy(wrongType, "wOFF")
	if _, err := ot.Parse(wrongType); err == nil {
		t.Errorf("expected WOFF signature to be rejected by sfnt parser")
	}
}

func TestCheckSubsettable(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.fonts")
	defer teardown()
	//
	b := fonttest.New("CFF").Table("CFF ", []byte{1, 0, 4, 4})
	otf, err := ot.Parse(b.MustBuild(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := otf.CheckSubsettable(); err == nil {
		t.Errorf("expected font with CFF table to be rejected")
	}
	b = fonttest.New("SVG only").BitmapOnly().Table("SVG ", []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	if otf, err = ot.Parse(b.MustBuild(t)); err != nil {
		t.Fatal(err)
	}
	if err := otf.CheckSubsettable(); err == nil {
		t.Errorf("expected SVG-only font to be rejected")
	}
	colr := ot.EncodeCOLR(nil, nil)
	binary.BigEndian.PutUint16(colr, 1)
	b = fonttest.New("COLRv1").Table("COLR", colr).Table("CPAL", make([]byte, 12))
	if otf, err = ot.Parse(b.MustBuild(t)); err != nil {
		t.Fatal(err)
	}
	if err := otf.CheckSubsettable(); err == nil {
		t.Errorf("expected COLR version 1 to be rejected")
	}
}
