/*
Package fonttest synthesizes small OpenType fonts for tests.

Real emoji fonts are large and come with licenses which do not allow
shipping them with this module. The fonts built here contain just enough
structure to exercise glyph resolution, closure, subsetting and transcoding:
simple and composite outlines, COLR/CPAL color layers, CBLC/CBDT bitmaps and
GSUB substitutions.

Building is deterministic: the same builder calls produce the same binary.
*/
package fonttest

import (
	"encoding/binary"
	"fmt"
	"sort"
	"testing"

	"github.com/npillmayer/emojifont/core/font/opentype/ot"
	"golang.org/x/text/encoding/unicode"
)

// UnitsPerEm of synthesized fonts.
const UnitsPerEm = 1000

// Builder collects glyphs and mappings for a synthetic font.
type Builder struct {
	name       string
	glyphs     []*glyph
	cmap       []ot.CMapEntry
	colors     map[ot.GlyphIndex][]ot.LayerRecord
	palette    []uint32 // RGBA
	singles    []ot.SingleSubst
	ligatures  []ot.LigatureSubst
	bitmaps    map[ot.GlyphIndex][]byte
	format19   bool
	ppem       uint8
	hinting    bool
	bitmapOnly bool
	extra      map[ot.Tag][]byte
}

type glyph struct {
	endPts []uint16
	points []ot.Point
	comps  []ot.Component
	bbox   [4]int16
}

// New creates a builder for a font with the given full name. Glyph 0 is
// a .notdef box.
func New(name string) *Builder {
	b := &Builder{
		name:    name,
		colors:  make(map[ot.GlyphIndex][]ot.LayerRecord),
		bitmaps: make(map[ot.GlyphIndex][]byte),
		extra:   make(map[ot.Tag][]byte),
		ppem:    109,
		palette: []uint32{0xff0000ff, 0x00ff00ff, 0x0000ffff},
	}
	b.Box(50, 0, 950, 800)
	return b
}

// Box adds a simple glyph with a single rectangular contour.
func (b *Builder) Box(x0, y0, x1, y1 int) ot.GlyphIndex {
	return b.Simple([]uint16{3}, []ot.Point{
		{X: x0, Y: y0, OnCurve: true},
		{X: x0, Y: y1, OnCurve: true},
		{X: x1, Y: y1, OnCurve: true},
		{X: x1, Y: y0, OnCurve: true},
	})
}

// Simple adds a simple glyph.
func (b *Builder) Simple(endPts []uint16, points []ot.Point) ot.GlyphIndex {
	b.glyphs = append(b.glyphs, &glyph{endPts: endPts, points: points})
	return ot.GlyphIndex(len(b.glyphs) - 1)
}

// Empty adds a glyph without outline.
func (b *Builder) Empty() ot.GlyphIndex {
	b.glyphs = append(b.glyphs, &glyph{})
	return ot.GlyphIndex(len(b.glyphs) - 1)
}

// Composite adds a composite glyph. Components may reference glyphs which
// are added later, which allows building reference cycles.
func (b *Builder) Composite(comps ...ot.Component) ot.GlyphIndex {
	b.glyphs = append(b.glyphs, &glyph{comps: comps, bbox: [4]int16{0, 0, 1000, 1000}})
	return ot.GlyphIndex(len(b.glyphs) - 1)
}

// Offset returns a component placed at (dx, dy).
func Offset(g ot.GlyphIndex, dx, dy int) ot.Component {
	return ot.Component{
		Flags:     ot.ArgsAreXYValues,
		Glyph:     g,
		Arg1:      dx,
		Arg2:      dy,
		Transform: [4]float64{1, 0, 0, 1},
	}
}

// Scaled returns a component scaled by s and placed at (dx, dy).
func Scaled(g ot.GlyphIndex, dx, dy int, s float64) ot.Component {
	c := Offset(g, dx, dy)
	c.Transform = [4]float64{s, 0, 0, s}
	return c
}

// PointMatched returns a component positioned by matching point p1 of
// the parent with point p2 of the component.
func PointMatched(g ot.GlyphIndex, p1, p2 int) ot.Component {
	return ot.Component{
		Glyph:     g,
		Arg1:      p1,
		Arg2:      p2,
		Transform: [4]float64{1, 0, 0, 1},
	}
}

// Map adds a cmap entry.
func (b *Builder) Map(r rune, g ot.GlyphIndex) *Builder {
	b.cmap = append(b.cmap, ot.CMapEntry{Code: r, Glyph: g})
	return b
}

// Ligature adds a GSUB ligature substitution.
func (b *Builder) Ligature(g ot.GlyphIndex, components ...ot.GlyphIndex) *Builder {
	b.ligatures = append(b.ligatures, ot.LigatureSubst{Components: components, Glyph: g})
	return b
}

// Single adds a GSUB single substitution.
func (b *Builder) Single(in, out ot.GlyphIndex) *Builder {
	b.singles = append(b.singles, ot.SingleSubst{In: in, Out: out})
	return b
}

// Color makes base a COLR color glyph with the given layers.
func (b *Builder) Color(base ot.GlyphIndex, layers ...ot.LayerRecord) *Builder {
	b.colors[base] = layers
	return b
}

// Bitmap adds a color bitmap for g to the (single) bitmap strike.
func (b *Builder) Bitmap(g ot.GlyphIndex, png []byte) *Builder {
	b.bitmaps[g] = png
	return b
}

// BitmapFormat19 stores bitmaps as CBDT image format 19, with metrics in
// table CBLC (index format 5). All PNG data must have equal length.
func (b *Builder) BitmapFormat19() *Builder {
	b.format19 = true
	return b
}

// BitmapOnly omits tables glyf and loca, as in CBDT-only emoji fonts.
func (b *Builder) BitmapOnly() *Builder {
	b.bitmapOnly = true
	return b
}

// Hinting adds TrueType instructions to simple glyphs as well as tables
// fpgm, prep and cvt.
func (b *Builder) Hinting() *Builder {
	b.hinting = true
	return b
}

// Table adds a table verbatim, replacing a generated one.
func (b *Builder) Table(tag string, data []byte) *Builder {
	b.extra[ot.T(tag)] = data
	return b
}

// NumGlyphs is the number of glyphs added so far, including .notdef.
func (b *Builder) NumGlyphs() int {
	return len(b.glyphs)
}

// FakePNG returns a byte sequence starting with the PNG signature, tagged
// with n. Its length is constant.
func FakePNG(n int) []byte {
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	binary.BigEndian.PutUint32(png[8:], uint32(n))
	return png
}

var instructions = []byte{0xb0, 0x00} // PUSHB[0] 0

// Build assembles the font binary.
func (b *Builder) Build() ([]byte, error) {
	tables := make(map[ot.Tag][]byte)
	n := len(b.glyphs)
	var glyf []byte
	offsets := make([]uint32, 0, n+1)
	bboxes := make([][4]int16, n)
	for i, g := range b.glyphs {
		offsets = append(offsets, uint32(len(glyf)))
		var data []byte
		var err error
		switch {
		case len(g.comps) > 0:
			data, err = ot.EncodeCompositeGlyph(g.bbox, g.comps, nil)
			bboxes[i] = g.bbox
		case len(g.points) > 0:
			var ins []byte
			if b.hinting {
				ins = instructions
			}
			data, err = ot.EncodeSimpleGlyph(g.endPts, g.points, ins)
			x0, y0, x1, y1 := ot.BoundingBox(g.points)
			bboxes[i] = [4]int16{int16(x0), int16(y0), int16(x1), int16(y1)}
		}
		if err != nil {
			return nil, fmt.Errorf("glyph %d: %w", i, err)
		}
		glyf = append(glyf, data...)
		for len(glyf)%4 != 0 {
			glyf = append(glyf, 0)
		}
	}
	offsets = append(offsets, uint32(len(glyf)))
	longLoca := len(glyf) > 0x1fffe
	if !b.bitmapOnly {
		tables[ot.T("glyf")] = glyf
		tables[ot.T("loca")] = ot.EncodeLoca(offsets, longLoca)
	}
	tables[ot.T("head")] = b.head(longLoca)
	tables[ot.T("hhea")] = b.hhea()
	tables[ot.T("maxp")] = b.maxp()
	tables[ot.T("hmtx")] = b.hmtx(bboxes)
	tables[ot.T("cmap")] = ot.EncodeCMap(b.cmap)
	tables[ot.T("name")] = b.nameTable()
	tables[ot.T("OS/2")] = b.os2()
	tables[ot.T("post")] = post()
	gsub, err := ot.EncodeGSub(b.singles, b.ligatures)
	if err != nil {
		return nil, err
	}
	if gsub != nil {
		tables[ot.T("GSUB")] = gsub
	}
	if len(b.colors) > 0 {
		tables[ot.T("COLR")], tables[ot.T("CPAL")] = b.colr(), b.cpal()
	}
	if len(b.bitmaps) > 0 {
		if b.format19 {
			tables[ot.T("CBLC")], tables[ot.T("CBDT")], err = b.bitmapsFormat19()
		} else {
			tables[ot.T("CBLC")], tables[ot.T("CBDT")], err = b.bitmapsFormat17()
		}
		if err != nil {
			return nil, err
		}
	}
	if b.hinting {
		tables[ot.T("fpgm")] = []byte{0xb0, 0x00, 0x21, 0x00} // PUSHB 0, POP
		tables[ot.T("prep")] = []byte{0xb0, 0x01, 0x21, 0x00}
		tables[ot.T("cvt ")] = []byte{0x00, 0x10, 0x00, 0x20}
	}
	for tag, data := range b.extra {
		tables[tag] = data
	}
	return ot.Assemble(ot.FlavorTrueType, tables)
}

// MustBuild builds the font and fails the test on errors.
func (b *Builder) MustBuild(t testing.TB) []byte {
	t.Helper()
	data, err := b.Build()
	if err != nil {
		t.Fatalf("cannot build test font %q: %v", b.name, err)
	}
	return data
}

// --- Tables ----------------------------------------------------------------

func (b *Builder) head(longLoca bool) []byte {
	h := make([]byte, 54)
	binary.BigEndian.PutUint32(h, 0x00010000)
	binary.BigEndian.PutUint32(h[4:], 0x00010000) // fontRevision
	binary.BigEndian.PutUint32(h[12:], 0x5F0F3CF5)
	binary.BigEndian.PutUint16(h[16:], 0x000b) // flags
	binary.BigEndian.PutUint16(h[18:], UnitsPerEm)
	binary.BigEndian.PutUint16(h[40:], 1000) // xMax
	binary.BigEndian.PutUint16(h[42:], 1000) // yMax
	binary.BigEndian.PutUint16(h[46:], 8)    // lowestRecPPEM
	binary.BigEndian.PutUint16(h[48:], 2)    // fontDirectionHint
	if longLoca {
		binary.BigEndian.PutUint16(h[50:], 1)
	}
	return h
}

func (b *Builder) hhea() []byte {
	h := make([]byte, 36)
	binary.BigEndian.PutUint32(h, 0x00010000)
	binary.BigEndian.PutUint16(h[4:], 950)         // ascender
	binary.BigEndian.PutUint16(h[6:], 0xffc4)      // descender -60
	binary.BigEndian.PutUint16(h[10:], UnitsPerEm) // advanceWidthMax
	binary.BigEndian.PutUint16(h[16:], 1000)       // xMaxExtent
	binary.BigEndian.PutUint16(h[18:], 1)          // caretSlopeRise
	binary.BigEndian.PutUint16(h[34:], uint16(len(b.glyphs)))
	return h
}

func (b *Builder) maxp() []byte {
	if b.bitmapOnly {
		m := make([]byte, 6)
		binary.BigEndian.PutUint32(m, 0x00005000)
		binary.BigEndian.PutUint16(m[4:], uint16(len(b.glyphs)))
		return m
	}
	m := make([]byte, 32)
	binary.BigEndian.PutUint32(m, 0x00010000)
	binary.BigEndian.PutUint16(m[4:], uint16(len(b.glyphs)))
	var maxPoints, maxContours, maxComponents int
	for _, g := range b.glyphs {
		maxPoints = max(maxPoints, len(g.points))
		maxContours = max(maxContours, len(g.endPts))
		maxComponents = max(maxComponents, len(g.comps))
	}
	binary.BigEndian.PutUint16(m[6:], uint16(maxPoints))
	binary.BigEndian.PutUint16(m[8:], uint16(maxContours))
	binary.BigEndian.PutUint16(m[14:], 2) // maxZones
	if b.hinting {
		binary.BigEndian.PutUint16(m[24:], 16) // maxStackElements
		binary.BigEndian.PutUint16(m[26:], uint16(len(instructions)))
	}
	binary.BigEndian.PutUint16(m[28:], uint16(maxComponents))
	if maxComponents > 0 {
		binary.BigEndian.PutUint16(m[30:], 1)
	}
	return m
}

func (b *Builder) hmtx(bboxes [][4]int16) []byte {
	h := make([]byte, 4*len(b.glyphs))
	for i := range b.glyphs {
		binary.BigEndian.PutUint16(h[4*i:], UnitsPerEm)
		binary.BigEndian.PutUint16(h[4*i+2:], uint16(bboxes[i][0]))
	}
	return h
}

func (b *Builder) nameTable() []byte {
	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()
	str, _ := enc.String(b.name)
	type rec struct{ id uint16 }
	recs := []rec{{1}, {4}}
	n := make([]byte, 6+12*len(recs))
	binary.BigEndian.PutUint16(n[2:], uint16(len(recs)))
	binary.BigEndian.PutUint16(n[4:], uint16(len(n)))
	for i, r := range recs {
		e := n[6+12*i:]
		binary.BigEndian.PutUint16(e, 3)
		binary.BigEndian.PutUint16(e[2:], 1)
		binary.BigEndian.PutUint16(e[4:], 0x409)
		binary.BigEndian.PutUint16(e[6:], r.id)
		binary.BigEndian.PutUint16(e[8:], uint16(len(str)))
		binary.BigEndian.PutUint16(e[10:], 0) // both records share the string
	}
	return append(n, str...)
}

func (b *Builder) os2() []byte {
	o := make([]byte, 96)
	binary.BigEndian.PutUint16(o, 4)
	binary.BigEndian.PutUint16(o[2:], UnitsPerEm)
	binary.BigEndian.PutUint16(o[4:], 400)
	binary.BigEndian.PutUint16(o[6:], 5)
	copy(o[58:62], "NONE")
	first, last := rune(0xffff), rune(0)
	for _, e := range b.cmap {
		first, last = min(first, e.Code), max(last, e.Code)
	}
	if len(b.cmap) > 0 {
		binary.BigEndian.PutUint16(o[64:], uint16(min(first, 0xffff)))
		binary.BigEndian.PutUint16(o[66:], uint16(min(last, 0xffff)))
	}
	binary.BigEndian.PutUint16(o[68:], 950)
	binary.BigEndian.PutUint16(o[74:], 950)
	binary.BigEndian.PutUint16(o[76:], 60)
	return o
}

func post() []byte {
	p := make([]byte, 32)
	binary.BigEndian.PutUint32(p, 0x00030000)
	return p
}

func (b *Builder) colr() []byte {
	bases := make([]ot.GlyphIndex, 0, len(b.colors))
	for g := range b.colors {
		bases = append(bases, g)
	}
	sort.Slice(bases, func(i, j int) bool { return bases[i] < bases[j] })
	var records []ot.BaseGlyphRecord
	var layers []ot.LayerRecord
	for _, g := range bases {
		records = append(records, ot.BaseGlyphRecord{
			Glyph:      g,
			FirstLayer: len(layers),
			NumLayers:  len(b.colors[g]),
		})
		layers = append(layers, b.colors[g]...)
	}
	return ot.EncodeCOLR(records, layers)
}

func (b *Builder) cpal() []byte {
	n := len(b.palette)
	c := make([]byte, 14, 14+4*n)
	binary.BigEndian.PutUint16(c[2:], uint16(n)) // numPaletteEntries
	binary.BigEndian.PutUint16(c[4:], 1)         // numPalettes
	binary.BigEndian.PutUint16(c[6:], uint16(n)) // numColorRecords
	binary.BigEndian.PutUint32(c[8:], 14)
	for _, rgba := range b.palette {
		r, g, bl, a := byte(rgba>>24), byte(rgba>>16), byte(rgba>>8), byte(rgba)
		c = append(c, bl, g, r, a)
	}
	return c
}

func (b *Builder) bitmapGlyphs() []ot.GlyphIndex {
	gids := make([]ot.GlyphIndex, 0, len(b.bitmaps))
	for g := range b.bitmaps {
		gids = append(gids, g)
	}
	sort.Slice(gids, func(i, j int) bool { return gids[i] < gids[j] })
	return gids
}

func (b *Builder) lineMetrics() [12]byte {
	var m [12]byte
	m[0], m[1] = 102, 0xe6 // ascender 102, descender -26
	m[2] = 136             // widthMax
	return m
}

func (b *Builder) bitmapsFormat17() ([]byte, []byte, error) {
	strike := ot.StrikeData{
		Hori:     b.lineMetrics(),
		Vert:     b.lineMetrics(),
		PpemX:    b.ppem,
		PpemY:    b.ppem,
		BitDepth: 32,
		Flags:    1,
	}
	for _, g := range b.bitmapGlyphs() {
		png := b.bitmaps[g]
		data := []byte{128, 136, 0, 101, 136} // small metrics: height, width, bearingX, bearingY, advance
		data = binary.BigEndian.AppendUint32(data, uint32(len(png)))
		data = append(data, png...)
		strike.Glyphs = append(strike.Glyphs, &ot.BitmapGlyph{
			Glyph:       g,
			ImageFormat: ot.BitmapSmallMetricsPNG,
			Data:        data,
		})
	}
	return ot.EncodeBitmaps([]ot.StrikeData{strike})
}

// bitmapsFormat19 writes one strike with a single index subtable of format 5.
func (b *Builder) bitmapsFormat19() ([]byte, []byte, error) {
	gids := b.bitmapGlyphs()
	size := -1
	cbdt := []byte{0, 3, 0, 0}
	for _, g := range gids {
		png := b.bitmaps[g]
		if size >= 0 && 4+len(png) != size {
			return nil, nil, fmt.Errorf("format 19 bitmaps must have equal size")
		}
		size = 4 + len(png)
		cbdt = binary.BigEndian.AppendUint32(cbdt, uint32(len(png)))
		cbdt = append(cbdt, png...)
	}
	cblc := []byte{0, 3, 0, 0, 0, 0, 0, 1}
	rec := make([]byte, 48)
	arrayOffset := 8 + 48
	binary.BigEndian.PutUint32(rec, uint32(arrayOffset))
	binary.BigEndian.PutUint32(rec[8:], 1)
	hori := b.lineMetrics()
	copy(rec[16:28], hori[:])
	copy(rec[28:40], hori[:])
	binary.BigEndian.PutUint16(rec[40:], uint16(gids[0]))
	binary.BigEndian.PutUint16(rec[42:], uint16(gids[len(gids)-1]))
	rec[44], rec[45], rec[46], rec[47] = b.ppem, b.ppem, 32, 1
	cblc = append(cblc, rec...)
	array := make([]byte, 8)
	binary.BigEndian.PutUint16(array, uint16(gids[0]))
	binary.BigEndian.PutUint16(array[2:], uint16(gids[len(gids)-1]))
	binary.BigEndian.PutUint32(array[4:], 8)
	cblc = append(cblc, array...)
	sub := []byte{0, 5, 0, ot.BitmapPNG}
	sub = binary.BigEndian.AppendUint32(sub, 4) // imageDataOffset
	sub = binary.BigEndian.AppendUint32(sub, uint32(size))
	sub = append(sub, 128, 136, 0, 101, 136, 0xbc, 0, 136) // big metrics
	sub = binary.BigEndian.AppendUint32(sub, uint32(len(gids)))
	for _, g := range gids {
		sub = binary.BigEndian.AppendUint16(sub, uint16(g))
	}
	for len(sub)%4 != 0 {
		sub = append(sub, 0)
	}
	cblc = append(cblc, sub...)
	binary.BigEndian.PutUint32(cblc[8+4:], uint32(len(array)+len(sub)))
	return cblc, cbdt, nil
}
