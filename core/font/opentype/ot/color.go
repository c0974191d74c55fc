package ot

import "sort"

// COLRTable is the color table of layered color glyphs (version 0).
// A base glyph is rendered by drawing a sequence of layer glyphs, each
// in a color from table CPAL.
//
// See https://docs.microsoft.com/en-us/typography/opentype/spec/colr
type COLRTable struct {
	tableBase
	Version    uint16
	BaseGlyphs []BaseGlyphRecord // sorted by glyph ID
	Layers     []LayerRecord
}

// BaseGlyphRecord links a base glyph to a slice of layer records.
type BaseGlyphRecord struct {
	Glyph      GlyphIndex
	FirstLayer int
	NumLayers  int
}

// LayerRecord is one colored layer of a base glyph.
type LayerRecord struct {
	Glyph        GlyphIndex
	PaletteIndex uint16 // 0xFFFF denotes the text foreground color
}

func newCOLRTable(tag Tag, b binarySegm, offset, size uint32) *COLRTable {
	t := &COLRTable{}
	t.tableBase = makeTableBase(tag, b, offset, size)
	t.self = t
	return t
}

func parseCOLR(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 14 {
		return nil, errFontFormat("size of COLR table")
	}
	t := newCOLRTable(tag, b, offset, size)
	t.Version = u16(b)
	numBase := int(u16(b[2:]))
	baseOffset, layerOffset := int(u32(b[4:])), int(u32(b[8:]))
	numLayers := int(u16(b[12:]))
	bases, err := b.view(baseOffset, 6*numBase)
	if err != nil && numBase > 0 {
		return nil, errFontFormat("COLR base glyph records")
	}
	layers, err := b.view(layerOffset, 4*numLayers)
	if err != nil && numLayers > 0 {
		return nil, errFontFormat("COLR layer records")
	}
	t.Layers = make([]LayerRecord, numLayers)
	for i := range t.Layers {
		t.Layers[i] = LayerRecord{
			Glyph:        GlyphIndex(u16(layers[4*i:])),
			PaletteIndex: u16(layers[4*i+2:]),
		}
	}
	t.BaseGlyphs = make([]BaseGlyphRecord, numBase)
	for i := range t.BaseGlyphs {
		rec := bases[6*i:]
		t.BaseGlyphs[i] = BaseGlyphRecord{
			Glyph:      GlyphIndex(u16(rec)),
			FirstLayer: int(u16(rec[2:])),
			NumLayers:  int(u16(rec[4:])),
		}
		if t.BaseGlyphs[i].FirstLayer+t.BaseGlyphs[i].NumLayers > numLayers {
			return nil, errFontFormat("COLR base glyph layer range")
		}
		if i > 0 && t.BaseGlyphs[i].Glyph <= t.BaseGlyphs[i-1].Glyph {
			return nil, errFontFormat("COLR base glyph records not sorted")
		}
	}
	tracer().Debugf("COLR v%d has %d base glyphs and %d layers", t.Version, numBase, numLayers)
	return t, nil
}

// LayersOf returns the color layers of a base glyph, or nil if g is not a
// color glyph.
func (t *COLRTable) LayersOf(g GlyphIndex) []LayerRecord {
	if t == nil {
		return nil
	}
	i := sort.Search(len(t.BaseGlyphs), func(i int) bool {
		return t.BaseGlyphs[i].Glyph >= g
	})
	if i == len(t.BaseGlyphs) || t.BaseGlyphs[i].Glyph != g {
		return nil
	}
	rec := t.BaseGlyphs[i]
	return t.Layers[rec.FirstLayer : rec.FirstLayer+rec.NumLayers]
}

// CPALTable is the color palette table. It is copied unchanged into
// subset fonts, as palette indices do not depend on glyph IDs.
type CPALTable struct {
	tableBase
	NumPaletteEntries int
	NumPalettes       int
}

func parseCPAL(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 12 {
		return nil, errFontFormat("size of CPAL table")
	}
	t := &CPALTable{}
	t.tableBase = makeTableBase(tag, b, offset, size)
	t.self = t
	t.NumPaletteEntries = int(u16(b[2:]))
	t.NumPalettes = int(u16(b[4:]))
	return t, nil
}
