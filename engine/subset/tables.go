package subset

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/npillmayer/emojifont/core/font/opentype/ot"
)

// Offsets of fields we touch, see the OpenType specification of the
// respective tables.
const (
	headSize             = 54
	headXMin             = 36
	headIndexToLocFormat = 50
	hheaSize             = 36
	hheaAdvanceWidthMax  = 10
	hheaNumberOfHMetrics = 34
	maxpSize10           = 32
	os2FirstCharIndex    = 64
	os2LastCharIndex     = 66
	postSize30           = 32
)

// copyTable returns a copy of a table of the source font, at least size
// bytes long.
func (s *subsetter) copyTable(tag string, size int) []byte {
	b := make([]byte, size)
	if t := s.otf.Table(ot.T(tag)); t != nil {
		copy(b, t.Binary())
	}
	return b
}

// head copies the source head table, with the bounding box of the subset
// glyphs (nil for bitmap fonts) and the loca format.
func (s *subsetter) head(locaFormat uint16, bbox *[4]int16) []byte {
	h := s.copyTable("head", headSize)
	binary.BigEndian.PutUint32(h[8:], 0) // checkSumAdjustment is set during assembly
	if bbox != nil {
		for i, v := range bbox {
			binary.BigEndian.PutUint16(h[headXMin+2*i:], uint16(v))
		}
	}
	binary.BigEndian.PutUint16(h[headIndexToLocFormat:], locaFormat)
	return h
}

// maxpStats are the maxima of maxp version 1.0 which depend on glyph outlines.
type maxpStats struct {
	points, contours                   int
	compositePoints, compositeContours int
	instructions                       int
	componentElements, componentDepth  int
}

// maxp writes version 0.5 for bitmap fonts, version 1.0 otherwise.
func (s *subsetter) maxp(stats *maxpStats) []byte {
	if stats == nil || s.otf.MaxP.Version != 0x00010000 {
		m := make([]byte, 6)
		binary.BigEndian.PutUint32(m, 0x00005000)
		binary.BigEndian.PutUint16(m[4:], uint16(len(s.glyphs)))
		return m
	}
	m := s.copyTable("maxp", maxpSize10)[:maxpSize10]
	binary.BigEndian.PutUint16(m[4:], uint16(len(s.glyphs)))
	binary.BigEndian.PutUint16(m[6:], clampU16(stats.points))
	binary.BigEndian.PutUint16(m[8:], clampU16(stats.contours))
	binary.BigEndian.PutUint16(m[10:], clampU16(stats.compositePoints))
	binary.BigEndian.PutUint16(m[12:], clampU16(stats.compositeContours))
	binary.BigEndian.PutUint16(m[26:], clampU16(stats.instructions))
	binary.BigEndian.PutUint16(m[28:], clampU16(stats.componentElements))
	binary.BigEndian.PutUint16(m[30:], clampU16(stats.componentDepth))
	return m
}

// clampU16 saturates n at the largest value a maxp field can hold.
func clampU16(n int) uint16 {
	return uint16(min(max(n, 0), math.MaxUint16))
}

// horizontalMetrics writes one long metric per glyph.
func (s *subsetter) horizontalMetrics() (hhea, hmtx []byte) {
	hmtx = make([]byte, 4*len(s.glyphs))
	var maxAdvance uint16
	for newID, old := range s.glyphs {
		adv, lsb := s.otf.HMtx.HMetrics(old)
		binary.BigEndian.PutUint16(hmtx[4*newID:], adv)
		binary.BigEndian.PutUint16(hmtx[4*newID+2:], uint16(lsb))
		if adv > maxAdvance {
			maxAdvance = adv
		}
	}
	hhea = s.copyTable("hhea", hheaSize)[:hheaSize]
	binary.BigEndian.PutUint16(hhea[hheaAdvanceWidthMax:], maxAdvance)
	binary.BigEndian.PutUint16(hhea[hheaNumberOfHMetrics:], uint16(len(s.glyphs)))
	return
}

// cmapEntries collects the code-points to keep, mapped to new glyph IDs.
func (s *subsetter) cmapEntries(codepoints []rune) []ot.CMapEntry {
	var entries []ot.CMapEntry
	add := func(r rune, old ot.GlyphIndex) {
		if old == ot.NotDef {
			return
		}
		if g, ok := s.retained(old); ok {
			entries = append(entries, ot.CMapEntry{Code: r, Glyph: g})
		}
	}
	if codepoints == nil {
		if m := s.otf.CMap.GlyphIndexMap; m != nil {
			m.ForEach(add)
		}
	} else {
		seen := make(map[rune]bool, len(codepoints))
		for _, r := range codepoints {
			if seen[r] {
				continue
			}
			seen[r] = true
			old := s.otf.CMap.Lookup(r)
			if _, ok := s.retained(old); !ok || old == ot.NotDef {
				s.warn(Warning{
					Kind:      CodePointDropped,
					CodePoint: r,
					Message:   fmt.Sprintf("code-point %U does not map into the glyph set, dropped from cmap", r),
				})
				continue
			}
			add(r, old)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Code < entries[j].Code })
	return entries
}

// os2 copies the OS/2 table with updated first and last character indices.
func (s *subsetter) os2(entries []ot.CMapEntry) []byte {
	t := s.otf.Table(ot.T("OS/2"))
	if t == nil {
		return nil
	}
	b := append([]byte(nil), t.Binary()...)
	if len(b) < os2LastCharIndex+2 {
		return b
	}
	var first, last uint16
	if len(entries) > 0 {
		first = clampBMP(entries[0].Code)
		last = clampBMP(entries[len(entries)-1].Code)
	}
	binary.BigEndian.PutUint16(b[os2FirstCharIndex:], first)
	binary.BigEndian.PutUint16(b[os2LastCharIndex:], last)
	return b
}

func clampBMP(r rune) uint16 {
	if r > 0xffff {
		return 0xffff
	}
	return uint16(r)
}

// post writes a version 3.0 table, i.e. without glyph names.
func (s *subsetter) post() []byte {
	p := s.copyTable("post", postSize30)[:postSize30]
	binary.BigEndian.PutUint32(p, 0x00030000)
	return p
}

// colr rebuilds the COLR table for retained base glyphs. CPAL is copied
// unchanged, as palette indices do not refer to glyphs.
func (s *subsetter) colr() []byte {
	colr := s.otf.Color.COLR
	if colr == nil {
		return nil
	}
	var bases []ot.BaseGlyphRecord
	var layers []ot.LayerRecord
	for _, base := range colr.BaseGlyphs {
		g, ok := s.retained(base.Glyph)
		if !ok {
			continue
		}
		rec := ot.BaseGlyphRecord{Glyph: g, FirstLayer: len(layers)}
		for _, l := range colr.LayersOf(base.Glyph) {
			lg, ok := s.retained(l.Glyph)
			if !ok {
				tracer().Errorf("color layer %d of glyph %d not in glyph set", l.Glyph, base.Glyph)
				continue
			}
			layers = append(layers, ot.LayerRecord{Glyph: lg, PaletteIndex: l.PaletteIndex})
			rec.NumLayers++
		}
		bases = append(bases, rec)
	}
	if len(bases) == 0 {
		return nil
	}
	return ot.EncodeCOLR(bases, layers)
}

// bitmaps rebuilds CBLC and CBDT. Image format 19 keeps its metrics in
// CBLC; it is converted to format 18, which carries them in CBDT.
func (s *subsetter) bitmaps() error {
	cblc := s.otf.Color.CBLC
	if cblc == nil {
		return nil
	}
	var strikes []ot.StrikeData
	for _, strike := range cblc.Strikes {
		sd := ot.StrikeData{
			Hori: strike.Hori, Vert: strike.Vert,
			PpemX: strike.PpemX, PpemY: strike.PpemY,
			BitDepth: strike.BitDepth, Flags: strike.Flags,
		}
		for _, old := range strike.Glyphs() {
			g, ok := s.retained(old)
			if !ok {
				continue
			}
			bg, _ := strike.Glyph(old)
			nbg := &ot.BitmapGlyph{Glyph: g, ImageFormat: bg.ImageFormat, Data: bg.Data}
			switch bg.ImageFormat {
			case ot.BitmapPNG:
				if len(bg.BigMetrics) != 8 {
					s.warn(Warning{Kind: BitmapDropped, Glyph: old,
						Message: fmt.Sprintf("bitmap of glyph %d lacks metrics, dropped", old)})
					continue
				}
				nbg.ImageFormat = ot.BitmapBigMetricsPNG
				nbg.Data = append(append([]byte(nil), bg.BigMetrics...), bg.Data...)
			case ot.BitmapSmallMetricsPNG, ot.BitmapBigMetricsPNG:
			default:
				s.warn(Warning{Kind: BitmapDropped, Glyph: old,
					Message: fmt.Sprintf("bitmap image format %d of glyph %d unsupported, dropped", bg.ImageFormat, old)})
				continue
			}
			sd.Glyphs = append(sd.Glyphs, nbg)
		}
		if len(sd.Glyphs) == 0 {
			tracer().Debugf("bitmap strike %d ppem has no retained glyphs, dropped", strike.PpemY)
			continue
		}
		strikes = append(strikes, sd)
	}
	if len(strikes) == 0 {
		return nil
	}
	loc, data, err := ot.EncodeBitmaps(strikes)
	if err != nil {
		return err
	}
	s.tables[ot.T("CBLC")], s.tables[ot.T("CBDT")] = loc, data
	return nil
}

// gsub rebuilds a minimal GSUB table from the single and ligature
// substitutions of the emoji features, keeping only rules whose glyphs are
// all retained. Rules are merged into one lookup per type; for duplicate
// inputs the rule of the earlier lookup wins.
func (s *subsetter) gsub() ([]byte, error) {
	gsub := s.otf.GSub
	if gsub == nil {
		return nil, nil
	}
	var singles []ot.SingleSubst
	var ligs []ot.LigatureSubst
	seenSingle := make(map[ot.GlyphIndex]bool)
	seenLig := make(map[string]bool)
	for _, inx := range gsub.LookupsForFeatures(ot.DefaultFeatures) {
		lookup := gsub.Lookups[inx]
		for _, sub := range lookup.Singles {
			in, ok1 := s.retained(sub.In)
			out, ok2 := s.retained(sub.Out)
			if !ok1 || !ok2 || seenSingle[in] {
				continue
			}
			seenSingle[in] = true
			singles = append(singles, ot.SingleSubst{In: in, Out: out})
		}
		for _, lig := range lookup.Ligatures {
			if l, ok := s.remapLigature(lig); ok {
				key := fmt.Sprint(l.Components)
				if seenLig[key] {
					continue
				}
				seenLig[key] = true
				ligs = append(ligs, l)
			}
		}
	}
	return ot.EncodeGSub(singles, ligs)
}

func (s *subsetter) remapLigature(lig ot.LigatureSubst) (ot.LigatureSubst, bool) {
	g, ok := s.retained(lig.Glyph)
	if !ok {
		return ot.LigatureSubst{}, false
	}
	l := ot.LigatureSubst{Glyph: g, Components: make([]ot.GlyphIndex, len(lig.Components))}
	for i, c := range lig.Components {
		if l.Components[i], ok = s.retained(c); !ok {
			return ot.LigatureSubst{}, false
		}
	}
	return l, true
}
