package ot

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"
	"sort"
)

// Encoders for the tables and glyph descriptions a subset font is made of.
// They produce binaries which Parse will read back into the same semantics.

// sink collects big-endian binary data.
type sink struct {
	b []byte
}

func (s *sink) u8(v uint8)    { s.b = append(s.b, v) }
func (s *sink) u16(v uint16)  { s.b = binary.BigEndian.AppendUint16(s.b, v) }
func (s *sink) i16(v int16)   { s.u16(uint16(v)) }
func (s *sink) u32(v uint32)  { s.b = binary.BigEndian.AppendUint32(s.b, v) }
func (s *sink) tag(t Tag)     { s.u32(uint32(t)) }
func (s *sink) raw(b []byte)  { s.b = append(s.b, b...) }
func (s *sink) len() int      { return len(s.b) }
func (s *sink) bytes() []byte { return s.b }

// patch16 overwrites a 16-bit value at byte position at.
func (s *sink) patch16(at int, v uint16) {
	binary.BigEndian.PutUint16(s.b[at:], v)
}

func (s *sink) patch32(at int, v uint32) {
	binary.BigEndian.PutUint32(s.b[at:], v)
}

// binSearchParams returns searchRange, entrySelector and rangeShift for n
// entries of the given size, as used in cmap format 4 and the sfnt header.
func binSearchParams(n, size int) (uint16, uint16, uint16) {
	if n == 0 {
		return 0, 0, 0
	}
	sel := bits.Len(uint(n)) - 1
	rng := size << sel
	return uint16(rng), uint16(sel), uint16(n*size - rng)
}

// --- Glyphs ----------------------------------------------------------------

// EncodeSimpleGlyph encodes the outline of a simple glyph, using compact
// flags and coordinates. The bounding box is computed from the points.
// An outline without points results in an empty glyph (nil).
func EncodeSimpleGlyph(endPts []uint16, points []Point, instructions []byte) ([]byte, error) {
	if len(points) == 0 {
		return nil, nil
	}
	if len(endPts) == 0 || int(endPts[len(endPts)-1])+1 != len(points) {
		return nil, errFontFormat("contour end points do not match outline points")
	}
	if len(endPts) > math.MaxInt16 || len(instructions) > 0xffff {
		return nil, errFontFormat("simple glyph exceeds format limits")
	}
	xmin, ymin, xmax, ymax := BoundingBox(points)
	s := &sink{}
	s.i16(int16(len(endPts)))
	s.i16(int16(xmin))
	s.i16(int16(ymin))
	s.i16(int16(xmax))
	s.i16(int16(ymax))
	for _, e := range endPts {
		s.u16(e)
	}
	s.u16(uint16(len(instructions)))
	s.raw(instructions)
	flags := make([]uint8, len(points))
	xs, ys := &sink{}, &sink{}
	px, py := 0, 0
	for i, p := range points {
		var f uint8
		if p.OnCurve {
			f |= OnCurvePoint
		}
		f |= encodeDelta(xs, p.X-px, XShortVector, XIsSameOrPos)
		f |= encodeDelta(ys, p.Y-py, YShortVector, YIsSameOrPos)
		if p.X-px > math.MaxInt16 || p.X-px < math.MinInt16 || p.Y-py > math.MaxInt16 || p.Y-py < math.MinInt16 {
			return nil, errFontFormat(fmt.Sprintf("coordinate delta out of range at point %d", i))
		}
		flags[i] = f
		px, py = p.X, p.Y
	}
	for i := 0; i < len(flags); {
		f := flags[i]
		run := 1
		for i+run < len(flags) && flags[i+run] == f && run < 256 {
			run++
		}
		if run > 1 {
			s.u8(f | RepeatFlag)
			s.u8(uint8(run - 1))
		} else {
			s.u8(f)
		}
		i += run
	}
	s.raw(xs.bytes())
	s.raw(ys.bytes())
	return s.bytes(), nil
}

func encodeDelta(s *sink, d int, short, sameOrPos uint8) uint8 {
	switch {
	case d == 0:
		return sameOrPos
	case d > 0 && d <= 255:
		s.u8(uint8(d))
		return short | sameOrPos
	case d < 0 && d >= -255:
		s.u8(uint8(-d))
		return short
	}
	s.i16(int16(d))
	return 0
}

// BoundingBox returns the bounding box of a list of outline points.
func BoundingBox(points []Point) (xmin, ymin, xmax, ymax int) {
	if len(points) == 0 {
		return
	}
	xmin, ymin = points[0].X, points[0].Y
	xmax, ymax = xmin, ymin
	for _, p := range points[1:] {
		xmin, xmax = min(xmin, p.X), max(xmax, p.X)
		ymin, ymax = min(ymin, p.Y), max(ymax, p.Y)
	}
	return
}

// EncodeCompositeGlyph encodes a composite glyph. Argument and scale formats
// are chosen from the component values; flags RoundXYToGrid, UseMyMetrics,
// OverlapCompound and ScaledComponentOffset are taken over from the components.
func EncodeCompositeGlyph(bbox [4]int16, comps []Component, instructions []byte) ([]byte, error) {
	if len(comps) == 0 {
		return nil, errFontFormat("composite glyph without components")
	}
	const keep = RoundXYToGrid | UseMyMetrics | OverlapCompound | ScaledComponentOffset | ArgsAreXYValues
	s := &sink{}
	s.i16(-1)
	for _, v := range bbox {
		s.i16(v)
	}
	for i, c := range comps {
		flags := c.Flags & keep
		if i < len(comps)-1 {
			flags |= MoreComponents
		} else if len(instructions) > 0 {
			flags |= WeHaveInstructions
		}
		words := false
		if flags&ArgsAreXYValues != 0 {
			words = c.Arg1 < math.MinInt8 || c.Arg1 > math.MaxInt8 || c.Arg2 < math.MinInt8 || c.Arg2 > math.MaxInt8
		} else {
			words = c.Arg1 < 0 || c.Arg1 > 255 || c.Arg2 < 0 || c.Arg2 > 255
		}
		if words {
			flags |= Arg1And2AreWords
		}
		m := c.Transform
		switch {
		case m == [4]float64{1, 0, 0, 1} || m == [4]float64{}:
		case m[1] == 0 && m[2] == 0 && m[0] == m[3]:
			flags |= WeHaveAScale
		case m[1] == 0 && m[2] == 0:
			flags |= WeHaveAnXAndYScale
		default:
			flags |= WeHaveATwoByTwo
		}
		s.u16(flags)
		s.u16(uint16(c.Glyph))
		if words {
			s.i16(int16(c.Arg1))
			s.i16(int16(c.Arg2))
		} else {
			s.u8(uint8(c.Arg1))
			s.u8(uint8(c.Arg2))
		}
		switch {
		case flags&WeHaveAScale != 0:
			s.i16(toF2Dot14(m[0]))
		case flags&WeHaveAnXAndYScale != 0:
			s.i16(toF2Dot14(m[0]))
			s.i16(toF2Dot14(m[3]))
		case flags&WeHaveATwoByTwo != 0:
			for _, v := range m {
				s.i16(toF2Dot14(v))
			}
		}
	}
	if len(instructions) > 0 {
		s.u16(uint16(len(instructions)))
		s.raw(instructions)
	}
	return s.bytes(), nil
}

func toF2Dot14(v float64) int16 {
	return int16(math.Round(v * 16384))
}

// EncodeLoca encodes glyph offsets into table glyf. offsets must contain
// numGlyphs+1 entries. With long == false, offsets must be even and
// below 0x20000.
func EncodeLoca(offsets []uint32, long bool) []byte {
	s := &sink{}
	for _, off := range offsets {
		if long {
			s.u32(off)
		} else {
			s.u16(uint16(off / 2))
		}
	}
	return s.bytes()
}

// --- cmap ------------------------------------------------------------------

// CMapEntry maps a code-point to a glyph.
type CMapEntry struct {
	Code  rune
	Glyph GlyphIndex
}

// EncodeCMap encodes a cmap table with a format 4 sub-table for BMP
// code-points and a format 12 sub-table for all code-points. Both are
// registered for the Unicode and for the Windows platform.
// Entries mapping to glyph 0 are skipped.
func EncodeCMap(entries []CMapEntry) []byte {
	m := make([]CMapEntry, 0, len(entries))
	for _, e := range entries {
		if e.Glyph != 0 && e.Code >= 0 && e.Code <= 0x10ffff {
			m = append(m, e)
		}
	}
	sort.Slice(m, func(i, j int) bool { return m[i].Code < m[j].Code })
	f4 := encodeCMapFormat4(m)
	f12 := encodeCMapFormat12(m)
	s := &sink{}
	type record struct {
		pid, psid uint16
		f12       bool
	}
	var recs []record
	if f4 != nil {
		recs = append(recs, record{0, 3, false})
	}
	recs = append(recs, record{0, 4, true})
	if f4 != nil {
		recs = append(recs, record{3, 1, false})
	}
	recs = append(recs, record{3, 10, true})
	s.u16(0)
	s.u16(uint16(len(recs)))
	f4off, f12off := uint32(4+8*len(recs)), uint32(4+8*len(recs)+len(f4))
	for _, r := range recs {
		s.u16(r.pid)
		s.u16(r.psid)
		if r.f12 {
			s.u32(f12off)
		} else {
			s.u32(f4off)
		}
	}
	s.raw(f4)
	s.raw(f12)
	return s.bytes()
}

type cmapSegment struct {
	start, end rune
	glyph      GlyphIndex // glyph of start
}

// cmapSegments groups entries into runs of consecutive code-points and glyphs.
func cmapSegments(m []CMapEntry) []cmapSegment {
	var segs []cmapSegment
	for _, e := range m {
		if n := len(segs); n > 0 {
			last := &segs[n-1]
			if e.Code == last.end+1 && int(e.Glyph) == int(last.glyph)+int(e.Code-last.start) {
				last.end = e.Code
				continue
			}
		}
		segs = append(segs, cmapSegment{e.Code, e.Code, e.Glyph})
	}
	return segs
}

func encodeCMapFormat4(m []CMapEntry) []byte {
	var bmp []CMapEntry
	for _, e := range m {
		if e.Code < 0xffff {
			bmp = append(bmp, e)
		}
	}
	segs := cmapSegments(bmp)
	segs = append(segs, cmapSegment{0xffff, 0xffff, 0}) // required final segment, maps to .notdef
	n := len(segs)
	length := 16 + 8*n
	if length > 0xffff {
		tracer().Infof("too many BMP segments for cmap format 4, writing format 12 only")
		return nil
	}
	s := &sink{}
	s.u16(4)
	s.u16(uint16(length))
	s.u16(0) // language
	rng, sel, shift := binSearchParams(n, 2)
	s.u16(uint16(2 * n))
	s.u16(rng)
	s.u16(sel)
	s.u16(shift)
	for _, seg := range segs {
		s.u16(uint16(seg.end))
	}
	s.u16(0) // reserved pad
	for _, seg := range segs {
		s.u16(uint16(seg.start))
	}
	for _, seg := range segs {
		s.u16(uint16(seg.glyph) - uint16(seg.start)) // delta, modulo 65536
	}
	for range segs {
		s.u16(0) // idRangeOffset
	}
	return s.bytes()
}

func encodeCMapFormat12(m []CMapEntry) []byte {
	segs := cmapSegments(m)
	s := &sink{}
	s.u16(12)
	s.u16(0)
	s.u32(uint32(16 + 12*len(segs)))
	s.u32(0) // language
	s.u32(uint32(len(segs)))
	for _, seg := range segs {
		s.u32(uint32(seg.start))
		s.u32(uint32(seg.end))
		s.u32(uint32(seg.glyph))
	}
	return s.bytes()
}

// --- COLR ------------------------------------------------------------------

// EncodeCOLR encodes a COLR version 0 table. Base glyph records are sorted by
// glyph; their FirstLayer indices must refer to layers.
func EncodeCOLR(bases []BaseGlyphRecord, layers []LayerRecord) []byte {
	bases = append([]BaseGlyphRecord(nil), bases...)
	sort.Slice(bases, func(i, j int) bool { return bases[i].Glyph < bases[j].Glyph })
	s := &sink{}
	s.u16(0)
	s.u16(uint16(len(bases)))
	s.u32(14)
	s.u32(uint32(14 + 6*len(bases)))
	s.u16(uint16(len(layers)))
	for _, b := range bases {
		s.u16(uint16(b.Glyph))
		s.u16(uint16(b.FirstLayer))
		s.u16(uint16(b.NumLayers))
	}
	for _, l := range layers {
		s.u16(uint16(l.Glyph))
		s.u16(l.PaletteIndex)
	}
	return s.bytes()
}

// --- GSUB ------------------------------------------------------------------

// EncodeGSub encodes a minimal GSUB table: script 'DFLT' with a default
// language system, referencing a single feature 'ccmp'. The feature
// references one single substitution lookup (if singles is not empty) and one
// ligature substitution lookup (if ligs is not empty).
// If both are empty, nil is returned.
func EncodeGSub(singles []SingleSubst, ligs []LigatureSubst) ([]byte, error) {
	var lookups [][]byte
	if len(singles) > 0 {
		lookups = append(lookups, encodeLookup(GSubLookupTypeSingle, encodeSingleSubst(singles)))
	}
	if len(ligs) > 0 {
		sub, err := encodeLigatureSubst(ligs)
		if err != nil {
			return nil, err
		}
		lookups = append(lookups, encodeLookup(GSubLookupTypeLigature, sub))
	}
	if len(lookups) == 0 {
		return nil, nil
	}
	s := &sink{}
	s.u16(1) // major version
	s.u16(0)
	s.u16(10) // script list
	s.u16(0)  // feature list, patched below
	s.u16(0)  // lookup list, patched below
	// ScriptList with DFLT and its default LangSys
	s.u16(1)
	s.tag(T("DFLT"))
	s.u16(8) // script table, relative to script list
	s.u16(4) // default LangSys, relative to script table
	s.u16(0) // no other language systems
	s.u16(0) // lookupOrderOffset
	s.u16(0xffff)
	s.u16(1) // feature index count
	s.u16(0)
	s.patch16(6, uint16(s.len()))
	s.u16(1)
	s.tag(T("ccmp"))
	s.u16(8) // feature table, relative to feature list
	s.u16(0) // feature params
	s.u16(uint16(len(lookups)))
	for i := range lookups {
		s.u16(uint16(i))
	}
	lookupList := s.len()
	s.patch16(8, uint16(lookupList))
	s.u16(uint16(len(lookups)))
	off := 2 + 2*len(lookups)
	for _, l := range lookups {
		s.u16(uint16(off))
		off += len(l)
	}
	if lookupList+off > 0xffff {
		return nil, errFontFormat("GSUB lookups exceed 16-bit offsets")
	}
	for _, l := range lookups {
		s.raw(l)
	}
	return s.bytes(), nil
}

func encodeLookup(typ LookupType, subtable []byte) []byte {
	s := &sink{}
	s.u16(uint16(typ))
	s.u16(0) // lookup flag
	s.u16(1)
	s.u16(8)
	s.raw(subtable)
	return s.bytes()
}

func encodeCoverage(glyphs []GlyphIndex) []byte {
	s := &sink{}
	s.u16(1)
	s.u16(uint16(len(glyphs)))
	for _, g := range glyphs {
		s.u16(uint16(g))
	}
	return s.bytes()
}

func encodeSingleSubst(singles []SingleSubst) []byte {
	singles = append([]SingleSubst(nil), singles...)
	sort.SliceStable(singles, func(i, j int) bool { return singles[i].In < singles[j].In })
	var cov []GlyphIndex
	var out []GlyphIndex
	for i, sub := range singles {
		if i > 0 && sub.In == singles[i-1].In {
			continue // first substitution wins
		}
		cov = append(cov, sub.In)
		out = append(out, sub.Out)
	}
	s := &sink{}
	s.u16(2)
	s.u16(uint16(6 + 2*len(out)))
	s.u16(uint16(len(out)))
	for _, g := range out {
		s.u16(uint16(g))
	}
	s.raw(encodeCoverage(cov))
	return s.bytes()
}

func encodeLigatureSubst(ligs []LigatureSubst) ([]byte, error) {
	sets := make(map[GlyphIndex][]LigatureSubst)
	var first []GlyphIndex
	for _, l := range ligs {
		if len(l.Components) == 0 {
			return nil, errFontFormat("ligature without components")
		}
		g := l.Components[0]
		if _, ok := sets[g]; !ok {
			first = append(first, g)
		}
		sets[g] = append(sets[g], l)
	}
	sort.Slice(first, func(i, j int) bool { return first[i] < first[j] })
	s := &sink{}
	s.u16(1)
	s.u16(0) // coverage, patched below
	s.u16(uint16(len(first)))
	setOffsets := s.len()
	for range first {
		s.u16(0)
	}
	for i, g := range first {
		set := sets[g]
		// longer ligatures have to be tried first
		sort.SliceStable(set, func(i, j int) bool {
			return len(set[i].Components) > len(set[j].Components)
		})
		start := s.len()
		s.patch16(setOffsets+2*i, uint16(start))
		s.u16(uint16(len(set)))
		ligOffsets := s.len()
		for range set {
			s.u16(0)
		}
		for j, l := range set {
			s.patch16(ligOffsets+2*j, uint16(s.len()-start))
			s.u16(uint16(l.Glyph))
			s.u16(uint16(len(l.Components)))
			for _, c := range l.Components[1:] {
				s.u16(uint16(c))
			}
		}
	}
	s.patch16(2, uint16(s.len()))
	s.raw(encodeCoverage(first))
	if s.len() > 0xffff {
		return nil, errFontFormat("ligature subtable exceeds 16-bit offsets")
	}
	return s.bytes(), nil
}

// --- CBLC / CBDT -----------------------------------------------------------

// StrikeData is a bitmap strike to encode. Glyph images must be in
// image format 17 or 18 and are written in ascending glyph order.
type StrikeData struct {
	Hori, Vert [12]byte
	PpemX      uint8
	PpemY      uint8
	BitDepth   uint8
	Flags      int8
	Glyphs     []*BitmapGlyph
}

// EncodeBitmaps encodes a CBLC and a CBDT table for a set of strikes.
// Consecutive glyphs with identical image format are grouped into index
// subtables of format 1.
func EncodeBitmaps(strikes []StrikeData) (cblc, cbdt []byte, err error) {
	data := &sink{}
	data.u16(3) // CBDT version 3.0
	data.u16(0)
	loc := &sink{}
	loc.u16(3) // CBLC version 3.0
	loc.u16(0)
	loc.u32(uint32(len(strikes)))
	sizeRecords := loc.len()
	for range strikes {
		loc.raw(make([]byte, 48))
	}
	for i, strike := range strikes {
		glyphs := append([]*BitmapGlyph(nil), strike.Glyphs...)
		sort.Slice(glyphs, func(i, j int) bool { return glyphs[i].Glyph < glyphs[j].Glyph })
		if len(glyphs) == 0 {
			return nil, nil, errFontFormat("bitmap strike without glyphs")
		}
		var runs [][]*BitmapGlyph
		for j, g := range glyphs {
			if g.ImageFormat != BitmapSmallMetricsPNG && g.ImageFormat != BitmapBigMetricsPNG {
				return nil, nil, errFontFormat(fmt.Sprintf("cannot encode bitmap image format %d", g.ImageFormat))
			}
			if j > 0 {
				prev := glyphs[j-1]
				if g.Glyph == prev.Glyph {
					return nil, nil, errFontFormat("duplicate glyph in bitmap strike")
				}
				if g.Glyph == prev.Glyph+1 && g.ImageFormat == prev.ImageFormat {
					runs[len(runs)-1] = append(runs[len(runs)-1], g)
					continue
				}
			}
			runs = append(runs, []*BitmapGlyph{g})
		}
		arrayOffset := loc.len()
		for range runs {
			loc.raw(make([]byte, 8))
		}
		for r, run := range runs {
			sub := loc.len()
			entry := arrayOffset + 8*r
			loc.patch16(entry, uint16(run[0].Glyph))
			loc.patch16(entry+2, uint16(run[len(run)-1].Glyph))
			loc.patch32(entry+4, uint32(sub-arrayOffset))
			loc.u16(1) // index format 1
			loc.u16(run[0].ImageFormat)
			loc.u32(uint32(data.len()))
			base := data.len()
			for _, g := range run {
				loc.u32(uint32(data.len() - base))
				data.raw(g.Data)
			}
			loc.u32(uint32(data.len() - base))
		}
		rec := loc.b[sizeRecords+48*i:]
		binary.BigEndian.PutUint32(rec, uint32(arrayOffset))
		binary.BigEndian.PutUint32(rec[4:], uint32(loc.len()-arrayOffset))
		binary.BigEndian.PutUint32(rec[8:], uint32(len(runs)))
		copy(rec[16:28], strike.Hori[:])
		copy(rec[28:40], strike.Vert[:])
		binary.BigEndian.PutUint16(rec[40:], uint16(glyphs[0].Glyph))
		binary.BigEndian.PutUint16(rec[42:], uint16(glyphs[len(glyphs)-1].Glyph))
		rec[44], rec[45], rec[46], rec[47] = strike.PpemX, strike.PpemY, strike.BitDepth, uint8(strike.Flags)
	}
	return loc.bytes(), data.bytes(), nil
}
