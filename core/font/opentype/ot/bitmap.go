package ot

import (
	"fmt"
	"sort"
)

// CBLCTable is the color bitmap location table. It is always accompanied
// by table CBDT, which holds the bitmap data (usually PNG images).
// During parsing, the CBLC index is resolved into bitmap strikes, each
// linking glyph IDs to their image data blocks within CBDT.
//
// See https://docs.microsoft.com/en-us/typography/opentype/spec/cblc
type CBLCTable struct {
	tableBase
	MajorVersion uint16
	Strikes      []*BitmapStrike
}

// BitmapStrike is a set of bitmaps for one size (ppem).
type BitmapStrike struct {
	Hori, Vert [12]byte // sbitLineMetrics, copied verbatim
	PpemX      uint8
	PpemY      uint8
	BitDepth   uint8
	Flags      int8
	glyphs     map[GlyphIndex]*BitmapGlyph
}

// BitmapGlyph is the bitmap data of one glyph in a strike.
type BitmapGlyph struct {
	Glyph       GlyphIndex
	ImageFormat uint16 // 17, 18 or 19
	Data        []byte // image data block in CBDT, including embedded metrics
	BigMetrics  []byte // 8 bytes, for glyphs with metrics in CBLC (image format 19)
}

// Glyph returns the bitmap of glyph g in this strike.
func (s *BitmapStrike) Glyph(g GlyphIndex) (*BitmapGlyph, bool) {
	bg, ok := s.glyphs[g]
	return bg, ok
}

// Glyphs returns the glyphs present in this strike, in ascending order.
func (s *BitmapStrike) Glyphs() []GlyphIndex {
	gids := make([]GlyphIndex, 0, len(s.glyphs))
	for g := range s.glyphs {
		gids = append(gids, g)
	}
	sort.Slice(gids, func(i, j int) bool { return gids[i] < gids[j] })
	return gids
}

// HasGlyph is true if any strike contains a bitmap for g.
func (t *CBLCTable) HasGlyph(g GlyphIndex) bool {
	if t == nil {
		return false
	}
	for _, s := range t.Strikes {
		if _, ok := s.glyphs[g]; ok {
			return true
		}
	}
	return false
}

func parseCBLC(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 8 {
		return nil, errFontFormat("size of CBLC table")
	}
	t := &CBLCTable{}
	t.tableBase = makeTableBase(tag, b, offset, size)
	t.self = t
	t.MajorVersion = u16(b)
	if t.MajorVersion != 2 && t.MajorVersion != 3 {
		return nil, errFontFormat(fmt.Sprintf("CBLC version %d", t.MajorVersion))
	}
	return t, nil
}

// Image formats supported in CBDT.
const (
	BitmapSmallMetricsPNG = 17 // small metrics + PNG
	BitmapBigMetricsPNG   = 18 // big metrics + PNG
	BitmapPNG             = 19 // metrics in CBLC, PNG data only
)

// linkBitmapData resolves the strikes of the CBLC index into image data
// blocks of table CBDT.
func (t *CBLCTable) linkBitmapData(cbdt binarySegm, numGlyphs int) error {
	b := t.data
	numSizes := int(u32(b[4:]))
	const recSize = 48
	if _, err := b.view(8, numSizes*recSize); err != nil {
		return errFontFormat("CBLC bitmap size records")
	}
	for i := 0; i < numSizes; i++ {
		rec := b[8+i*recSize:]
		s := &BitmapStrike{glyphs: make(map[GlyphIndex]*BitmapGlyph)}
		copy(s.Hori[:], rec[16:28])
		copy(s.Vert[:], rec[28:40])
		s.PpemX, s.PpemY, s.BitDepth, s.Flags = rec[44], rec[45], rec[46], int8(rec[47])
		listOffset := int(u32(rec))
		numSubtables := int(u32(rec[8:]))
		list, err := b.view(listOffset, 8*numSubtables)
		if err != nil {
			return errFontFormat("CBLC index subtable array")
		}
		for j := 0; j < numSubtables; j++ {
			first, last := GlyphIndex(u16(list[8*j:])), GlyphIndex(u16(list[8*j+2:]))
			if last < first || int(last) >= numGlyphs {
				return errFontFormat("CBLC index subtable glyph range")
			}
			sub, err := b.from(listOffset + int(u32(list[8*j+4:])))
			if err != nil {
				return errFontFormat("CBLC index subtable offset")
			}
			if err := s.parseIndexSubtable(sub, first, last, cbdt); err != nil {
				return err
			}
		}
		tracer().Debugf("CBLC strike %d ppem has %d glyphs", s.PpemY, len(s.glyphs))
		t.Strikes = append(t.Strikes, s)
	}
	return nil
}

func (s *BitmapStrike) parseIndexSubtable(sub binarySegm, first, last GlyphIndex, cbdt binarySegm) error {
	if len(sub) < 8 {
		return errFontFormat("CBLC index subtable header")
	}
	indexFormat, imageFormat := u16(sub), u16(sub[2:])
	imageDataOffset := int(u32(sub[4:]))
	n := int(last-first) + 1
	var locs []int // n+1 offsets relative to imageDataOffset, for formats 1–3
	var bigMetrics []byte
	var sparse []GlyphIndex // glyph IDs for formats 4 and 5
	var err error
	switch indexFormat {
	case 1:
		var arr binarySegm
		if arr, err = sub.view(8, 4*(n+1)); err == nil {
			locs = make([]int, n+1)
			for i := range locs {
				locs[i] = int(u32(arr[4*i:]))
			}
		}
	case 3:
		var arr binarySegm
		if arr, err = sub.view(8, 2*(n+1)); err == nil {
			locs = make([]int, n+1)
			for i := range locs {
				locs[i] = int(u16(arr[2*i:]))
			}
		}
	case 2:
		if _, err = sub.view(8, 12); err == nil {
			imageSize := int(u32(sub[8:]))
			bigMetrics = sub[12:20]
			locs = make([]int, n+1)
			for i := range locs {
				locs[i] = i * imageSize
			}
		}
	case 4:
		var cnt uint32
		if cnt, err = sub.u32(8); err == nil {
			var arr binarySegm
			if arr, err = sub.view(12, 4*(int(cnt)+1)); err == nil {
				locs = make([]int, cnt+1)
				sparse = make([]GlyphIndex, cnt)
				for i := 0; i <= int(cnt); i++ {
					if i < int(cnt) {
						sparse[i] = GlyphIndex(u16(arr[4*i:]))
					}
					locs[i] = int(u16(arr[4*i+2:]))
				}
			}
		}
	case 5:
		if _, err = sub.view(8, 16); err == nil {
			imageSize := int(u32(sub[8:]))
			bigMetrics = sub[12:20]
			cnt := int(u32(sub[20:]))
			if sparse, err = sub.glyphs(24, cnt); err == nil {
				locs = make([]int, cnt+1)
				for i := range locs {
					locs[i] = i * imageSize
				}
			}
		}
	default:
		tracer().Infof("CBLC index subtable format %d not supported, skipping", indexFormat)
		return nil
	}
	if err != nil {
		return errFontFormat(fmt.Sprintf("CBLC index subtable format %d", indexFormat))
	}
	if imageFormat != BitmapSmallMetricsPNG && imageFormat != BitmapBigMetricsPNG &&
		imageFormat != BitmapPNG {
		tracer().Infof("CBDT image format %d not supported, skipping", imageFormat)
		return nil
	}
	for i := 0; i+1 < len(locs); i++ {
		g := first + GlyphIndex(i)
		if sparse != nil {
			g = sparse[i]
		}
		from, to := imageDataOffset+locs[i], imageDataOffset+locs[i+1]
		if to <= from {
			continue // no bitmap for this glyph
		}
		data, err := cbdt.view(from, to-from)
		if err != nil {
			return errFontFormat(fmt.Sprintf("CBDT image data for glyph %d", g))
		}
		s.glyphs[g] = &BitmapGlyph{
			Glyph:       g,
			ImageFormat: imageFormat,
			Data:        data,
			BigMetrics:  bigMetrics,
		}
	}
	return nil
}
