package ot

/*
Parts of the cmap lookup follow the code of the Go core team, available from
https://github.com/golang/image/tree/master/font/sfnt.

   Copyright 2017 The Go Authors. All rights reserved.
   Use of this source code is governed by a BSD-style
   license that can be found in the LICENSE file.
*/

// CMapTable represents an OpenType cmap table, i.e. the table to receive glyphs
// from code-points.
//
// See https://docs.microsoft.com/de-de/typography/opentype/spec/cmap
//
// Consulting the cmap table is a very frequent operation on fonts. We therefore
// construct an internal representation of the lookup table. A cmap table may contain
// more than one lookup table, but we will only instantiate the most appropriate one.
type CMapTable struct {
	tableBase
	GlyphIndexMap CMapGlyphIndex
}

func newCMapTable(tag Tag, b binarySegm, offset, size uint32) *CMapTable {
	t := &CMapTable{}
	t.tableBase = makeTableBase(tag, b, offset, size)
	t.self = t
	return t
}

// Lookup returns the glyph for a code-point, or 0 (.notdef).
func (t *CMapTable) Lookup(r rune) GlyphIndex {
	if t == nil || t.GlyphIndexMap == nil {
		return 0
	}
	return t.GlyphIndexMap.Lookup(r)
}

// platformEncodingWidth returns the number of bytes per character assumed by
// the given Platform ID and Platform Specific ID.
//
// Old fonts, from when Unicode meant the Basic Multilingual Plane (BMP),
// assume that 2 bytes per character is sufficient.
// Emoji fonts naturally need the full range of Unicode code points, which
// takes up to 4 bytes per character.
func platformEncodingWidth(pid, psid uint16) int {
	switch pid {
	case 0: // Unicode platform
		switch psid {
		case 3: // Unicode BMB
			return 2
		case 4, 10: // Unicode full  (include 10 from FontForge bug)
			return 4
		}
	case 3: // Windows platform
		switch psid {
		case 1: // Unicode BMP
			return 2
		case 10: // Unicode full
			return 4
		}
	}
	return 0 // width 0 will never get selected
}

// We only support the following plaform/encoding/format combinations:
//
//	0 (Unicode)  3    4   Unicode BMB
//	0 (Unicode)  4    12  Unicode full  (10 from FontForge, error)
//	3 (Win)      1    4   Unicode BMP
//	3 (Win)      10   12  Unicode full
//
// Note that FontForge may generate a bogus Platform Specific ID (value 10)
// for the Unicode Platform ID (value 0). See
// https://github.com/fontforge/fontforge/issues/2728
func supportedCmapFormat(format, pid, psid uint16) bool {
	tracer().Debugf("checking supported cmap format (%d | %d | %d)", pid, psid, format)
	return (pid == 0 && psid == 3 && format == 4) ||
		(pid == 0 && (psid == 4 || psid == 10) && format == 12) ||
		(pid == 3 && psid == 1 && format == 4) ||
		(pid == 3 && psid == 10 && format == 12)
}

// CMapGlyphIndex represents a CMap table index to receive a glyph index from
// a code-point.
type CMapGlyphIndex interface {
	Lookup(rune) GlyphIndex               // central activiy of CMap
	ReverseLookup(GlyphIndex) rune        // this is non-standard, but helps with tests
	ForEach(func(r rune, gid GlyphIndex)) // iterate over all mappings in code-point order
}

// Format 4: Segment mapping to delta values
// This is the standard character-to-glyph-index mapping subtable for fonts that support
// only Unicode Basic Multilingual Plane characters (U+0000 to U+FFFF).
type format4GlyphIndex struct {
	entries  []cmapEntry16
	glyphIds binarySegm
}

// Format 4 holds four parallel arrays to describe the segments (one segment for
// each contiguous range of codes).
type cmapEntry16 struct {
	end, start, delta, offset uint16
}

func (f4 format4GlyphIndex) Lookup(r rune) GlyphIndex {
	if uint32(r) > 0xffff { // format 4 is for BMP code-points only
		return 0 // return index for 'missing character'
	}
	c := uint16(r)
	N := len(f4.entries)
	for i, j := 0, N; i < j; {
		h := i + (j-i)/2 // do a binary search on f4.entries (which may get large)
		entry := &f4.entries[h]
		if c < entry.start {
			j = h
		} else if entry.end < c {
			i = h + 1
		} else {
			return f4.glyph(h, c)
		}
	}
	return 0
}

func (f4 format4GlyphIndex) glyph(h int, c uint16) GlyphIndex {
	entry := &f4.entries[h]
	if entry.offset == 0 {
		return GlyphIndex(c + entry.delta)
	}
	// The offset is relative to the position of the idRangeOffset entry
	// itself. We sliced the subtable into separate arrays, so we have to
	// calculate a clean index into the glyph ID array: first cut off the
	// part of the offset which skips to the end of the offset array.
	deltaToEndOfEntries := (len(f4.entries) - h) * 2
	index := (int(entry.offset)-deltaToEndOfEntries)/2 + int(c-entry.start)
	glyphInx := f4.glyphIds.U16(index * 2)
	if glyphInx > 0 {
		// If the value obtained from the indexing operation is not 0 (which indicates
		// missingGlyph), idDelta[i] is added to it to get the glyph index
		glyphInx += entry.delta
	}
	return GlyphIndex(glyphInx)
}

// ReverseLookup retrieves a code-point for a given glyph. The Cmap tables do not
// support this operation, thus this operation is inefficient.
// However, for testing and debugging purposes it is often useful.
func (f4 format4GlyphIndex) ReverseLookup(gid GlyphIndex) rune {
	if gid == 0 {
		return 0
	}
	var found rune
	f4.ForEach(func(r rune, g GlyphIndex) {
		if found == 0 && g == gid {
			found = r
		}
	})
	return found
}

func (f4 format4GlyphIndex) ForEach(fn func(rune, GlyphIndex)) {
	for h, entry := range f4.entries {
		if entry.end < entry.start || entry.start == 0xffff {
			continue
		}
		for c := uint32(entry.start); c <= uint32(entry.end); c++ {
			if g := f4.glyph(h, uint16(c)); g != 0 {
				fn(rune(c), g)
			}
		}
	}
}

// The format's data is divided into three parts, which must occur in the following order:
//
// - A four-word header gives parameters for an optimized search of the segment list;
// - Four parallel arrays describe the segments (one segment for each contiguous range of codes);
// - A variable-length array of glyph IDs (unsigned words).
func makeGlyphIndexFormat4(b binarySegm) (CMapGlyphIndex, error) {
	const headerSize = 14
	if headerSize > b.Size() {
		return nil, errFontFormat("cmap subtable bounds overflow")
	}
	size, _ := b.u16(2)
	segCount, _ := b.u16(6)
	if segCount&1 != 0 {
		tracer().Debugf("cmap format 4 segment count is %d", segCount)
		return nil, errFontFormat("cmap table format, illegal segment count")
	}
	segCount /= 2
	eLength := 8*int(segCount) + 2
	if int(size) > b.Size() || headerSize+eLength > int(size) {
		return nil, errFontFormat("cmap internal structure")
	}
	b = b[headerSize:size]
	n := int(segCount)
	endCodes := b[:n*2]
	next := n*2 + 2 // 2 is a padding entry in the cmap table
	startCodes := b[next : next+n*2]
	next += n * 2
	deltas := b[next : next+n*2]
	next += n * 2
	offsets := b[next : next+n*2]
	next += n * 2
	entries := make([]cmapEntry16, n)
	for i := range entries {
		entries[i] = cmapEntry16{
			end:    u16(endCodes[i*2:]),
			start:  u16(startCodes[i*2:]),
			delta:  u16(deltas[i*2:]),
			offset: u16(offsets[i*2:]),
		}
	}
	tracer().Debugf("cmap format 4 glyph table starts at offset %d", next)
	return format4GlyphIndex{
		entries:  entries,
		glyphIds: b[next:],
	}, nil
}

type cmapEntry32 struct {
	start, end, delta uint32
}

// Each sequential map group record specifies a character range and the starting glyph ID
// mapped from the first character. Glyph IDs for subsequent characters follow in sequence.
type format12GlyphIndex struct {
	entries []cmapEntry32
}

func (f12 format12GlyphIndex) Lookup(r rune) GlyphIndex {
	c := uint32(r)
	for i, j := 0, len(f12.entries); i < j; {
		h := i + (j-i)/2 // do a binary search on f12.entries (which may get large)
		entry := &f12.entries[h]
		if c < entry.start {
			j = h
		} else if entry.end < c {
			i = h + 1
		} else {
			return GlyphIndex(c - entry.start + entry.delta)
		}
	}
	return 0
}

// ReverseLookup retrieves a code-point for a given glyph. The Cmap tables do not
// support this operation, thus this operation is inefficient.
// However, for testing and debugging purposes it is often useful.
func (f12 format12GlyphIndex) ReverseLookup(gid GlyphIndex) rune {
	if gid == 0 {
		return 0
	}
	cid := uint32(gid)
	for _, entry := range f12.entries {
		if cid >= entry.delta && cid-entry.delta <= entry.end-entry.start {
			return rune(entry.start + cid - entry.delta)
		}
	}
	return 0
}

func (f12 format12GlyphIndex) ForEach(fn func(rune, GlyphIndex)) {
	for _, entry := range f12.entries {
		for c := entry.start; c <= entry.end && c <= 0x10ffff; c++ {
			if g := GlyphIndex(c - entry.start + entry.delta); g != 0 {
				fn(rune(c), g)
			}
		}
	}
}

// This is the standard character-to-glyph-index mapping subtable for fonts supporting
// Unicode character repertoires that include supplementary-plane characters (U+10000 to
// U+10FFFF).
func makeGlyphIndexFormat12(b binarySegm) (CMapGlyphIndex, error) {
	const headerSize = 16
	if headerSize > b.Size() {
		return nil, errFontFormat("cmap subtable bounds overflow")
	}
	size, _ := b.u32(4)
	grpCount, _ := b.u32(12)
	eLength := 12 * int(grpCount)
	if int(size) > b.Size() || eLength+headerSize > int(size) {
		return nil, errFontFormat("cmap internal structure")
	}
	b = b[headerSize:size]
	// SequentialMapGroup Record:
	// Type     Name            Description
	// uint32   startCharCode   First character code in this group
	// uint32   endCharCode     Last character code in this group
	// uint32   startGlyphID    Glyph index corresponding to the starting character code
	entries := make([]cmapEntry32, grpCount)
	for i := range entries {
		rec := b[i*12:]
		entries[i] = cmapEntry32{
			start: u32(rec),
			end:   u32(rec[4:]),
			delta: u32(rec[8:]),
		}
		if entries[i].end < entries[i].start {
			return nil, errFontFormat("cmap format 12 group")
		}
	}
	return format12GlyphIndex{
		entries: entries,
	}, nil
}
