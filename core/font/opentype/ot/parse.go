package ot

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Code comment often will cite passage from the
// OpenType specification version 1.8.4;
// see https://docs.microsoft.com/en-us/typography/opentype/spec/.

// ---------------------------------------------------------------------------

// Parse parses an OpenType font from a byte slice.
// An ot.Font needs ongoing access to the fonts byte-data after the Parse function returns.
// Its elements are assumed immutable while the ot.Font remains in use.
func Parse(font []byte) (*Font, error) {
	// https://www.microsoft.com/typography/otspec/otff.htm: Offset Table is 12 bytes.
	r := bytes.NewReader(font)
	h := FontHeader{}
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return nil, errFontFormat("font header")
	}
	tracer().Debugf("header = %v, tag = %x|%s", h, h.FontType, Tag(h.FontType).String())
	if !(h.FontType == 0x4f54544f || // OTTO
		h.FontType == 0x00010000 || // TrueType
		h.FontType == 0x74727565) { // true
		return nil, errFontFormat(fmt.Sprintf("font type not supported: %x", h.FontType))
	}
	otf := &Font{Header: &h, Binary: font, tables: make(map[Tag]Table)}
	src := binarySegm(font)
	// "The Offset Table is followed immediately by the Table Record entries …
	// sorted in ascending order by tag", 16 bytes each.
	buf, err := src.view(12, 16*int(h.TableCount))
	if err != nil {
		return nil, errFontFormat("table record entries")
	}
	for b, prevTag := buf, Tag(0); len(b) > 0; b = b[16:] {
		tag := MakeTag(b)
		if tag < prevTag {
			return nil, errFontFormat("table order")
		}
		prevTag = tag
		off, size := u32(b[8:12]), u32(b[12:16])
		if off&3 != 0 { // ignore checksums, but "all tables must begin on four byte boundries".
			return nil, errFontFormat("invalid table offset")
		}
		data, err := src.view(int(off), int(size))
		if err != nil {
			return nil, errFontFormat(fmt.Sprintf("table %s exceeds font bounds", tag))
		}
		otf.tables[tag], err = parseTable(tag, data, off, size)
		if err != nil {
			return nil, err
		}
	}
	if err := extractEssentials(otf); err != nil {
		return nil, err
	}
	return otf, nil
}

// According to the OpenType spec, the following tables are
// required for the font to function correctly. We relax this a bit,
// as we will copy 'name', 'OS/2' and 'post' unchanged (if present).
var RequiredTables = []string{
	"cmap", "head", "hhea", "hmtx", "maxp",
}

// Consistency check and shortcuts to essential tables.
func extractEssentials(otf *Font) error {
	for _, tag := range RequiredTables {
		if otf.tables[T(tag)] == nil {
			return errFontFormat("missing required table " + tag)
		}
	}
	otf.CMap = otf.tables[T("cmap")].Self().AsCMap()
	otf.Head = otf.tables[T("head")].Self().AsHead()
	otf.HHea = otf.tables[T("hhea")].Self().AsHHea()
	otf.HMtx = otf.tables[T("hmtx")].Self().AsHMtx()
	otf.MaxP = otf.tables[T("maxp")].Self().AsMaxP()
	// Collect and centralize font information:
	// hmtx needs the number of long metrics from hhea,
	// loca needs the offset format from head and the glyph count from maxp.
	otf.HMtx.NumberOfHMetrics = otf.HHea.NumberOfHMetrics
	if otf.HMtx.NumberOfHMetrics > otf.MaxP.NumGlyphs || otf.HMtx.NumberOfHMetrics == 0 {
		return errFontFormat("hhea.numberOfHMetrics out of range")
	}
	if 4*otf.HMtx.NumberOfHMetrics+2*(otf.MaxP.NumGlyphs-otf.HMtx.NumberOfHMetrics) > len(otf.HMtx.data) {
		return errFontFormat("size of hmtx table")
	}
	if lo := otf.Table(T("loca")); lo != nil {
		loca := lo.Self().AsLoca()
		entrySize := 2
		if otf.Head.IndexToLocFormat == 1 {
			loca.inx2loc = longLocaVersion
			entrySize = 4
		}
		loca.locCnt = otf.MaxP.NumGlyphs + 1
		if len(loca.data) < entrySize*loca.locCnt {
			return errFontFormat("size of loca table")
		}
		otf.Loca = loca
	}
	if gl := otf.Table(T("glyf")); gl != nil {
		if otf.Loca == nil {
			return errFontFormat("glyf table without loca table")
		}
		otf.Glyf = gl.Self().AsGlyf()
		otf.Glyf.loca = otf.Loca
	}
	if c := otf.Table(T("COLR")); c != nil {
		otf.Color.COLR = c.Self().AsCOLR()
	}
	if c := otf.Table(T("CPAL")); c != nil {
		otf.Color.CPAL = c.Self().AsCPAL()
	}
	if c := otf.Table(T("CBLC")); c != nil {
		cbdt := otf.Table(T("CBDT"))
		if cbdt == nil {
			return errFontFormat("CBLC table without CBDT table")
		}
		cblc := c.Self().AsCBLC()
		if err := cblc.linkBitmapData(cbdt.Binary(), otf.MaxP.NumGlyphs); err != nil {
			return err
		}
		otf.Color.CBLC = cblc
	}
	if g := otf.Table(T("GSUB")); g != nil {
		otf.GSub = g.Self().AsGSub()
	}
	return nil
}

func parseTable(t Tag, b binarySegm, offset, size uint32) (Table, error) {
	switch t {
	case T("cmap"):
		return parseCMap(t, b, offset, size)
	case T("head"):
		return parseHead(t, b, offset, size)
	case T("glyf"):
		return newGlyfTable(t, b, offset, size), nil
	case T("GSUB"):
		return parseGSub(t, b, offset, size)
	case T("hhea"):
		return parseHHea(t, b, offset, size)
	case T("hmtx"):
		return newHMtxTable(t, b, offset, size), nil
	case T("loca"):
		return newLocaTable(t, b, offset, size), nil
	case T("maxp"):
		return parseMaxP(t, b, offset, size)
	case T("name"):
		return parseName(t, b, offset, size)
	case T("COLR"):
		return parseCOLR(t, b, offset, size)
	case T("CPAL"):
		return parseCPAL(t, b, offset, size)
	case T("CBLC"):
		return parseCBLC(t, b, offset, size)
	}
	tracer().Debugf("font contains table (%s), will not be interpreted", t)
	return newTable(t, b, offset, size), nil
}

// --- Head table ------------------------------------------------------------

func parseHead(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 54 {
		return nil, errFontFormat("size of head table")
	}
	t := newHeadTable(tag, b, offset, size)
	if magic, _ := b.u32(12); magic != 0x5F0F3CF5 {
		return nil, errFontFormat("head table magic number")
	}
	t.Flags, _ = b.u16(16)      // flags
	t.UnitsPerEm, _ = b.u16(18) // units per em
	// IndexToLocFormat is needed to interpret the loca table:
	// 0 for short offsets, 1 for long
	t.IndexToLocFormat, _ = b.u16(50)
	if t.IndexToLocFormat > 1 {
		return nil, errFontFormat("head.indexToLocFormat")
	}
	return t, nil
}

// --- CMap table ------------------------------------------------------------

// This table defines mapping of character codes to a default glyph index. Different
// subtables may be defined that each contain mappings for different character encoding
// schemes. The table header indicates the character encodings for which subtables are
// present.
//
// From the spec.: “If a font includes Unicode subtables for both 16-bit encoding
// (typically, format 4) and also 32-bit encoding (formats 10 or 12), then the
// characters supported by the subtable for 32-bit encoding should be a superset of
// the characters supported by the subtable for 16-bit encoding, and the 32-bit
// encoding should be used by applications.”
func parseCMap(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	n, _ := b.u16(2) // number of sub-tables
	tracer().Debugf("font cmap has %d sub-tables in %d|%d bytes", n, len(b), size)
	t := newCMapTable(tag, b, offset, size)
	const headerSize, entrySize = 4, 8
	if size < headerSize+entrySize*uint32(n) {
		return nil, errFontFormat("size of cmap table")
	}
	var enc encodingRecord
	for i := 0; i < int(n); i++ {
		rec, _ := b.view(headerSize+entrySize*i, entrySize)
		pid, psid := u16(rec), u16(rec[2:])
		width := platformEncodingWidth(pid, psid)
		if width <= enc.width {
			continue
		}
		subtable, err := b.from(int(u32(rec[4:])))
		if err != nil || len(subtable) < 2 {
			tracer().Infof("cmap sub-table cannot be parsed")
			continue
		}
		format := subtable.U16(0)
		tracer().Debugf("cmap table contains subtable with format %d", format)
		if supportedCmapFormat(format, pid, psid) {
			enc.width = width
			enc.format = format
			enc.subtable = subtable
		}
	}
	if enc.width == 0 {
		return nil, errFontFormat("no supported cmap format found")
	}
	var err error
	switch enc.format {
	case 4:
		t.GlyphIndexMap, err = makeGlyphIndexFormat4(enc.subtable)
	case 12:
		t.GlyphIndexMap, err = makeGlyphIndexFormat12(enc.subtable)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

type encodingRecord struct {
	subtable binarySegm
	format   uint16
	width    int // encoding width in bytes
}

// --- MaxP table ------------------------------------------------------------

// This table establishes the memory requirements for this font. Fonts with CFF data
// must use Version 0.5 of this table, specifying only the numGlyphs field. Fonts
// with TrueType outlines must use Version 1.0 of this table, where all data is required.
func parseMaxP(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 6 {
		return nil, errFontFormat("size of maxp table")
	}
	t := newMaxPTable(tag, b, offset, size)
	t.Version, _ = b.u32(0)
	if t.Version == 0x00010000 && size < 32 {
		return nil, errFontFormat("size of maxp table version 1.0")
	}
	n, _ := b.u16(4)
	t.NumGlyphs = int(n)
	if t.NumGlyphs == 0 {
		return nil, errFontFormat("font has no glyphs")
	}
	return t, nil
}

// --- HHea table ------------------------------------------------------------

// This table contains information for horizontal layout.
func parseHHea(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 36 {
		return nil, errFontFormat("size of hhea table")
	}
	t := newHHeaTable(tag, b, offset, size)
	n, _ := b.u16(34)
	t.NumberOfHMetrics = int(n)
	return t, nil
}

// --- Name table ------------------------------------------------------------

// The naming table allows multilingual strings to be associated with the OpenType font.
// We only decode UTF-16 records, with a preference for English (Windows).
func parseName(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	t := newNameTable(tag, b, offset, size)
	count, err1 := b.u16(2)
	strOffset, err2 := b.u16(4)
	if err1 != nil || err2 != nil {
		return nil, errFontFormat("name table header")
	}
	strbuf, err := b.from(int(strOffset))
	if err != nil {
		return nil, errFontFormat("name table string storage")
	}
	for i := 0; i < int(count); i++ {
		rec, err := b.view(6+12*i, 12)
		if err != nil {
			return nil, errFontFormat("name record")
		}
		pltf, enc, lang := u16(rec), u16(rec[2:]), u16(rec[4:])
		if !((pltf == 0 && enc == 3) || (pltf == 3 && enc == 1)) {
			continue
		}
		id, strlen, off := u16(rec[6:]), u16(rec[8:]), u16(rec[10:])
		str, err := strbuf.view(int(off), int(strlen))
		if err != nil {
			tracer().Infof("name record %d exceeds string storage, ignored", id)
			continue
		}
		if _, exists := t.names[id]; exists && !(pltf == 3 && lang == 0x409) {
			continue
		}
		if s, err := decodeUtf16(str); err == nil {
			t.names[id] = s
		}
	}
	return t, nil
}

// --- Subsetting support ----------------------------------------------------

// CheckSubsettable reports an error if a font uses features we cannot
// subset: CFF outlines, COLR version 1 paint graphs, and color formats
// 'sbix' or 'SVG ' without any TrueType or CBDT fallback.
func (otf *Font) CheckSubsettable() error {
	if otf.Header.FontType == 0x4f54544f || otf.Table(T("CFF ")) != nil || otf.Table(T("CFF2")) != nil {
		return errFontFormat("CFF outlines are not supported for subsetting")
	}
	if otf.Color.COLR != nil && otf.Color.COLR.Version != 0 {
		return errFontFormat(fmt.Sprintf("COLR version %d is not supported for subsetting",
			otf.Color.COLR.Version))
	}
	if otf.Color.COLR != nil && otf.Color.CPAL == nil {
		return errFontFormat("COLR table without CPAL table")
	}
	if otf.Glyf == nil && otf.Color.CBLC == nil {
		if otf.Table(T("sbix")) != nil || otf.Table(T("SVG ")) != nil {
			return errFontFormat("sbix/SVG color glyphs are not supported for subsetting")
		}
		return errFontFormat("font has neither glyf nor CBDT glyph data")
	}
	return nil
}
