package ot

import (
	"fmt"
	"sort"

	"golang.org/x/text/encoding/unicode"
)

// Font represents the internal structure of an OpenType font.
// It is used to navigate the tables of a font for glyph resolution and
// subsetting.
//
// A Font is read-only after Parse returns and may be shared between
// goroutines without locking.
type Font struct {
	Header *FontHeader
	Binary []byte // the font's bytes; tables are views into it
	tables map[Tag]Table
	CMap   *CMapTable // CMAP table is mandatory
	Head   *HeadTable
	HHea   *HHeaTable
	HMtx   *HMtxTable
	MaxP   *MaxPTable
	Loca   *LocaTable // nil for bitmap-only fonts
	Glyf   *GlyfTable // nil for bitmap-only fonts
	Color  struct {   // color font tables
		COLR *COLRTable
		CPAL *CPALTable
		CBLC *CBLCTable // carries the parsed bitmap strikes, linked to CBDT
	}
	GSub *GSubTable // optional
}

// FontHeader is a directory of the top-level tables in a font. If the font file
// contains only one font, the table directory will begin at byte 0 of the file.
//
// OpenType fonts that contain TrueType outlines should use the value of 0x00010000
// for the FontType. OpenType fonts containing CFF data (version 1 or 2) should
// use 0x4F54544F ('OTTO', when re-interpreted as a Tag).
type FontHeader struct {
	FontType   uint32
	TableCount uint16
}

// Table returns the font table for a given tag. If a table for a tag cannot
// be found in the font, nil is returned.
//
// For every table contained in the font at least a generic table type is
// available, i.e. no table information will be dropped.
//
//	os2  := otf.Table(ot.T("OS/2"))
//	colr := otf.Table(ot.T("COLR")).Self().AsCOLR()
func (otf *Font) Table(tag Tag) Table {
	if t, ok := otf.tables[tag]; ok {
		return t
	}
	return nil
}

// TableTags returns a list of tags, one for each table contained in the font,
// in ascending order.
func (otf *Font) TableTags() []Tag {
	var tags = make([]Tag, 0, len(otf.tables))
	for tag := range otf.tables {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// NumGlyphs returns the number of glyphs in the font, as stated in table maxp.
func (otf *Font) NumGlyphs() int {
	if otf.MaxP == nil {
		return 0
	}
	return otf.MaxP.NumGlyphs
}

// GlyphIndex is a glyph index in a font.
type GlyphIndex uint16

// NotDef is the glyph index of the 'missing character' glyph.
const NotDef GlyphIndex = 0

// FontName returns the full font name from table name, or the
// family name if no full name is present. Returns "" if neither
// is available in a Unicode encoding.
func (otf *Font) FontName() string {
	t := otf.Table(T("name"))
	if t == nil {
		return ""
	}
	names := t.Self().AsName()
	if names == nil {
		return ""
	}
	if n := names.Get(4); n != "" {
		return n
	}
	return names.Get(1)
}

// --- Tag -------------------------------------------------------------------

// Tag is defined by the spec as:
// Array of four uint8s (length = 32 bits) used to identify a table, design-variation axis,
// script, language system, feature, or baseline
type Tag uint32

// MakeTag creates a Tag from 4 bytes, e.g.,
// If b is shorter or longer, it will be silently extended or cut as appropriate
//
//	MakeTag([]byte("cmap"))
func MakeTag(b []byte) Tag {
	if b == nil {
		b = []byte{0, 0, 0, 0}
	} else if len(b) > 4 {
		b = b[:4]
	} else if len(b) < 4 {
		b = append([]byte{0, 0, 0, 0}[:4-len(b)], b...)
	}
	return Tag(u32(b))
}

// T returns a Tag from a (4-letter) string.
// If t is shorter or longer, it will be silently extended or cut as appropriate
func T(t string) Tag {
	t = (t + "    ")[:4]
	return Tag(u32([]byte(t)))
}

func (t Tag) String() string {
	bytes := []byte{
		byte(t >> 24 & 0xff),
		byte(t >> 16 & 0xff),
		byte(t >> 8 & 0xff),
		byte(t & 0xff),
	}
	return string(bytes)
}

// --- Table -----------------------------------------------------------------

// Table represents one of the various OpenType font tables.
//
// Tables are a strongly typed registry: every table kind needed for emoji
// subsetting has its own Go type (head, hhea, hmtx, maxp, loca, glyf, cmap,
// name, COLR, CPAL, CBLC, CBDT, GSUB). All other tables are kept as generic
// tables, which expose their binary data only.
type Table interface {
	Extent() (uint32, uint32) // offset and byte size within the font's binary data
	Binary() []byte           // the bytes of this table; should be treatet as read-only by clients
	Self() TableSelf          // reference to itself
}

func newTable(tag Tag, b binarySegm, offset, size uint32) *genericTable {
	t := &genericTable{}
	t.tableBase = makeTableBase(tag, b, offset, size)
	t.self = t
	return t
}

type genericTable struct {
	tableBase
}

// tableBase is a common parent for all kinds of OpenType tables.
type tableBase struct {
	data   binarySegm // a table is a slice of font data
	name   Tag        // 4-byte name as an integer
	offset uint32     // from offset
	length uint32     // to offset + length
	self   interface{}
}

func makeTableBase(tag Tag, b binarySegm, offset, size uint32) tableBase {
	return tableBase{
		data:   b,
		name:   tag,
		offset: offset,
		length: size,
	}
}

// Extent returns offset and byte size of this table within the OpenType font.
func (tb *tableBase) Extent() (uint32, uint32) {
	return tb.offset, tb.length
}

// Binary returns the bytes of this table. Should be treatet as read-only by
// clients, as it is a view into the original data.
func (tb *tableBase) Binary() []byte {
	return tb.data
}

func (tb *tableBase) Self() TableSelf {
	return TableSelf{tableBase: tb}
}

// TableSelf is a reference to a table. Its primary use is for converting
// a generic table to a concrete table flavour, and for reproducing the
// name tag of a table.
type TableSelf struct {
	tableBase *tableBase
}

// NameTag returns the 4-letter name of a table.
func (tself TableSelf) NameTag() Tag {
	return tself.tableBase.name
}

func safeSelf(tself TableSelf) interface{} {
	if tself.tableBase == nil || tself.tableBase.self == nil {
		return TableSelf{}
	}
	return tself.tableBase.self
}

// AsCMap returns this table as a cmap table, or nil.
func (tself TableSelf) AsCMap() *CMapTable {
	if k, ok := safeSelf(tself).(*CMapTable); ok {
		return k
	}
	return nil
}

// AsGSub returns this table as a GSUB table, or nil.
func (tself TableSelf) AsGSub() *GSubTable {
	if g, ok := safeSelf(tself).(*GSubTable); ok {
		return g
	}
	return nil
}

// AsLoca returns this table as a loca table, or nil.
func (tself TableSelf) AsLoca() *LocaTable {
	if k, ok := safeSelf(tself).(*LocaTable); ok {
		return k
	}
	return nil
}

// AsGlyf returns this table as a glyf table, or nil.
func (tself TableSelf) AsGlyf() *GlyfTable {
	if k, ok := safeSelf(tself).(*GlyfTable); ok {
		return k
	}
	return nil
}

// AsMaxP returns this table as a maxp table, or nil.
func (tself TableSelf) AsMaxP() *MaxPTable {
	if k, ok := safeSelf(tself).(*MaxPTable); ok {
		return k
	}
	return nil
}

// AsHead returns this table as a head table, or nil.
func (tself TableSelf) AsHead() *HeadTable {
	if k, ok := safeSelf(tself).(*HeadTable); ok {
		return k
	}
	return nil
}

// AsHHea returns this table as a hhea table, or nil.
func (tself TableSelf) AsHHea() *HHeaTable {
	if k, ok := safeSelf(tself).(*HHeaTable); ok {
		return k
	}
	return nil
}

// AsHMtx returns this table as a hmtx table, or nil.
func (tself TableSelf) AsHMtx() *HMtxTable {
	if k, ok := safeSelf(tself).(*HMtxTable); ok {
		return k
	}
	return nil
}

// AsName returns this table as a name table, or nil.
func (tself TableSelf) AsName() *NameTable {
	if k, ok := safeSelf(tself).(*NameTable); ok {
		return k
	}
	return nil
}

// AsCOLR returns this table as a COLR table, or nil.
func (tself TableSelf) AsCOLR() *COLRTable {
	if k, ok := safeSelf(tself).(*COLRTable); ok {
		return k
	}
	return nil
}

// AsCPAL returns this table as a CPAL table, or nil.
func (tself TableSelf) AsCPAL() *CPALTable {
	if k, ok := safeSelf(tself).(*CPALTable); ok {
		return k
	}
	return nil
}

// AsCBLC returns this table as a CBLC table, or nil.
func (tself TableSelf) AsCBLC() *CBLCTable {
	if k, ok := safeSelf(tself).(*CBLCTable); ok {
		return k
	}
	return nil
}

// --- Concrete table implementations ----------------------------------------

// HeadTable gives global information about the font.
// Only a small subset of fields are made public by HeadTable, as they are
// needed for consistency-checks and for subsetting.
type HeadTable struct {
	tableBase
	Flags            uint16 // see https://docs.microsoft.com/en-us/typography/opentype/spec/head
	UnitsPerEm       uint16 // values 16 … 16384 are valid
	IndexToLocFormat uint16 // needed to interpret loca table
}

func newHeadTable(tag Tag, b binarySegm, offset, size uint32) *HeadTable {
	t := &HeadTable{}
	t.tableBase = makeTableBase(tag, b, offset, size)
	t.self = t
	return t
}

// LocaTable stores the offsets to the locations of the glyphs in the font,
// relative to the beginning of the glyph data table.
// By definition, index zero points to the “missing character”, which is the character
// that appears if a character is not found in the font.
type LocaTable struct {
	tableBase
	inx2loc func(t *LocaTable, gid GlyphIndex) uint32 // returns glyph location for glyph gid
	locCnt  int                                       // number of locations
}

// IndexToLocation offsets, indexed by glyph IDs, which provide the location of each
// glyph data block within the 'glyf' table.
func (t *LocaTable) IndexToLocation(gid GlyphIndex) uint32 {
	return t.inx2loc(t, gid)
}

func newLocaTable(tag Tag, b binarySegm, offset, size uint32) *LocaTable {
	t := &LocaTable{}
	t.tableBase = makeTableBase(tag, b, offset, size)
	t.inx2loc = shortLocaVersion // may get changed by font consistency check
	t.locCnt = 0                 // has to be set during consistency check
	t.self = t
	return t
}

// loca has numGlyphs+1 entries; the last one marks the end of the last glyph.
func shortLocaVersion(t *LocaTable, gid GlyphIndex) uint32 {
	if int(gid) >= t.locCnt {
		return 0
	}
	loc, err := t.data.u16(int(gid) * 2)
	if err != nil {
		return 0
	}
	return uint32(loc) * 2
}

func longLocaVersion(t *LocaTable, gid GlyphIndex) uint32 {
	if int(gid) >= t.locCnt {
		return 0
	}
	loc, err := t.data.u32(int(gid) * 4)
	if err != nil {
		return 0
	}
	return loc
}

// MaxPTable establishes the memory requirements for this font.
// The 'maxp' table contains a count for the number of glyphs in the font.
// Whenever this value changes, other tables which depend on it should also be updated.
type MaxPTable struct {
	tableBase
	Version   uint32 // 0x00005000 for CFF fonts, 0x00010000 for TrueType outlines
	NumGlyphs int
}

func newMaxPTable(tag Tag, b binarySegm, offset, size uint32) *MaxPTable {
	t := &MaxPTable{}
	t.tableBase = makeTableBase(tag, b, offset, size)
	t.self = t
	return t
}

// HHeaTable contains information for horizontal layout.
type HHeaTable struct {
	tableBase
	NumberOfHMetrics int
}

func newHHeaTable(tag Tag, b binarySegm, offset, size uint32) *HHeaTable {
	t := &HHeaTable{}
	t.tableBase = makeTableBase(tag, b, offset, size)
	t.self = t
	return t
}

// HMtxTable contains metric information for the horizontal layout each of the glyphs in
// the font. Each element in the contained hMetrics-array has two parts: the advance width
// and left side bearing. The value NumberOfHMetrics is taken from the `hhea` table.
// Glyphs beyond NumberOfHMetrics share the advance width of the last
// entry in the hMetrics array and have their left side bearing stored in a
// trailing array.
type HMtxTable struct {
	tableBase
	NumberOfHMetrics int
}

func newHMtxTable(tag Tag, b binarySegm, offset, size uint32) *HMtxTable {
	t := &HMtxTable{}
	t.tableBase = makeTableBase(tag, b, offset, size)
	t.self = t
	return t
}

// HMetrics returns the advance width and left side bearing of a glyph.
func (t *HMtxTable) HMetrics(g GlyphIndex) (uint16, int16) {
	n := t.NumberOfHMetrics
	if n <= 0 {
		return 0, 0
	}
	if int(g) < n {
		a, _ := t.data.u16(int(g) * 4)
		lsb, _ := t.data.i16(int(g)*4 + 2)
		return a, lsb
	}
	a, _ := t.data.u16((n - 1) * 4)
	lsb, _ := t.data.i16(n*4 + (int(g)-n)*2)
	return a, lsb
}

// NameTable holds the naming records of a font. Only Unicode-encoded
// records (platform 0, or platform 3 encoding 1) are interpreted.
type NameTable struct {
	tableBase
	names map[uint16]string
}

func newNameTable(tag Tag, b binarySegm, offset, size uint32) *NameTable {
	t := &NameTable{names: make(map[uint16]string)}
	t.tableBase = makeTableBase(tag, b, offset, size)
	t.self = t
	return t
}

// Get returns the name string for a name ID, or "".
func (t *NameTable) Get(id uint16) string {
	return t.names[id]
}

func decodeUtf16(str []byte) (string, error) {
	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	decoder := enc.NewDecoder()
	s, err := decoder.Bytes(str)
	if err != nil {
		return "", fmt.Errorf("decoding UTF-16 error: %v", err)
	}
	return string(s), nil
}
