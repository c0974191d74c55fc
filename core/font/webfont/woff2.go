package webfont

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/andybalholm/brotli"
	dbrotli "github.com/dsnet/compress/brotli"
	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/font/opentype/ot"
)

const woff2HeaderSize = 48

// Brotli parameters for WOFF2 output.
const (
	brotliQuality = 11
	brotliWindow  = 22
)

// woff2KnownTags are the tags with a 6-bit index in the WOFF2 table
// directory. Index 63 signals an explicit tag.
var woff2KnownTags = [...]string{
	"cmap", "head", "hhea", "hmtx", "maxp", "name", "OS/2", "post",
	"cvt ", "fpgm", "glyf", "loca", "prep", "CFF ", "VORG", "EBDT",
	"EBLC", "gasp", "hdmx", "kern", "LTSH", "PCLT", "VDMX", "vhea",
	"vmtx", "BASE", "GDEF", "GPOS", "GSUB", "EBSC", "JSTF", "MATH",
	"CBDT", "CBLC", "COLR", "CPAL", "SVG ", "sbix", "acnt", "avar",
	"bdat", "bloc", "bsln", "cvar", "fdsc", "feat", "fmtx", "fvar",
	"gvar", "hsty", "just", "lcar", "mort", "morx", "opbd", "prop",
	"trak", "Zapf", "Silf", "Glat", "Gloc", "Feat", "Sill",
}

var woff2TagIndex = func() map[ot.Tag]byte {
	m := make(map[ot.Tag]byte, len(woff2KnownTags))
	for i, t := range woff2KnownTags {
		m[ot.T(t)] = byte(i)
	}
	return m
}()

const woff2ExplicitTag = 63

// nullTransform is the transformation version of glyf and loca which leaves
// the tables untransformed. For all other tables it is 0.
const nullTransform = 3

var (
	tagGlyf = ot.T("glyf")
	tagLoca = ot.T("loca")
	tagHmtx = ot.T("hmtx")
)

type woff2Header struct {
	flavor              uint32
	length              uint32
	numTables           int
	totalSfntSize       uint32
	totalCompressedSize uint32
}

func readWOFF2Header(b []byte) (woff2Header, error) {
	var h woff2Header
	if len(b) < woff2HeaderSize || binary.BigEndian.Uint32(b) != sigWOFF2 {
		return h, errTranscode("invalid WOFF2 header")
	}
	h.flavor = binary.BigEndian.Uint32(b[4:])
	h.length = binary.BigEndian.Uint32(b[8:])
	h.numTables = int(binary.BigEndian.Uint16(b[12:]))
	h.totalSfntSize = binary.BigEndian.Uint32(b[16:])
	h.totalCompressedSize = binary.BigEndian.Uint32(b[20:])
	if h.flavor == sigTTCF {
		return h, errTranscode("WOFF2 font collections are not supported")
	}
	if int(h.length) != len(b) {
		return h, errTranscode("WOFF2 length field %d, data has %d bytes", h.length, len(b))
	}
	if uint64(woff2HeaderSize)+uint64(h.totalCompressedSize) > uint64(len(b)) {
		return h, errTranscode("WOFF2 compressed size %d exceeds data", h.totalCompressedSize)
	}
	return h, nil
}

// woff2Order returns the tables in directory order: ascending tags, with
// loca moved directly behind glyf.
func woff2Order(f *sfntFont) []sfntTable {
	order := make([]sfntTable, 0, len(f.tables))
	var loca *sfntTable
	for i, t := range f.tables {
		if t.tag == tagLoca {
			loca = &f.tables[i]
		}
	}
	for _, t := range f.tables {
		switch t.tag {
		case tagLoca:
			if !hasTable(f, tagGlyf) {
				order = append(order, t)
			}
		case tagGlyf:
			order = append(order, t)
			if loca != nil {
				order = append(order, *loca)
			}
		default:
			order = append(order, t)
		}
	}
	return order
}

func hasTable(f *sfntFont, tag ot.Tag) bool {
	for _, t := range f.tables {
		if t.tag == tag {
			return true
		}
	}
	return false
}

// encodeWOFF2 writes a WOFF2 font: header, table directory and a single
// brotli stream holding all tables back to back.
func encodeWOFF2(f *sfntFont) ([]byte, error) {
	tables := woff2Order(f)
	var dir, stream []byte
	for _, t := range tables {
		var flags byte = woff2ExplicitTag
		if inx, ok := woff2TagIndex[t.tag]; ok {
			flags = inx
		}
		if t.tag == tagGlyf || t.tag == tagLoca {
			flags |= nullTransform << 6
		}
		dir = append(dir, flags)
		if flags&0x3f == woff2ExplicitTag {
			dir = binary.BigEndian.AppendUint32(dir, uint32(t.tag))
		}
		dir = appendUIntBase128(dir, uint32(len(t.data)))
		stream = append(stream, t.data...)
	}
	var buf bytes.Buffer
	w := brotli.NewWriterOptions(&buf, brotli.WriterOptions{
		Quality: brotliQuality,
		LGWin:   brotliWindow,
	})
	if _, err := w.Write(stream); err != nil {
		return nil, core.WrapError(err, core.ETRANSCODE, "brotli compression failed")
	}
	if err := w.Close(); err != nil {
		return nil, core.WrapError(err, core.ETRANSCODE, "brotli compression failed")
	}
	compressed := buf.Bytes()
	out := make([]byte, woff2HeaderSize, woff2HeaderSize+len(dir)+len(compressed)+3)
	out = append(out, dir...)
	out = append(out, compressed...)
	for len(out)%4 != 0 {
		out = append(out, 0)
	}
	binary.BigEndian.PutUint32(out, sigWOFF2)
	binary.BigEndian.PutUint32(out[4:], f.flavor)
	binary.BigEndian.PutUint32(out[8:], uint32(len(out)))
	binary.BigEndian.PutUint16(out[12:], uint16(len(tables)))
	binary.BigEndian.PutUint32(out[16:], f.size())
	binary.BigEndian.PutUint32(out[20:], uint32(len(compressed)))
	binary.BigEndian.PutUint16(out[24:], 1) // version 1.0
	tracer().Debugf("WOFF2 brotli stream: %d → %d bytes", len(stream), len(compressed))
	return out, nil
}

type woff2Entry struct {
	tag       ot.Tag
	transform byte
	length    uint32 // transformLength if transformed, origLength otherwise
}

func decodeWOFF2(b []byte) ([]byte, error) {
	h, err := readWOFF2Header(b)
	if err != nil {
		return nil, err
	}
	entries := make([]woff2Entry, 0, h.numTables)
	pos := woff2HeaderSize
	for i := 0; i < h.numTables; i++ {
		if pos >= len(b) {
			return nil, errTranscode("WOFF2 table directory exceeds data")
		}
		flags := b[pos]
		pos++
		e := woff2Entry{transform: flags >> 6}
		if inx := flags & 0x3f; inx == woff2ExplicitTag {
			if pos+4 > len(b) {
				return nil, errTranscode("WOFF2 table directory exceeds data")
			}
			e.tag = ot.Tag(binary.BigEndian.Uint32(b[pos:]))
			pos += 4
		} else if int(inx) < len(woff2KnownTags) {
			e.tag = ot.T(woff2KnownTags[inx])
		} else {
			return nil, errTranscode("WOFF2 table directory has invalid tag index %d", inx)
		}
		var n int
		if e.length, n, err = readUIntBase128(b[pos:]); err != nil {
			return nil, err
		}
		pos += n
		if transformed(e) {
			if e.tag != tagGlyf && e.tag != tagLoca && e.tag != tagHmtx {
				return nil, errTranscode("WOFF2 table %s has unknown transform %d", e.tag, e.transform)
			}
			return nil, errTranscode("transformed WOFF2 table %s is not supported", e.tag)
		}
		entries = append(entries, e)
	}
	if uint64(pos)+uint64(h.totalCompressedSize) > uint64(len(b)) {
		return nil, errTranscode("WOFF2 compressed data exceeds data")
	}
	r, err := dbrotli.NewReader(bytes.NewReader(b[pos:pos+int(h.totalCompressedSize)]), nil)
	if err != nil {
		return nil, core.WrapError(err, core.ETRANSCODE, "WOFF2 brotli stream")
	}
	defer r.Close()
	stream, err := io.ReadAll(io.LimitReader(r, int64(h.totalSfntSize)+1))
	if err != nil {
		return nil, core.WrapError(err, core.ETRANSCODE, "WOFF2 brotli stream")
	}
	tables := make(map[ot.Tag][]byte, len(entries))
	var offset uint64
	for _, e := range entries {
		end := offset + uint64(e.length)
		if end > uint64(len(stream)) {
			return nil, errTranscode("WOFF2 table %s exceeds decompressed data", e.tag)
		}
		tables[e.tag] = stream[offset:end]
		offset = end
	}
	sfnt, err := ot.Assemble(h.flavor, tables)
	if err != nil {
		return nil, core.WrapError(err, core.ETRANSCODE, "cannot assemble sfnt from WOFF2")
	}
	return sfnt, nil
}

func transformed(e woff2Entry) bool {
	if e.tag == tagGlyf || e.tag == tagLoca {
		return e.transform != nullTransform
	}
	return e.transform != 0
}

// appendUIntBase128 appends the variable-length encoding of WOFF2: big
// endian groups of 7 bits, the high bit flagging continuation.
func appendUIntBase128(b []byte, v uint32) []byte {
	var tmp [5]byte
	i := len(tmp) - 1
	tmp[i] = byte(v & 0x7f)
	for v >>= 7; v > 0; v >>= 7 {
		i--
		tmp[i] = byte(v&0x7f) | 0x80
	}
	return append(b, tmp[i:]...)
}

func readUIntBase128(b []byte) (uint32, int, error) {
	var v uint32
	for i := 0; i < 5 && i < len(b); i++ {
		if i == 0 && b[0] == 0x80 {
			return 0, 0, errTranscode("UIntBase128 with leading zeros")
		}
		if v&0xfe000000 != 0 {
			return 0, 0, errTranscode("UIntBase128 overflow")
		}
		v = v<<7 | uint32(b[i]&0x7f)
		if b[i]&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, errTranscode("UIntBase128 exceeds 5 bytes")
}
