package webfont

import (
	"encoding/binary"
	"sort"

	"github.com/npillmayer/emojifont/core/font/opentype/ot"
)

// sfntFont is the table directory of an sfnt binary.
type sfntFont struct {
	flavor uint32
	tables []sfntTable // in ascending tag order
}

type sfntTable struct {
	tag      ot.Tag
	checksum uint32
	data     []byte
}

// size is the length of the sfnt binary with all tables padded to four
// bytes, as WOFF and WOFF2 headers expect it.
func (f *sfntFont) size() uint32 {
	size := uint32(12 + 16*len(f.tables))
	for _, t := range f.tables {
		size += uint32(pad4(len(t.data)))
	}
	return size
}

// readSFNT reads the table directory of an sfnt binary. Table records
// have to be sorted by tag and have to point to non-overlapping regions
// within b.
func readSFNT(b []byte) (*sfntFont, error) {
	if len(b) < 12 {
		return nil, errTranscode("sfnt data too short: %d bytes", len(b))
	}
	f := &sfntFont{flavor: binary.BigEndian.Uint32(b)}
	switch f.flavor {
	case flavorTT, flavorCF, sigTrue:
	default:
		return nil, errTranscode("no sfnt font, signature %08x", f.flavor)
	}
	n := int(binary.BigEndian.Uint16(b[4:]))
	if n == 0 {
		return nil, errTranscode("sfnt font has no tables")
	}
	if len(b) < 12+16*n {
		return nil, errTranscode("sfnt table directory of %d tables exceeds data", n)
	}
	type region struct{ start, end uint64 }
	regions := make([]region, 0, n)
	for i := 0; i < n; i++ {
		rec := b[12+16*i:]
		tag := ot.Tag(binary.BigEndian.Uint32(rec))
		offset := uint64(binary.BigEndian.Uint32(rec[8:]))
		length := uint64(binary.BigEndian.Uint32(rec[12:]))
		if offset < uint64(12+16*n) || offset+length > uint64(len(b)) {
			return nil, errTranscode("table %s out of bounds", tag)
		}
		if i > 0 && tag <= f.tables[i-1].tag {
			return nil, errTranscode("sfnt table directory not sorted at table %s", tag)
		}
		f.tables = append(f.tables, sfntTable{
			tag:      tag,
			checksum: binary.BigEndian.Uint32(rec[4:]),
			data:     b[offset : offset+length],
		})
		regions = append(regions, region{offset, offset + length})
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].start < regions[j].start })
	for i := 1; i < len(regions); i++ {
		if regions[i].start < regions[i-1].end {
			return nil, errTranscode("sfnt tables overlap at offset %d", regions[i].start)
		}
	}
	tracer().Debugf("sfnt font with flavor %08x has %d tables", f.flavor, n)
	return f, nil
}

func pad4(n int) int {
	return (n + 3) &^ 3
}
