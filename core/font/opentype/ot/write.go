package ot

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// Flavors of sfnt fonts.
const (
	FlavorTrueType uint32 = 0x00010000
	FlavorCFF      uint32 = 0x4f54544f // 'OTTO'
)

// Assemble builds an sfnt font binary from a set of tables. Tables are
// written in ascending tag order, each starting on a four-byte boundary and
// padded with zeros. Table checksums are computed, and if a 'head' table is
// present its checkSumAdjustment is set accordingly.
//
// Assemble does not modify the table binaries handed in.
func Assemble(flavor uint32, tables map[Tag][]byte) ([]byte, error) {
	if len(tables) == 0 || len(tables) > 0xffff {
		return nil, errFontFormat(fmt.Sprintf("cannot assemble font from %d tables", len(tables)))
	}
	tags := make([]Tag, 0, len(tables))
	size := 12 + 16*len(tables)
	for tag, data := range tables {
		tags = append(tags, tag)
		size += pad4(len(data))
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	out := make([]byte, size)
	searchRange, entrySelector, rangeShift := binSearchParams(len(tags), 16)
	binary.BigEndian.PutUint32(out, flavor)
	binary.BigEndian.PutUint16(out[4:], uint16(len(tags)))
	binary.BigEndian.PutUint16(out[6:], searchRange)
	binary.BigEndian.PutUint16(out[8:], entrySelector)
	binary.BigEndian.PutUint16(out[10:], rangeShift)
	offset := 12 + 16*len(tags)
	headOffset := -1
	for i, tag := range tags {
		data := tables[tag]
		copy(out[offset:], data)
		if tag == T("head") {
			if len(data) < 54 {
				return nil, errFontFormat("size of head table")
			}
			headOffset = offset
			binary.BigEndian.PutUint32(out[offset+8:], 0) // checkSumAdjustment
		}
		rec := out[12+16*i:]
		binary.BigEndian.PutUint32(rec, uint32(tag))
		binary.BigEndian.PutUint32(rec[4:], Checksum(out[offset:offset+len(data)]))
		binary.BigEndian.PutUint32(rec[8:], uint32(offset))
		binary.BigEndian.PutUint32(rec[12:], uint32(len(data)))
		offset += pad4(len(data))
	}
	if headOffset >= 0 {
		adjust := 0xB1B0AFBA - Checksum(out)
		binary.BigEndian.PutUint32(out[headOffset+8:], adjust)
	}
	tracer().Debugf("assembled font with %d tables, %d bytes", len(tags), len(out))
	return out, nil
}

// Checksum computes an OpenType table checksum: the sum of big-endian uint32
// words, with the data zero-padded to a multiple of four bytes.
func Checksum(data []byte) uint32 {
	var sum uint32
	i := 0
	for ; i+4 <= len(data); i += 4 {
		sum += u32(data[i:])
	}
	if i < len(data) {
		var last [4]byte
		copy(last[:], data[i:])
		sum += u32(last[:])
	}
	return sum
}

func pad4(n int) int {
	return (n + 3) &^ 3
}
