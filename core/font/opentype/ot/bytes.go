package ot

import (
	"errors"
)

// Reading bytes from a font's binary representation

var errBufferBounds = errors.New("internal inconsistency: buffer bounds error")

func u16(b []byte) uint16 {
	_ = b[1] // Bounds check hint to compiler
	return uint16(b[0])<<8 | uint16(b[1])<<0
}

func u32(b []byte) uint32 {
	_ = b[3] // Bounds check hint to compiler
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])<<0
}

// binarySegm is a segment of byte data.
// We use it throughout this module to navigate the font's binary data.
type binarySegm []byte

// Size returns the size of the segment in bytes.
func (b binarySegm) Size() int {
	return len(b)
}

// Bytes returns the segment as a byte slice.
func (b binarySegm) Bytes() []byte {
	return b
}

// U16 is a convenience accessor for 16 bit data at byte index i.
// Out-of-bounds access yields 0.
func (b binarySegm) U16(i int) uint16 {
	n, err := b.u16(i)
	if err != nil {
		return 0
	}
	return n
}

// U32 is a convenience accessor for 32 bit data at byte index i.
// Out-of-bounds access yields 0.
func (b binarySegm) U32(i int) uint32 {
	n, err := b.u32(i)
	if err != nil {
		return 0
	}
	return n
}

// view returns n bytes at the given offset.
// The byte segment returned is a sub-slice of b.
func (b binarySegm) view(offset, n int) (binarySegm, error) {
	if offset < 0 || n < 0 || offset+n > len(b) {
		return nil, errBufferBounds
	}
	return b[offset : offset+n], nil
}

// from returns the tail of b, starting at offset.
func (b binarySegm) from(offset int) (binarySegm, error) {
	if offset < 0 || offset > len(b) {
		return nil, errBufferBounds
	}
	return b[offset:], nil
}

// u16 returns the uint16 in b at the relative offset i.
func (b binarySegm) u16(i int) (uint16, error) {
	buf, err := b.view(i, 2)
	if err != nil {
		return 0, err
	}
	return u16(buf), nil
}

// i16 returns the int16 in b at the relative offset i.
func (b binarySegm) i16(i int) (int16, error) {
	n, err := b.u16(i)
	return int16(n), err
}

// u32 returns the uint32 in b at the relative offset i.
func (b binarySegm) u32(i int) (uint32, error) {
	buf, err := b.view(i, 4)
	if err != nil {
		return 0, err
	}
	return u32(buf), nil
}

// glyphs reads n consecutive 16-bit glyph IDs, starting at offset.
func (b binarySegm) glyphs(offset, n int) ([]GlyphIndex, error) {
	buf, err := b.view(offset, 2*n)
	if err != nil {
		return nil, err
	}
	glyphs := make([]GlyphIndex, n)
	for i := range glyphs {
		glyphs[i] = GlyphIndex(u16(buf[2*i:]))
	}
	return glyphs, nil
}

// link16 follows a 16-bit offset stored at position at, relative to base.
// A NULL offset results in an error.
func (b binarySegm) link16(at int, base binarySegm) (binarySegm, error) {
	off, err := b.u16(at)
	if err != nil {
		return nil, err
	}
	if off == 0 {
		return nil, errNullLink
	}
	return base.from(int(off))
}

var errNullLink = errors.New("NULL link in font table")
