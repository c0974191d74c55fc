package webfont

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/font/opentype/ot"
)

const (
	woffHeaderSize = 44
	woffEntrySize  = 20
)

type woffHeader struct {
	flavor        uint32
	length        uint32
	numTables     int
	totalSfntSize uint32
}

func readWOFFHeader(b []byte) (woffHeader, error) {
	var h woffHeader
	if len(b) < woffHeaderSize || binary.BigEndian.Uint32(b) != sigWOFF {
		return h, errTranscode("invalid WOFF header")
	}
	h.flavor = binary.BigEndian.Uint32(b[4:])
	h.length = binary.BigEndian.Uint32(b[8:])
	h.numTables = int(binary.BigEndian.Uint16(b[12:]))
	h.totalSfntSize = binary.BigEndian.Uint32(b[16:])
	if int(h.length) != len(b) {
		return h, errTranscode("WOFF length field %d, data has %d bytes", h.length, len(b))
	}
	if len(b) < woffHeaderSize+woffEntrySize*h.numTables {
		return h, errTranscode("WOFF table directory exceeds data")
	}
	return h, nil
}

// encodeWOFF writes a WOFF 1.0 font. Each table is zlib-compressed if this
// makes it smaller, and stored as is otherwise.
func encodeWOFF(f *sfntFont) ([]byte, error) {
	n := len(f.tables)
	out := make([]byte, woffHeaderSize+woffEntrySize*n)
	for i, t := range f.tables {
		data, err := deflate(t.data)
		if err != nil {
			return nil, core.WrapError(err, core.ETRANSCODE, "cannot compress table %s", t.tag)
		}
		if len(data) >= len(t.data) {
			data = t.data
		}
		entry := out[woffHeaderSize+woffEntrySize*i:]
		binary.BigEndian.PutUint32(entry, uint32(t.tag))
		binary.BigEndian.PutUint32(entry[4:], uint32(len(out)))
		binary.BigEndian.PutUint32(entry[8:], uint32(len(data)))
		binary.BigEndian.PutUint32(entry[12:], uint32(len(t.data)))
		binary.BigEndian.PutUint32(entry[16:], t.checksum)
		out = append(out, data...)
		for len(out)%4 != 0 {
			out = append(out, 0)
		}
		tracer().Debugf("WOFF table %s: %d → %d bytes", t.tag, len(t.data), len(data))
	}
	binary.BigEndian.PutUint32(out, sigWOFF)
	binary.BigEndian.PutUint32(out[4:], f.flavor)
	binary.BigEndian.PutUint32(out[8:], uint32(len(out)))
	binary.BigEndian.PutUint16(out[12:], uint16(n))
	binary.BigEndian.PutUint32(out[16:], f.size())
	binary.BigEndian.PutUint16(out[20:], 1) // version 1.0
	return out, nil
}

func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeWOFF(b []byte) ([]byte, error) {
	h, err := readWOFFHeader(b)
	if err != nil {
		return nil, err
	}
	tables := make(map[ot.Tag][]byte, h.numTables)
	for i := 0; i < h.numTables; i++ {
		entry := b[woffHeaderSize+woffEntrySize*i:]
		tag := ot.Tag(binary.BigEndian.Uint32(entry))
		offset := uint64(binary.BigEndian.Uint32(entry[4:]))
		compLength := uint64(binary.BigEndian.Uint32(entry[8:]))
		origLength := uint64(binary.BigEndian.Uint32(entry[12:]))
		if offset+compLength > uint64(len(b)) || compLength > origLength {
			return nil, errTranscode("WOFF table %s out of bounds", tag)
		}
		data := b[offset : offset+compLength]
		if compLength < origLength {
			r, err := zlib.NewReader(bytes.NewReader(data))
			if err != nil {
				return nil, core.WrapError(err, core.ETRANSCODE, "WOFF table %s", tag)
			}
			data, err = io.ReadAll(io.LimitReader(r, int64(origLength)+1))
			r.Close()
			if err != nil {
				return nil, core.WrapError(err, core.ETRANSCODE, "WOFF table %s", tag)
			}
			if uint64(len(data)) != origLength {
				return nil, errTranscode("WOFF table %s inflates to %d bytes, expected %d", tag, len(data), origLength)
			}
		}
		tables[tag] = data
	}
	sfnt, err := ot.Assemble(h.flavor, tables)
	if err != nil {
		return nil, core.WrapError(err, core.ETRANSCODE, "cannot assemble sfnt from WOFF")
	}
	return sfnt, nil
}
