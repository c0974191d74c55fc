package webfont

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/npillmayer/emojifont/core"
)

// Format is a font container format.
type Format int

// Container formats. The zero value is unknown.
const (
	FormatUnknown Format = iota
	FormatSFNT           // plain TrueType/OpenType
	FormatWOFF
	FormatWOFF2
)

func (f Format) String() string {
	switch f {
	case FormatSFNT:
		return "sfnt"
	case FormatWOFF:
		return "woff"
	case FormatWOFF2:
		return "woff2"
	}
	return "unknown"
}

// MIMEType returns the media type of a format, as registered by IANA.
func (f Format) MIMEType() string {
	switch f {
	case FormatSFNT:
		return "font/ttf"
	case FormatWOFF:
		return "font/woff"
	case FormatWOFF2:
		return "font/woff2"
	}
	return "application/octet-stream"
}

// Extension returns the usual file name extension of a format, including
// the dot.
func (f Format) Extension() string {
	switch f {
	case FormatSFNT:
		return ".ttf"
	case FormatWOFF:
		return ".woff"
	case FormatWOFF2:
		return ".woff2"
	}
	return ""
}

// ParseFormat reads a format name as used in configuration files.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "woff2":
		return FormatWOFF2, nil
	case "woff":
		return FormatWOFF, nil
	case "sfnt", "ttf", "otf", "truetype":
		return FormatSFNT, nil
	}
	return FormatUnknown, core.Error(core.EINVALID, "unknown font format %q", s)
}

// Signatures of the container formats.
const (
	sigWOFF  = 0x774f4646 // 'wOFF'
	sigWOFF2 = 0x774f4632 // 'wOF2'
	sigTrue  = 0x74727565 // 'true'
	sigTTCF  = 0x74746366 // 'ttcf'
	flavorTT = 0x00010000
	flavorCF = 0x4f54544f // 'OTTO'
)

// Sniff determines the container format of a font binary from its
// signature.
func Sniff(b []byte) Format {
	if len(b) < 4 {
		return FormatUnknown
	}
	switch binary.BigEndian.Uint32(b) {
	case sigWOFF2:
		return FormatWOFF2
	case sigWOFF:
		return FormatWOFF
	case flavorTT, flavorCF, sigTrue:
		return FormatSFNT
	}
	return FormatUnknown
}

// Asset is a transcoded font, ready for network transport.
type Asset struct {
	Data         []byte
	Format       Format
	SourceLength int // length of the sfnt the asset has been created from
}

// Length is the byte length of the asset.
func (a *Asset) Length() int {
	if a == nil {
		return 0
	}
	return len(a.Data)
}

// Signature returns the first four bytes of the asset as a string, e.g.
// "wOF2".
func (a *Asset) Signature() string {
	if a == nil || len(a.Data) < 4 {
		return ""
	}
	return string(a.Data[:4])
}

func (a *Asset) String() string {
	return fmt.Sprintf("%s[%d bytes]", a.Format, a.Length())
}

// Transcoder converts sfnt fonts into a web font format. The zero value
// produces WOFF2.
type Transcoder struct {
	Format Format
}

// Transcode converts an sfnt font binary. Tables are copied without
// inspecting their content, only the table directory is checked.
func (tc Transcoder) Transcode(sfnt []byte) (*Asset, error) {
	format := tc.Format
	if format == FormatUnknown {
		format = FormatWOFF2
	}
	font, err := readSFNT(sfnt)
	if err != nil {
		tracer().Errorf("cannot transcode font: %v", err)
		return nil, err
	}
	var data []byte
	switch format {
	case FormatWOFF2:
		data, err = encodeWOFF2(font)
	case FormatWOFF:
		data, err = encodeWOFF(font)
	case FormatSFNT:
		data = append([]byte(nil), sfnt...)
	default:
		err = core.Error(core.ETRANSCODE, "cannot transcode to format %s", format)
	}
	if err != nil {
		tracer().Errorf("cannot transcode font: %v", err)
		return nil, err
	}
	asset := &Asset{Data: data, Format: format, SourceLength: len(sfnt)}
	tracer().Infof("transcoded %d bytes of sfnt into %s", len(sfnt), asset)
	return asset, nil
}

// Validate checks the signature and length fields of an asset.
func Validate(asset *Asset) error {
	if asset == nil || len(asset.Data) == 0 {
		return errTranscode("empty asset")
	}
	b := asset.Data
	if f := Sniff(b); f != asset.Format {
		return errTranscode("asset claims format %s, signature says %s", asset.Format, f)
	}
	switch asset.Format {
	case FormatWOFF2:
		h, err := readWOFF2Header(b)
		if err != nil {
			return err
		}
		if len(b)%4 != 0 {
			return errTranscode("WOFF2 length %d not padded", len(b))
		}
		if h.numTables == 0 {
			return errTranscode("WOFF2 without tables")
		}
	case FormatWOFF:
		h, err := readWOFFHeader(b)
		if err != nil {
			return err
		}
		if h.numTables == 0 {
			return errTranscode("WOFF without tables")
		}
	case FormatSFNT:
		_, err := readSFNT(b)
		return err
	default:
		return errTranscode("unknown asset format")
	}
	return nil
}

// Decode converts a web font back into an sfnt binary, reporting the
// format found. Plain sfnt data is returned unchanged.
func Decode(b []byte) ([]byte, Format, error) {
	format := Sniff(b)
	var sfnt []byte
	var err error
	switch format {
	case FormatWOFF2:
		sfnt, err = decodeWOFF2(b)
	case FormatWOFF:
		sfnt, err = decodeWOFF(b)
	case FormatSFNT:
		return b, format, nil
	default:
		if len(b) >= 4 && binary.BigEndian.Uint32(b) == sigTTCF {
			return nil, format, errTranscode("font collections are not supported")
		}
		return nil, format, errTranscode("unknown font format")
	}
	if err != nil {
		tracer().Errorf("cannot decode %s font: %v", format, err)
		return nil, format, err
	}
	tracer().Debugf("decoded %s font of %d bytes into %d bytes of sfnt", format, len(b), len(sfnt))
	return sfnt, format, nil
}

func errTranscode(format string, v ...interface{}) error {
	return core.Error(core.ETRANSCODE, format, v...)
}
