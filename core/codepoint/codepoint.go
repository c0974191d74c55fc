package codepoint

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/npillmayer/emojifont/core"
	"golang.org/x/text/unicode/norm"
)

// EmojiSequence is an immutable sequence of Unicode scalar values, as
// decoded from an emoji string. The zero value is an empty sequence and is
// never returned by the decoding functions.
type EmojiSequence struct {
	runes []rune
}

// Runes returns a copy of the scalar values of s.
func (s EmojiSequence) Runes() []rune {
	return append([]rune(nil), s.runes...)
}

// Len is the number of scalar values in s.
func (s EmojiSequence) Len() int {
	return len(s.runes)
}

// At returns the i-th scalar value.
func (s EmojiSequence) At(i int) rune {
	return s.runes[i]
}

// String returns s as an UTF-8 string.
func (s EmojiSequence) String() string {
	return string(s.runes)
}

// Hex returns the scalar values of s in U+XXXX notation.
func (s EmojiSequence) Hex() []string {
	hex := make([]string, len(s.runes))
	for i, r := range s.runes {
		hex[i] = fmt.Sprintf("%U", r)
	}
	return hex
}

// HexString returns the scalar values of s in U+XXXX notation, separated
// by blanks.
func (s EmojiSequence) HexString() string {
	return strings.Join(s.Hex(), " ")
}

// Key returns the NFC-normalized form of s. Sequences with equal keys
// render identically and may share cached results.
func (s EmojiSequence) Key() string {
	return norm.NFC.String(string(s.runes))
}

// Equals is true if s and other consist of the same scalar values.
func (s EmojiSequence) Equals(other EmojiSequence) bool {
	if len(s.runes) != len(other.runes) {
		return false
	}
	for i, r := range s.runes {
		if other.runes[i] != r {
			return false
		}
	}
	return true
}

const bom = '\uFEFF'

func errInvalid(format string, v ...interface{}) error {
	err := core.Error(core.EINVALID, format, v...)
	tracer().Infof("%v", err)
	return err
}

// Decode decodes an UTF-8 string.
func Decode(s string) (EmojiSequence, error) {
	if s == "" {
		return EmojiSequence{}, errInvalid("empty emoji string")
	}
	runes := make([]rune, 0, utf8.RuneCountInString(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			return EmojiSequence{}, errInvalid("invalid UTF-8 at byte %d of emoji string", i)
		}
		runes = append(runes, r)
		i += size
	}
	return makeSequence(runes)
}

// DecodeUTF16 decodes a sequence of UTF-16 code units. Surrogate pairs are
// combined into one scalar value; unpaired surrogates are an error.
func DecodeUTF16(units []uint16) (EmojiSequence, error) {
	runes := make([]rune, 0, len(units))
	for i := 0; i < len(units); i++ {
		u := rune(units[i])
		if !utf16.IsSurrogate(u) {
			runes = append(runes, u)
			continue
		}
		if u >= 0xDC00 || i+1 == len(units) {
			return EmojiSequence{}, errInvalid("unpaired surrogate %#04x at position %d", u, i)
		}
		r := utf16.DecodeRune(u, rune(units[i+1]))
		if r == utf8.RuneError {
			return EmojiSequence{}, errInvalid("unpaired surrogate %#04x at position %d", u, i)
		}
		runes = append(runes, r)
		i++
	}
	return makeSequence(runes)
}

// DecodeUTF16Bytes decodes UTF-16 encoded bytes with the given byte order.
// A leading byte order mark overrides order.
func DecodeUTF16Bytes(b []byte, order binary.ByteOrder) (EmojiSequence, error) {
	if len(b)%2 != 0 {
		return EmojiSequence{}, errInvalid("odd number of bytes for UTF-16 input")
	}
	if len(b) >= 2 {
		switch {
		case b[0] == 0xFE && b[1] == 0xFF:
			order, b = binary.BigEndian, b[2:]
		case b[0] == 0xFF && b[1] == 0xFE:
			order, b = binary.LittleEndian, b[2:]
		}
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = order.Uint16(b[2*i:])
	}
	return DecodeUTF16(units)
}

// DecodeUTF32 decodes a sequence of UTF-32 code units.
func DecodeUTF32(units []uint32) (EmojiSequence, error) {
	runes := make([]rune, len(units))
	for i, u := range units {
		runes[i] = rune(u)
		if u > utf8.MaxRune {
			return EmojiSequence{}, errInvalid("code unit %#x at position %d exceeds Unicode range", u, i)
		}
	}
	return makeSequence(runes)
}

// makeSequence checks scalar values and strips a leading byte order mark.
func makeSequence(runes []rune) (EmojiSequence, error) {
	if len(runes) > 0 && runes[0] == bom {
		runes = runes[1:]
	}
	if len(runes) == 0 {
		return EmojiSequence{}, errInvalid("empty emoji string")
	}
	for i, r := range runes {
		if utf16.IsSurrogate(r) {
			return EmojiSequence{}, errInvalid("surrogate code point %U at position %d", r, i)
		}
		if !utf8.ValidRune(r) {
			return EmojiSequence{}, errInvalid("invalid code point %#x at position %d", r, i)
		}
	}
	seq := EmojiSequence{runes: runes}
	tracer().Debugf("decoded emoji sequence %s", seq.HexString())
	return seq, nil
}
