package codepoint

import (
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSingleEmoji(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.codepoint")
	defer teardown()
	//
	seq, err := Decode("😀")
	require.NoError(t, err)
	assert.Equal(t, 1, seq.Len())
	assert.Equal(t, []rune{0x1F600}, seq.Runes())
	assert.Equal(t, []string{"U+1F600"}, seq.Hex())
}

func TestDecodeFlag(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.codepoint")
	defer teardown()
	//
	seq, err := Decode("🇺🇸")
	require.NoError(t, err)
	require.Equal(t, 2, seq.Len())
	assert.Equal(t, rune(0x1F1FA), seq.At(0))
	assert.Equal(t, rune(0x1F1F8), seq.At(1))
	assert.Equal(t, "U+1F1FA U+1F1F8", seq.HexString())
}

func TestHexHasFourDigits(t *testing.T) {
	seq, err := Decode("#️⃣")
	require.NoError(t, err)
	assert.Equal(t, []string{"U+0023", "U+FE0F", "U+20E3"}, seq.Hex())
}

func TestEncodingFormsAgree(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.codepoint")
	defer teardown()
	//
	for _, s := range []string{
		"😀",
		"🇺🇸",
		"👨‍👩‍👧",
		"👍🏽",
		"#️⃣",
		"❤️",
	} {
		utf8seq, err := Decode(s)
		require.NoError(t, err, s)
		runes := []rune(s)
		utf16seq, err := DecodeUTF16(utf16.Encode(runes))
		require.NoError(t, err, s)
		units := make([]uint32, len(runes))
		for i, r := range runes {
			units[i] = uint32(r)
		}
		utf32seq, err := DecodeUTF32(units)
		require.NoError(t, err, s)
		assert.True(t, utf8seq.Equals(utf16seq), "UTF-16 decoding of %q differs", s)
		assert.True(t, utf8seq.Equals(utf32seq), "UTF-32 decoding of %q differs", s)
		assert.Equal(t, len(runes), utf16seq.Len())
	}
}

func TestSurrogatePairYieldsOneScalar(t *testing.T) {
	seq, err := DecodeUTF16([]uint16{0xD83D, 0xDE00})
	require.NoError(t, err)
	assert.Equal(t, []rune{0x1F600}, seq.Runes())
}

func TestDecodeUTF16Bytes(t *testing.T) {
	be := []byte{0xFE, 0xFF, 0xD8, 0x3D, 0xDE, 0x00}
	seq, err := DecodeUTF16Bytes(be, binary.LittleEndian) // BOM wins
	require.NoError(t, err)
	assert.Equal(t, []rune{0x1F600}, seq.Runes())
	le := []byte{0x3D, 0xD8, 0x00, 0xDE}
	seq, err = DecodeUTF16Bytes(le, binary.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, []rune{0x1F600}, seq.Runes())
	_, err = DecodeUTF16Bytes([]byte{0x3D, 0xD8, 0x00}, binary.LittleEndian)
	assert.Error(t, err)
}

func TestInvalidInput(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.codepoint")
	defer teardown()
	//
	_, err := Decode("")
	assert.Equal(t, core.EINVALID, core.Code(err), "empty string")
	_, err = Decode("\xf0\x9f\x98") // truncated 😀
	assert.Equal(t, core.EINVALID, core.Code(err), "truncated UTF-8")
	_, err = Decode("\xed\xa0\xbd") // CESU-8 style surrogate
	assert.Equal(t, core.EINVALID, core.Code(err), "surrogate in UTF-8")
	_, err = Decode("\uFEFF")
	assert.Equal(t, core.EINVALID, core.Code(err), "BOM only")
	_, err = DecodeUTF16([]uint16{0xD83D})
	assert.Equal(t, core.EINVALID, core.Code(err), "unpaired high surrogate")
	_, err = DecodeUTF16([]uint16{0xDE00, 0xD83D})
	assert.Equal(t, core.EINVALID, core.Code(err), "reversed surrogates")
	_, err = DecodeUTF16([]uint16{0xD83D, 0x0041})
	assert.Equal(t, core.EINVALID, core.Code(err), "high surrogate without low")
	_, err = DecodeUTF32([]uint32{0x110000})
	assert.Equal(t, core.EINVALID, core.Code(err), "beyond U+10FFFF")
	_, err = DecodeUTF32([]uint32{0xD800})
	assert.Equal(t, core.EINVALID, core.Code(err), "surrogate as scalar")
	_, err = DecodeUTF32(nil)
	assert.Equal(t, core.EINVALID, core.Code(err), "empty UTF-32")
}

func TestBOMIsStripped(t *testing.T) {
	seq, err := Decode("\uFEFF😀")
	require.NoError(t, err)
	assert.Equal(t, 1, seq.Len())
}

func TestKeyIsNormalized(t *testing.T) {
	composed, err := Decode("\u00e9")
	require.NoError(t, err)
	decomposed, err := Decode("e\u0301")
	require.NoError(t, err)
	assert.False(t, composed.Equals(decomposed))
	assert.Equal(t, composed.Key(), decomposed.Key())
}

func TestSequenceIsImmutable(t *testing.T) {
	seq, err := Decode("😀")
	require.NoError(t, err)
	runes := seq.Runes()
	runes[0] = 'x'
	assert.Equal(t, rune(0x1F600), seq.At(0))
}

func TestInspect(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.codepoint")
	defer teardown()
	//
	seq, _ := Decode("😀")
	assert.Empty(t, Inspect(seq))
	seq, _ = Decode("x😀")
	warnings := Inspect(seq)
	require.NotEmpty(t, warnings)
	assert.Equal(t, NotAnEmoji, warnings[0].Kind)
	assert.Equal(t, 0, warnings[0].Position)
	assert.Equal(t, 'x', warnings[0].Rune)
	last := warnings[len(warnings)-1]
	assert.Equal(t, MultipleClusters, last.Kind)
}
