package glyphing

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/codepoint"
	"github.com/npillmayer/emojifont/core/font/opentype/ot"
	"github.com/npillmayer/emojifont/internal/fonttest"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emojiFont(t *testing.T) (*ot.Font, fonttest.EmojiGlyphs) {
	data, g := fonttest.EmojiFont(t)
	otf, err := ot.Parse(data)
	require.NoError(t, err)
	return otf, g
}

func sequence(t *testing.T, runes ...rune) codepoint.EmojiSequence {
	seq, err := codepoint.Decode(string(runes))
	require.NoError(t, err)
	return seq
}

func TestResolveSingleCodePoint(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.glyphs")
	defer teardown()
	//
	otf, g := emojiFont(t)
	noShaping := ShaperFunc(func(codepoint.EmojiSequence) ([]ot.GlyphIndex, error) {
		t.Errorf("shaper called for single code-point")
		return nil, nil
	})
	res, err := Resolve(otf, sequence(t, fonttest.Smile), noShaping)
	require.NoError(t, err)
	assert.Equal(t, []ot.GlyphIndex{g.Smile}, res.Glyphs.Glyphs())
	assert.Empty(t, res.Warnings)
	assert.False(t, res.ViaShaping())
	assert.Equal(t, []string{"U+1F600"}, res.CodePoints)
}

func TestResolveAddsShapedGlyphs(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.glyphs")
	defer teardown()
	//
	otf, g := emojiFont(t)
	shaper := ShaperFunc(func(seq codepoint.EmojiSequence) ([]ot.GlyphIndex, error) {
		return []ot.GlyphIndex{g.Flag}, nil
	})
	res, err := Resolve(otf, sequence(t, fonttest.RegionalU, fonttest.RegionalS), shaper)
	require.NoError(t, err)
	want := []ot.GlyphIndex{g.RegionalU, g.RegionalS, g.Flag}
	if diff := cmp.Diff(want, res.Glyphs.Glyphs()); diff != "" {
		t.Errorf("resolved glyphs differ (-want +got):\n%s", diff)
	}
	assert.Equal(t, []ot.GlyphIndex{g.Flag}, res.Shaped.Glyphs())
	assert.Equal(t, 2, res.Direct.Len())
	assert.True(t, res.ViaShaping())
}

func TestResolveViaShapingOnly(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.glyphs")
	defer teardown()
	//
	const regionalD, regionalE = '\U0001F1E9', '\U0001F1EA'
	b := fonttest.New("Shaping Only")
	d, e := b.Box(0, 0, 500, 500), b.Box(500, 0, 1000, 500)
	flag := b.Box(0, 0, 1000, 700)
	b.Ligature(flag, d, e)
	b.Map('a', b.Box(100, 0, 900, 700))
	otf, err := ot.Parse(b.MustBuild(t))
	require.NoError(t, err)
	shaper := ShaperFunc(func(seq codepoint.EmojiSequence) ([]ot.GlyphIndex, error) {
		assert.Equal(t, []rune{regionalD, regionalE}, seq.Runes())
		return []ot.GlyphIndex{flag}, nil
	})
	res, err := Resolve(otf, sequence(t, regionalD, regionalE), shaper)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Direct.Len())
	assert.Equal(t, []ot.GlyphIndex{flag}, res.Shaped.Glyphs())
	assert.Equal(t, []ot.GlyphIndex{flag}, res.Glyphs.Glyphs())
	assert.True(t, res.ViaShaping())
	assert.Equal(t, []rune{regionalD, regionalE}, res.Missing())
}

func TestResolveWarnsForMissingCodePoint(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.glyphs")
	defer teardown()
	//
	otf, g := emojiFont(t)
	const unicorn = '\U0001F984'
	res, err := Resolve(otf, sequence(t, fonttest.Smile, unicorn), nil)
	require.NoError(t, err)
	assert.Equal(t, []ot.GlyphIndex{g.Smile}, res.Glyphs.Glyphs())
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, GlyphNotFound, res.Warnings[0].Kind)
	assert.Equal(t, core.EMISSING, core.Code(res.Warnings[0].Err))
	assert.Equal(t, []rune{unicorn}, res.Missing())
}

func TestResolveNoGlyphs(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.glyphs")
	defer teardown()
	//
	otf, _ := emojiFont(t)
	res, err := Resolve(otf, sequence(t, '\U0001F984', '\U0001F98B'), nil)
	require.Error(t, err)
	assert.Equal(t, core.ENOGLYPHS, core.Code(err))
	assert.Contains(t, err.Error(), "U+1F984 U+1F98B")
	require.NotNil(t, res)
	assert.Len(t, res.Missing(), 2)
}

func TestResolveShaperErrorIsWarning(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.glyphs")
	defer teardown()
	//
	otf, g := emojiFont(t)
	failing := ShaperFunc(func(codepoint.EmojiSequence) ([]ot.GlyphIndex, error) {
		return nil, errors.New("shaping broken")
	})
	res, err := Resolve(otf, sequence(t, fonttest.Man, fonttest.ZWJ, fonttest.Woman), failing)
	require.NoError(t, err)
	assert.True(t, res.Glyphs.Contains(g.Man))
	assert.True(t, res.Glyphs.Contains(g.Woman))
	kinds := []WarningKind{}
	for _, w := range res.Warnings {
		kinds = append(kinds, w.Kind)
	}
	assert.Equal(t, []WarningKind{GlyphNotFound, ShapingFailed}, kinds) // ZWJ is unmapped
}

func TestResolveIgnoresInvalidShaperOutput(t *testing.T) {
	otf, g := emojiFont(t)
	shaper := ShaperFunc(func(codepoint.EmojiSequence) ([]ot.GlyphIndex, error) {
		return []ot.GlyphIndex{ot.NotDef, g.Couple, 9999}, nil
	})
	res, err := Resolve(otf, sequence(t, fonttest.Man, fonttest.Woman), shaper)
	require.NoError(t, err)
	assert.Equal(t, []ot.GlyphIndex{g.Man, g.Woman, g.Couple}, res.Glyphs.Glyphs())
	assert.False(t, res.Glyphs.Contains(ot.NotDef))
}

func TestResolveInvalidArguments(t *testing.T) {
	otf, _ := emojiFont(t)
	_, err := Resolve(nil, sequence(t, fonttest.Smile), nil)
	assert.Equal(t, core.EINVALID, core.Code(err))
	_, err = Resolve(otf, codepoint.EmojiSequence{}, nil)
	assert.Equal(t, core.EINVALID, core.Code(err))
}

func TestGlyphSet(t *testing.T) {
	gs := NewGlyphSet(5, 3, 5, 1)
	assert.Equal(t, 3, gs.Len())
	assert.Equal(t, []ot.GlyphIndex{1, 3, 5}, gs.Glyphs())
	assert.Equal(t, 1, gs.Add(3, 4))
	assert.Equal(t, ot.GlyphIndex(5), gs.Max())
	assert.Equal(t, "{1 3 4 5}", gs.String())
	c := gs.Clone()
	c.Add(7)
	assert.False(t, gs.Contains(7))
	assert.True(t, gs.IsSubsetOf(c))
	assert.False(t, c.IsSubsetOf(gs))
	assert.True(t, NewGlyphSet(1, 3, 4, 5).Equals(gs))
	var empty *GlyphSet
	assert.Equal(t, 0, empty.Len())
	assert.False(t, empty.Contains(1))
	assert.Equal(t, ot.GlyphIndex(0), NewGlyphSet().Max())
}

func TestDefaultIgnorables(t *testing.T) {
	for _, r := range []rune{fonttest.ZWJ, fonttest.VS16, 0xFE0E, 0x200C, 0xE0101} {
		assert.True(t, IsDefaultIgnorable(r), "%U", r)
	}
	for _, r := range []rune{fonttest.Smile, fonttest.Keycap, 'a', 0xFEFF} {
		assert.False(t, IsDefaultIgnorable(r), "%U", r)
	}
}
