package glypher

import (
	"sync"
	"testing"

	"github.com/npillmayer/emojifont/core/codepoint"
	"github.com/npillmayer/emojifont/core/font/opentype/ot"
	"github.com/npillmayer/emojifont/engine/glyphing"
	"github.com/npillmayer/emojifont/internal/fonttest"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shaperForEmojiFont(t *testing.T) (*Shaper, *ot.Font, fonttest.EmojiGlyphs) {
	data, g := fonttest.EmojiFont(t)
	otf, err := ot.Parse(data)
	require.NoError(t, err)
	return New(otf), otf, g
}

func shape(t *testing.T, sh *Shaper, runes ...rune) []ot.GlyphIndex {
	seq, err := codepoint.Decode(string(runes))
	require.NoError(t, err)
	glyphs, err := sh.Shape(seq)
	require.NoError(t, err)
	return glyphs
}

func TestGlypherLigatures(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.glyphs")
	defer teardown()
	//
	sh, _, g := shaperForEmojiFont(t)
	assert.Equal(t, "glypher", sh.Name())
	assert.Equal(t, []ot.GlyphIndex{g.Flag},
		shape(t, sh, fonttest.RegionalU, fonttest.RegionalS), "flag")
	assert.Equal(t, []ot.GlyphIndex{g.ThumbsUpTone},
		shape(t, sh, fonttest.ThumbsUp, fonttest.SkinTone), "skin tone")
	assert.Equal(t, []ot.GlyphIndex{g.Couple},
		shape(t, sh, fonttest.Man, fonttest.ZWJ, fonttest.Woman), "ZWJ sequence")
	assert.Equal(t, []ot.GlyphIndex{g.HashKeycap},
		shape(t, sh, fonttest.Hash, fonttest.VS16, fonttest.Keycap), "keycap")
}

func TestGlypherSingleSubstitution(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.glyphs")
	defer teardown()
	//
	sh, _, g := shaperForEmojiFont(t)
	assert.Equal(t, []ot.GlyphIndex{g.SnowmanAlt, g.Smile},
		shape(t, sh, fonttest.Snowman, fonttest.Smile))
}

func TestGlypherUnmapped(t *testing.T) {
	sh, _, g := shaperForEmojiFont(t)
	// a lone regional indicator followed by an unknown code-point
	assert.Equal(t, []ot.GlyphIndex{g.RegionalU, ot.NotDef},
		shape(t, sh, fonttest.RegionalU, '\U0001F984'))
	// reversed flag components do not form a ligature
	assert.Equal(t, []ot.GlyphIndex{g.RegionalS, g.RegionalU},
		shape(t, sh, fonttest.RegionalS, fonttest.RegionalU))
}

func TestGlypherWithoutGSUB(t *testing.T) {
	b := fonttest.New("No GSUB")
	smile := b.Box(0, 0, 100, 100)
	b.Map(fonttest.Smile, smile)
	otf, err := ot.Parse(b.MustBuild(t))
	require.NoError(t, err)
	require.Nil(t, otf.GSub)
	sh := New(otf)
	assert.Equal(t, []ot.GlyphIndex{smile, smile}, shape(t, sh, fonttest.Smile, fonttest.Smile))
}

func TestGlypherResolvesFlag(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.glyphs")
	defer teardown()
	//
	sh, otf, g := shaperForEmojiFont(t)
	seq, err := codepoint.Decode(string([]rune{fonttest.RegionalU, fonttest.RegionalS}))
	require.NoError(t, err)
	res, err := glyphing.Resolve(otf, seq, sh)
	require.NoError(t, err)
	assert.Equal(t, []ot.GlyphIndex{g.Flag}, res.Shaped.Glyphs())
}

func TestGlypherConcurrentUse(t *testing.T) {
	sh, _, g := shaperForEmojiFont(t)
	seq, err := codepoint.Decode(string([]rune{fonttest.Man, fonttest.ZWJ, fonttest.Woman}))
	require.NoError(t, err)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			glyphs, err := sh.Shape(seq)
			assert.NoError(t, err)
			assert.Equal(t, []ot.GlyphIndex{g.Couple}, glyphs)
		}()
	}
	wg.Wait()
}
