package gotext

import (
	"sync"
	"testing"

	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/codepoint"
	"github.com/npillmayer/emojifont/core/font/opentype/ot"
	"github.com/npillmayer/emojifont/internal/fonttest"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func shape(t *testing.T, sh *Shaper, s string) []ot.GlyphIndex {
	seq, err := codepoint.Decode(s)
	require.NoError(t, err)
	glyphs, err := sh.Shape(seq)
	require.NoError(t, err)
	return glyphs
}

func TestGoTextShapeLatin(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.glyphs")
	defer teardown()
	//
	sh, err := New(goregular.TTF)
	require.NoError(t, err)
	glyphs := shape(t, sh, "Hello")
	require.Len(t, glyphs, 5)
	assert.NotContains(t, glyphs, ot.NotDef)
	assert.Equal(t, glyphs[2], glyphs[3], "both l's map to the same glyph")
}

func TestGoTextShapeEmojiLigatures(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.glyphs")
	defer teardown()
	//
	data, g := fonttest.EmojiFont(t)
	sh, err := New(data)
	require.NoError(t, err)
	assert.Equal(t, "gotext", sh.Name())
	assert.Equal(t, []ot.GlyphIndex{g.Flag},
		shape(t, sh, string([]rune{fonttest.RegionalU, fonttest.RegionalS})))
	assert.Equal(t, []ot.GlyphIndex{g.ThumbsUpTone},
		shape(t, sh, string([]rune{fonttest.ThumbsUp, fonttest.SkinTone})))
	assert.Equal(t, []ot.GlyphIndex{g.Smile}, shape(t, sh, string(fonttest.Smile)))
}

func TestGoTextConcurrentUse(t *testing.T) {
	data, g := fonttest.EmojiFont(t)
	sh, err := New(data)
	require.NoError(t, err)
	seq, err := codepoint.Decode(string([]rune{fonttest.RegionalU, fonttest.RegionalS}))
	require.NoError(t, err)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			glyphs, err := sh.Shape(seq)
			assert.NoError(t, err)
			assert.Equal(t, []ot.GlyphIndex{g.Flag}, glyphs)
		}()
	}
	wg.Wait()
}

func TestGoTextRejectsGarbage(t *testing.T) {
	_, err := New([]byte("garbage"))
	require.Error(t, err)
	assert.Equal(t, core.EINVALID, core.Code(err))
}
