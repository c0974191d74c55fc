package harfbuzz

import (
	"testing"

	"github.com/npillmayer/emojifont/core/codepoint"
	"github.com/npillmayer/emojifont/internal/fonttest"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapersUseSeparateFonts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.glyphs")
	defer teardown()
	//
	data, g := fonttest.EmojiFont(t)
	sh, err := New(data)
	require.NoError(t, err)
	f1, err := sh.acquire()
	require.NoError(t, err)
	f2, err := sh.acquire()
	require.NoError(t, err)
	assert.NotSame(t, f1, f2)
	// both fonts are held, yet shaping proceeds with a third one
	seq, err := codepoint.Decode(string([]rune{fonttest.RegionalU, fonttest.RegionalS}))
	require.NoError(t, err)
	glyphs, err := sh.Shape(seq)
	require.NoError(t, err)
	require.Len(t, glyphs, 1)
	assert.Equal(t, g.Flag, glyphs[0])
	sh.fonts.Put(f1)
	sh.fonts.Put(f2)
}
