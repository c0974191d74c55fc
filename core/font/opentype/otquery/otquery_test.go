package otquery

import (
	"testing"

	"github.com/npillmayer/emojifont/core/font/opentype/ot"
	"github.com/npillmayer/emojifont/internal/fonttest"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

// --- Test Suite Preparation ------------------------------------------------

type QueryTestEnviron struct {
	suite.Suite
	emoji  *ot.Font
	glyphs fonttest.EmojiGlyphs
	bitmap *ot.Font
	goreg  *ot.Font
}

// listen for 'go test' command --> run test methods
func TestQueryFunctions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.fonts")
	defer teardown()
	suite.Run(t, new(QueryTestEnviron))
}

// run once, before test suite methods
func (env *QueryTestEnviron) SetupSuite() {
	var data []byte
	var err error
	data, env.glyphs = fonttest.EmojiFont(env.T())
	env.emoji, err = ot.Parse(data)
	env.Require().NoError(err)
	data, _ = fonttest.BitmapFont(env.T())
	env.bitmap, err = ot.Parse(data)
	env.Require().NoError(err)
	env.goreg, err = ot.Parse(goregular.TTF)
	env.Require().NoError(err)
}

// --- Tests -----------------------------------------------------------------

func (env *QueryTestEnviron) TestFontType() {
	env.Equal("TrueType", FontType(env.emoji))
	env.Equal("<empty>", FontType(&ot.Font{}))
}

func (env *QueryTestEnviron) TestNameInfo() {
	names := NameInfo(env.emoji)
	env.Equal("Emoji Test", names["family"])
	env.Equal("Emoji Test", names["fullname"])
	env.NotContains(names, "version")
	names = NameInfo(env.goreg)
	env.Equal("Go", names["family"])
	env.Equal("Regular", names["subfamily"])
}

func (env *QueryTestEnviron) TestLayoutTables() {
	env.Equal([]string{"GPOS", "GSUB"}, LayoutTables(env.emoji))
}

func (env *QueryTestEnviron) TestGlyphFormats() {
	env.Equal([]string{"COLR", "glyf"}, GlyphFormats(env.emoji))
	env.Equal([]string{"CBDT"}, GlyphFormats(env.bitmap))
	env.Equal([]int{109}, BitmapSizes(env.bitmap))
	env.Nil(BitmapSizes(env.emoji))
}

func (env *QueryTestEnviron) TestColorGlyphs() {
	env.Equal(1, ColorGlyphs(env.emoji)) // the heart
	env.Equal(env.bitmap.NumGlyphs()-1, ColorGlyphs(env.bitmap))
}

func (env *QueryTestEnviron) TestFontMetrics() {
	m := FontMetrics(env.emoji)
	env.Equal(sfnt.Units(1000), m.UnitsPerEm)
	env.Equal(sfnt.Units(950), m.Ascent)
	env.Equal(sfnt.Units(-60), m.Descent)
	env.Equal(sfnt.Units(1000), m.MaxAdvance)
	m = FontMetrics(env.goreg)
	env.Equal(sfnt.Units(2048), m.UnitsPerEm)
}

func (env *QueryTestEnviron) TestGlyphMetrics() {
	m, err := GlyphMetrics(env.emoji, env.glyphs.Smile)
	env.Require().NoError(err)
	env.Equal(sfnt.Units(1000), m.Advance)
	env.Equal(sfnt.Units(100), m.LSB)
	env.Equal(sfnt.Units(100), m.RSB)
	env.Equal(sfnt.Units(800), m.BBox.Width())
	env.False(m.BBox.Empty())
	m, err = GlyphMetrics(env.emoji, env.glyphs.Keycap)
	env.Require().NoError(err)
	env.True(m.BBox.Empty())
	m, err = GlyphMetrics(env.bitmap, 1)
	env.Require().NoError(err)
	env.True(m.BBox.Empty())
}
