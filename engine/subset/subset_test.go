package subset

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/codepoint"
	"github.com/npillmayer/emojifont/core/font/opentype/ot"
	"github.com/npillmayer/emojifont/engine/closure"
	"github.com/npillmayer/emojifont/engine/glyphing"
	"github.com/npillmayer/emojifont/engine/glyphing/glypher"
	"github.com/npillmayer/emojifont/internal/fonttest"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

func parse(t *testing.T, data []byte) *ot.Font {
	t.Helper()
	otf, err := ot.Parse(data)
	require.NoError(t, err)
	return otf
}

func emojiFont(t *testing.T) (*ot.Font, fonttest.EmojiGlyphs) {
	data, g := fonttest.EmojiFont(t)
	return parse(t, data), g
}

func closed(otf *ot.Font, glyphs ...ot.GlyphIndex) *glyphing.GlyphSet {
	return closure.Close(otf, glyphing.NewGlyphSet(glyphs...))
}

func TestSubsetSingleGlyph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.subset")
	defer teardown()
	//
	otf, g := emojiFont(t)
	res, err := Subset(otf, closed(otf, g.Smile), nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.NumGlyphs)
	assert.Equal(t, map[ot.GlyphIndex]ot.GlyphIndex{0: 0, g.Smile: 1}, res.GlyphMap)
	sub := parse(t, res.Font)
	assert.Equal(t, 2, sub.NumGlyphs())
	assert.Equal(t, ot.GlyphIndex(1), sub.CMap.Lookup(fonttest.Smile))
	assert.Equal(t, ot.NotDef, sub.CMap.Lookup(fonttest.Heart))
	var tags []string
	for _, tag := range res.Tables {
		tags = append(tags, tag.String())
	}
	assert.Equal(t, []string{"OS/2", "cmap", "glyf", "head", "hhea", "hmtx", "loca", "maxp", "name", "post"}, tags)
	assert.Nil(t, sub.Table(ot.T("GPOS")))
	assert.Nil(t, sub.Table(ot.T("kern")))
	assert.Equal(t, "Emoji Test", sub.FontName())
	adv, lsb := sub.HMtx.HMetrics(1)
	assert.Equal(t, uint16(1000), adv)
	assert.Equal(t, int16(100), lsb)
	// the glyph outline is copied unchanged
	oldData, _ := otf.Glyf.GlyphData(g.Smile)
	newData, _ := sub.Glyf.GlyphData(1)
	assert.Equal(t, oldData, newData)
	assert.Equal(t, ot.Checksum(res.Font), uint32(0xB1B0AFBA))
}

func TestSubsetIsAcceptedByXImage(t *testing.T) {
	otf, g := emojiFont(t)
	res, err := Subset(otf, closed(otf, g.Smile, g.Flag, g.Heart), nil, Options{})
	require.NoError(t, err)
	f, err := sfnt.Parse(res.Font)
	require.NoError(t, err)
	assert.Equal(t, res.NumGlyphs, f.NumGlyphs())
	var buf sfnt.Buffer
	gid, err := f.GlyphIndex(&buf, fonttest.Smile)
	require.NoError(t, err)
	assert.Equal(t, sfnt.GlyphIndex(res.GlyphMap[g.Smile]), gid)
}

func TestSubsetFlagKeepsLigatureAndComponents(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.subset")
	defer teardown()
	//
	otf, g := emojiFont(t)
	set := closed(otf, g.RegionalU, g.RegionalS)
	require.True(t, set.Contains(g.Flag))
	res, err := Subset(otf, set, nil, Options{})
	require.NoError(t, err)
	sub := parse(t, res.Font)
	flag := res.GlyphMap[g.Flag]
	comps, err := sub.Glyf.Components(flag)
	require.NoError(t, err)
	assert.Equal(t, []ot.GlyphIndex{res.GlyphMap[g.Stripe], res.GlyphMap[g.Star]}, comps)
	// the rebuilt GSUB still forms the flag
	require.NotNil(t, sub.GSub)
	seq, err := codepoint.Decode(string([]rune{fonttest.RegionalU, fonttest.RegionalS}))
	require.NoError(t, err)
	glyphs, err := glypher.New(sub).Shape(seq)
	require.NoError(t, err)
	assert.Equal(t, []ot.GlyphIndex{flag}, glyphs)
	// rules referencing dropped glyphs are gone
	for _, lookup := range sub.GSub.Lookups {
		assert.Empty(t, lookup.Singles)
		assert.Len(t, lookup.Ligatures, 1)
	}
}

func TestSubsetColorGlyph(t *testing.T) {
	otf, g := emojiFont(t)
	res, err := Subset(otf, closed(otf, g.Heart), nil, Options{})
	require.NoError(t, err)
	sub := parse(t, res.Font)
	require.NotNil(t, sub.Color.COLR)
	require.NotNil(t, sub.Color.CPAL)
	layers := sub.Color.COLR.LayersOf(res.GlyphMap[g.Heart])
	require.Len(t, layers, 2)
	assert.Equal(t, res.GlyphMap[g.HeartLeft], layers[0].Glyph)
	assert.Equal(t, res.GlyphMap[g.HeartRight], layers[1].Glyph)
	assert.Equal(t, uint16(1), layers[1].PaletteIndex)
	assert.Equal(t, otf.Color.CPAL.Binary(), sub.Color.CPAL.Binary())
	// no color glyph retained: no COLR, no CPAL
	res, err = Subset(otf, closed(otf, g.Smile), nil, Options{})
	require.NoError(t, err)
	assert.Nil(t, parse(t, res.Font).Color.COLR)
}

func TestSubsetIsDeterministic(t *testing.T) {
	otf, g := emojiFont(t)
	set := closed(otf, g.Flag, g.Heart, g.Couple, g.Snowman)
	opts := Options{FlattenComposites: true, OptimizePaths: true}
	first, err := Subset(otf, set, nil, opts)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := Subset(otf, set.Clone(), nil, opts)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(first.Font, again.Font), "run %d differs", i)
	}
}

func TestSubsetCodePointFilter(t *testing.T) {
	otf, g := emojiFont(t)
	set := closed(otf, g.Smile, g.Snowman)
	res, err := Subset(otf, set, []rune{fonttest.Smile, fonttest.Heart, fonttest.Smile}, Options{})
	require.NoError(t, err)
	sub := parse(t, res.Font)
	assert.NotEqual(t, ot.NotDef, sub.CMap.Lookup(fonttest.Smile))
	assert.Equal(t, ot.NotDef, sub.CMap.Lookup(fonttest.Snowman), "not requested")
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, CodePointDropped, res.Warnings[0].Kind)
	assert.Equal(t, fonttest.Heart, res.Warnings[0].CodePoint)
}

func TestSubsetHinting(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.subset")
	defer teardown()
	//
	b, g := fonttest.EmojiBuilder()
	otf := parse(t, b.Hinting().MustBuild(t))
	set := closed(otf, g.Smile)
	res, err := Subset(otf, set, nil, Options{PreserveHinting: true})
	require.NoError(t, err)
	sub := parse(t, res.Font)
	for _, tag := range []string{"fpgm", "prep", "cvt "} {
		assert.NotNil(t, sub.Table(ot.T(tag)), tag)
	}
	glyph, err := sub.Glyf.Glyph(1)
	require.NoError(t, err)
	assert.NotEmpty(t, glyph.Instructions)
	//
	res, err = Subset(otf, set, nil, Options{})
	require.NoError(t, err)
	sub = parse(t, res.Font)
	for _, tag := range []string{"fpgm", "prep", "cvt "} {
		assert.Nil(t, sub.Table(ot.T(tag)), tag)
	}
	glyph, err = sub.Glyf.Glyph(1)
	require.NoError(t, err)
	assert.Empty(t, glyph.Instructions)
	assert.Equal(t, 4, len(glyph.Points))
}

func TestSubsetFlattenComposites(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.subset")
	defer teardown()
	//
	otf, g := emojiFont(t)
	res, err := Subset(otf, closed(otf, g.Flag, g.Anchored), nil, Options{FlattenComposites: true})
	require.NoError(t, err)
	sub := parse(t, res.Font)
	flag, err := sub.Glyf.Glyph(res.GlyphMap[g.Flag])
	require.NoError(t, err)
	require.False(t, flag.IsComposite())
	assert.Equal(t, []uint16{3, 8}, flag.EndPts)
	// the star is scaled by 0.5 and moved by (100, 200)
	assert.Equal(t, ot.Point{X: 350, Y: 650, OnCurve: true}, flag.Points[4])
	assert.Equal(t, ot.Point{X: 425, Y: 400, OnCurve: false}, flag.Points[7])
	// point-matched components cannot be flattened
	anchored, err := sub.Glyf.Glyph(res.GlyphMap[g.Anchored])
	require.NoError(t, err)
	assert.True(t, anchored.IsComposite())
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, CompositeKept, res.Warnings[0].Kind)
	assert.Equal(t, g.Anchored, res.Warnings[0].Glyph)
}

func TestSubsetFlattenKeepsCycles(t *testing.T) {
	otf, g := emojiFont(t)
	res, err := Subset(otf, closed(otf, g.CycleA), nil, Options{FlattenComposites: true})
	require.NoError(t, err)
	assert.Len(t, res.Warnings, 2)
	sub := parse(t, res.Font)
	comps, err := sub.Glyf.Components(res.GlyphMap[g.CycleA])
	require.NoError(t, err)
	assert.Equal(t, []ot.GlyphIndex{res.GlyphMap[g.CycleB]}, comps)
}

// subsetWithin runs Subset and fails the test if it does not return in time.
func subsetWithin(t *testing.T, d time.Duration, otf *ot.Font, set *glyphing.GlyphSet) (*Result, error) {
	t.Helper()
	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := Subset(otf, set, nil, Options{})
		done <- outcome{res, err}
	}()
	select {
	case o := <-done:
		return o.res, o.err
	case <-time.After(d):
		t.Fatalf("subsetting did not finish within %v", d)
		return nil, nil
	}
}

func TestSubsetSelfReferencingComposite(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.subset")
	defer teardown()
	//
	b := fonttest.New("Self")
	self := ot.GlyphIndex(b.NumGlyphs())
	b.Composite(fonttest.Offset(self, 0, 0), fonttest.Offset(self, 0, 0),
		fonttest.Offset(self, 0, 0), fonttest.Offset(self, 0, 0))
	b.Map('a', self)
	otf := parse(t, b.MustBuild(t))
	res, err := subsetWithin(t, 5*time.Second, otf, closed(otf, self))
	require.NoError(t, err)
	assert.Equal(t, 2, res.NumGlyphs)
	maxp := parse(t, res.Font).MaxP.Binary()
	assert.Equal(t, uint16(0), binary.BigEndian.Uint16(maxp[10:]), "composite points")
	assert.Equal(t, uint16(4), binary.BigEndian.Uint16(maxp[28:]), "component elements")
	assert.Equal(t, uint16(1), binary.BigEndian.Uint16(maxp[30:]), "component depth")
}

func TestSubsetSharedComponents(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.subset")
	defer teardown()
	//
	b := fonttest.New("Diamond")
	g := b.Box(0, 0, 100, 100)
	for range 24 {
		g = b.Composite(fonttest.Offset(g, 0, 0), fonttest.Offset(g, 10, 10))
	}
	b.Map('a', g)
	otf := parse(t, b.MustBuild(t))
	res, err := subsetWithin(t, 5*time.Second, otf, closed(otf, g))
	require.NoError(t, err)
	assert.Equal(t, 26, res.NumGlyphs)
	maxp := parse(t, res.Font).MaxP.Binary()
	assert.Equal(t, uint16(0xffff), binary.BigEndian.Uint16(maxp[10:]), "composite points saturate")
	assert.Equal(t, uint16(24), binary.BigEndian.Uint16(maxp[30:]), "component depth")
}

func TestSubsetOptimizePaths(t *testing.T) {
	b := fonttest.New("Paths")
	redundant := b.Simple([]uint16{5}, []ot.Point{
		{X: 0, Y: 0, OnCurve: true},
		{X: 0, Y: 500, OnCurve: true}, // collinear
		{X: 0, Y: 1000, OnCurve: true},
		{X: 1000, Y: 1000, OnCurve: true},
		{X: 1000, Y: 0, OnCurve: true},
		{X: 1000, Y: 0, OnCurve: true}, // duplicate
	})
	b.Map('a', redundant)
	otf := parse(t, b.MustBuild(t))
	set := glyphing.NewGlyphSet(redundant)
	res, err := Subset(otf, set, nil, Options{OptimizePaths: true})
	require.NoError(t, err)
	glyph, err := parse(t, res.Font).Glyf.Glyph(1)
	require.NoError(t, err)
	assert.Equal(t, []uint16{3}, glyph.EndPts)
	assert.Equal(t, []ot.Point{
		{X: 0, Y: 0, OnCurve: true},
		{X: 0, Y: 1000, OnCurve: true},
		{X: 1000, Y: 1000, OnCurve: true},
		{X: 1000, Y: 0, OnCurve: true},
	}, glyph.Points)
	res, err = Subset(otf, set, nil, Options{})
	require.NoError(t, err)
	glyph, err = parse(t, res.Font).Glyf.Glyph(1)
	require.NoError(t, err)
	assert.Len(t, glyph.Points, 6)
}

func TestSubsetBitmapFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.subset")
	defer teardown()
	//
	data, g := fonttest.BitmapFont(t)
	otf := parse(t, data)
	res, err := Subset(otf, closed(otf, g.Heart), nil, Options{})
	require.NoError(t, err)
	sub := parse(t, res.Font)
	assert.Nil(t, sub.Glyf)
	require.NotNil(t, sub.Color.CBLC)
	require.Len(t, sub.Color.CBLC.Strikes, 1)
	strike := sub.Color.CBLC.Strikes[0]
	assert.Equal(t, []ot.GlyphIndex{1}, strike.Glyphs())
	old, _ := otf.Color.CBLC.Strikes[0].Glyph(g.Heart)
	bg, ok := strike.Glyph(1)
	require.True(t, ok)
	assert.Equal(t, old.Data, bg.Data)
	assert.Equal(t, uint8(109), strike.PpemY)
}

func TestSubsetConvertsBitmapFormat19(t *testing.T) {
	b, g := fonttest.BitmapBuilder()
	otf := parse(t, b.BitmapFormat19().MustBuild(t))
	res, err := Subset(otf, closed(otf, g.Smile, g.Flag), nil, Options{})
	require.NoError(t, err)
	strike := parse(t, res.Font).Color.CBLC.Strikes[0]
	bg, ok := strike.Glyph(res.GlyphMap[g.Flag])
	require.True(t, ok)
	assert.Equal(t, uint16(ot.BitmapBigMetricsPNG), bg.ImageFormat)
	old, _ := otf.Color.CBLC.Strikes[0].Glyph(g.Flag)
	assert.Equal(t, append(append([]byte(nil), old.BigMetrics...), old.Data...), bg.Data)
}

func TestSubsetRejectsOpenSet(t *testing.T) {
	otf, g := emojiFont(t)
	_, err := Subset(otf, glyphing.NewGlyphSet(g.Flag), nil, Options{})
	require.Error(t, err)
	assert.Equal(t, core.ESUBSET, core.Code(err))
}

func TestSubsetRejectsInvalidInput(t *testing.T) {
	otf, _ := emojiFont(t)
	_, err := Subset(otf, glyphing.NewGlyphSet(ot.GlyphIndex(otf.NumGlyphs())), nil, Options{})
	assert.Equal(t, core.EINVALID, core.Code(err))
	_, err = Subset(nil, glyphing.NewGlyphSet(1), nil, Options{})
	assert.Equal(t, core.EINVALID, core.Code(err))
	b, g := fonttest.EmojiBuilder()
	cff := parse(t, b.Table("CFF ", []byte{1, 0, 4, 4}).MustBuild(t))
	_, err = Subset(cff, glyphing.NewGlyphSet(g.Smile), nil, Options{})
	assert.Equal(t, core.EINVALID, core.Code(err))
}

func TestSubsetGoRegular(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.subset")
	defer teardown()
	//
	otf := parse(t, goregular.TTF)
	a := otf.CMap.Lookup('Ä')
	require.NotEqual(t, ot.NotDef, a)
	set := closed(otf, a)
	res, err := Subset(otf, set, []rune{'Ä'}, Options{FlattenComposites: true, OptimizePaths: true})
	require.NoError(t, err)
	assert.Equal(t, set.Len()+1, res.NumGlyphs)
	assert.Less(t, len(res.Font), len(goregular.TTF)/10)
	f, err := sfnt.Parse(res.Font)
	require.NoError(t, err)
	var buf sfnt.Buffer
	gid, err := f.GlyphIndex(&buf, 'Ä')
	require.NoError(t, err)
	assert.Equal(t, sfnt.GlyphIndex(res.GlyphMap[a]), gid)
}
