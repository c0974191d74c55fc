package fonttest

import (
	"testing"

	"github.com/npillmayer/emojifont/core/font/opentype/ot"
)

// Code-points mapped by the emoji test font.
const (
	Smile      = '\U0001F600' // 😀
	RegionalU  = '\U0001F1FA' // regional indicator U
	RegionalS  = '\U0001F1F8' // regional indicator S
	Heart      = '\u2764'     // ❤
	ThumbsUp   = '\U0001F44D' // 👍
	SkinTone   = '\U0001F3FD' // medium skin tone modifier
	Man        = '\U0001F468' // 👨
	Woman      = '\U0001F469' // 👩
	Hash       = '#'
	Keycap     = '\u20E3' // combining enclosing keycap
	Snowman    = '\u2603' // ☃
	CycleStart = '\uE000' // private use, maps to a cyclic composite
	Anchored   = '\uE001' // private use, maps to a point-matched composite
	ZWJ        = '\u200D'
	VS16       = '\uFE0F'
)

// EmojiGlyphs lists the glyph IDs of the emoji test font.
type EmojiGlyphs struct {
	Smile, RegionalU, RegionalS      ot.GlyphIndex
	Flag, Stripe, Star               ot.GlyphIndex // Flag is a composite of Stripe and Star
	Heart, HeartLeft, HeartRight     ot.GlyphIndex // Heart is a COLR glyph with two layers
	ThumbsUp, SkinTone, ThumbsUpTone ot.GlyphIndex
	Man, Woman, Couple               ot.GlyphIndex // Couple is the ZWJ ligature
	Hash, Keycap, HashKeycap         ot.GlyphIndex
	Snowman, SnowmanAlt              ot.GlyphIndex // single substitution
	CycleA, CycleB                   ot.GlyphIndex // composites referencing each other
	Anchored, AnchorBase, AnchorMark ot.GlyphIndex
	Unused                           ot.GlyphIndex
}

// EmojiBuilder returns a builder for the emoji test font, together with
// its glyph IDs. Clients may add options (e.g., Hinting) before building.
//
// GSUB contains ligatures for the flag 🇺🇸 (U+1F1FA U+1F1F8), for 👍🏽, for
// 👨‍👩 (without the ZWJ) and for the keycap #️⃣ (without the variation
// selector), and a single substitution ☃ → alternate snowman.
func EmojiBuilder() (*Builder, EmojiGlyphs) {
	b := New("Emoji Test")
	var g EmojiGlyphs
	g.Smile = b.Box(100, 0, 900, 800)
	g.RegionalU = b.Box(100, 100, 500, 700)
	g.RegionalS = b.Box(500, 100, 900, 700)
	g.Stripe = b.Box(0, 300, 1000, 400)
	g.Star = b.Simple([]uint16{4}, []ot.Point{
		{X: 500, Y: 900, OnCurve: true},
		{X: 600, Y: 600, OnCurve: true},
		{X: 900, Y: 600, OnCurve: true},
		{X: 650, Y: 400, OnCurve: false},
		{X: 350, Y: 400, OnCurve: true},
	})
	g.Flag = b.Composite(Offset(g.Stripe, 0, 0), Scaled(g.Star, 100, 200, 0.5))
	g.HeartLeft = b.Box(100, 100, 500, 800)
	g.HeartRight = b.Box(500, 100, 900, 800)
	g.Heart = b.Box(100, 100, 900, 800)
	g.ThumbsUp = b.Box(200, 0, 800, 900)
	g.SkinTone = b.Box(0, 0, 300, 300)
	g.ThumbsUpTone = b.Composite(Offset(g.ThumbsUp, 0, 0), Offset(g.SkinTone, 600, -100))
	g.Man = b.Box(100, 0, 450, 900)
	g.Woman = b.Box(550, 0, 900, 900)
	g.Couple = b.Composite(Offset(g.Man, 0, 0), Offset(g.Woman, 0, 0))
	g.Hash = b.Box(300, 200, 700, 600)
	g.Keycap = b.Empty()
	g.HashKeycap = b.Box(0, 0, 1000, 1000)
	g.Snowman = b.Box(250, 0, 750, 950)
	g.SnowmanAlt = b.Box(200, 0, 800, 950)
	g.CycleA = b.Composite(Offset(ot.GlyphIndex(b.NumGlyphs()+1), 10, 10))
	g.CycleB = b.Composite(Offset(g.CycleA, -10, -10))
	g.AnchorBase = b.Box(0, 0, 600, 600)
	g.AnchorMark = b.Box(0, 0, 200, 200)
	g.Anchored = b.Composite(Offset(g.AnchorBase, 0, 0), PointMatched(g.AnchorMark, 2, 0))
	g.Unused = b.Box(10, 10, 20, 20)
	b.Map(Smile, g.Smile).
		Map(RegionalU, g.RegionalU).
		Map(RegionalS, g.RegionalS).
		Map(Heart, g.Heart).
		Map(ThumbsUp, g.ThumbsUp).
		Map(SkinTone, g.SkinTone).
		Map(Man, g.Man).
		Map(Woman, g.Woman).
		Map(Hash, g.Hash).
		Map(Keycap, g.Keycap).
		Map(Snowman, g.Snowman).
		Map(CycleStart, g.CycleA).
		Map(Anchored, g.Anchored)
	b.Ligature(g.Flag, g.RegionalU, g.RegionalS).
		Ligature(g.ThumbsUpTone, g.ThumbsUp, g.SkinTone).
		Ligature(g.Couple, g.Man, g.Woman).
		Ligature(g.HashKeycap, g.Hash, g.Keycap).
		Single(g.Snowman, g.SnowmanAlt)
	b.Color(g.Heart,
		ot.LayerRecord{Glyph: g.HeartLeft, PaletteIndex: 0},
		ot.LayerRecord{Glyph: g.HeartRight, PaletteIndex: 1})
	b.Table("GPOS", []byte{0, 1, 0, 0, 0, 10, 0, 12, 0, 14, 0, 0, 0, 0, 0, 0}) // empty lists
	b.Table("kern", []byte{0, 0, 0, 0})
	return b, g
}

// EmojiFont builds the emoji test font.
func EmojiFont(t testing.TB) ([]byte, EmojiGlyphs) {
	t.Helper()
	b, g := EmojiBuilder()
	return b.MustBuild(t), g
}

// BitmapGlyphs lists the glyph IDs of the bitmap test font.
type BitmapGlyphs struct {
	Smile, RegionalU, RegionalS, Flag, Heart ot.GlyphIndex
}

// BitmapBuilder returns a builder for a CBDT-only emoji font. Every glyph
// except .notdef has a bitmap; the flag is reachable through GSUB only.
func BitmapBuilder() (*Builder, BitmapGlyphs) {
	b := New("Bitmap Emoji Test").BitmapOnly()
	var g BitmapGlyphs
	g.Smile = b.Empty()
	g.RegionalU = b.Empty()
	g.RegionalS = b.Empty()
	g.Flag = b.Empty()
	g.Heart = b.Empty()
	for gid := ot.GlyphIndex(1); int(gid) < b.NumGlyphs(); gid++ {
		b.Bitmap(gid, FakePNG(int(gid)))
	}
	b.Map(Smile, g.Smile).Map(RegionalU, g.RegionalU).Map(RegionalS, g.RegionalS).Map(Heart, g.Heart)
	b.Ligature(g.Flag, g.RegionalU, g.RegionalS)
	return b, g
}

// BitmapFont builds the bitmap test font.
func BitmapFont(t testing.TB) ([]byte, BitmapGlyphs) {
	t.Helper()
	b, g := BitmapBuilder()
	return b.MustBuild(t), g
}
