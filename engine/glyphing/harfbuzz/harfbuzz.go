/*
Package harfbuzz uses HarfBuzz to convert emoji sequences to glyphs.

The HarfBuzz port is github.com/benoitkugler/textlayout. It is the most
complete shaper available for Go and the default shaper of the pipeline.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>
*/
package harfbuzz

import (
	"bytes"
	"encoding/binary"
	"sync"
	"unicode"

	hbtt "github.com/benoitkugler/textlayout/fonts/truetype"
	hb "github.com/benoitkugler/textlayout/harfbuzz"
	hblang "github.com/benoitkugler/textlayout/language"
	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/codepoint"
	"github.com/npillmayer/emojifont/core/font/opentype/ot"
	"github.com/npillmayer/emojifont/engine/glyphing"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/text/language"
)

// tracer traces with key 'emoji.glyphs'.
func tracer() tracing.Trace {
	return tracing.Select("emoji.glyphs")
}

// --- Type conversion -------------------------------------------------------

// Lang4HB returns a language tag as a HarfBuzz language.
func Lang4HB(l language.Tag) hblang.Language {
	return hblang.NewLanguage(l.String())
}

// Script4HB returns a script as a HarfBuzz script.
func Script4HB(s language.Script) hblang.Script {
	b := []byte(s.String())
	b[0] = byte(unicode.ToLower(rune(b[0])))
	h := binary.BigEndian.Uint32(b)
	return hblang.Script(h)
}

// Emoji are of script 'Common'. Language is irrelevant for emoji, but
// HarfBuzz wants one.
var (
	emojiScript   = language.MustParseScript("Zyyy")
	emojiLanguage = language.English
)

// --- Shaper ----------------------------------------------------------------

// Shaper shapes emoji sequences with HarfBuzz. HarfBuzz fonts cache shaping
// plans and are not safe for concurrent use, so every concurrent caller gets
// a font of its own from a pool. Pooled fonts are parsed from the same
// binary; after warm-up Shape neither parses nor locks.
type Shaper struct {
	binary []byte
	fonts  sync.Pool // of *hb.Font
	props  hb.SegmentProperties
}

var _ glyphing.Shaper = &Shaper{}

// New creates a HarfBuzz shaper for a font binary (sfnt).
func New(binary []byte) (*Shaper, error) {
	f, err := parseFont(binary)
	if err != nil {
		return nil, err
	}
	sh := &Shaper{
		binary: binary,
		props: hb.SegmentProperties{
			Language:  Lang4HB(emojiLanguage),
			Script:    Script4HB(emojiScript),
			Direction: hb.LeftToRight,
		},
	}
	sh.fonts.New = func() any {
		f, err := parseFont(sh.binary)
		if err != nil {
			tracer().Errorf("HarfBuzz cannot re-parse font: %v", err)
			return nil
		}
		tracer().Debugf("HarfBuzz font added to pool")
		return f
	}
	sh.fonts.Put(f)
	tracer().Debugf("HarfBuzz shaper created")
	return sh, nil
}

func parseFont(binary []byte) (*hb.Font, error) {
	face, err := hbtt.Parse(bytes.NewReader(binary), true)
	if err != nil {
		return nil, core.WrapError(err, core.EINVALID, "HarfBuzz cannot parse font")
	}
	return hb.NewFont(face), nil
}

func (sh *Shaper) acquire() (*hb.Font, error) {
	f, _ := sh.fonts.Get().(*hb.Font)
	if f == nil {
		return nil, core.Error(core.EINTERNAL, "no HarfBuzz font available")
	}
	return f, nil
}

// Name returns "harfbuzz".
func (sh *Shaper) Name() string {
	return "harfbuzz"
}

// Shape runs an emoji sequence through HarfBuzz, with the default features
// for script 'Common'. Code-points not covered by the font produce .notdef.
func (sh *Shaper) Shape(seq codepoint.EmojiSequence) ([]ot.GlyphIndex, error) {
	if seq.Len() == 0 {
		return nil, nil
	}
	f, err := sh.acquire()
	if err != nil {
		return nil, err
	}
	defer sh.fonts.Put(f)
	runes := seq.Runes()
	buf := hb.NewBuffer()
	buf.Props = sh.props
	buf.AddRunes(runes, 0, len(runes))
	buf.Shape(f, nil)
	glyphs := make([]ot.GlyphIndex, len(buf.Info))
	for i, ginfo := range buf.Info {
		tracer().Debugf("[%3d] %q", i, ginfo.String())
		glyphs[i] = ot.GlyphIndex(ginfo.Glyph)
	}
	return glyphs, nil
}
