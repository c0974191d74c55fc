/*
Package gotext shapes emoji sequences with the HarfBuzz port of
github.com/go-text/typesetting.

It is an alternative to package harfbuzz. Both should produce identical
glyphs for emoji.
*/
package gotext

import (
	"bytes"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/codepoint"
	"github.com/npillmayer/emojifont/core/font/opentype/ot"
	"github.com/npillmayer/emojifont/engine/glyphing"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/math/fixed"
)

// tracer traces with key 'emoji.glyphs'.
func tracer() tracing.Trace {
	return tracing.Select("emoji.glyphs")
}

// Size is irrelevant for glyph selection, but the shaper wants one.
const shapingSize = 64

// Shaper is safe for concurrent use. The parsed font is read-only and
// shared; faces are created per call and HarfBuzz shapers are pooled, as
// neither is safe for concurrent use.
type Shaper struct {
	font       *font.Font
	shaperPool sync.Pool
	lang       language.Language
}

var _ glyphing.Shaper = &Shaper{}

// New creates a shaper for a font binary (sfnt).
func New(binary []byte) (*Shaper, error) {
	face, err := font.ParseTTF(bytes.NewReader(binary))
	if err != nil {
		return nil, core.WrapError(err, core.EINVALID, "go-text cannot parse font")
	}
	sh := &Shaper{
		font: face.Font,
		shaperPool: sync.Pool{
			New: func() any {
				return &shaping.HarfbuzzShaper{}
			},
		},
		lang: language.NewLanguage("en"),
	}
	return sh, nil
}

// Name returns "gotext".
func (sh *Shaper) Name() string {
	return "gotext"
}

// Shape runs an emoji sequence through go-text's HarfBuzz shaper.
func (sh *Shaper) Shape(seq codepoint.EmojiSequence) ([]ot.GlyphIndex, error) {
	if seq.Len() == 0 {
		return nil, nil
	}
	runes := seq.Runes()
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      font.NewFace(sh.font),
		Size:      fixed.Int26_6(shapingSize * 64),
		Script:    language.Common,
		Language:  sh.lang,
	}
	hbShaper := sh.shaperPool.Get().(*shaping.HarfbuzzShaper)
	output := hbShaper.Shape(input)
	sh.shaperPool.Put(hbShaper)
	glyphs := make([]ot.GlyphIndex, len(output.Glyphs))
	for i, g := range output.Glyphs {
		glyphs[i] = ot.GlyphIndex(g.GlyphID)
	}
	tracer().Debugf("gotext: %s → %v", seq.HexString(), glyphs)
	return glyphs, nil
}
