/*
Package glyphing resolves emoji sequences to the glyphs of a font.

Resolution works in two steps. First, every code-point of an emoji sequence
is looked up in the font's cmap table. Then, for sequences of more than one
code-point, the whole sequence is run through a Shaper, which applies the
font's substitution rules (ligatures for flags, skin tone modifiers, ZWJ
sequences and keycaps). The union of both results, without .notdef, is the
set of glyphs an emoji sequence needs.

Missing code-points are not an error: a flag has no glyphs for its regional
indicators in many fonts, but a ligature for the pair. Missing glyphs are
reported as warnings in the Resolution. Only if no glyph at all can be found,
Resolve fails with an error of code core.ENOGLYPHS.

Shapers are provided by sub-packages:

▪︎ harfbuzz: HarfBuzz port of github.com/benoitkugler/textlayout

▪︎ gotext: HarfBuzz port of github.com/go-text/typesetting

▪︎ glypher: a native shaper applying GSUB single and ligature substitutions

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>
*/
package glyphing

import (
	"github.com/npillmayer/emojifont/core/codepoint"
	"github.com/npillmayer/emojifont/core/font/opentype/ot"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'emoji.glyphs'.
func tracer() tracing.Trace {
	return tracing.Select("emoji.glyphs")
}

// A Shaper creates a sequence of glyphs from a sequence of Unicode
// code-points, applying the substitution rules of a font. The font is
// bound to the shaper at creation time.
//
// Output glyphs are in visual order. Shapers may output .notdef (0) for
// code-points not covered by the font. Shapers must be safe for concurrent use.
type Shaper interface {
	Shape(seq codepoint.EmojiSequence) ([]ot.GlyphIndex, error)
	Name() string
}

// ShaperFunc adapts a function to the Shaper interface.
type ShaperFunc func(codepoint.EmojiSequence) ([]ot.GlyphIndex, error)

// Shape calls f(seq).
func (f ShaperFunc) Shape(seq codepoint.EmojiSequence) ([]ot.GlyphIndex, error) {
	return f(seq)
}

// Name returns "func".
func (f ShaperFunc) Name() string {
	return "func"
}

// IsDefaultIgnorable is true for code-points which are invisible format
// controls within emoji sequences: ZERO WIDTH JOINER, ZERO WIDTH NON-JOINER
// and variation selectors. Shapers drop them if the font does not map them.
func IsDefaultIgnorable(r rune) bool {
	switch {
	case r == 0x200C || r == 0x200D:
		return true
	case r >= 0xFE00 && r <= 0xFE0F:
		return true
	case r >= 0xE0100 && r <= 0xE01EF:
		return true
	}
	return false
}
