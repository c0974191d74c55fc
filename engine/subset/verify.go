package subset

import (
	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/font/opentype/ot"
	"github.com/npillmayer/emojifont/engine/closure"
	"github.com/npillmayer/emojifont/engine/glyphing"
	"golang.org/x/image/font/sfnt"
)

// verifySubset parses a freshly assembled subset font and checks that every
// glyph reference stays below the glyph count. Outline fonts additionally
// have to pass the sfnt parser of golang.org/x/image.
func verifySubset(font []byte, numGlyphs int) error {
	otf, err := ot.Parse(font)
	if err != nil {
		return core.WrapError(err, core.ESUBSET, "subset font cannot be parsed")
	}
	if otf.NumGlyphs() != numGlyphs {
		return core.Error(core.ESUBSET, "subset font has %d glyphs, expected %d", otf.NumGlyphs(), numGlyphs)
	}
	var bad []ot.GlyphIndex
	if m := otf.CMap.GlyphIndexMap; m != nil {
		m.ForEach(func(r rune, g ot.GlyphIndex) {
			if int(g) >= numGlyphs {
				bad = append(bad, g)
			}
		})
	}
	if len(bad) > 0 {
		return core.Error(core.ESUBSET, "cmap maps to glyphs %v beyond glyph count %d", bad, numGlyphs)
	}
	all := glyphing.NewGlyphSet()
	for g := 0; g < numGlyphs; g++ {
		all.Add(ot.GlyphIndex(g))
	}
	if err := checkReferences(otf, numGlyphs); err != nil {
		return err
	}
	if err := closure.Verify(otf, all); err != nil {
		return err
	}
	if otf.Glyf != nil {
		f, err := sfnt.Parse(font)
		if err != nil {
			return core.WrapError(err, core.ESUBSET, "subset font rejected by sfnt parser")
		}
		if f.NumGlyphs() != numGlyphs {
			return core.Error(core.ESUBSET, "sfnt parser sees %d glyphs, expected %d", f.NumGlyphs(), numGlyphs)
		}
	}
	return nil
}

// checkReferences reports composite, color and substitution references to
// glyph IDs beyond the glyph count. Bitmap glyph ranges are checked by
// ot.Parse.
func checkReferences(otf *ot.Font, numGlyphs int) error {
	out := func(g ot.GlyphIndex) bool { return int(g) >= numGlyphs }
	for g := 0; g < numGlyphs && otf.Glyf != nil; g++ {
		comps, err := otf.Glyf.Components(ot.GlyphIndex(g))
		if err != nil {
			return core.WrapError(err, core.ESUBSET, "glyph %d of subset font is broken", g)
		}
		for _, c := range comps {
			if out(c) {
				return core.Error(core.ESUBSET, "glyph %d references component %d beyond glyph count", g, c)
			}
		}
	}
	if colr := otf.Color.COLR; colr != nil {
		for _, base := range colr.BaseGlyphs {
			if out(base.Glyph) {
				return core.Error(core.ESUBSET, "COLR base glyph %d beyond glyph count", base.Glyph)
			}
		}
		for _, l := range colr.Layers {
			if out(l.Glyph) {
				return core.Error(core.ESUBSET, "COLR layer glyph %d beyond glyph count", l.Glyph)
			}
		}
	}
	if otf.GSub != nil {
		for _, lookup := range otf.GSub.Lookups {
			for _, s := range lookup.Singles {
				if out(s.In) || out(s.Out) {
					return core.Error(core.ESUBSET, "GSUB substitution %d → %d beyond glyph count", s.In, s.Out)
				}
			}
			for _, lig := range lookup.Ligatures {
				if out(lig.Glyph) {
					return core.Error(core.ESUBSET, "GSUB ligature glyph %d beyond glyph count", lig.Glyph)
				}
				for _, c := range lig.Components {
					if out(c) {
						return core.Error(core.ESUBSET, "GSUB ligature component %d beyond glyph count", c)
					}
				}
			}
		}
	}
	return nil
}
