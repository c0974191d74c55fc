package glypher

import (
	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/codepoint"
	"github.com/npillmayer/emojifont/core/font/opentype/ot"
	"github.com/npillmayer/emojifont/engine/glyphing"
)

// Shaper is a native shaper for emoji sequences. It applies the GSUB
// single and ligature substitutions of a font and nothing else, which
// covers flags, keycaps, skin tone modifiers and ZWJ sequences.
//
// Shaper is read-only after New and safe for concurrent use.
type Shaper struct {
	otf     *ot.Font
	lookups []lookup // in lookup list order
}

type lookup struct {
	index     int
	singles   map[ot.GlyphIndex]ot.GlyphIndex
	ligatures map[ot.GlyphIndex][]ot.LigatureSubst // by first component, font order
}

var _ glyphing.Shaper = &Shaper{}

// New creates a shaper for a font. Lookups are collected from the features
// in ot.DefaultFeatures. Fonts without a GSUB table are fine; Shape then
// just maps code-points.
func New(otf *ot.Font) *Shaper {
	sh := &Shaper{otf: otf}
	if otf == nil || otf.GSub == nil {
		return sh
	}
	for _, inx := range otf.GSub.LookupsForFeatures(ot.DefaultFeatures) {
		l := otf.GSub.Lookups[inx]
		lu := lookup{index: inx}
		switch l.Type {
		case ot.GSubLookupTypeSingle:
			lu.singles = make(map[ot.GlyphIndex]ot.GlyphIndex, len(l.Singles))
			for _, s := range l.Singles {
				lu.singles[s.In] = s.Out
			}
		case ot.GSubLookupTypeLigature:
			lu.ligatures = make(map[ot.GlyphIndex][]ot.LigatureSubst)
			for _, lig := range l.Ligatures {
				if len(lig.Components) == 0 {
					continue
				}
				first := lig.Components[0]
				lu.ligatures[first] = append(lu.ligatures[first], lig)
			}
		default:
			tracer().Debugf("glypher skips GSUB lookup %d of type %s", inx, l.Type.GSubString())
			continue
		}
		sh.lookups = append(sh.lookups, lu)
	}
	tracer().Debugf("glypher uses %d GSUB lookups", len(sh.lookups))
	return sh
}

// Name returns "glypher".
func (sh *Shaper) Name() string {
	return "glypher"
}

// Shape maps the code-points of seq to glyphs and applies GSUB substitutions.
// Default-ignorable code-points (ZWJ, variation selectors) without a glyph are
// removed before substitution; other unmapped code-points yield .notdef.
func (sh *Shaper) Shape(seq codepoint.EmojiSequence) ([]ot.GlyphIndex, error) {
	if sh.otf == nil {
		return nil, core.Error(core.EINVALID, "glypher has no font")
	}
	glyphs := make([]ot.GlyphIndex, 0, seq.Len())
	for _, r := range seq.Runes() {
		gid := sh.otf.CMap.Lookup(r)
		if gid == ot.NotDef && glyphing.IsDefaultIgnorable(r) {
			continue
		}
		glyphs = append(glyphs, gid)
	}
	for _, lu := range sh.lookups {
		if lu.singles != nil {
			applySingles(glyphs, lu.singles)
		} else {
			glyphs = applyLigatures(glyphs, lu.ligatures)
		}
	}
	tracer().Debugf("glypher: %s → %v", seq.HexString(), glyphs)
	return glyphs, nil
}

func applySingles(glyphs []ot.GlyphIndex, singles map[ot.GlyphIndex]ot.GlyphIndex) {
	for i, g := range glyphs {
		if out, ok := singles[g]; ok {
			glyphs[i] = out
		}
	}
}

// applyLigatures replaces runs of glyphs by ligatures, left to right. The
// first matching ligature of a ligature set wins.
func applyLigatures(glyphs []ot.GlyphIndex, ligatures map[ot.GlyphIndex][]ot.LigatureSubst) []ot.GlyphIndex {
	out := glyphs[:0]
	for i := 0; i < len(glyphs); {
		if lig, ok := match(glyphs[i:], ligatures[glyphs[i]]); ok {
			out = append(out, lig.Glyph)
			i += len(lig.Components)
			continue
		}
		out = append(out, glyphs[i])
		i++
	}
	return out
}

func match(glyphs []ot.GlyphIndex, candidates []ot.LigatureSubst) (ot.LigatureSubst, bool) {
	for _, lig := range candidates {
		if len(lig.Components) > len(glyphs) {
			continue
		}
		matches := true
		for k, c := range lig.Components {
			if glyphs[k] != c {
				matches = false
				break
			}
		}
		if matches {
			return lig, true
		}
	}
	return ot.LigatureSubst{}, false
}
