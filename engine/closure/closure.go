/*
Package closure computes the glyph closure of a set of glyphs.

A glyph rarely stands alone. Composite glyphs reference component glyphs,
color glyphs are drawn from layer glyphs, and substitution rules may produce
glyphs which are not reachable from any code-point. A subset font has to
contain every glyph reachable from its glyphs, or it will render garbage.

The closure is computed as a fixed point over a worklist: every glyph is
expanded exactly once, and glyph references may form cycles.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>
*/
package closure

import (
	"slices"

	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/font/opentype/ot"
	"github.com/npillmayer/emojifont/engine/glyphing"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'emoji.subset'.
func tracer() tracing.Trace {
	return tracing.Select("emoji.subset")
}

// Options control which references are followed.
type Options struct {
	GSUB bool // follow single and ligature substitutions
}

// DefaultOptions returns the options used by Close.
func DefaultOptions() Options {
	return Options{GSUB: true}
}

// Close returns the closure of seed with default options. seed is not
// modified.
func Close(otf *ot.Font, seed *glyphing.GlyphSet) *glyphing.GlyphSet {
	return CloseWith(otf, seed, DefaultOptions())
}

// CloseWith returns the closure of seed. References followed are
//
//   - components of composite glyphs, on all nesting levels
//   - layer glyphs of COLR color glyphs
//   - outputs of GSUB single substitutions and ligatures, for lookups
//     of the features in ot.DefaultFeatures (if opts.GSUB is set)
//
// References to glyph IDs beyond the font's glyph count are ignored.
func CloseWith(otf *ot.Font, seed *glyphing.GlyphSet, opts Options) *glyphing.GlyphSet {
	set := seed.Clone()
	if otf == nil {
		return set
	}
	c := closer{otf: otf, set: set, numGlyphs: otf.NumGlyphs()}
	if opts.GSUB {
		c.index(otf.GSub.LookupsForFeatures(ot.DefaultFeatures))
	}
	work := set.Glyphs()
	rounds := 0
	for len(work) > 0 {
		fresh := c.expand(work)
		rounds++
		if len(c.singles) == 0 && len(c.ligatures) == 0 {
			break
		}
		work = c.substitute(fresh)
	}
	tracer().Debugf("closure of %s is %s, after %d rounds", seed, set, rounds)
	return set
}

type closer struct {
	otf       *ot.Font
	set       *glyphing.GlyphSet
	numGlyphs int
	singles   map[ot.GlyphIndex][]ot.GlyphIndex     // input glyph → outputs
	ligatures map[ot.GlyphIndex][]*ot.LigatureSubst // component → ligatures using it
}

// index collects the substitution rules of a set of GSUB lookups by input
// glyph. A ligature is listed once for each distinct component.
func (c *closer) index(lookups []int) {
	c.singles = make(map[ot.GlyphIndex][]ot.GlyphIndex)
	c.ligatures = make(map[ot.GlyphIndex][]*ot.LigatureSubst)
	for _, inx := range lookups {
		lookup := &c.otf.GSub.Lookups[inx]
		for _, s := range lookup.Singles {
			c.singles[s.In] = append(c.singles[s.In], s.Out)
		}
		for i := range lookup.Ligatures {
			lig := &lookup.Ligatures[i]
			for j, g := range lig.Components {
				if slices.Contains(lig.Components[:j], g) {
					continue
				}
				c.ligatures[g] = append(c.ligatures[g], lig)
			}
		}
	}
}

// expand follows component and color layer references until no new glyphs
// appear. Every glyph on the worklist is already a member of the set.
// expand returns the worklist together with the glyphs it added.
func (c *closer) expand(work []ot.GlyphIndex) []ot.GlyphIndex {
	fresh := slices.Clone(work)
	for len(work) > 0 {
		g := work[len(work)-1]
		work = work[:len(work)-1]
		for _, ref := range c.references(g) {
			if int(ref) >= c.numGlyphs {
				tracer().Infof("glyph %d references glyph %d beyond glyph count %d, ignored",
					g, ref, c.numGlyphs)
				continue
			}
			if c.set.Add(ref) > 0 {
				work = append(work, ref)
				fresh = append(fresh, ref)
			}
		}
	}
	return fresh
}

func (c *closer) references(g ot.GlyphIndex) []ot.GlyphIndex {
	var refs []ot.GlyphIndex
	if c.otf.Glyf != nil {
		comps, err := c.otf.Glyf.Components(g)
		if err != nil {
			tracer().Errorf("cannot read components of glyph %d: %v", g, err)
		}
		refs = append(refs, comps...)
	}
	for _, layer := range c.otf.Color.COLR.LayersOf(g) {
		refs = append(refs, layer.Glyph)
	}
	return refs
}

// substitute applies the GSUB rules having one of the fresh glyphs as input
// and returns the glyphs which are new to the set. Rules without a fresh
// input have been tried in an earlier round, with the same outcome.
func (c *closer) substitute(fresh []ot.GlyphIndex) []ot.GlyphIndex {
	var added []ot.GlyphIndex
	add := func(g ot.GlyphIndex) {
		if int(g) < c.numGlyphs && c.set.Add(g) > 0 {
			added = append(added, g)
		}
	}
	for _, g := range fresh {
		for _, out := range c.singles[g] {
			add(out)
		}
		for _, lig := range c.ligatures[g] {
			if c.containsAll(lig.Components) {
				add(lig.Glyph)
			}
		}
	}
	if len(added) > 0 {
		tracer().Debugf("GSUB adds glyphs %v to closure", added)
	}
	return added
}

func (c *closer) containsAll(glyphs []ot.GlyphIndex) bool {
	for _, g := range glyphs {
		if !c.set.Contains(g) {
			return false
		}
	}
	return len(glyphs) > 0
}

// Verify checks that set is closed with default options. It reports the
// first glyph with a reference escaping the set as an error with code
// core.ESUBSET.
func Verify(otf *ot.Font, set *glyphing.GlyphSet) error {
	return VerifyWith(otf, set, DefaultOptions())
}

// VerifyWith checks that set is closed with respect to opts.
func VerifyWith(otf *ot.Font, set *glyphing.GlyphSet, opts Options) error {
	n := otf.NumGlyphs()
	c := closer{otf: otf, set: set, numGlyphs: n}
	for _, g := range set.Glyphs() {
		if int(g) >= n {
			return core.Error(core.ESUBSET, "glyph %d is beyond glyph count %d", g, n)
		}
		for _, ref := range c.references(g) {
			if int(ref) < n && !set.Contains(ref) {
				return core.Error(core.ESUBSET, "glyph %d references glyph %d outside of glyph set", g, ref)
			}
		}
	}
	if !opts.GSUB {
		return nil
	}
	for _, inx := range otf.GSub.LookupsForFeatures(ot.DefaultFeatures) {
		lookup := otf.GSub.Lookups[inx]
		for _, s := range lookup.Singles {
			if set.Contains(s.In) && int(s.Out) < n && !set.Contains(s.Out) {
				return core.Error(core.ESUBSET, "substitution %d → %d escapes glyph set", s.In, s.Out)
			}
		}
		for _, lig := range lookup.Ligatures {
			if c.containsAll(lig.Components) && int(lig.Glyph) < n && !set.Contains(lig.Glyph) {
				return core.Error(core.ESUBSET, "ligature %v → %d escapes glyph set", lig.Components, lig.Glyph)
			}
		}
	}
	return nil
}
