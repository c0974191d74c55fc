package glyphing

import (
	"fmt"
	"strings"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/npillmayer/emojifont/core/font/opentype/ot"
)

// GlyphSet is a set of glyph IDs. Iteration is always in ascending order
// of glyph IDs, which makes every consumer of a GlyphSet deterministic.
//
// A GlyphSet is not safe for concurrent modification.
// The zero value is not usable, use NewGlyphSet.
type GlyphSet struct {
	set *treeset.Set
}

func glyphComparator(a, b interface{}) int {
	g1, g2 := a.(ot.GlyphIndex), b.(ot.GlyphIndex)
	switch {
	case g1 < g2:
		return -1
	case g1 > g2:
		return 1
	}
	return 0
}

// NewGlyphSet creates a glyph set, optionally filled with glyphs.
func NewGlyphSet(glyphs ...ot.GlyphIndex) *GlyphSet {
	gs := &GlyphSet{set: treeset.NewWith(glyphComparator)}
	gs.Add(glyphs...)
	return gs
}

// Add adds glyphs to the set. It returns the number of glyphs which have
// not been members before.
func (gs *GlyphSet) Add(glyphs ...ot.GlyphIndex) int {
	n := 0
	for _, g := range glyphs {
		if !gs.set.Contains(g) {
			gs.set.Add(g)
			n++
		}
	}
	return n
}

// Contains is true if g is a member of the set.
func (gs *GlyphSet) Contains(g ot.GlyphIndex) bool {
	if gs == nil {
		return false
	}
	return gs.set.Contains(g)
}

// Len returns the number of glyphs in the set.
func (gs *GlyphSet) Len() int {
	if gs == nil {
		return 0
	}
	return gs.set.Size()
}

// Glyphs returns the members of the set in ascending order.
func (gs *GlyphSet) Glyphs() []ot.GlyphIndex {
	if gs == nil {
		return nil
	}
	glyphs := make([]ot.GlyphIndex, 0, gs.set.Size())
	it := gs.set.Iterator()
	for it.Next() {
		glyphs = append(glyphs, it.Value().(ot.GlyphIndex))
	}
	return glyphs
}

// Max returns the largest glyph ID of the set, or 0 for an empty set.
func (gs *GlyphSet) Max() ot.GlyphIndex {
	if gs.Len() == 0 {
		return 0
	}
	it := gs.set.Iterator()
	it.Last()
	return it.Value().(ot.GlyphIndex)
}

// Clone returns a copy of the set.
func (gs *GlyphSet) Clone() *GlyphSet {
	return NewGlyphSet(gs.Glyphs()...)
}

// Equals is true if both sets have the same members.
func (gs *GlyphSet) Equals(other *GlyphSet) bool {
	if gs.Len() != other.Len() {
		return false
	}
	a, b := gs.Glyphs(), other.Glyphs()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// IsSubsetOf is true if every member of gs is a member of other.
func (gs *GlyphSet) IsSubsetOf(other *GlyphSet) bool {
	for _, g := range gs.Glyphs() {
		if !other.Contains(g) {
			return false
		}
	}
	return true
}

func (gs *GlyphSet) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, g := range gs.Glyphs() {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d", g)
	}
	b.WriteByte('}')
	return b.String()
}
