package ot

import (
	"fmt"
	"sort"
	"strconv"
)

// GSubTable is a type representing an OpenType GSUB table
// (see https://docs.microsoft.com/en-us/typography/opentype/spec/gsub).
//
// Emoji fonts use glyph substitution mostly to compose sequences of
// code-points (flags, ZWJ sequences, skin tone modifiers) into a single
// glyph. We therefore interpret single substitutions (type 1) and ligature
// substitutions (type 4), possibly wrapped into extension lookups (type 7).
// Lookups of other types are kept as empty lookups, so that lookup indices
// from the feature list stay valid.
type GSubTable struct {
	tableBase
	Features []FeatureRecord
	Lookups  []GSubLookup
}

// FeatureRecord is a feature of the GSUB feature list.
type FeatureRecord struct {
	Tag           Tag
	LookupIndices []int
}

// GSubLookup is an interpreted GSUB lookup. Type is the effective lookup type,
// i.e. extension lookups are unwrapped.
type GSubLookup struct {
	Type      LookupType
	Flag      uint16
	Singles   []SingleSubst   // type 1, sorted by input glyph
	Ligatures []LigatureSubst // type 4, in font order
}

// SingleSubst replaces one glyph by another.
type SingleSubst struct {
	In, Out GlyphIndex
}

// LigatureSubst replaces a sequence of glyphs by a single glyph.
// Components include the first glyph of the sequence.
type LigatureSubst struct {
	Components []GlyphIndex
	Glyph      GlyphIndex
}

func newGSubTable(tag Tag, b binarySegm, offset, size uint32) *GSubTable {
	t := &GSubTable{}
	t.tableBase = makeTableBase(tag, b, offset, size)
	t.self = t
	return t
}

var _ Table = &GSubTable{}

// LookupType is the type of a layout lookup.
type LookupType uint16

// GSUB Table Lookup Type
// https://docs.microsoft.com/en-us/typography/opentype/spec/gsub#table-organization
const (
	GSubLookupTypeSingle          LookupType = 1 // Replace one glyph with one glyph
	GSubLookupTypeMultiple        LookupType = 2 // Replace one glyph with more than one glyph
	GSubLookupTypeAlternate       LookupType = 3 // Replace one glyph with one of many glyphs
	GSubLookupTypeLigature        LookupType = 4 // Replace multiple glyphs with one glyph
	GSubLookupTypeContext         LookupType = 5 // Replace one or more glyphs in context
	GSubLookupTypeChainingContext LookupType = 6 // Replace one or more glyphs in chained context
	GSubLookupTypeExtensionSubs   LookupType = 7 // Extension mechanism for other substitutions
	GSubLookupTypeReverseChaining LookupType = 8 // Applied in reverse order, replace single glyph in chaining context
)

const gsubLookupTypeNames = "Single|Multiple|Alternate|Ligature|Context|Chaining|Extension|Reverse"

var gsubLookupTypeInx = [...]int{0, 7, 16, 26, 35, 43, 52, 62, 70}

// GSubString interprets a layout table lookup type as a GSUB table type.
func (lt LookupType) GSubString() string {
	if lt >= 1 && lt <= GSubLookupTypeReverseChaining {
		lt -= 1
		return gsubLookupTypeNames[gsubLookupTypeInx[lt] : gsubLookupTypeInx[lt+1]-1]
	}
	return strconv.Itoa(int(lt))
}

// DefaultFeatures are the substitution features applied for emoji
// composition.
var DefaultFeatures = []Tag{T("ccmp"), T("liga"), T("clig"), T("rlig")}

// LookupsForFeatures returns the indices of all lookups referenced by any of
// the given features, in lookup list order. If the font has no feature list,
// all lookups are returned.
func (t *GSubTable) LookupsForFeatures(tags []Tag) []int {
	if t == nil {
		return nil
	}
	if len(t.Features) == 0 {
		all := make([]int, len(t.Lookups))
		for i := range all {
			all[i] = i
		}
		return all
	}
	seen := make(map[int]bool)
	for _, f := range t.Features {
		for _, tag := range tags {
			if f.Tag != tag {
				continue
			}
			for _, inx := range f.LookupIndices {
				if inx >= 0 && inx < len(t.Lookups) {
					seen[inx] = true
				}
			}
		}
	}
	lookups := make([]int, 0, len(seen))
	for inx := range seen {
		lookups = append(lookups, inx)
	}
	sort.Ints(lookups)
	return lookups
}

// --- Parsing ---------------------------------------------------------------

func parseGSub(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 10 {
		return nil, errFontFormat("size of GSUB table")
	}
	t := newGSubTable(tag, b, offset, size)
	if major := u16(b); major != 1 {
		return nil, errFontFormat(fmt.Sprintf("GSUB version %d", major))
	}
	if features, err := b.link16(6, b); err == nil {
		if t.Features, err = parseFeatureList(features); err != nil {
			return nil, err
		}
	}
	lookups, err := b.link16(8, b)
	if err != nil {
		tracer().Infof("GSUB table has no lookup list")
		return t, nil
	}
	count, err := lookups.u16(0)
	if err != nil {
		return nil, errFontFormat("GSUB lookup list")
	}
	t.Lookups = make([]GSubLookup, count)
	for i := 0; i < int(count); i++ {
		lookup, err := lookups.link16(2+2*i, lookups)
		if err != nil {
			return nil, errFontFormat("GSUB lookup offset")
		}
		if t.Lookups[i], err = parseGSubLookup(lookup); err != nil {
			return nil, err
		}
	}
	tracer().Debugf("GSUB has %d features and %d lookups", len(t.Features), len(t.Lookups))
	return t, nil
}

func parseFeatureList(b binarySegm) ([]FeatureRecord, error) {
	count, err := b.u16(0)
	if err != nil {
		return nil, errFontFormat("GSUB feature list")
	}
	features := make([]FeatureRecord, count)
	for i := range features {
		rec, err := b.view(2+6*i, 6)
		if err != nil {
			return nil, errFontFormat("GSUB feature record")
		}
		features[i].Tag = MakeTag(rec[:4])
		feature, err := b.from(int(u16(rec[4:])))
		if err != nil {
			return nil, errFontFormat("GSUB feature table")
		}
		n, err := feature.u16(2)
		if err != nil {
			return nil, errFontFormat("GSUB feature table")
		}
		inx, err := feature.glyphs(4, int(n)) // lookup indices are uint16, too
		if err != nil {
			return nil, errFontFormat("GSUB feature lookup indices")
		}
		features[i].LookupIndices = make([]int, n)
		for j := range inx {
			features[i].LookupIndices[j] = int(inx[j])
		}
	}
	return features, nil
}

func parseGSubLookup(b binarySegm) (GSubLookup, error) {
	lookup := GSubLookup{}
	if len(b) < 6 {
		return lookup, errFontFormat("GSUB lookup table")
	}
	lookup.Type = LookupType(u16(b))
	lookup.Flag = u16(b[2:])
	n := int(u16(b[4:]))
	for i := 0; i < n; i++ {
		sub, err := b.link16(6+2*i, b)
		if err != nil {
			return lookup, errFontFormat("GSUB lookup subtable offset")
		}
		typ := lookup.Type
		if typ == GSubLookupTypeExtensionSubs {
			if len(sub) < 8 {
				return lookup, errFontFormat("GSUB extension subtable")
			}
			typ = LookupType(u16(sub[2:]))
			if sub, err = sub.from(int(u32(sub[4:]))); err != nil {
				return lookup, errFontFormat("GSUB extension offset")
			}
			if i == 0 {
				lookup.Type = typ
			}
		}
		switch typ {
		case GSubLookupTypeSingle:
			singles, err := parseSingleSubst(sub)
			if err != nil {
				return lookup, err
			}
			lookup.Singles = append(lookup.Singles, singles...)
		case GSubLookupTypeLigature:
			ligs, err := parseLigatureSubst(sub)
			if err != nil {
				return lookup, err
			}
			lookup.Ligatures = append(lookup.Ligatures, ligs...)
		default:
			tracer().Debugf("GSUB lookup type %s not interpreted", typ.GSubString())
		}
	}
	sort.SliceStable(lookup.Singles, func(i, j int) bool {
		return lookup.Singles[i].In < lookup.Singles[j].In
	})
	return lookup, nil
}

// parseCoverage returns the glyphs of a coverage table in coverage index order.
func parseCoverage(b binarySegm) ([]GlyphIndex, error) {
	format, err := b.u16(0)
	if err != nil {
		return nil, errFontFormat("coverage table")
	}
	n, _ := b.u16(2)
	switch format {
	case 1:
		glyphs, err := b.glyphs(4, int(n))
		if err != nil {
			return nil, errFontFormat("coverage table format 1")
		}
		return glyphs, nil
	case 2:
		var glyphs []GlyphIndex
		for i := 0; i < int(n); i++ {
			rec, err := b.view(4+6*i, 6)
			if err != nil {
				return nil, errFontFormat("coverage table format 2")
			}
			start, end := u16(rec), u16(rec[2:])
			for g := uint32(start); g <= uint32(end); g++ {
				glyphs = append(glyphs, GlyphIndex(g))
			}
		}
		return glyphs, nil
	}
	return nil, errFontFormat(fmt.Sprintf("coverage table format %d", format))
}

func parseSingleSubst(b binarySegm) ([]SingleSubst, error) {
	cov, err := b.link16(2, b)
	if err != nil {
		return nil, errFontFormat("single substitution coverage")
	}
	glyphs, err := parseCoverage(cov)
	if err != nil {
		return nil, err
	}
	singles := make([]SingleSubst, len(glyphs))
	switch format := b.U16(0); format {
	case 1:
		delta := b.U16(4)
		for i, g := range glyphs {
			singles[i] = SingleSubst{In: g, Out: GlyphIndex(uint16(g) + delta)}
		}
	case 2:
		n := int(b.U16(4))
		subst, err := b.glyphs(6, n)
		if err != nil || n != len(glyphs) {
			return nil, errFontFormat("single substitution format 2")
		}
		for i, g := range glyphs {
			singles[i] = SingleSubst{In: g, Out: subst[i]}
		}
	default:
		return nil, errFontFormat(fmt.Sprintf("single substitution format %d", format))
	}
	return singles, nil
}

func parseLigatureSubst(b binarySegm) ([]LigatureSubst, error) {
	if format := b.U16(0); format != 1 {
		return nil, errFontFormat(fmt.Sprintf("ligature substitution format %d", format))
	}
	cov, err := b.link16(2, b)
	if err != nil {
		return nil, errFontFormat("ligature substitution coverage")
	}
	glyphs, err := parseCoverage(cov)
	if err != nil {
		return nil, err
	}
	n := int(b.U16(4))
	if n != len(glyphs) {
		return nil, errFontFormat("ligature set count does not match coverage")
	}
	var ligs []LigatureSubst
	for i := 0; i < n; i++ {
		set, err := b.link16(6+2*i, b)
		if err != nil {
			return nil, errFontFormat("ligature set offset")
		}
		cnt := int(set.U16(0))
		for j := 0; j < cnt; j++ {
			lig, err := set.link16(2+2*j, set)
			if err != nil || len(lig) < 4 {
				return nil, errFontFormat("ligature offset")
			}
			compCount := int(u16(lig[2:]))
			if compCount < 1 {
				return nil, errFontFormat("ligature component count")
			}
			rest, err := lig.glyphs(4, compCount-1)
			if err != nil {
				return nil, errFontFormat("ligature components")
			}
			ligs = append(ligs, LigatureSubst{
				Components: append([]GlyphIndex{glyphs[i]}, rest...),
				Glyph:      GlyphIndex(u16(lig)),
			})
		}
	}
	return ligs, nil
}
