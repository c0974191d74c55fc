/*
Package subset extracts a set of glyphs from a font into a new, standalone
font.

Glyphs are renumbered densely: the new font's glyph 0 is the old .notdef,
and the remaining glyphs follow in ascending order of their old IDs. Every
table which refers to glyph IDs is rebuilt; tables the subset does not need
are dropped.

The glyph set handed to Subset has to be closed (see package closure).
After assembly, the new font is parsed again and checked for dangling glyph
references. Violations are reported as errors with code core.ESUBSET.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>
*/
package subset

import (
	"fmt"
	"sort"

	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/font/opentype/ot"
	"github.com/npillmayer/emojifont/engine/glyphing"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'emoji.subset'.
func tracer() tracing.Trace {
	return tracing.Select("emoji.subset")
}

// Options are the knobs of the subsetter.
type Options struct {
	PreserveHinting   bool // keep glyph instructions and tables cvt, fpgm, prep, gasp
	FlattenComposites bool // decompose composite glyphs into simple outlines
	OptimizePaths     bool // remove duplicate and collinear on-curve points
}

func (o Options) String() string {
	return fmt.Sprintf("hinting=%v,flatten=%v,optimize=%v",
		o.PreserveHinting, o.FlattenComposites, o.OptimizePaths)
}

// WarningKind classifies non-fatal findings of subsetting.
type WarningKind int

// Kinds of subsetting warnings.
const (
	CompositeKept    WarningKind = iota // composite could not be flattened
	CodePointDropped                    // requested code-point not mapped into the glyph set
	BitmapDropped                       // bitmap in unsupported image format
)

// Warning is a non-fatal finding of subsetting.
type Warning struct {
	Kind      WarningKind
	Glyph     ot.GlyphIndex // old glyph ID, if applicable
	CodePoint rune
	Message   string
}

func (w Warning) String() string {
	return w.Message
}

// Result is a subset font.
type Result struct {
	Font      []byte                          // sfnt binary, flavor TrueType
	GlyphMap  map[ot.GlyphIndex]ot.GlyphIndex // old glyph ID → new glyph ID
	NumGlyphs int
	Tables    []ot.Tag // tables of the subset font, in ascending order
	Warnings  []Warning
}

// Subset creates a subset font from otf, containing the glyphs of set and
// .notdef. codepoints are the code-points to keep in the cmap; only those
// mapping into set survive. If codepoints is nil, every code-point mapping
// into set is kept.
//
// Subset is deterministic: equal input produces byte-identical output.
func Subset(otf *ot.Font, set *glyphing.GlyphSet, codepoints []rune, opts Options) (*Result, error) {
	if otf == nil {
		return nil, core.Error(core.EINVALID, "no font to subset")
	}
	if err := otf.CheckSubsettable(); err != nil {
		return nil, err
	}
	n := otf.NumGlyphs()
	if set.Max() >= ot.GlyphIndex(n) {
		return nil, core.Error(core.EINVALID, "glyph %d is beyond glyph count %d", set.Max(), n)
	}
	s := newSubsetter(otf, set, opts)
	tracer().Infof("subsetting %q to %d glyphs, options %s", otf.FontName(), len(s.glyphs), opts)
	if err := s.buildTables(codepoints); err != nil {
		return nil, err
	}
	font, err := ot.Assemble(ot.FlavorTrueType, s.tables)
	if err != nil {
		return nil, core.WrapError(err, core.ESUBSET, "cannot assemble subset font")
	}
	if err := verifySubset(font, len(s.glyphs)); err != nil {
		tracer().Errorf("subset font fails verification: %v", err)
		return nil, err
	}
	res := &Result{
		Font:      font,
		GlyphMap:  s.newID,
		NumGlyphs: len(s.glyphs),
		Warnings:  s.warnings,
	}
	for tag := range s.tables {
		res.Tables = append(res.Tables, tag)
	}
	sort.Slice(res.Tables, func(i, j int) bool { return res.Tables[i] < res.Tables[j] })
	tracer().Infof("subset font has %d glyphs, %d tables, %d bytes",
		res.NumGlyphs, len(res.Tables), len(font))
	return res, nil
}

type subsetter struct {
	otf      *ot.Font
	opts     Options
	glyphs   []ot.GlyphIndex // old glyph IDs, index is the new ID
	newID    map[ot.GlyphIndex]ot.GlyphIndex
	tables   map[ot.Tag][]byte
	warnings []Warning
	measured map[ot.GlyphIndex]*measurement
}

func newSubsetter(otf *ot.Font, set *glyphing.GlyphSet, opts Options) *subsetter {
	s := &subsetter{
		otf:    otf,
		opts:   opts,
		newID:  make(map[ot.GlyphIndex]ot.GlyphIndex),
		tables: make(map[ot.Tag][]byte),
	}
	all := set.Clone()
	all.Add(ot.NotDef)
	s.glyphs = all.Glyphs()
	for newID, old := range s.glyphs {
		s.newID[old] = ot.GlyphIndex(newID)
	}
	return s
}

func (s *subsetter) warn(w Warning) {
	tracer().Infof("%s", w)
	s.warnings = append(s.warnings, w)
}

// retained returns the new ID for an old glyph ID, if the glyph is in the
// subset.
func (s *subsetter) retained(old ot.GlyphIndex) (ot.GlyphIndex, bool) {
	g, ok := s.newID[old]
	return g, ok
}

func (s *subsetter) buildTables(codepoints []rune) error {
	if s.otf.Glyf != nil {
		if err := s.buildOutlines(); err != nil {
			return err
		}
	} else {
		s.tables[ot.T("head")] = s.head(0, nil)
		s.tables[ot.T("maxp")] = s.maxp(nil)
	}
	s.tables[ot.T("hhea")], s.tables[ot.T("hmtx")] = s.horizontalMetrics()
	entries := s.cmapEntries(codepoints)
	s.tables[ot.T("cmap")] = ot.EncodeCMap(entries)
	if name := s.otf.Table(ot.T("name")); name != nil {
		s.tables[ot.T("name")] = name.Binary()
	}
	if os2 := s.os2(entries); os2 != nil {
		s.tables[ot.T("OS/2")] = os2
	}
	s.tables[ot.T("post")] = s.post()
	if colr := s.colr(); colr != nil {
		s.tables[ot.T("COLR")] = colr
		s.tables[ot.T("CPAL")] = s.otf.Color.CPAL.Binary()
	}
	if err := s.bitmaps(); err != nil {
		return err
	}
	gsub, err := s.gsub()
	if err != nil {
		return core.WrapError(err, core.ESUBSET, "cannot rebuild GSUB table")
	}
	if gsub != nil {
		s.tables[ot.T("GSUB")] = gsub
	}
	if s.opts.PreserveHinting && s.otf.Glyf != nil {
		for _, tag := range hintingTables {
			if t := s.otf.Table(ot.T(tag)); t != nil {
				s.tables[ot.T(tag)] = t.Binary()
			}
		}
	}
	return nil
}

var hintingTables = []string{"cvt ", "fpgm", "prep", "gasp"}
