package otquery

import (
	"github.com/npillmayer/emojifont/core/font/opentype/ot"
)

// FontType returns the font type, encoded in the font header, as a string.
func FontType(otf *ot.Font) string {
	if otf.Header == nil {
		return "<empty>"
	}
	typ := otf.Header.FontType
	switch typ {
	case 0x4f54544f: // OTTO
		return "OpenType (outlines)"
	case 0x00010000: // TrueType
		return "TrueType"
	case 0x74727565: // true
		return "TrueType (Mac legacy)"
	}
	return "<unknown>"
}

// NameInfo returns a map with selected fields from OpenType table `name`.
// Will include (if available in the font) "family", "subfamily", "fullname"
// and "version".
func NameInfo(otf *ot.Font) map[string]string {
	names := make(map[string]string)
	table := otf.Table(ot.T("name"))
	if table == nil {
		tracer().Debugf("no name table found in font")
		return names
	}
	nt := table.Self().AsName()
	if nt == nil {
		return names
	}
	for field, id := range map[string]uint16{"family": 1, "subfamily": 2, "fullname": 4, "version": 5} {
		if val := nt.Get(id); val != "" {
			names[field] = val
		}
	}
	return names
}

// LayoutTables returns a list of tag strings, one for each layout-table a font includes.
//
// OpenType Layout makes use of five tables: GSUB, GPOS, BASE, JSTF, and GDEF.
func LayoutTables(otf *ot.Font) []string {
	var lt []string
	for _, tag := range otf.TableTags() {
		switch tag.String() {
		case "GSUB", "GPOS", "BASE", "JSTF", "GDEF":
			lt = append(lt, tag.String())
		}
	}
	return lt
}

// GlyphFormats lists the glyph representations a font carries, in the
// order the subsetter prefers them: "COLR" (layered outlines), "CBDT"
// (bitmaps), "glyf" (plain outlines). Formats the subsetter cannot handle,
// "sbix" and "SVG ", are listed last.
func GlyphFormats(otf *ot.Font) []string {
	var formats []string
	if otf.Color.COLR != nil {
		formats = append(formats, "COLR")
	}
	if otf.Color.CBLC != nil {
		formats = append(formats, "CBDT")
	}
	if otf.Glyf != nil {
		formats = append(formats, "glyf")
	}
	for _, t := range []string{"sbix", "SVG "} {
		if otf.Table(ot.T(t)) != nil {
			formats = append(formats, t)
		}
	}
	return formats
}

// BitmapSizes returns the vertical ppem of every bitmap strike of a font.
func BitmapSizes(otf *ot.Font) []int {
	if otf.Color.CBLC == nil {
		return nil
	}
	sizes := make([]int, 0, len(otf.Color.CBLC.Strikes))
	for _, s := range otf.Color.CBLC.Strikes {
		sizes = append(sizes, int(s.PpemY))
	}
	return sizes
}

// ColorGlyphs counts the glyphs with color layers or bitmaps.
func ColorGlyphs(otf *ot.Font) int {
	n := 0
	for gid := 0; gid < otf.NumGlyphs(); gid++ {
		g := ot.GlyphIndex(gid)
		if len(otf.Color.COLR.LayersOf(g)) > 0 || otf.Color.CBLC.HasGlyph(g) {
			n++
		}
	}
	return n
}
