/*
Package opentype holds the metric types reported for OpenType fonts.

Sub-packages parse fonts (ot) and query information from them (otquery).
Metrics are given in font units, see sfnt.Units.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package opentype

import (
	"golang.org/x/image/font/sfnt"
)

// FontMetricsInfo holds the font-wide metrics of the 'hhea' table, with
// 'OS/2' as a fallback for ascent and descent, and the units per em of 'head'.
type FontMetricsInfo struct {
	UnitsPerEm      sfnt.Units
	Ascent, Descent sfnt.Units
	LineGap         sfnt.Units
	MaxAdvance      sfnt.Units
}

// GlyphMetricsInfo holds the horizontal metrics of a glyph from 'hmtx',
// and its outline box from 'glyf'. RSB is derived from the other values.
type GlyphMetricsInfo struct {
	Advance  sfnt.Units
	LSB, RSB sfnt.Units
	BBox     BoundingBox
}

// BoundingBox is the outline box of a glyph. It is zero for glyphs without
// outlines, e.g. bitmap emoji.
type BoundingBox struct {
	MinX, MinY sfnt.Units
	MaxX, MaxY sfnt.Units
}

// Empty is true for a box without area.
func (bbox BoundingBox) Empty() bool {
	return bbox.Width() == 0 || bbox.MaxY == bbox.MinY
}

// Width is the horizontal extent of the box.
func (bbox BoundingBox) Width() sfnt.Units {
	return bbox.MaxX - bbox.MinX
}
