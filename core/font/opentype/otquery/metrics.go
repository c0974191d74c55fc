package otquery

import (
	"encoding/binary"

	"github.com/npillmayer/emojifont/core/font/opentype"
	"github.com/npillmayer/emojifont/core/font/opentype/ot"
	"golang.org/x/image/font/sfnt"
)

// --- Font Information -------------------------------------------------

// FontMetrics retrieves selected metrics of a font.
func FontMetrics(otf *ot.Font) opentype.FontMetricsInfo {
	metrics := opentype.FontMetricsInfo{}
	if hhea := otf.Table(ot.T("hhea")); hhea != nil && len(hhea.Binary()) >= 12 {
		b := hhea.Binary()
		metrics.Ascent = sfnt.Units(i16(b[4:]))
		metrics.Descent = sfnt.Units(i16(b[6:]))
		metrics.LineGap = sfnt.Units(i16(b[8:]))
		metrics.MaxAdvance = sfnt.Units(binary.BigEndian.Uint16(b[10:]))
	}
	if metrics.Ascent == 0 && metrics.Descent == 0 {
		if os2 := otf.Table(ot.T("OS/2")); os2 != nil && len(os2.Binary()) >= 72 {
			tracer().Debugf("OS/2")
			b := os2.Binary()
			a := sfnt.Units(i16(b[68:]))
			if a > metrics.Ascent {
				tracer().Debugf("override of ascent: %d -> %d", metrics.Ascent, a)
				metrics.Ascent = a
			}
			d := sfnt.Units(i16(b[70:]))
			if d < metrics.Descent {
				tracer().Debugf("override of descent: %d -> %d", metrics.Descent, d)
				metrics.Descent = d
			}
		}
	}
	if otf.Head != nil {
		metrics.UnitsPerEm = sfnt.Units(otf.Head.UnitsPerEm)
	}
	return metrics
}

// GlyphMetrics retrieves the metrics of a glyph. Glyphs without outlines
// (e.g., bitmap glyphs) have an empty bounding box.
func GlyphMetrics(otf *ot.Font, gid ot.GlyphIndex) (opentype.GlyphMetricsInfo, error) {
	metrics := opentype.GlyphMetricsInfo{}
	if otf.HMtx != nil {
		adv, lsb := otf.HMtx.HMetrics(gid)
		metrics.Advance = sfnt.Units(adv)
		metrics.LSB = sfnt.Units(lsb)
	}
	if otf.Glyf == nil {
		return metrics, nil
	}
	g, err := otf.Glyf.Glyph(gid)
	if err != nil {
		return metrics, err
	}
	if g == nil {
		return metrics, nil
	}
	metrics.BBox = opentype.BoundingBox{
		MinX: sfnt.Units(g.XMin), MinY: sfnt.Units(g.YMin),
		MaxX: sfnt.Units(g.XMax), MaxY: sfnt.Units(g.YMax),
	}
	metrics.RSB = metrics.Advance - metrics.LSB - metrics.BBox.Width()
	return metrics, nil
}

func i16(b []byte) int16 {
	return int16(binary.BigEndian.Uint16(b))
}
