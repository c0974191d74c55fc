package subset

import (
	"fmt"
	"math"

	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/font/opentype/ot"
)

// maxComponentDepth limits the nesting of composite glyphs we follow.
const maxComponentDepth = 16

// buildOutlines writes glyf and loca, together with head and maxp, which
// depend on the outlines.
func (s *subsetter) buildOutlines() error {
	var glyf []byte
	offsets := make([]uint32, 0, len(s.glyphs)+1)
	stats := &maxpStats{}
	var bbox *[4]int16
	for _, old := range s.glyphs {
		offsets = append(offsets, uint32(len(glyf)))
		data, err := s.outline(old, stats)
		if err != nil {
			return err
		}
		if len(data) >= 10 {
			bbox = unionBBox(bbox, data)
		}
		glyf = append(glyf, data...)
		for len(glyf)%4 != 0 {
			glyf = append(glyf, 0)
		}
	}
	offsets = append(offsets, uint32(len(glyf)))
	var locaFormat uint16
	if len(glyf) > 0x1fffe {
		locaFormat = 1
	}
	s.tables[ot.T("glyf")] = glyf
	s.tables[ot.T("loca")] = ot.EncodeLoca(offsets, locaFormat == 1)
	s.tables[ot.T("head")] = s.head(locaFormat, bbox)
	s.tables[ot.T("maxp")] = s.maxp(stats)
	tracer().Debugf("glyf table has %d bytes, loca format %d", len(glyf), locaFormat)
	return nil
}

func unionBBox(bbox *[4]int16, data []byte) *[4]int16 {
	g := [4]int16{
		int16(uint16(data[2])<<8 | uint16(data[3])),
		int16(uint16(data[4])<<8 | uint16(data[5])),
		int16(uint16(data[6])<<8 | uint16(data[7])),
		int16(uint16(data[8])<<8 | uint16(data[9])),
	}
	if bbox == nil {
		return &g
	}
	bbox[0], bbox[1] = min(bbox[0], g[0]), min(bbox[1], g[1])
	bbox[2], bbox[3] = max(bbox[2], g[2]), max(bbox[3], g[3])
	return bbox
}

// outline returns the new glyph data block for an old glyph.
func (s *subsetter) outline(old ot.GlyphIndex, stats *maxpStats) ([]byte, error) {
	raw, err := s.otf.Glyf.GlyphData(old)
	if err != nil {
		return nil, core.WrapError(err, core.ESUBSET, "cannot read outline of glyph %d", old)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	g, err := ot.ParseGlyph(raw)
	if err != nil {
		return nil, core.WrapError(err, core.ESUBSET, "cannot parse outline of glyph %d", old)
	}
	flattened := false
	if g.IsComposite() && s.opts.FlattenComposites {
		if flat, reason := s.flatten(old); flat != nil {
			g, flattened = flat, true
		} else {
			s.warn(Warning{Kind: CompositeKept, Glyph: old,
				Message: fmt.Sprintf("composite glyph %d kept: %s", old, reason)})
		}
	}
	var instructions []byte
	if s.opts.PreserveHinting && !flattened {
		instructions = g.Instructions
	}
	stats.instructions = max(stats.instructions, len(instructions))
	if g.IsComposite() {
		return s.composite(old, g, instructions, stats)
	}
	endPts, points := g.EndPts, g.Points
	optimized := false
	if s.opts.OptimizePaths && len(instructions) == 0 {
		endPts, points, optimized = optimizeContours(endPts, points)
	}
	stats.points = max(stats.points, len(points))
	stats.contours = max(stats.contours, len(endPts))
	if !flattened && !optimized && len(instructions) == len(g.Instructions) {
		return raw, nil // unchanged
	}
	data, err := ot.EncodeSimpleGlyph(endPts, points, instructions)
	if err != nil {
		return nil, core.WrapError(err, core.ESUBSET, "cannot encode outline of glyph %d", old)
	}
	return data, nil
}

func (s *subsetter) composite(old ot.GlyphIndex, g *ot.Glyph, instructions []byte, stats *maxpStats) ([]byte, error) {
	comps := make([]ot.Component, len(g.Components))
	for i, c := range g.Components {
		newID, ok := s.retained(c.Glyph)
		if !ok {
			return nil, core.Error(core.ESUBSET, "component %d of glyph %d is not in glyph set", c.Glyph, old)
		}
		comps[i] = c
		comps[i].Glyph = newID
	}
	points, contours, depth := s.measure(old)
	stats.compositePoints = max(stats.compositePoints, points)
	stats.compositeContours = max(stats.compositeContours, contours)
	stats.componentElements = max(stats.componentElements, len(comps))
	stats.componentDepth = max(stats.componentDepth, depth)
	bbox := [4]int16{g.XMin, g.YMin, g.XMax, g.YMax}
	data, err := ot.EncodeCompositeGlyph(bbox, comps, instructions)
	if err != nil {
		return nil, core.WrapError(err, core.ESUBSET, "cannot encode composite glyph %d", old)
	}
	return data, nil
}

// measurement holds the decomposed size of a glyph. A nil entry in
// subsetter.measured marks a glyph whose measurement is in progress.
type measurement struct {
	points, contours, depth int
}

// measure returns the number of points and contours of a glyph after
// decomposition, and its composite nesting depth. Results are memoized per
// glyph; a component cycle contributes nothing.
func (s *subsetter) measure(gid ot.GlyphIndex) (points, contours, depth int) {
	if m, seen := s.measured[gid]; seen {
		if m == nil {
			return 0, 0, 0
		}
		return m.points, m.contours, m.depth
	}
	g, err := s.otf.Glyf.Glyph(gid)
	if err != nil {
		return 0, 0, 0
	}
	if !g.IsComposite() {
		return len(g.Points), len(g.EndPts), 0
	}
	if s.measured == nil {
		s.measured = make(map[ot.GlyphIndex]*measurement)
	}
	s.measured[gid] = nil
	for _, c := range g.Components {
		p, k, d := s.measure(c.Glyph)
		points += p
		contours += k
		depth = max(depth, d)
	}
	depth++
	s.measured[gid] = &measurement{points: points, contours: contours, depth: depth}
	return points, contours, depth
}

// --- Flattening ------------------------------------------------------------

// flatten decomposes a composite glyph into a simple glyph. It returns nil
// and a reason if the glyph cannot be decomposed.
func (s *subsetter) flatten(gid ot.GlyphIndex) (*ot.Glyph, string) {
	var endPts []uint16
	var points []ot.Point
	visiting := make(map[ot.GlyphIndex]bool)
	var decompose func(gid ot.GlyphIndex, m [6]float64) string
	decompose = func(gid ot.GlyphIndex, m [6]float64) string {
		if visiting[gid] {
			return fmt.Sprintf("cyclic reference to glyph %d", gid)
		}
		if len(visiting) > maxComponentDepth {
			return "components nested too deeply"
		}
		g, err := s.otf.Glyf.Glyph(gid)
		if err != nil {
			return err.Error()
		}
		if !g.IsComposite() {
			base := len(points)
			for _, e := range g.EndPts {
				endPts = append(endPts, uint16(base+int(e)))
			}
			for _, p := range g.Points {
				points = append(points, transform(m, p))
			}
			return ""
		}
		visiting[gid] = true
		defer delete(visiting, gid)
		for _, c := range g.Components {
			if !c.HasXYOffset() {
				return fmt.Sprintf("component %d is positioned by point matching", c.Glyph)
			}
			if reason := decompose(c.Glyph, compose(m, componentMatrix(c))); reason != "" {
				return reason
			}
		}
		return ""
	}
	identity := [6]float64{1, 0, 0, 1, 0, 0}
	if reason := decompose(gid, identity); reason != "" {
		return nil, reason
	}
	if len(points) > math.MaxUint16 {
		return nil, "too many points"
	}
	flat := &ot.Glyph{NumberOfContours: int16(len(endPts)), EndPts: endPts, Points: points}
	tracer().Debugf("flattened composite glyph %d into %d contours", gid, len(endPts))
	return flat, ""
}

// componentMatrix returns the affine transform of a component as
// (xx, yx, xy, yy, dx, dy), i.e. x' = xx·x + xy·y + dx, y' = yx·x + yy·y + dy.
func componentMatrix(c ot.Component) [6]float64 {
	t := c.Transform
	if t == [4]float64{} {
		t = [4]float64{1, 0, 0, 1}
	}
	dx, dy := float64(c.Arg1), float64(c.Arg2)
	if c.Flags&ot.ScaledComponentOffset != 0 {
		dx, dy = t[0]*dx+t[2]*dy, t[1]*dx+t[3]*dy
	}
	return [6]float64{t[0], t[1], t[2], t[3], dx, dy}
}

// compose returns the transform applying inner first, then outer.
func compose(outer, inner [6]float64) [6]float64 {
	return [6]float64{
		outer[0]*inner[0] + outer[2]*inner[1],
		outer[1]*inner[0] + outer[3]*inner[1],
		outer[0]*inner[2] + outer[2]*inner[3],
		outer[1]*inner[2] + outer[3]*inner[3],
		outer[0]*inner[4] + outer[2]*inner[5] + outer[4],
		outer[1]*inner[4] + outer[3]*inner[5] + outer[5],
	}
}

func transform(m [6]float64, p ot.Point) ot.Point {
	x, y := float64(p.X), float64(p.Y)
	return ot.Point{
		X:       int(math.Round(m[0]*x + m[2]*y + m[4])),
		Y:       int(math.Round(m[1]*x + m[3]*y + m[5])),
		OnCurve: p.OnCurve,
	}
}

// --- Path optimization -----------------------------------------------------

// optimizeContours removes duplicate points and on-curve points lying on
// the straight line between their on-curve neighbours. Contours keep at
// least three points.
func optimizeContours(endPts []uint16, points []ot.Point) ([]uint16, []ot.Point, bool) {
	var newEnds []uint16
	var newPoints []ot.Point
	changed := false
	start := 0
	for _, e := range endPts {
		contour := points[start : int(e)+1]
		start = int(e) + 1
		opt := optimizeContour(contour)
		if len(opt) != len(contour) {
			changed = true
		}
		newPoints = append(newPoints, opt...)
		newEnds = append(newEnds, uint16(len(newPoints)-1))
	}
	if !changed {
		return endPts, points, false
	}
	return newEnds, newPoints, true
}

func optimizeContour(contour []ot.Point) []ot.Point {
	pts := append([]ot.Point(nil), contour...)
	for removed := true; removed && len(pts) > 3; {
		removed = false
		for i := 0; i < len(pts) && len(pts) > 3; i++ {
			prev := pts[(i+len(pts)-1)%len(pts)]
			next := pts[(i+1)%len(pts)]
			if pts[i] == prev || (pts[i].OnCurve && prev.OnCurve && next.OnCurve && between(prev, pts[i], next)) {
				pts = append(pts[:i], pts[i+1:]...)
				removed = true
				i--
			}
		}
	}
	return pts
}

// between is true if p lies on the segment from a to b.
func between(a, p, b ot.Point) bool {
	cross := (p.X-a.X)*(b.Y-a.Y) - (p.Y-a.Y)*(b.X-a.X)
	if cross != 0 {
		return false
	}
	return min(a.X, b.X) <= p.X && p.X <= max(a.X, b.X) &&
		min(a.Y, b.Y) <= p.Y && p.Y <= max(a.Y, b.Y)
}
