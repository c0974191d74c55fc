package ot

import "fmt"

// GlyfTable contains the TrueType outline data of the glyphs of a font.
// Glyph data blocks are located by the loca table; a zero-length block
// denotes an empty glyph (e.g., a space).
type GlyfTable struct {
	tableBase
	loca *LocaTable
}

func newGlyfTable(tag Tag, b binarySegm, offset, size uint32) *GlyfTable {
	t := &GlyfTable{}
	t.tableBase = makeTableBase(tag, b, offset, size)
	t.self = t
	return t
}

// GlyphData returns the raw data block of glyph gid. An empty glyph
// yields an empty slice. The returned slice is a view into the font's data.
func (t *GlyfTable) GlyphData(gid GlyphIndex) ([]byte, error) {
	if t.loca == nil || int(gid)+1 >= t.loca.locCnt {
		return nil, errFontFormat(fmt.Sprintf("glyph index %d out of range", gid))
	}
	from, to := t.loca.IndexToLocation(gid), t.loca.IndexToLocation(gid+1)
	if from == to {
		return nil, nil
	}
	if to < from || int(to) > len(t.data) {
		return nil, errFontFormat(fmt.Sprintf("loca entries for glyph %d", gid))
	}
	return t.data[from:to], nil
}

// Glyph returns the parsed outline of glyph gid.
func (t *GlyfTable) Glyph(gid GlyphIndex) (*Glyph, error) {
	data, err := t.GlyphData(gid)
	if err != nil {
		return nil, err
	}
	return ParseGlyph(data)
}

// Components returns the component glyphs of a composite glyph, or nil for
// simple and empty glyphs.
func (t *GlyfTable) Components(gid GlyphIndex) ([]GlyphIndex, error) {
	data, err := t.GlyphData(gid)
	if err != nil || len(data) < 10 {
		return nil, err
	}
	if int16(u16(data)) >= 0 {
		return nil, nil
	}
	g, err := ParseGlyph(data)
	if err != nil {
		return nil, err
	}
	comps := make([]GlyphIndex, len(g.Components))
	for i, c := range g.Components {
		comps[i] = c.Glyph
	}
	return comps, nil
}

// Flags for simple glyph outline points.
const (
	OnCurvePoint  uint8 = 0x01
	XShortVector  uint8 = 0x02
	YShortVector  uint8 = 0x04
	RepeatFlag    uint8 = 0x08
	XIsSameOrPos  uint8 = 0x10
	YIsSameOrPos  uint8 = 0x20
	OverlapSimple uint8 = 0x40
)

// Flags for composite glyph components.
const (
	Arg1And2AreWords      uint16 = 0x0001
	ArgsAreXYValues       uint16 = 0x0002
	RoundXYToGrid         uint16 = 0x0004
	WeHaveAScale          uint16 = 0x0008
	MoreComponents        uint16 = 0x0020
	WeHaveAnXAndYScale    uint16 = 0x0040
	WeHaveATwoByTwo       uint16 = 0x0080
	WeHaveInstructions    uint16 = 0x0100
	UseMyMetrics          uint16 = 0x0200
	OverlapCompound       uint16 = 0x0400
	ScaledComponentOffset uint16 = 0x0800
)

// Glyph is a parsed TrueType glyph description.
type Glyph struct {
	NumberOfContours       int16
	XMin, YMin, XMax, YMax int16
	EndPts                 []uint16 // simple glyphs: last point index of each contour
	Points                 []Point  // simple glyphs: outline points in absolute coordinates
	Components             []Component
	Instructions           []byte // hinting instructions, may be empty
	// for composites: byte offset of the instructions, i.e. the length of
	// the component records including the glyph header
	ComponentsEnd int
}

// IsComposite is true for composite glyphs.
func (g *Glyph) IsComposite() bool {
	return g.NumberOfContours < 0
}

// Point is an outline point of a simple glyph.
type Point struct {
	X, Y    int
	OnCurve bool
}

// Component is a reference from a composite glyph to a component glyph.
type Component struct {
	Flags      uint16
	Glyph      GlyphIndex
	Arg1, Arg2 int        // x/y offsets or point numbers, depending on ArgsAreXYValues
	Transform  [4]float64 // 2x2 matrix (xx, yx, xy, yy); identity if no scale present
	Offset     int        // byte offset of this component record within the glyph data
}

// HasXYOffset is true if the component arguments are offsets, not point numbers.
func (c Component) HasXYOffset() bool {
	return c.Flags&ArgsAreXYValues != 0
}

// ParseGlyph parses a glyph data block from table glyf.
// An empty data block results in an empty glyph.
func ParseGlyph(data []byte) (*Glyph, error) {
	g := &Glyph{}
	if len(data) == 0 {
		return g, nil
	}
	b := binarySegm(data)
	if len(b) < 10 {
		return nil, errFontFormat("glyph header")
	}
	g.NumberOfContours = int16(u16(b))
	g.XMin, g.YMin = int16(u16(b[2:])), int16(u16(b[4:]))
	g.XMax, g.YMax = int16(u16(b[6:])), int16(u16(b[8:]))
	if g.NumberOfContours >= 0 {
		return g, parseSimpleGlyph(g, b)
	}
	return g, parseCompositeGlyph(g, b)
}

func parseSimpleGlyph(g *Glyph, b binarySegm) error {
	n := int(g.NumberOfContours)
	pos := 10
	g.EndPts = make([]uint16, n)
	numPoints := 0
	for i := 0; i < n; i++ {
		e, err := b.u16(pos)
		if err != nil {
			return errFontFormat("glyph contour end points")
		}
		if i > 0 && e <= g.EndPts[i-1] {
			return errFontFormat("glyph contour end points not increasing")
		}
		g.EndPts[i] = e
		numPoints = int(e) + 1
		pos += 2
	}
	insLen, err := b.u16(pos)
	if err != nil {
		return errFontFormat("glyph instruction length")
	}
	pos += 2
	ins, err := b.view(pos, int(insLen))
	if err != nil {
		return errFontFormat("glyph instructions")
	}
	g.Instructions = ins
	pos += int(insLen)
	flags := make([]uint8, 0, numPoints)
	for len(flags) < numPoints {
		if pos >= len(b) {
			return errFontFormat("glyph flags")
		}
		f := b[pos]
		pos++
		flags = append(flags, f)
		if f&RepeatFlag != 0 {
			if pos >= len(b) {
				return errFontFormat("glyph flags repeat count")
			}
			for r := int(b[pos]); r > 0 && len(flags) < numPoints; r-- {
				flags = append(flags, f)
			}
			pos++
		}
	}
	g.Points = make([]Point, numPoints)
	x := 0
	for i, f := range flags {
		switch {
		case f&XShortVector != 0:
			if pos >= len(b) {
				return errFontFormat("glyph x coordinates")
			}
			dx := int(b[pos])
			pos++
			if f&XIsSameOrPos == 0 {
				dx = -dx
			}
			x += dx
		case f&XIsSameOrPos == 0:
			dx, err := b.i16(pos)
			if err != nil {
				return errFontFormat("glyph x coordinates")
			}
			pos += 2
			x += int(dx)
		}
		g.Points[i].X = x
		g.Points[i].OnCurve = f&OnCurvePoint != 0
	}
	y := 0
	for i, f := range flags {
		switch {
		case f&YShortVector != 0:
			if pos >= len(b) {
				return errFontFormat("glyph y coordinates")
			}
			dy := int(b[pos])
			pos++
			if f&YIsSameOrPos == 0 {
				dy = -dy
			}
			y += dy
		case f&YIsSameOrPos == 0:
			dy, err := b.i16(pos)
			if err != nil {
				return errFontFormat("glyph y coordinates")
			}
			pos += 2
			y += int(dy)
		}
		g.Points[i].Y = y
	}
	return nil
}

func parseCompositeGlyph(g *Glyph, b binarySegm) error {
	pos := 10
	var flags uint16
	for {
		if pos+4 > len(b) {
			return errFontFormat("composite glyph component")
		}
		c := Component{Offset: pos, Transform: [4]float64{1, 0, 0, 1}}
		flags = u16(b[pos:])
		c.Flags = flags
		c.Glyph = GlyphIndex(u16(b[pos+2:]))
		pos += 4
		if flags&Arg1And2AreWords != 0 {
			a1, err1 := b.i16(pos)
			a2, err2 := b.i16(pos + 2)
			if err1 != nil || err2 != nil {
				return errFontFormat("composite glyph arguments")
			}
			if flags&ArgsAreXYValues != 0 {
				c.Arg1, c.Arg2 = int(a1), int(a2)
			} else {
				c.Arg1, c.Arg2 = int(uint16(a1)), int(uint16(a2))
			}
			pos += 4
		} else {
			if pos+2 > len(b) {
				return errFontFormat("composite glyph arguments")
			}
			if flags&ArgsAreXYValues != 0 {
				c.Arg1, c.Arg2 = int(int8(b[pos])), int(int8(b[pos+1]))
			} else {
				c.Arg1, c.Arg2 = int(b[pos]), int(b[pos+1])
			}
			pos += 2
		}
		var err error
		switch {
		case flags&WeHaveAScale != 0:
			var s float64
			s, err = f2dot14(b, pos)
			c.Transform = [4]float64{s, 0, 0, s}
			pos += 2
		case flags&WeHaveAnXAndYScale != 0:
			var sx, sy float64
			sx, err = f2dot14(b, pos)
			if err == nil {
				sy, err = f2dot14(b, pos+2)
			}
			c.Transform = [4]float64{sx, 0, 0, sy}
			pos += 4
		case flags&WeHaveATwoByTwo != 0:
			for i := 0; i < 4 && err == nil; i++ {
				c.Transform[i], err = f2dot14(b, pos+2*i)
			}
			pos += 8
		}
		if err != nil {
			return errFontFormat("composite glyph transform")
		}
		g.Components = append(g.Components, c)
		if flags&MoreComponents == 0 {
			break
		}
	}
	g.ComponentsEnd = pos
	if flags&WeHaveInstructions != 0 {
		n, err := b.u16(pos)
		if err != nil {
			return errFontFormat("composite glyph instruction length")
		}
		ins, err := b.view(pos+2, int(n))
		if err != nil {
			return errFontFormat("composite glyph instructions")
		}
		g.Instructions = ins
	}
	return nil
}

func f2dot14(b binarySegm, pos int) (float64, error) {
	v, err := b.i16(pos)
	if err != nil {
		return 0, err
	}
	return float64(v) / 16384.0, nil
}
