package glyphing

import (
	"fmt"

	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/codepoint"
	"github.com/npillmayer/emojifont/core/font/opentype/ot"
)

// WarningKind classifies non-fatal findings of glyph resolution.
type WarningKind int

// Kinds of resolution warnings.
const (
	GlyphNotFound WarningKind = iota // code-point not mapped by cmap
	ShapingFailed                    // shaper returned an error
)

// Warning is a non-fatal finding of glyph resolution. Err carries a core
// error code (core.EMISSING for missing glyphs).
type Warning struct {
	Kind      WarningKind
	CodePoint rune // for GlyphNotFound
	Err       error
}

func (w Warning) String() string {
	return core.UserMessage(w.Err)
}

// Resolution is the result of resolving an emoji sequence to glyphs.
type Resolution struct {
	Glyphs     *GlyphSet           // all glyphs, excluding .notdef
	Direct     *GlyphSet           // glyphs found by cmap lookup
	Shaped     *GlyphSet           // glyphs found by shaping only
	CodePoints []string            // code-points of the sequence, U+XXXX
	Sequence   codepoint.EmojiSequence
	Warnings   []Warning
}

// Resolve finds the glyphs of a font which are necessary to display an emoji
// sequence. Every code-point is looked up in the font's cmap. If the sequence
// consists of more than one code-point and shaper is not nil, the sequence
// will additionally be shaped as a whole, to catch ligatures.
//
// Resolve returns an error with code core.ENOGLYPHS if no glyph at all could
// be found. Missing glyphs for single code-points are reported as warnings.
func Resolve(otf *ot.Font, seq codepoint.EmojiSequence, shaper Shaper) (*Resolution, error) {
	if otf == nil {
		return nil, core.Error(core.EINVALID, "no font to resolve glyphs from")
	}
	if seq.Len() == 0 {
		return nil, core.Error(core.EINVALID, "empty emoji sequence")
	}
	res := &Resolution{
		Glyphs:     NewGlyphSet(),
		Direct:     NewGlyphSet(),
		Shaped:     NewGlyphSet(),
		CodePoints: seq.Hex(),
		Sequence:   seq,
	}
	for _, r := range seq.Runes() {
		if gid := otf.CMap.Lookup(r); gid != ot.NotDef {
			tracer().Debugf("code-point %U maps to glyph %d", r, gid)
			res.Direct.Add(gid)
			continue
		}
		w := Warning{
			Kind:      GlyphNotFound,
			CodePoint: r,
			Err:       core.Error(core.EMISSING, "no glyph for code-point %U in font", r),
		}
		tracer().Infof("%s", w)
		res.Warnings = append(res.Warnings, w)
	}
	res.Glyphs.Add(res.Direct.Glyphs()...)
	if seq.Len() > 1 && shaper != nil {
		res.shape(seq, shaper, otf.NumGlyphs())
	}
	if res.Glyphs.Len() == 0 {
		err := core.Error(core.ENOGLYPHS, "no glyphs found for emoji sequence %s", seq.HexString())
		tracer().Infof("%v", err)
		return res, err
	}
	tracer().Infof("emoji sequence %s resolved to glyphs %s", seq.HexString(), res.Glyphs)
	return res, nil
}

func (res *Resolution) shape(seq codepoint.EmojiSequence, shaper Shaper, numGlyphs int) {
	glyphs, err := shaper.Shape(seq)
	if err != nil {
		w := Warning{
			Kind: ShapingFailed,
			Err:  core.WrapError(err, core.EINTERNAL, "shaper %s failed for %s", shaper.Name(), seq.HexString()),
		}
		tracer().Infof("%s", w)
		res.Warnings = append(res.Warnings, w)
		return
	}
	for _, gid := range glyphs {
		if gid == ot.NotDef {
			continue
		}
		if int(gid) >= numGlyphs {
			tracer().Errorf("shaper %s produced glyph %d outside of font", shaper.Name(), gid)
			continue
		}
		if res.Glyphs.Add(gid) > 0 {
			tracer().Debugf("shaper %s found additional glyph %d", shaper.Name(), gid)
			res.Shaped.Add(gid)
		}
	}
}

// Missing returns the code-points which have no glyph in the font's cmap.
func (res *Resolution) Missing() []rune {
	var missing []rune
	for _, w := range res.Warnings {
		if w.Kind == GlyphNotFound {
			missing = append(missing, w.CodePoint)
		}
	}
	return missing
}

// ViaShaping is true if some glyphs have been found by shaping only.
func (res *Resolution) ViaShaping() bool {
	return res.Shaped.Len() > 0
}

func (res *Resolution) String() string {
	return fmt.Sprintf("resolution(%v: direct=%s shaped=%s, %d warnings)",
		res.CodePoints, res.Direct, res.Shaped, len(res.Warnings))
}
