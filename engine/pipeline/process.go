package pipeline

import (
	"fmt"
	"time"

	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/codepoint"
	"github.com/npillmayer/emojifont/core/font/opentype/ot"
	"github.com/npillmayer/emojifont/core/font/webfont"
	"github.com/npillmayer/emojifont/engine/closure"
	"github.com/npillmayer/emojifont/engine/glyphing"
	"github.com/npillmayer/emojifont/engine/subset"
)

// Options control the output of the pipeline.
type Options struct {
	Subset subset.Options
	GSUB   bool // follow GSUB substitutions during glyph closure
	Format webfont.Format
}

// DefaultOptions returns options producing WOFF2 output with GSUB closure.
func DefaultOptions() Options {
	return Options{GSUB: true, Format: webfont.FormatWOFF2}
}

func (o Options) String() string {
	return fmt.Sprintf("%s,gsub=%v,format=%s", o.Subset, o.GSUB, o.Format)
}

// Process runs the pipeline for a single request: it decodes the emoji,
// resolves it to glyphs of doc, closes the glyph set, builds a subset font
// and transcodes it. shaper may be nil, in which case ligatures will not be
// found.
//
// Process works on doc read-only and may be called concurrently. A panic in
// any stage, including the shaper, is returned as an error with code
// core.EINTERNAL.
func Process(doc *ot.Font, shaper glyphing.Shaper, req Request, opts Options) (result *Result, err error) {
	start := time.Now()
	diag := Diagnostics{}
	if shaper != nil {
		diag.Shaper = shaper.Name()
	}
	fail := func(stage Stage, err error) (*Result, error) {
		diag.Duration = time.Since(start)
		perr := &PipelineError{Stage: stage, Diagnostics: diag, Err: err}
		if core.IsInvariantViolation(err) {
			tracer().Errorf("%v", perr)
		} else {
			tracer().Infof("%v", perr)
		}
		return nil, perr
	}
	stage := StageDecode
	defer func() {
		if rec := recover(); rec != nil {
			tracer().Errorf("panic in stage %s for %q: %v", stage, req.Text, rec)
			result, err = fail(stage, core.Error(core.EINTERNAL, "%s stage panicked: %v", stage, rec))
		}
	}()
	seq, err := codepoint.Decode(req.Text)
	if err != nil {
		return fail(stage, err)
	}
	diag.CodePoints = seq.Hex()
	for _, w := range codepoint.Inspect(seq) {
		diag.Warnings = append(diag.Warnings, w.String())
	}
	stage = StageResolve
	if doc == nil {
		return fail(stage, core.Error(core.EINVALID, "no source font"))
	}
	res, err := glyphing.Resolve(doc, seq, shaper)
	if res != nil {
		for _, w := range res.Warnings {
			diag.Warnings = append(diag.Warnings, w.String())
		}
	}
	if err != nil {
		return fail(stage, err)
	}
	stage = StageClose
	set := closure.CloseWith(doc, res.Glyphs, closure.Options{GSUB: opts.GSUB})
	tracer().Debugf("glyph closure of %s: %s", seq.HexString(), set)
	stage = StageSubset
	sub, err := subset.Subset(doc, set, mapped(doc, seq), opts.Subset)
	if err != nil {
		return fail(stage, err)
	}
	diag.Subsetted = true
	diag.GlyphCount = sub.NumGlyphs
	for _, w := range sub.Warnings {
		diag.Warnings = append(diag.Warnings, w.String())
	}
	stage = StageTranscode
	asset, err := webfont.Transcoder{Format: opts.Format}.Transcode(sub.Font)
	if err != nil {
		return fail(stage, err)
	}
	diag.Length = asset.Length()
	diag.Duration = time.Since(start)
	tracer().Infof("emoji %s → %d glyphs, %s in %s", seq.HexString(), diag.GlyphCount, asset, diag.Duration)
	return &Result{Asset: asset, Diagnostics: diag}, nil
}

// mapped returns the code-points of seq which the font's cmap maps to a
// glyph. These make up the cmap of the subset font.
func mapped(doc *ot.Font, seq codepoint.EmojiSequence) []rune {
	runes := make([]rune, 0, seq.Len())
	for _, r := range seq.Runes() {
		if doc.CMap.Lookup(r) != ot.NotDef {
			runes = append(runes, r)
		}
	}
	return runes
}
