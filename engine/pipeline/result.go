package pipeline

import (
	"fmt"
	"time"

	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/font/webfont"
)

// Request is an emoji to render. Width and Height are the visual
// parameters requested by the client; they do not influence the font
// subset, but are part of the cache key.
type Request struct {
	Text          string
	Width, Height int
}

// Diagnostics describe a pipeline run.
type Diagnostics struct {
	Length     int      // byte length of the asset
	Subsetted  bool     // subset font has been built
	CodePoints []string // code-points of the emoji, U+XXXX
	GlyphCount int      // glyphs in the subset font, including .notdef
	Duration   time.Duration
	Warnings   []string
	Shaper     string
	Cached     bool // result has been served from the cache
}

// Result is the outcome of a successful pipeline run. Results are shared
// between clients and must not be modified.
type Result struct {
	Asset       *webfont.Asset
	Diagnostics Diagnostics
}

// cached returns a shallow copy of r, flagged as served from the cache.
func (r *Result) cached() *Result {
	c := *r
	c.Diagnostics.Cached = true
	return &c
}

// Stage is a step of the pipeline.
type Stage int

// Pipeline stages.
const (
	StageDecode Stage = iota
	StageResolve
	StageClose
	StageSubset
	StageTranscode
)

var stageNames = [...]string{"decode", "resolve", "close", "subset", "transcode"}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// PipelineError is a failed pipeline run. Its error code (see core.Code)
// is the code of the underlying error.
type PipelineError struct {
	Stage       Stage
	Diagnostics Diagnostics
	Err         error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("emoji pipeline failed at %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the error code of the underlying error.
func (e *PipelineError) ErrorCode() int {
	return core.Code(e.Err)
}

// UserMessage returns a human-readable message for the failure.
func (e *PipelineError) UserMessage() string {
	return fmt.Sprintf("%s: %s", e.Stage, core.UserMessage(e.Err))
}

var _ core.AppError = (*PipelineError)(nil)
