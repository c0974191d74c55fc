package pipeline

import (
	"strings"

	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/font"
	"github.com/npillmayer/emojifont/engine/glyphing"
	"github.com/npillmayer/emojifont/engine/glyphing/glypher"
	"github.com/npillmayer/emojifont/engine/glyphing/gotext"
	"github.com/npillmayer/emojifont/engine/glyphing/harfbuzz"
)

// NewShaper creates the shaper named name for font f. Shaper "none" (or the
// empty name) resolves emoji by cmap lookups only, and NewShaper will
// return a nil shaper.
func NewShaper(name string, f *font.ScalableFont) (glyphing.Shaper, error) {
	if f == nil {
		return nil, core.Error(core.EINVALID, "cannot create shaper without font")
	}
	switch strings.ToLower(name) {
	case "", "none":
		return nil, nil
	case "harfbuzz":
		sh, err := harfbuzz.New(f.Binary)
		if err != nil {
			return nil, err
		}
		return sh, nil
	case "gotext":
		sh, err := gotext.New(f.Binary)
		if err != nil {
			return nil, err
		}
		return sh, nil
	case "glypher":
		return glypher.New(f.OT), nil
	}
	return nil, core.Error(core.EINVALID, "unknown shaper %q", name)
}
