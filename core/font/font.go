/*
Package font is for loading the source fonts emoji are extracted from.

We will stick to the following definitions:

* A "scalable font" is a single font binary, e.g. "Noto Color Emoji". It is
loaded once and shared read-only by every request working on it.

* A "subset font" is a font derived from a scalable font, containing just
the glyphs for a single emoji sequence.

Source fonts may be plain TrueType (sfnt) binaries, or web fonts (WOFF and
WOFF2). Whether web fonts are inflated during loading is a matter of
configuration, see InflatePolicy.

TODO: font collections (*.ttc), e.g., /System/Library/Fonts/Apple Color Emoji.ttc

OpenType explained:
https://docs.microsoft.com/en-us/typography/opentype/

----------------------------------------------------------------------

BSD License

Copyright (c) 2017-21, Norbert Pillmayer

All rights reserved.

Redistribution and use in source and binary forms, with or without
modification, are permitted provided that the following conditions
are met:

1. Redistributions of source code must retain the above copyright
notice, this list of conditions and the following disclaimer.

2. Redistributions in binary form must reproduce the above copyright
notice, this list of conditions and the following disclaimer in the
documentation and/or other materials provided with the distribution.

3. Neither the name of this software nor the names of its contributors
may be used to endorse or promote products derived from this software
without specific prior written permission.

THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS
"AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT
LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR
A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT
HOLDER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT
LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE,
DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY
THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT
(INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE. */
package font

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/font/opentype/ot"
	"github.com/npillmayer/emojifont/core/font/webfont"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font/gofont/goregular"
)

// tracer traces with key 'emoji.fonts'.
func tracer() tracing.Trace {
	return tracing.Select("emoji.fonts")
}

// InflatePolicy controls how compressed source fonts are handled.
type InflatePolicy int

const (
	InflateAuto   InflatePolicy = iota // sniff the format, decode WOFF and WOFF2
	InflateNever                       // source must be a plain sfnt
	InflateAlways                      // source must be WOFF or WOFF2
)

func (p InflatePolicy) String() string {
	switch p {
	case InflateNever:
		return "never"
	case InflateAlways:
		return "always"
	}
	return "auto"
}

// ParseInflatePolicy reads an inflate policy from a configuration value.
// The empty string selects InflateAuto.
func ParseInflatePolicy(s string) (InflatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return InflateAuto, nil
	case "never", "no", "false":
		return InflateNever, nil
	case "always", "yes", "true":
		return InflateAlways, nil
	}
	return InflateAuto, core.Error(core.EINVALID, "unknown inflate policy %q", s)
}

// ScalableFont is a loaded source font.
type ScalableFont struct {
	Fontname string
	Filepath string         // file path
	Binary   []byte         // sfnt data, inflated if the source has been a web font
	Source   webfont.Format // container format of the source
	OT       *ot.Font       // parsed font, read-only
}

// LoadScalableFont reads a font file and parses it.
func LoadScalableFont(fontfile string, inflate InflatePolicy) (*ScalableFont, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, core.WrapError(err, core.EMISSING, "cannot read font file %s", fontfile)
	}
	f, err := ParseScalableFont(bytez, inflate)
	if err != nil {
		return nil, err
	}
	f.Filepath = fontfile
	if f.Fontname == "" {
		base := filepath.Base(fontfile)
		f.Fontname = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return f, nil
}

// ParseScalableFont parses a font binary. Depending on inflate, WOFF and
// WOFF2 data is decoded first. The font has to be suitable for subsetting.
func ParseScalableFont(data []byte, inflate InflatePolicy) (*ScalableFont, error) {
	format := webfont.Sniff(data)
	switch {
	case format == webfont.FormatUnknown:
		return nil, core.Error(core.EINVALID, "data is not a font")
	case inflate == InflateNever && format != webfont.FormatSFNT:
		return nil, core.Error(core.EINVALID, "font is compressed as %s, but inflating is off", format)
	case inflate == InflateAlways && format == webfont.FormatSFNT:
		return nil, core.Error(core.EINVALID, "font is not a web font, but inflating is required")
	}
	sfnt, _, err := webfont.Decode(data)
	if err != nil {
		return nil, core.WrapError(err, core.EINVALID, "cannot inflate %s font", format)
	}
	otf, err := ot.Parse(sfnt)
	if err != nil {
		return nil, err
	}
	if err := otf.CheckSubsettable(); err != nil {
		return nil, err
	}
	f := &ScalableFont{
		Fontname: otf.FontName(),
		Binary:   sfnt,
		Source:   format,
		OT:       otf,
	}
	tracer().Infof("loaded font %q from %s data, %d glyphs", f.Fontname, format, otf.NumGlyphs())
	return f, nil
}

// --- Fallback font ---------------------------------------------------------

// FallbackFont returns a font which is always present. Currently we use
// Go Sans. It does not contain any emoji, but it is useful for diagnostics
// and for testing the pipeline on a real-world font.
func FallbackFont() *ScalableFont {
	fallbackFontLoading.Do(func() {
		fallbackFont = loadFallbackFont()
	})
	return fallbackFont
}

var fallbackFontLoading sync.Once

var fallbackFont *ScalableFont

func loadFallbackFont() *ScalableFont {
	f, err := ParseScalableFont(goregular.TTF, InflateNever)
	if err != nil {
		panic("cannot load default font") // this cannot happen
	}
	f.Fontname = "Go Sans"
	f.Filepath = "internal"
	return f
}
