/*
Package glypher is a home-grown shaper for emoji sequences, for cases where
we can afford to not rely on HarfBuzz.

A text-processing client follows a standard process to convert a string of
characters into positioned glyphs (see
https://docs.microsoft.com/en-us/typography/opentype/spec/ttochap1#text-processing-with-opentype-layout-fonts).
Using the 'cmap' table in the font, the client converts the character codes
into a string of glyph indices. Using information in the GSUB table, the
client then modifies the resulting string, substituting ligatures or other
alternatives as appropriate.

For emoji, positioning is irrelevant and only two kinds of substitution
matter: single substitutions (presentation forms) and ligatures (flags,
keycaps, skin tones and ZWJ sequences). That is all glypher does.
Contextual lookups are skipped.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>
*/
package glypher

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'emoji.glyphs'.
func tracer() tracing.Trace {
	return tracing.Select("emoji.glyphs")
}
