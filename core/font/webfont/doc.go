/*
Package webfont transcodes sfnt font binaries into the compressed formats
browsers load with @font-face, and back.

Two formats are supported for output:

	WOFF2   header 'wOF2', one brotli stream for all tables
	WOFF    header 'wOFF', tables zlib-compressed one by one

WOFF2 output uses the null transform for every table, including glyf and
loca. Transcoding is deterministic: equal input yields byte-identical output.

Decode reverses both formats. Fonts with transformed glyf/loca tables, as
produced by most WOFF2 tool chains, are not supported by Decode.

Malformed input is an invariant violation of the pipeline stage feeding the
transcoder; it is reported as an error with code core.ETRANSCODE.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>
*/
package webfont

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'emoji.webfont'.
func tracer() tracing.Trace {
	return tracing.Select("emoji.webfont")
}
