/*
Package codepoint decodes emoji strings into sequences of Unicode scalar
values.

An emoji as seen by a user may consist of a single code-point (😀 U+1F600)
or of a cluster of code-points: flags are pairs of regional indicators,
skin tones are modifiers following a base emoji, families are joined by
ZERO WIDTH JOINER, keycaps combine a digit with U+20E3. Decoding has to
produce the scalar values of such a cluster in source order, independent of
the encoding form the text arrived in (UTF-8, UTF-16 with surrogate pairs,
UTF-32). A surrogate pair always yields exactly one scalar value.

	seq, err := codepoint.Decode("🇺🇸")
	seq.Len()    // => 2
	seq.Hex()    // => [U+1F1FA U+1F1F8]

Ill-formed input (invalid UTF-8, unpaired surrogates, values outside the
Unicode code space) is rejected with an error of code core.EINVALID; there
is no replacement with U+FFFD.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package codepoint

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'emoji.codepoint'
func tracer() tracing.Trace {
	return tracing.Select("emoji.codepoint")
}
