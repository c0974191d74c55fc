/*
Package otquery queries metrics and other information from OpenType fonts.

Package otquery provides functions to summarize a source font: its naming
records, the kinds of color glyphs it carries and its metrics. Clients are
diagnostic tools, e.g. command `emojisub tables`, and tests checking that
subset fonts keep the metrics of their source.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otquery

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'emoji.fonts'
func tracer() tracing.Trace {
	return tracing.Select("emoji.fonts")
}
