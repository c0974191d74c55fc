/*
Package ot provides access to the OpenType font tables needed for emoji
subsetting. Intended audience for this package are:

▪︎ glyph resolvers, which map code-points to glyphs by consulting cmap and GSUB

▪︎ subsetters, which need the internal structure of glyf, loca, hmtx, COLR and
the CBLC/CBDT bitmap tables to copy glyphs into a new font

Package `ot` will expose the tables to the client, but will not interpret them
beyond what is needed to navigate glyph data. Tables not needed for subsetting
are kept as generic tables, which give access to their binary data only.

The tables of a font are a strongly typed registry: every table kind relevant
for emoji fonts has its own Go type, reachable either through a shortcut field
of Font or through Table(tag).Self().AsXXX(). The AsXXX conversions are
null-safe, i.e. they return nil for tables of a different kind:

	otf, err := ot.Parse(data)
	…
	colr := otf.Table(ot.T("COLR")).Self().AsCOLR()   // nil if no COLR table
	layers := colr.LayersOf(gid)                        // nil-safe as well

A parsed font is immutable. Package `ot` keeps the initial font binary in
memory and tables are views into it; nothing gets copied out unless a client
asks for it.

Assemble is the inverse of Parse: it builds a new sfnt binary from a set of
table binaries, computing the table directory, padding and checksums.

# Status

Fonts with TrueType outlines, COLR version 0 and CBLC/CBDT color bitmaps are
supported. No font collections nor variable fonts are supported. CFF outlines
are parsed as generic tables only.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>

Some code has originally been copied over from golang.org/x/image/font/sfnt/cmap.go,
as the cmap-routines are not accessible through the sfnt package's API.
I understand this to be legally okay as long as the Go license information
stays intact.

	Copyright 2017 The Go Authors. All rights reserved.
	Use of this source code is governed by a BSD-style
	license that can be found in the LICENSE file.

The license file mentioned can be found in file GO-LICENSE at the root folder
of this module.
*/
package ot

/*
There are (at least) two Go packages around for parsing SFNT fonts:

▪ https://pkg.go.dev/golang.org/x/image/font/sfnt

▪ https://pkg.go.dev/github.com/ConradIrwin/font/sfnt

x/image/font/sfnt is well suited for rasterizing applications, and we use it
to double-check subset fonts. However, it does not expose the tables of a font,
which is what a subsetter needs to navigate.
*/

import (
	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/schuko/tracing"
)

// Valuable resource:
// http://opentypecookbook.com/

// tracer writes to trace with key 'emoji.fonts'
func tracer() tracing.Trace {
	return tracing.Select("emoji.fonts")
}

// errFontFormat produces user level errors for font parsing.
func errFontFormat(x string) error {
	return core.Error(core.EINVALID, "OpenType font format: %s", x)
}
