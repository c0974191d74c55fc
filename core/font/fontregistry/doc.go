/*
Package fontregistry manages a registry for loaded source fonts.

A registry is constructed explicitly by the application and handed to
everything which needs to load fonts. Fonts are stored under a normalized
name and are never replaced once stored.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package fontregistry

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'emoji.fonts'
func tracer() tracing.Trace {
	return tracing.Select("emoji.fonts")
}
