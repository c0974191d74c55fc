/*
Package resources resolves the source fonts for the emoji pipeline.

As font loading may be a time-consuming task, functions in this package work
in an async/await fashion by returning a promise. Functions named

   Resolve…(…)

will return a resource-specific promise type, which the client will call later
to receive the loaded resource. The call to the promise-function will then block
until loading has completed.

Fonts are searched for in this order:

   1. the font registry
   2. the built-in fallback font, if the name is "fallback"
   3. the file system, if the name is a path
   4. the directories listed in configuration key 'emoji.fontdirs'
   5. the output of fontconfig's fc-list, if key 'emoji.fontconfig' is set
   6. the platform's font directories

Configuration key 'emoji.inflate' (auto, never, always) controls the
handling of WOFF and WOFF2 source fonts.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package resources

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces to tracing key 'emoji.fonts'.
func tracer() tracing.Trace {
	return tracing.Select("emoji.fonts")
}
