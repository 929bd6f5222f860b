/*
Package plotting implements the per-glyph dispatcher of the renderer
core.

PlotChar is the top-level entry point for one glyph: it normalizes the
character selector into a cache key, looks the glyph up in the glyph
cache, and on a miss drives the font-type-specific construction path —
Type 1/2 charstrings through the hinting filter, TrueType outlines,
recursive Type 3 procedures, or direct Type 32 bitmap unpacking. The
finished form is deposited in the cache and composited onto the output
raster through the char blit.

Recursive Type 3 construction keeps the enclosing character context on
an explicit stack, so nested invocations cannot corrupt it.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>
*/
package plotting

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'ripcore.plot'
func tracer() tracing.Trace {
	return tracing.Select("ripcore.plot")
}
