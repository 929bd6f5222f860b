/*
Package glyphcache implements the font cache of the renderer core: a
three-level ordered structure (font → matrix → character) with
most-recently-used ordering at every level.

Each FontEntry owns a list of MatrixEntries, one per transform the font
has been rendered at; each MatrixEntry owns 32 hash buckets of
CharEntries keyed by the glyph's integer code modulo 32. Every successful
lookup relinks the found entry to the front of its parent's list, so the
list heads track the working set.

The cache maintains four accounting counters (form bytes, fonts,
matrices, characters) checked against configured maxima after each
insertion. Exceeding a maximum triggers a purge which advances a page
boundary, reclaiming glyphs unused since; when a purge pass reclaims
nothing, the cache switches to on-the-fly bitmap-to-RLE compression.

All cache mutation happens on the interpreter goroutine. Renderer
goroutines treat cache forms as immutable after insertion.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>
*/
package glyphcache

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'ripcore.cache'
func tracer() tracing.Trace {
	return tracing.Select("ripcore.cache")
}
