/*
Package raster implements the bit-level compositing primitives of the
renderer core: forms, spanlists, and the span/block/char blit functions.

A form is a raster region: a packed 1-bit bitmap, a multi-bit bitmap, a
per-line run-length spanlist array, or a blank sentinel. Blit functions
receive a blit context carrying the destination form, the clip form and
mode, separation offsets and the current color, and write pixels through
specialised variants selected by (color, clip-mode) function tables.

All bitmaps are stored MSB-first in 64-bit blit words, with lines aligned
to the word size.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>
*/
package raster

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'ripcore.render'
func tracer() tracing.Trace {
	return tracing.Select("ripcore.render")
}
