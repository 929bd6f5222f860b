/*
Package hinting implements the Type 1/2 stem and counter hinting filter.

The filter sits between a charstring interpreter and the path builder it
wraps: it receives outline-building primitives, snaps stem edges to pixel
boundaries on the output raster using alignment zones and stem-width
snapping tables, and forwards the adjusted coordinates to the underlying
builder. Per-glyph state tracks declared stems so the hintmask and
cntrmask operators can activate, deactivate and group them.

Counter hinting regularizes the space between stems with a local-search
constraint solver over a 32-bit decision word; see counter.go.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>
*/
package hinting

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'ripcore.hints'
func tracer() tracing.Trace {
	return tracing.Select("ripcore.hints")
}
