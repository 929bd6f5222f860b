/*
Package font implements font identity and character selection for the
renderer core.

There is a certain confusion in the nomenclature of font rendering. We
stick to the following definitions:

* A "font" is an unpacked font dictionary: identity, type, paint style
and transform, ready for character lookup.

* A "character selector" is the identity tuple used to look up a glyph:
a name, CID, or character code, plus the writing mode.

* A "glyph" is one rendered character image, owned by the glyph cache.

Font file parsing is not done here; the font format layers (sfnt,
textlayout) provide outline and parameter access through the ParamSource
and provider interfaces.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>
*/
package font

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'ripcore.fonts'
func tracer() tracing.Trace {
	return tracing.Select("ripcore.fonts")
}
