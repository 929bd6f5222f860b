/*
Package resources locates font resources on the local system.

The renderer core itself never touches the file system; resource
location exists for the font format providers and their tests, which
need real font files to exercise outline extraction.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>
*/
package resources

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'ripcore.core'
func tracer() tracing.Trace {
	return tracing.Select("ripcore.core")
}
