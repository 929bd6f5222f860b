/*
Package params implements grouped parameter registers for the renderer
core.

Renderer parameters follow the PostScript save/restore discipline: a group
may be begun, parameters pushed within it, and the group ended, restoring
the previous values. The glyph cache and the character plotting machinery
read their limits and switches from a TypesettingRegisters-style register
set.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>
*/
package params

// RenderParameter is a key for a renderer parameter register.
type RenderParameter int

//go:generate stringer -type=RenderParameter
const (
	none                       RenderParameter = iota
	P_MAXFONTCACHE                             // purge threshold on total form bytes
	P_MAXCACHECHARS                            // purge threshold on glyph count
	P_MAXCACHEMATRIX                           // purge threshold on matrix count
	P_MAXFONTITEM                              // reject caching of forms larger than this
	P_MINFONTCOMPRESS                          // below this size, never compress
	P_HINTEDFONTS                              // enable Type 1 hinting
	P_TRUETYPEHINTS                            // TrueType hint fault policy
	P_FONTFILLRULE                             // winding or even-odd glyph fill
	P_FORCENULLMAPPING                         // suppress custom CDevProc remapping
	P_FORCEFONTCOMPRESS                        // per-use-count compression ratio thresholds
	P_TYPE1STEMSNAP                            // stem snapping bias, sentinel disables
	P_ACCURATERENDERTHRESHOLD                  // device-pixel limit for high-precision path
	P_ACCURATETWOPASSTHRESHOLD                 // device-pixel limit for two-pass rendering
	P_STOPPER
)

// TrueType hint fault policies for P_TRUETYPEHINTS.
const (
	TTHintsNone = iota
	TTHintsCheckFaults
	TTHintsSafeFaults
	TTHintsSilentFaults
)

// Fill rules for P_FONTFILLRULE.
const (
	FillRuleWinding = iota
	FillRuleEvenOdd
)

// Type1StemSnapDisabled is the sentinel value which disables the stem
// snapping width bias.
const Type1StemSnapDisabled = -1.0

// Default dynamic font cache limits, per 2 MB of non-pageable VM.
const (
	DefaultMaxFontCache   = 750000
	DefaultMaxCacheChars  = 7500
	DefaultMaxCacheMatrix = 750
	DefaultMaxFontItem    = 32768
	DefaultMinCompress    = 256
)

// ParameterGroup is one level of grouped parameter overrides.
type ParameterGroup struct {
	params map[RenderParameter]interface{}
	level  int
	next   *ParameterGroup
}

// RenderRegisters hold the renderer parameters, with grouping support.
type RenderRegisters struct {
	base       [P_STOPPER]interface{}
	groups     *ParameterGroup
	grouplevel int
}

// ----------------------------------------------------------------------

// NewRenderRegisters creates a register set initialized with defaults.
func NewRenderRegisters() *RenderRegisters {
	regs := &RenderRegisters{}
	initParameters(&regs.base)
	return regs
}

func initParameters(p *[P_STOPPER]interface{}) {
	p[P_MAXFONTCACHE] = DefaultMaxFontCache
	p[P_MAXCACHECHARS] = DefaultMaxCacheChars
	p[P_MAXCACHEMATRIX] = DefaultMaxCacheMatrix
	p[P_MAXFONTITEM] = DefaultMaxFontItem
	p[P_MINFONTCOMPRESS] = DefaultMinCompress
	p[P_HINTEDFONTS] = true
	p[P_TRUETYPEHINTS] = TTHintsSilentFaults
	p[P_FONTFILLRULE] = FillRuleWinding
	p[P_FORCENULLMAPPING] = false
	p[P_FORCEFONTCOMPRESS] = []float64{0.8, 0.5} // first use aggressive, then conservative
	p[P_TYPE1STEMSNAP] = Type1StemSnapDisabled
	p[P_ACCURATERENDERTHRESHOLD] = 0
	p[P_ACCURATETWOPASSTHRESHOLD] = 0
}

// Begingroup opens a parameter group. Parameters pushed until the matching
// Endgroup shadow the base values.
func (regs *RenderRegisters) Begingroup() {
	regs.grouplevel++
}

// Endgroup closes the innermost parameter group, dropping its overrides.
func (regs *RenderRegisters) Endgroup() {
	if regs.grouplevel > 0 {
		if regs.groups != nil && regs.groups.level == regs.grouplevel {
			regs.groups = regs.groups.next
		}
		regs.grouplevel--
	}
}

// Push sets a parameter, either in the base registers or shadowed within
// the current group.
func (regs *RenderRegisters) Push(key RenderParameter, value interface{}) {
	if regs.grouplevel > 0 {
		var g *ParameterGroup
		if regs.groups == nil || regs.groups.level < regs.grouplevel {
			g = &ParameterGroup{}
			g.params = make(map[RenderParameter]interface{})
			g.level = regs.grouplevel
			g.next = regs.groups
			regs.groups = g
		} else {
			g = regs.groups
		}
		g.params[key] = value
	} else {
		regs.base[key] = value
	}
}

// Get returns the current value for a parameter.
func (regs *RenderRegisters) Get(key RenderParameter) interface{} {
	if key <= 0 || key >= P_STOPPER {
		panic("parameter key outside range of renderer parameters")
	}
	var value interface{}
	if regs.grouplevel > 0 {
		for g := regs.groups; g != nil; g = g.next {
			value = g.params[key]
			if value != nil {
				break
			}
		}
	}
	if value == nil {
		value = regs.base[key]
	}
	return value
}

// N returns an integer-valued parameter.
func (regs *RenderRegisters) N(key RenderParameter) int {
	return regs.Get(key).(int)
}

// B returns a boolean-valued parameter.
func (regs *RenderRegisters) B(key RenderParameter) bool {
	return regs.Get(key).(bool)
}

// F returns a float-valued parameter.
func (regs *RenderRegisters) F(key RenderParameter) float64 {
	return regs.Get(key).(float64)
}

// FA returns a float-array-valued parameter.
func (regs *RenderRegisters) FA(key RenderParameter) []float64 {
	return regs.Get(key).([]float64)
}
