package hinting

import (
	"math"

	"github.com/npillmayer/ripcore/core/font"
	"github.com/npillmayer/ripcore/core/geom"
	"github.com/npillmayer/ripcore/core/params"
)

const (
	eps           = 0.001 // small number for comparisons
	extraBlueFuzz = 4     // different from the Type 1 spec, but necessary
	stemFraction  = 3.0
	fixedStems    = 32 // preallocated stems per glyph
)

func nearest(x float64) int {
	if x < 0.0 {
		return int(x - 0.5)
	}
	return int(x + 0.5)
}

// Filter is the hinting filter: it implements CharBuilder, adjusting
// coordinates so stem edges snap to pixel boundaries, and forwards every
// primitive to the wrapped path builder.
type Filter struct {
	out PathBuilder

	blues    blues
	zones    []alignmentZone
	baseline int // index of the baseline zone, or -1

	// Pixel geometry derived from the font matrix. unitPixels is the
	// number of pixels per character space unit along each axis;
	// onePixel the inverse.
	unitPixelsX, unitPixelsY   float64
	unitPixelsX2, unitPixelsY2 float64
	onePixelX, onePixelY       float64
	zonesStale                 bool

	t1StemSnap float64

	// Per-glyph state.
	numStems     int
	inDotSection bool
	sbX, sbY     float64
	baselineDy   float64
	stems        [2][2]*Stem // [axis][activation]
	pool         [fixedStems]Stem
}

// New creates a hinting filter wrapping the given path builder. The stem
// snap bias is read from the renderer parameters.
func New(out PathBuilder, regs *params.RenderRegisters) *Filter {
	f := &Filter{out: out, baseline: -1}
	f.t1StemSnap = params.Type1StemSnapDisabled
	if regs != nil {
		f.t1StemSnap = regs.F(params.P_TYPE1STEMSNAP)
	}
	return f
}

// onePixel returns the character-space length of one pixel along a stem
// axis.
func (f *Filter) onePixel(vertical bool) float64 {
	if vertical {
		return f.onePixelX
	}
	return f.onePixelY
}

// unitPixels returns the number of pixels per character-space unit along
// a stem axis.
func (f *Filter) unitPixels(vertical bool) float64 {
	if vertical {
		return f.unitPixelsX
	}
	return f.unitPixelsY
}

// SetScale derives the pixel geometry from the font matrix. unitPixels
// are calculated from the lengths of the character space X and Y
// direction vectors; non-square resolutions and non-orthogonal axes
// cannot produce a simple shift which aligns stems to pixel boundaries,
// but the approximation holds for the overwhelming majority of jobs.
func (f *Filter) SetScale(m geom.Matrix) {
	m00, m01 := m.M[0][0], m.M[0][1]
	m10, m11 := m.M[1][0], m.M[1][1]

	upX2 := m00*m00 + m01*m01
	upY2 := m10*m10 + m11*m11

	// The alignment zones depend on the scale to decide whether the
	// family blues replace the character blues; recompute them only when
	// the squared values change, avoiding the square roots.
	if upX2 != f.unitPixelsX2 || upY2 != f.unitPixelsY2 {
		f.unitPixelsX2 = upX2
		f.unitPixelsY2 = upY2
		f.zonesStale = true

		f.unitPixelsX = math.Sqrt(upX2)
		f.unitPixelsY = math.Sqrt(upY2)
		if f.unitPixelsX == 0.0 {
			f.onePixelX = 0.0
		} else {
			f.onePixelX = 1.0 / f.unitPixelsX
		}
		if f.unitPixelsY == 0.0 {
			f.onePixelY = 0.0
		} else {
			f.onePixelY = 1.0 / f.unitPixelsY
		}
	}
}

// LoadFont refreshes the font-wide hinting parameters from the font's
// parameter source. Missing or invalid parameters leave hinting running
// with the documented defaults.
func (f *Filter) LoadFont(src font.ParamSource) {
	if src == nil {
		return
	}
	if f.blues.load(src) || f.zonesStale {
		f.zones, f.baseline = buildZones(&f.blues, f.unitPixelsY)
		f.zonesStale = false
	}
}

// --- Stem computation ------------------------------------------------------

// computeStem computes the dislocation a stem hint causes for points
// inside the stem. The offset is used for fonts with non-zero baselines;
// stems are adjusted as if they were located at z + offset.
func (f *Filter) computeStem(tstem *Stem, offset float64) {
	vertical := tstem.vertical == stemV
	stemstart := tstem.z
	stemwidth := tstem.dz
	onepixel := f.onePixel(vertical)
	unitpixels := f.unitPixels(vertical)

	// Find the standard stem with the smallest width difference.
	widthdiff := 0.0
	absdiff := 10000.0 // large initial rogue value
	std, snap := f.blues.stdHW, f.blues.stemSnapH
	if vertical {
		std, snap = f.blues.stdVW, f.blues.stemSnapV
	}
	if std != 0.0 {
		widthdiff = std - stemwidth
		absdiff = math.Abs(widthdiff)
	}
	for _, s := range snap {
		z := s - stemwidth
		if az := math.Abs(z); az < absdiff {
			widthdiff = z
			absdiff = az
		}
	}

	// Only expand or contract stems differing by less than half a pixel
	// from the closest standard width.
	standard := true
	if absdiff*2.0 > onepixel {
		widthdiff = 0.0
		standard = false
	}

	// Round the corrected width to the nearest integral number of
	// pixels. Stems are at least one pixel wide unless specified as
	// zero width (edge stems). otherwidth is the alternate rounding; a
	// stem snapped to a standard width gets no alternate (it could make
	// uneven variations across characters), nor does a stem close to
	// its ideal width.
	var idealwidth, otherwidth int
	if stemwidth > eps {
		tweak := f.t1StemSnap
		if tweak == params.Type1StemSnapDisabled {
			tweak = 0
		}
		pixelwidth := (stemwidth + widthdiff) * unitpixels
		tweaked := pixelwidth - tweak
		if tweaked < 0 {
			tweaked = 0
		}
		idealwidth = nearest(tweaked)
		otherwidth = idealwidth

		if idealwidth == 0 {
			// Force very thin stems to one pixel, with no alternate.
			idealwidth, otherwidth = 1, 1
		} else if !standard {
			// Stems closer than a quarter pixel to the ideal width have
			// no alternate rounding.
			if pixelwidth-float64(idealwidth) > 0.25 {
				otherwidth = idealwidth + 1
			} else if pixelwidth-float64(idealwidth) < -0.25 {
				otherwidth = idealwidth - 1
			}
		}
		if f.blues.forceBold && vertical {
			if idealwidth < defaultBoldStemWidth {
				idealwidth = defaultBoldStemWidth
				otherwidth = defaultBoldStemWidth
			}
		}
	} else {
		// Intended zero-width stems really are zero width.
		idealwidth, otherwidth = 0, 0
		stemwidth = 0.0
	}
	tstem.idealWidth = idealwidth
	tstem.otherWidth = otherwidth

	// Character space units needed to reach the rounded width.
	widthdiff = float64(idealwidth)*onepixel - stemwidth

	// Shift to move the lower stem position, adjusted by half the width
	// difference, to a pixel boundary. The stem is rounded as if shifted
	// by the baseline shift; the shift is not added to the position
	// itself, which would mis-align the stem against the zones.
	stemshift := stemstart + offset
	stemshift = math.Floor((stemshift-widthdiff*0.5)*unitpixels+0.5)*onepixel - stemshift

	// Alignment zones and overshoot suppression, horizontal stems only.
	if !vertical {
		zone := f.findZone(stemstart, stemwidth)
		if zone >= 0 {
			z := &f.zones[zone]
			stembottom := stemstart
			stemtop := stemstart + stemwidth

			var flatposition, overshoot float64
			if z.topZone {
				flatposition = z.bottomY
				overshoot = stemtop - flatposition
			} else {
				flatposition = z.topY
				overshoot = flatposition - stembottom
			}
			flatpospixels := (flatposition + offset) * unitpixels
			flatshift := (math.Floor(flatpospixels+0.5) - flatpospixels) * onepixel

			if unitpixels < f.blues.blueScale {
				// Suppress overshoot: align the stem to the zone's flat
				// position.
				if z.topZone {
					stemshift = flatshift - overshoot - widthdiff
				} else {
					stemshift = flatshift + overshoot
				}
			} else if overshoot >= float64(f.blues.blueShift) {
				// Enforce overshoot: the stem falls at least one pixel
				// beyond the flat position.
				if overshoot < onepixel {
					if z.topZone {
						stemshift = flatshift - overshoot + onepixel - widthdiff
					} else {
						stemshift = flatshift + overshoot - onepixel
					}
				}
			}
			// The zone-captured edge is fixed; the stem expands or
			// contracts only at the opposite edge.
			if z.topZone {
				tstem.fixed = edgeHigh
			} else {
				tstem.fixed = edgeLow
			}
		}
	}

	tstem.loDelta = stemshift             // left or bottom
	tstem.hiDelta = stemshift + widthdiff // right or top
}

// findZone returns the index of the alignment zone intersecting a
// horizontal stem, or -1. The BlueFuzz entry extends the effect of a
// zone in both directions; a second pass with a larger fuzz accepts a
// stretched fit. With stem snapping disabled, a "dodgy" topzone whose
// flat position is far from the stem top is accepted anyway, keeping the
// historical behavior; with snapping configured the proper check runs.
func (f *Filter) findZone(stembottom, stemwidth float64) int {
	stemtop := stembottom + stemwidth
	fuzz := float64(f.blues.blueFuzz)
	stretched := -1
	for i := range f.zones {
		z := &f.zones[i]
		if z.topZone {
			if stemtop >= z.bottomY-fuzz && stemtop <= z.topY+fuzz &&
				stembottom < z.bottomY-fuzz {
				if f.t1StemSnap != params.Type1StemSnapDisabled {
					return i
				}
				// In a decently designed font the stem top falls at or
				// very near a blue value; a top zone far away from the
				// stem top is considered wrong and ignored.
				if (stemtop-z.bottomY <= extraBlueFuzz &&
					stemtop-z.bottomY <= stemwidth/stemFraction) ||
					(z.topY-stemtop <= extraBlueFuzz &&
						z.topY-stemtop <= stemwidth/stemFraction) {
					return i
				}
				continue
			}
			if stemtop >= z.bottomY-extraBlueFuzz && stemtop <= z.topY+extraBlueFuzz &&
				stembottom < z.bottomY-extraBlueFuzz {
				stretched = i
			}
		} else {
			if stembottom <= z.topY+fuzz && stembottom >= z.bottomY-fuzz &&
				stemtop > z.topY+fuzz {
				return i
			}
			if stembottom <= z.topY+extraBlueFuzz && stembottom >= z.bottomY-extraBlueFuzz &&
				stemtop > z.topY+extraBlueFuzz {
				stretched = i
			}
		}
	}
	return stretched
}

// --- Point hinting ---------------------------------------------------------

// stemInterpolate computes the coordinate adjustment for z from the
// active stems of one axis. Inside a stem, interpolation is proportional
// to the position within the stem; between stems, proportional to the
// position within the counter; outside all stems, the nearest edge delta
// applies.
func stemInterpolate(list **Stem, z float64) (zdiff float64, valid bool) {
	if zstem := stemFindPoint(list, z); zstem != nil {
		if zstem.dz > eps {
			prop := (z - zstem.z) / zstem.dz
			return zstem.loDelta*(1.0-prop) + zstem.hiDelta*prop, true
		}
		// Zero-width stems just use the low delta.
		return zstem.loDelta, true
	}
	zstem := *list
	if zstem == nil {
		return 0.0, false
	}
	if z < zstem.z {
		// Before the first stem.
		return zstem.loDelta, false
	}
	next := zstem.next
	if next == nil {
		// After the last stem.
		return zstem.hiDelta, false
	}
	// Between two stems: proportional to the edge difference.
	cntrwidth := next.z - zstem.z - zstem.dz
	if cntrwidth > eps {
		prop := (z - zstem.z - zstem.dz) / cntrwidth
		return zstem.hiDelta*(1.0-prop) + next.loDelta*prop, false
	}
	// The original counter was zero width; arbitrarily use one edge.
	return zstem.hiDelta, false
}

// hintPoint computes the adjustment of an outline point. Hints are
// ignored inside dot sections.
func (f *Filter) hintPoint(x, y float64) (dx, dy float64) {
	if f.inDotSection {
		return 0.0, 0.0
	}
	dx, _ = stemInterpolate(&f.stems[stemV][stemActive], x)
	dy, _ = stemInterpolate(&f.stems[stemH][stemActive], y)
	return dx, dy
}

// movePoint applies sidebearing, hinting and baseline shift to a point.
func (f *Filter) movePoint(x, y float64) (float64, float64) {
	dx := x + f.sbX
	dy := y + f.sbY
	hx, hy := f.hintPoint(dx, dy)
	return dx + hx, dy + hy + f.baselineDy
}

// --- Stem declaration ------------------------------------------------------

// vhStem declares a stem. Re-declaring an inactive stem re-activates it,
// preserving its snapping. Duplicate active stems (which some fonts
// declare against the Type 1 spec) update the index of the existing stem.
func (f *Filter) vhStem(vh int, z, dz float64, edge uint32, index int) error {
	from := &f.stems[vh][stemInactive]
	to := &f.stems[vh][stemActive]

	if tstem := stemFind(from, z, dz, edge); tstem != nil {
		tracer().Debugf("re-activating stem %d: %g +%g", tstem.index, tstem.z, tstem.dz)
		stemRemove(from)
		stemAdd(to, tstem)
		tstem.index = index
		return nil
	}
	if tstem := stemFind(to, z, dz, edge); tstem != nil {
		tracer().Debugf("duplicate stem %d: %g +%g", tstem.index, tstem.z, tstem.dz)
		tstem.index = index
		return nil
	}
	var tstem *Stem
	if f.numStems < fixedStems {
		tstem = &f.pool[f.numStems]
		*tstem = Stem{prealloc: true}
	} else {
		tstem = &Stem{}
	}
	tstem.vertical = vh
	tstem.z = z
	tstem.dz = dz
	tstem.index = index
	tstem.group = 0 // group 0 never used by cntrmask

	tstem.edge = edge

	offset := 0.0
	if vh == stemH {
		offset = f.baselineDy
	}
	f.computeStem(tstem, offset)
	stemAdd(to, tstem)
	f.numStems++
	return nil
}

// changeHints deactivates all stems, retaining their snapping in case
// the same stem is re-instated later. Index numbers are reset so a new
// hint set will not alias them.
func (f *Filter) changeHints() {
	for vh := 0; vh < 2; vh++ {
		active := &f.stems[vh][stemActive]
		inactive := &f.stems[vh][stemInactive]
		for *active != nil {
			stem := *active
			stemRemove(active)
			stemAdd(inactive, stem)
		}
		for stem := *inactive; stem != nil; stem = stem.next {
			stem.index = -1
		}
		for stem := *inactive; stem != nil; stem = stem.prev {
			stem.index = -1
		}
	}
}

// --- CharBuilder implementation --------------------------------------------

// InitChar resets the per-glyph hinting state.
func (f *Filter) InitChar() error {
	f.inDotSection = false
	f.numStems = 0
	f.sbX, f.sbY = 0.0, 0.0
	f.baselineDy = 0.0
	f.stems[stemH][stemActive] = nil
	f.stems[stemH][stemInactive] = nil
	f.stems[stemV][stemActive] = nil
	f.stems[stemV][stemInactive] = nil
	return f.out.InitChar()
}

// SetBearing records the sidebearing point and computes the baseline
// shift. The baseline is only explicitly represented if the font has
// BlueValues; otherwise the sidebearing Y stands in. A negative topy of
// the baseline zone is a convention indicating that vertical alignment
// zones are not needed.
func (f *Filter) SetBearing(xbear, ybear float64) error {
	f.changeHints() // catches SEAC, which could otherwise overlap hints

	f.sbX = xbear
	f.sbY = ybear

	if f.baseline >= 0 && f.zones[f.baseline].topY >= 0 {
		ybear = f.zones[f.baseline].topY
	}
	f.baselineDy = math.Floor(ybear*f.unitPixelsY+0.5)*f.onePixelY - ybear

	// The hinting layer takes care of applying the sidebearings.
	return f.out.SetBearing(0, 0)
}

// SetWidth forwards the advance width unchanged.
func (f *Filter) SetWidth(xwidth, ywidth float64) error {
	return f.out.SetWidth(xwidth, ywidth)
}

// HStem declares a horizontal stem. The coordinates are relative to the
// sidebearing point; the stem is inserted in non-sidebearing space
// because the baseline shift already aligns the baseline.
func (f *Filter) HStem(y1, y2 float64, topEdge, bottomEdge bool, index int) error {
	var edge uint32
	if topEdge {
		edge |= edgeHigh
	}
	if bottomEdge {
		edge |= edgeLow
	}
	dy := y2 - y1
	if dy < 0 {
		y1 += dy
		dy = -dy
	}
	return f.vhStem(stemH, y1+f.sbY, dy, edge, index)
}

// VStem declares a vertical stem between x1 and x2, relative to the
// sidebearing point.
func (f *Filter) VStem(x1, x2 float64, leftEdge, rightEdge bool, index int) error {
	var edge uint32
	if leftEdge {
		edge |= edgeHigh
	}
	if rightEdge {
		edge |= edgeLow
	}
	dx := x2 - x1
	if dx < 0 {
		x1 += dx
		dx = -dx
	}
	return f.vhStem(stemV, x1+f.sbX, dx, edge, index)
}

// HintMask activates or de-activates an indexed stem.
func (f *Filter) HintMask(index int, activate bool) error {
	from, to := stemActive, stemInactive
	if activate {
		from, to = to, from
	}
	for vh := 0; vh < 2; vh++ {
		if stem := stemFindIndex(&f.stems[vh][from], index); stem != nil {
			stemRemove(&f.stems[vh][from])
			stemAdd(&f.stems[vh][to], stem)
		}
	}
	return nil
}

// CntrMask builds counter control groups one stem at a time. An index
// less than zero marks the group complete; all calculations happen then.
func (f *Filter) CntrMask(index int, group uint32) error {
	if group == 0 {
		tracer().Errorf("counter group should not be zero")
		return nil
	}
	if index >= 0 {
		// Search active stems first; stems are more likely active, having
		// been created just before the cntrmask.
		for vh := 0; vh < 2; vh++ {
			for _, act := range []int{stemActive, stemInactive} {
				if stem := stemFindIndex(&f.stems[vh][act], index); stem != nil {
					stem.group = group
					return nil
				}
			}
		}
		return nil
	}
	// Group complete: handle the two axes separately.
	for vh := 0; vh < 2; vh++ {
		var cntrstems *Stem
		// Collect the group's stems, remembering the original activation
		// in the group field so they can be redistributed afterwards.
		for act := 0; act < 2; act++ {
			from := &f.stems[vh][act]
			for {
				stem := stemFindGroup(from, group)
				if stem == nil {
					break
				}
				stemRemove(from)
				stemAdd(&cntrstems, stem)
				stem.group = uint32(act)
			}
		}
		if cntrstems != nil {
			f.counterAdjust(stemFirst(&cntrstems))
			for cntrstems != nil {
				stem := cntrstems
				stemRemove(&cntrstems)
				stemAdd(&f.stems[vh][stem.group], stem)
				stem.group = 0
			}
		}
	}
	return nil
}

// Flex converts a flex feature to a straight line when the flex depth in
// device pixels is below the threshold, and to the two curves otherwise.
// The threshold is expressed in percent of a device pixel.
func (f *Filter) Flex(curveA, curveB [6]float64, depth, thresh float64, horizontal bool) error {
	if horizontal {
		depth *= f.unitPixelsY
	} else {
		depth *= f.unitPixelsX
	}
	if math.Abs(depth)*100.0 < thresh {
		return f.LineTo(curveB[4], curveB[5])
	}
	if err := f.CurveTo(curveA); err != nil {
		return err
	}
	return f.CurveTo(curveB)
}

// DotSection toggles hint suppression within a dot section.
func (f *Filter) DotSection() error {
	f.inDotSection = !f.inDotSection
	return nil
}

// ChangeHints deactivates all stems before a replacement hint set.
func (f *Filter) ChangeHints() error {
	f.changeHints()
	return nil
}

// MoveTo hints and forwards a move.
func (f *Filter) MoveTo(x, y float64) error {
	nx, ny := f.movePoint(x, y)
	return f.out.MoveTo(nx, ny)
}

// LineTo hints and forwards a line.
func (f *Filter) LineTo(x, y float64) error {
	nx, ny := f.movePoint(x, y)
	return f.out.LineTo(nx, ny)
}

// CurveTo hints all three points of a curve and forwards it.
func (f *Filter) CurveTo(curve [6]float64) error {
	var ncurve [6]float64
	for i := 0; i < 6; i += 2 {
		ncurve[i], ncurve[i+1] = f.movePoint(curve[i], curve[i+1])
	}
	return f.out.CurveTo(ncurve)
}

// ClosePath forwards unchanged.
func (f *Filter) ClosePath() error {
	return f.out.ClosePath()
}

// EndChar releases the per-glyph stem lists and forwards.
func (f *Filter) EndChar(ok bool) error {
	for vh := 0; vh < 2; vh++ {
		for act := 0; act < 2; act++ {
			f.stems[vh][act] = nil
		}
	}
	return f.out.EndChar(ok)
}

var _ CharBuilder = (*Filter)(nil)
