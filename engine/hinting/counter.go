package hinting

import "math"

// Counter hinting regularizes the space between the stems of a counter
// control group while keeping within the expansion factor and preserving
// the distance between fixed stem edges.
//
// This is a constraint solving problem; brute force has a worst case of
// 2^(2n-1) possibilities for n stems, since there are n-1 counters and
// stems and counters each round to one of two adjacent pixel widths. In
// practice groups hold 3-8 stems. An integer represents a set of
// decisions about the alternate widths of counters and stems; a utility
// function weights each decision tree, and a local search flips single
// decisions until a full cycle yields no improvement.
//
// The decision word assigns bits, in order, to: alternate roundings of
// similar-counter sets, of individual counters, of similar-stem sets,
// and of individual stems. A stem snapped with no alternate rounding
// consumes no bit. Only the first 32 decisions participate; the rest
// stay at their defaults.

// Penalties and weights of the utility function.
const (
	fixedFitPenalty         = 1000 // fixed edge distances must not change
	expansionPenalty        = 1000 // exceeding the expansion factor
	stemInconsistentPenalty = 1
	cntrInconsistentPenalty = 1
	stemRoundWeight         = 3.0
	counterRoundWeight      = 1.0
	counterRatioWeight      = 2.0
	acceptFitLimit          = 1000 // acceptable fits are all below this
)

// counterChoice is the decision tree word.
type counterChoice = uint32

const maxDecisions = 32

// The utility comparison needs an epsilon: near-equal doubles otherwise
// flip-flop between two best fits and the search never terminates.
const bestFitEpsilon = 0.0000000001

// roundingSet is one histogram bin of stems or counters sharing
// (idealwidth, otherwidth).
type roundingSet struct {
	idealWidth  int
	otherWidth  int
	usage       uint32
	actualWidth int // chosen width, unless overridden
}

// rounding is the chosen rounding of one stem or counter.
type rounding struct {
	realWidth   float64 // correct width in fractional pixels
	idealWidth  int
	otherWidth  int
	actualWidth int
	set         *roundingSet
}

// counterInfo carries the collected state of one counter hinting run.
// The roundings alternate stem, counter, stem, …
type counterInfo struct {
	counterSet [maxDecisions]roundingSet
	stemSet    [maxDecisions]roundingSet
	roundings  [maxDecisions * 2]rounding

	nRounds                     uint32
	nCounterSet, nStemSet       uint32
	nCounterChoice, nStemChoice uint32

	totalWidth   uint32  // snapped width of roundings
	realWidth    float64 // original width of roundings
	hintWidth    float64 // hinted width before counter adjusting
	meanCounter  float64 // mean width of original counters
	meanICounter float64 // mean width of rounded counters
}

// counterFix applies a decision tree to the roundings.
func counterFix(decisions counterChoice, info *counterInfo) {
	var totalwidth, cntrwidth uint32

	// Counter histogram decisions.
	for i := uint32(0); i < info.nCounterSet; i++ {
		set := &info.counterSet[i]
		if decisions&1 != 0 {
			set.actualWidth = set.otherWidth
		} else {
			set.actualWidth = set.idealWidth
		}
		decisions >>= 1
	}
	// Individual counter decisions.
	for i := uint32(1); i < info.nRounds; i += 2 {
		r := &info.roundings[i]
		actual := r.idealWidth
		if set := r.set; set != nil {
			useOther := set.actualWidth != set.idealWidth
			if set.usage > 1 {
				// Overridable only if the set has more than one member.
				if decisions&1 != 0 {
					useOther = !useOther
				}
				decisions >>= 1
			}
			if useOther {
				actual = r.otherWidth
			}
		}
		r.actualWidth = actual
		totalwidth += uint32(actual)
		cntrwidth += uint32(actual)
	}
	info.meanICounter = float64(cntrwidth) / float64(info.nRounds>>1)

	// Stem histogram decisions.
	for i := uint32(0); i < info.nStemSet; i++ {
		set := &info.stemSet[i]
		if decisions&1 != 0 {
			set.actualWidth = set.otherWidth
		} else {
			set.actualWidth = set.idealWidth
		}
		decisions >>= 1
	}
	// Individual stem decisions.
	for i := uint32(0); i < info.nRounds; i += 2 {
		r := &info.roundings[i]
		actual := r.idealWidth
		if set := r.set; set != nil {
			useOther := set.actualWidth != set.idealWidth
			if set.usage > 1 {
				if decisions&1 != 0 {
					useOther = !useOther
				}
				decisions >>= 1
			}
			if useOther {
				actual = r.otherWidth
			}
		}
		r.actualWidth = actual
		totalwidth += uint32(actual)
	}
	info.totalWidth = totalwidth
}

// counterEvaluate computes the utility of one decision tree: hard
// penalties for moving fixed edges and exceeding the expansion factor,
// weighted least squares for rounding deviation, inconsistent roundings
// within a histogram bin, and counter ratio distortion.
func (f *Filter) counterEvaluate(cntrstems *Stem, decisions counterChoice,
	info *counterInfo, unitpixels float64) float64 {
	//
	fit := 0.0
	fixedEdge := 0.0
	fixedWidth := 0
	gotFixed := false

	counterFix(decisions, info)

	ri := 0
	for stem := cntrstems; ; {
		next := stem.next
		r := &info.roundings[ri]

		// A fixed lower edge checks the distance from the previous
		// fixed edge.
		if stem.fixed&edgeLow != 0 {
			newEdge := stem.z + stem.loDelta
			if gotFixed {
				width := (newEdge - fixedEdge) * unitpixels
				if nearest(width) != fixedWidth {
					fit += fixedFitPenalty
				}
			}
			gotFixed = true
			fixedEdge = newEdge
			fixedWidth = 0
		}

		actual := r.idealWidth
		fixedWidth += actual

		if r.set != nil && r.set.actualWidth != actual {
			fit += stemInconsistentPenalty
		}
		d := r.realWidth - float64(actual)
		fit += d * d * stemRoundWeight

		if stem.fixed&edgeHigh != 0 {
			newEdge := stem.z + stem.dz + stem.hiDelta
			if gotFixed {
				width := (newEdge - fixedEdge) * unitpixels
				if nearest(width) != fixedWidth {
					fit += fixedFitPenalty
				}
			}
			gotFixed = true
			fixedEdge = newEdge
			fixedWidth = 0
		}
		ri++

		if next == nil {
			break
		}

		// The counter between this stem and the next.
		r = &info.roundings[ri]
		actual = r.actualWidth
		fixedWidth += actual

		if r.set != nil && r.set.actualWidth != actual {
			fit += cntrInconsistentPenalty
		}
		d = r.realWidth - float64(actual)
		fit += d * d * counterRoundWeight

		if info.meanCounter > eps && info.meanICounter > eps {
			d = r.realWidth/info.meanCounter - float64(actual)/info.meanICounter
			fit += d * d * counterRatioWeight
		}
		ri++
		stem = next
	}

	// The expansion factor should depend on the bounding box of the
	// character; lacking it, the expansion is based on the extent of the
	// stems in this group, with one pixel of wiggle room always allowed.
	excess := math.Abs(float64(info.totalWidth) - info.realWidth)
	if excess >= 1.0 {
		excess -= info.realWidth * f.blues.expansion
		if excess > 0 {
			fit += excess * expansionPenalty
		}
	}
	return fit
}

// counterAdjust runs the solver on a completed counter group and applies
// the winning roundings, distributing the width difference equally to
// both sides and backtracking to patch previous stems when fixed edges
// are encountered.
func (f *Filter) counterAdjust(cntrstems *Stem) {
	if cntrstems == nil || cntrstems.next == nil {
		// A single stem has no counter by definition.
		return
	}
	unitpixels := f.unitPixels(cntrstems.vertical == stemV)
	onepixel := f.onePixel(cntrstems.vertical == stemV)

	var info counterInfo

	// Pre-scan the group: build the stem and counter histograms and
	// count the decisions.
	var last *Stem
	for stem := cntrstems; ; {
		next := stem.next
		if info.nRounds >= maxDecisions*2 {
			tracer().Debugf("too many stems in counter hinting group")
			return
		}
		r := &info.roundings[info.nRounds]
		info.nRounds++
		r.realWidth = stem.dz * unitpixels
		r.idealWidth = stem.idealWidth
		r.actualWidth = r.idealWidth
		r.otherWidth = stem.otherWidth
		r.set = nil

		if stem.idealWidth != stem.otherWidth {
			set := info.stemSet[:]
			var i uint32
			for i = 0; i < info.nStemSet; i++ {
				if set[i].idealWidth == stem.idealWidth &&
					set[i].otherWidth == stem.otherWidth {
					if set[i].usage == 1 {
						info.nStemChoice++
					}
					info.nStemChoice++
					set[i].usage++
					r.set = &set[i]
					break
				}
			}
			if i == info.nStemSet && i < maxDecisions {
				r.set = &set[i]
				set[i] = roundingSet{
					idealWidth:  stem.idealWidth,
					otherWidth:  stem.otherWidth,
					usage:       1,
					actualWidth: stem.idealWidth,
				}
				info.nStemSet++
			}
		}

		if next == nil {
			last = stem
			break
		}

		// The counter between successive stems.
		pixelwidth := (next.z - stem.z - stem.dz) * unitpixels
		info.meanCounter += pixelwidth

		r = &info.roundings[info.nRounds]
		info.nRounds++

		idealwidth := nearest(pixelwidth)
		if idealwidth < 1 {
			// All counters should have space if possible.
			idealwidth = 1
		}
		otherwidth := idealwidth
		if pixelwidth > float64(idealwidth)+eps {
			otherwidth++
		} else if pixelwidth < float64(idealwidth)-eps {
			otherwidth--
		}
		r.realWidth = pixelwidth
		r.idealWidth = idealwidth
		r.actualWidth = idealwidth
		r.otherWidth = otherwidth
		r.set = nil

		if otherwidth != idealwidth {
			set := info.counterSet[:]
			var i uint32
			for i = 0; i < info.nCounterSet; i++ {
				if set[i].idealWidth == idealwidth &&
					set[i].otherWidth == otherwidth {
					if set[i].usage == 1 {
						info.nCounterChoice++
					}
					info.nCounterChoice++
					set[i].usage++
					r.set = &set[i]
					break
				}
			}
			if i == info.nCounterSet && i < maxDecisions {
				r.set = &set[i]
				set[i] = roundingSet{
					idealWidth:  idealwidth,
					otherWidth:  otherwidth,
					usage:       1,
					actualWidth: idealwidth,
				}
				info.nCounterSet++
			}
		}
		stem = next
	}

	info.realWidth = (last.z + last.dz - cntrstems.z) * unitpixels
	info.hintWidth = (last.z + last.dz + last.hiDelta -
		cntrstems.z - cntrstems.loDelta) * unitpixels
	info.meanCounter /= float64(info.nRounds >> 1)

	// Cap the decision counts so the total fits the decision word. The
	// counter set is always smaller than maxDecisions since there is one
	// less counter than stem.
	ndecisions := uint32(maxDecisions) - info.nCounterSet
	if ndecisions < info.nCounterChoice {
		info.nCounterChoice = ndecisions
	}
	ndecisions -= info.nCounterChoice
	if ndecisions < info.nStemSet {
		info.nStemSet = ndecisions
	}
	ndecisions -= info.nStemSet
	if ndecisions < info.nStemChoice {
		info.nStemChoice = ndecisions
	}
	ndecisions -= info.nStemChoice

	if ndecisions >= maxDecisions {
		tracer().Debugf("counter hinting over-constrained")
		return
	}
	decisionmask := counterChoice(0xFFFFFFFF) >> ndecisions

	// Solution for the all-ideal roundings.
	var besttry counterChoice
	bestfit := f.counterEvaluate(cntrstems, besttry, &info, unitpixels)

	// Local search: test flipping each decision in turn; adopting an
	// improvement resets the cycle so all changes from there are
	// retried. The epsilon guards against double-rounding flip-flop.
	thistry := counterChoice(1)
	lasttry := counterChoice(1)
	for {
		fit := f.counterEvaluate(cntrstems, besttry^thistry, &info, unitpixels)
		if fit < bestfit-bestFitEpsilon {
			bestfit = fit
			besttry ^= thistry
			lasttry = thistry
		}
		thistry = (thistry << 1) & decisionmask
		if thistry == 0 {
			thistry = 1
		}
		if thistry == lasttry {
			break
		}
	}

	if bestfit >= acceptFitLimit {
		return
	}

	// Apply the decision tree, distributing the difference between the
	// total and hinted width evenly on both sides. A fixed stem edge
	// forces backtracking: previous unfixed stems absorb the shift, and
	// widths after the fixed stem must match exactly.
	counterFix(besttry, &info)

	difference := nearest(info.hintWidth-float64(info.totalWidth)) / 2

	ri := 0
	for stem := cntrstems; ; {
		next := stem.next
		r := &info.roundings[ri]

		if stem.fixed&edgeLow != 0 && difference != 0 {
			fdiff := float64(difference) * onepixel
			for prev := stem.prev; prev != nil; prev = prev.prev {
				prev.loDelta -= fdiff
				prev.hiDelta -= fdiff
			}
			difference = 0
		}
		stem.loDelta += float64(difference) * onepixel
		difference += r.actualWidth - stem.idealWidth

		if stem.fixed&edgeHigh != 0 && difference != 0 {
			fdiff := float64(difference) * onepixel
			stem.loDelta -= fdiff
			for prev := stem.prev; prev != nil; prev = prev.prev {
				prev.loDelta -= fdiff
				prev.hiDelta -= fdiff
			}
			difference = 0
		}

		// Remember the original high edge before adjusting it.
		counterEdge := stem.z + stem.dz + stem.hiDelta
		stem.hiDelta += float64(difference) * onepixel

		// Both edges are now fixed at the decided width.
		stem.fixed |= edgeLow | edgeHigh
		stem.idealWidth = r.actualWidth
		stem.otherWidth = r.actualWidth
		ri++

		if next == nil {
			break
		}
		// The original counter width is implicit between the adjacent
		// stems.
		r = &info.roundings[ri]
		counterwidth := (next.z + next.loDelta - counterEdge) * unitpixels
		difference += r.actualWidth - nearest(counterwidth)
		ri++
		stem = next
	}
}
