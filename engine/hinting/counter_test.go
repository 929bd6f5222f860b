package hinting

import (
	"math"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"github.com/npillmayer/ripcore/core/font"
	"github.com/npillmayer/ripcore/core/geom"
)

// newCounterFilter builds a filter without standard widths, so stems
// keep their own roundings and alternates.
func newCounterFilter(t *testing.T, scale float64) *Filter {
	t.Helper()
	rec := &recorder{}
	f := New(rec, nil)
	f.SetScale(geom.NewMatrix(scale, 0, 0, scale, 0, 0))
	f.LoadFont(font.DictParams{font.ParamFID: 2})
	if err := f.InitChar(); err != nil {
		t.Fatal(err)
	}
	if err := f.SetBearing(0, 0); err != nil {
		t.Fatal(err)
	}
	return f
}

func edgesIntegral(t *testing.T, f *Filter, stem *Stem, unitpixels float64) {
	t.Helper()
	lo := (stem.z + stem.loDelta) * unitpixels
	hi := (stem.z + stem.dz + stem.hiDelta) * unitpixels
	if math.Abs(lo-math.Floor(lo+0.5)) > eps {
		t.Errorf("stem %d low edge not integral: %g", stem.index, lo)
	}
	if math.Abs(hi-math.Floor(hi+0.5)) > eps {
		t.Errorf("stem %d high edge not integral: %g", stem.index, hi)
	}
}

// Three equal vertical stems with equal counters: counter hinting keeps
// the regular rhythm and fixes every stem edge on a pixel boundary.
func TestCounterRegularRhythm(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.hints")
	defer teardown()
	//
	f := newCounterFilter(t, 0.045) // stems round to ~3.8 pixels
	f.VStem(0, 85, false, false, 0)
	f.VStem(200, 285, false, false, 1)
	f.VStem(400, 485, false, false, 2)
	for i := 0; i < 3; i++ {
		f.CntrMask(i, 1)
	}
	f.CntrMask(-1, 1)

	active := f.stems[stemV][stemActive]
	if stemCount(active) != 3 {
		t.Fatalf("expected 3 active stems after counter adjust")
	}
	var widths []int
	var gaps []float64
	var prev *Stem
	for s := stemFirstOf(active); s != nil; s = s.next {
		if s.fixed != edgeLow|edgeHigh {
			t.Errorf("counter-adjusted stem %d should have both edges fixed", s.index)
		}
		edgesIntegral(t, f, s, f.unitPixelsX)
		widths = append(widths, s.idealWidth)
		if prev != nil {
			gap := (s.z + s.loDelta) - (prev.z + prev.dz + prev.hiDelta)
			gaps = append(gaps, gap*f.unitPixelsX)
		}
		prev = s
	}
	if widths[0] != widths[1] || widths[1] != widths[2] {
		t.Errorf("equal stems should round consistently: %v", widths)
	}
	if math.Abs(gaps[0]-gaps[1]) > eps {
		t.Errorf("equal counters should stay equal: %v", gaps)
	}
	if math.Abs(gaps[0]-math.Floor(gaps[0]+0.5)) > eps {
		t.Errorf("counter width not integral: %v", gaps)
	}
}

// A group with one stem is a no-op.
func TestCounterSingleStem(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.hints")
	defer teardown()
	//
	f := newCounterFilter(t, 0.05)
	f.VStem(0, 80, false, false, 0)
	before := *f.stems[stemV][stemActive]
	f.CntrMask(0, 1)
	f.CntrMask(-1, 1)
	after := f.stems[stemV][stemActive]
	if after.loDelta != before.loDelta || after.hiDelta != before.hiDelta {
		t.Errorf("single-stem group must not adjust deltas")
	}
}

// Stems are restored to their original activation state after the group
// calculation.
func TestCounterRestoresActivation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.hints")
	defer teardown()
	//
	f := newCounterFilter(t, 0.05)
	f.VStem(0, 80, false, false, 0)
	f.VStem(200, 280, false, false, 1)
	f.HintMask(1, false) // deactivate the second stem
	f.CntrMask(0, 3)
	f.CntrMask(1, 3)
	f.CntrMask(-1, 3)
	if n := stemCount(f.stems[stemV][stemActive]); n != 1 {
		t.Errorf("expected 1 active stem restored, have %d", n)
	}
	if n := stemCount(f.stems[stemV][stemInactive]); n != 1 {
		t.Errorf("expected 1 inactive stem restored, have %d", n)
	}
	for _, s := range []*Stem{f.stems[stemV][stemActive], f.stems[stemV][stemInactive]} {
		if s != nil && s.group != 0 {
			t.Errorf("group tag should be cleared after adjustment")
		}
	}
}

// The hinted total width of the group is preserved: the distribution
// only moves widths between stems and counters.
func TestCounterPreservesHintedWidth(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.hints")
	defer teardown()
	//
	f := newCounterFilter(t, 0.045)
	f.VStem(0, 85, false, false, 0)
	f.VStem(190, 280, false, false, 1)
	f.VStem(410, 490, false, false, 2)
	hintedBefore := groupWidth(f, f.stems[stemV][stemActive])
	for i := 0; i < 3; i++ {
		f.CntrMask(i, 1)
	}
	f.CntrMask(-1, 1)
	hintedAfter := groupWidth(f, f.stems[stemV][stemActive])
	if math.Abs(hintedBefore-hintedAfter) > 1.0+eps {
		t.Errorf("group width changed by more than a pixel: %g → %g",
			hintedBefore, hintedAfter)
	}
}

func groupWidth(f *Filter, list *Stem) float64 {
	first := stemFirstOf(list)
	last := first
	for last.next != nil {
		last = last.next
	}
	return ((last.z + last.dz + last.hiDelta) -
		(first.z + first.loDelta)) * f.unitPixelsX
}
