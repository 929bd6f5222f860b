package raster

import (
	"testing"

	"github.com/npillmayer/ripcore/core/geom"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func spansOf(sl *Spanlist) []Span {
	out := make([]Span, 0, sl.Count())
	sl.Iterate(func(l, r geom.DCoord) {
		out = append(out, Span{l, r})
	})
	return out
}

func assertSorted(t *testing.T, sl *Spanlist) {
	t.Helper()
	spans := sl.Spans()
	for i, s := range spans {
		if s.Left > s.Right {
			t.Errorf("span %d has left %d > right %d", i, s.Left, s.Right)
		}
		if i > 0 && spans[i-1].Right >= s.Left {
			t.Errorf("spans %d and %d overlap or are unsorted", i-1, i)
		}
	}
}

func TestSpanlistInsertMerging(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.render")
	defer teardown()
	//
	sl := NewSpanlist(8)
	sl.Insert(10, 20)
	sl.Insert(30, 40)
	sl.Insert(18, 25) // overlaps first span
	got := spansOf(sl)
	if len(got) != 2 || got[0] != (Span{10, 25}) || got[1] != (Span{30, 40}) {
		t.Errorf("unexpected spans after overlapping insert: %v", got)
	}
	sl.Insert(26, 29) // abuts both, collapsing to one span
	got = spansOf(sl)
	if len(got) != 1 || got[0] != (Span{10, 40}) {
		t.Errorf("unexpected spans after bridging insert: %v", got)
	}
	assertSorted(t, sl)
}

func TestSpanlistInsertIdempotent(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.render")
	defer teardown()
	//
	sl := NewSpanlist(8)
	sl.Insert(5, 9)
	sl.Insert(20, 24)
	sl.Merge()
	once := spansOf(sl)
	sl.Insert(5, 9)
	sl.Merge()
	twice := spansOf(sl)
	if len(once) != len(twice) {
		t.Fatalf("merge ∘ insert applied twice differs from once: %v vs %v", once, twice)
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("span %d differs: %v vs %v", i, once[i], twice[i])
		}
	}
}

func TestSpanlistDeleteSplit(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.render")
	defer teardown()
	//
	sl := NewSpanlist(8)
	sl.Insert(0, 100)
	sl.Delete(40, 60)
	got := spansOf(sl)
	if len(got) != 2 || got[0] != (Span{0, 39}) || got[1] != (Span{61, 100}) {
		t.Errorf("unexpected spans after splitting delete: %v", got)
	}
	sl.Delete(0, 10)
	sl.Delete(90, 120)
	got = spansOf(sl)
	if len(got) != 2 || got[0] != (Span{11, 39}) || got[1] != (Span{61, 89}) {
		t.Errorf("unexpected spans after edge deletes: %v", got)
	}
	assertSorted(t, sl)
}

func TestSpanlistClipTo(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.render")
	defer teardown()
	//
	sl := NewSpanlist(8)
	sl.Insert(0, 50)
	clip := NewSpanlist(8)
	clip.Insert(10, 20)
	clip.Insert(40, 60)
	if !sl.ClipTo(clip) {
		t.Fatalf("clipping should not exhaust capacity here")
	}
	got := spansOf(sl)
	if len(got) != 2 || got[0] != (Span{10, 20}) || got[1] != (Span{40, 50}) {
		t.Errorf("unexpected spans after clip: %v", got)
	}
}

// Scenario: spanlist {(10,20),(30,40)}, intersecting over (5,50) yields
// white(5,9), black(10,20), white(21,29), black(30,40), white(41,50).
func TestSpanlistIntersecting(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.render")
	defer teardown()
	//
	sl := NewSpanlist(4)
	sl.Insert(10, 20)
	sl.Insert(30, 40)
	type ev struct {
		black bool
		l, r  geom.DCoord
	}
	var got []ev
	sl.Intersecting(
		func(l, r geom.DCoord) { got = append(got, ev{true, l, r}) },
		func(l, r geom.DCoord) { got = append(got, ev{false, l, r}) },
		5, 50, 0)
	want := []ev{
		{false, 5, 9}, {true, 10, 20}, {false, 21, 29},
		{true, 30, 40}, {false, 41, 50},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d callbacks, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("callback %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestSpanlistIntersectingOffset(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.render")
	defer teardown()
	//
	sl := NewSpanlist(2)
	sl.Insert(110, 120) // stored with separation offset 100
	var blacks []Span
	sl.Intersecting(
		func(l, r geom.DCoord) { blacks = append(blacks, Span{l, r}) },
		nil, 0, 50, 100)
	if len(blacks) != 1 || blacks[0] != (Span{10, 20}) {
		t.Errorf("offset not undone: %v", blacks)
	}
}

func TestSpanlistFromBitmap(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.render")
	defer teardown()
	//
	f := NewBitmap(150, 1)
	for x := geom.DCoord(3); x <= 10; x++ {
		f.SetPixel(x, 0, true)
	}
	for x := geom.DCoord(60); x <= 130; x++ { // crosses word boundaries
		f.SetPixel(x, 0, true)
	}
	f.SetPixel(149, 0, true)
	line := f.Line(0)
	if n := BitmapSpanCount(line, 150); n != 3 {
		t.Fatalf("expected 3 spans in line, counted %d", n)
	}
	sl := NewSpanlist(3)
	if !sl.FromBitmap(line, 150) {
		t.Fatalf("FromBitmap failed with sufficient capacity")
	}
	got := spansOf(sl)
	want := []Span{{3, 10}, {60, 130}, {149, 149}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("span %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestSpanlistCapacityExhaustion(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.render")
	defer teardown()
	//
	sl := NewSpanlist(2)
	if !sl.Insert(0, 1) {
		t.Errorf("one span in a two-span list should leave space")
	}
	if sl.Insert(10, 11) {
		t.Errorf("filling the list should report exhaustion")
	}
	// Bridging insert merges back below capacity.
	sl.Insert(2, 9)
	if sl.Count() != 1 {
		t.Errorf("expected bridged spans to merge, have %d spans", sl.Count())
	}
	if !sl.hasSpace() {
		t.Errorf("merged list should have space again")
	}
}
