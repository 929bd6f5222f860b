package raster

import (
	"math/bits"

	"github.com/npillmayer/ripcore/core/geom"
)

// Span is an inclusive horizontal pixel run on a single scanline.
type Span struct {
	Left, Right geom.DCoord
}

// Spanlist holds the sorted, non-overlapping spans of one scanline.
// A spanlist is sized at construction with a fixed span capacity; the
// mutating operations report whether space remains, and callers must
// merge or convert to bitmap when the list fills up.
type Spanlist struct {
	spans []Span
}

const spanlistHeader = 2 * WordBytes

// SpanlistSize returns the amount of memory required to store a certain
// number of spans. Used for sizing RLE forms and clip workspaces.
func SpanlistSize(nspans int) int {
	return spanlistHeader + nspans*WordBytes
}

// SpanlistFit returns the span capacity of a block of nbytes bytes, the
// inverse of SpanlistSize. A negative result means the block is too small
// to hold any spans.
func SpanlistFit(nbytes int) int {
	return (nbytes - spanlistHeader) / WordBytes
}

// NewSpanlist creates an empty spanlist with the given capacity.
func NewSpanlist(capacity int) *Spanlist {
	if capacity < 0 {
		capacity = 0
	}
	return &Spanlist{spans: make([]Span, 0, capacity)}
}

// Reset empties the spanlist, retaining its storage.
func (sl *Spanlist) Reset() {
	sl.spans = sl.spans[:0]
}

// Count returns the number of spans stored.
func (sl *Spanlist) Count() int {
	return len(sl.spans)
}

// Spans exposes the span storage for read-only walks.
func (sl *Spanlist) Spans() []Span {
	return sl.spans
}

func (sl *Spanlist) hasSpace() bool {
	return len(sl.spans) < cap(sl.spans)
}

// Insert adds a span, merging with adjacent and overlapping existing
// spans. The insertion is always performed; the return value is false if
// the spanlist is full afterwards, in which case it must be merged or
// emptied before further insertions or deletions.
func (sl *Spanlist) Insert(left, right geom.DCoord) bool {
	spans := sl.spans
	// Find the first span which could interact with [left,right]: spans
	// are sorted; a span interacts if its right edge reaches left-1.
	i := 0
	for i < len(spans) && spans[i].Right < left-1 {
		i++
	}
	if i == len(spans) || spans[i].Left > right+1 {
		// No interaction: plain insertion at position i.
		spans = append(spans, Span{})
		copy(spans[i+1:], spans[i:])
		spans[i] = Span{left, right}
		sl.spans = spans
		return sl.hasSpace()
	}
	// Merge with all spans overlapping or abutting the new one.
	if spans[i].Left < left {
		left = spans[i].Left
	}
	j := i
	for j < len(spans) && spans[j].Left <= right+1 {
		if spans[j].Right > right {
			right = spans[j].Right
		}
		j++
	}
	spans[i] = Span{left, right}
	sl.spans = append(spans[:i+1], spans[j:]...)
	return sl.hasSpace()
}

// Delete subtracts a span, possibly splitting an existing span into two.
// The deletion is always performed; the return value is false if the
// spanlist is full afterwards.
func (sl *Spanlist) Delete(left, right geom.DCoord) bool {
	spans := sl.spans
	out := spans[:0]
	var split []Span
	for _, s := range spans {
		switch {
		case s.Right < left || s.Left > right:
			out = append(out, s)
		case s.Left < left && s.Right > right:
			// Deletion falls inside the span: split into two.
			out = append(out, Span{s.Left, left - 1})
			split = append(split, Span{right + 1, s.Right})
		case s.Left < left:
			out = append(out, Span{s.Left, left - 1})
		case s.Right > right:
			out = append(out, Span{right + 1, s.Right})
		default:
			// Fully covered: drop.
		}
	}
	out = append(out, split...)
	// Splits are generated in order; a single sort pass keeps the
	// invariant when a split landed after trailing spans.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Left < out[j-1].Left; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	sl.spans = out
	return sl.hasSpace()
}

// Merge coalesces abutting and overlapping spans. The return value is
// false if the spanlist is still full after merging.
func (sl *Spanlist) Merge() bool {
	spans := sl.spans
	if len(spans) < 2 {
		return sl.hasSpace()
	}
	out := spans[:1]
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if s.Left <= last.Right+1 {
			if s.Right > last.Right {
				last.Right = s.Right
			}
		} else {
			out = append(out, s)
		}
	}
	sl.spans = out
	return sl.hasSpace()
}

// Copy replaces dst's spans with src's. The return value is false if the
// destination did not have enough space; as many spans as fit are copied.
func (sl *Spanlist) Copy(src *Spanlist) bool {
	n := len(src.spans)
	ok := true
	if n > cap(sl.spans) {
		n = cap(sl.spans)
		ok = false
	}
	sl.spans = sl.spans[:n]
	copy(sl.spans, src.spans[:n])
	return ok
}

// ClipTo clips the spans against the spans of another list. The return
// value is false if the destination ran out of space; the destination is
// left consistent so the operation can be retried after a merge or a
// conversion to bitmap.
func (sl *Spanlist) ClipTo(clipto *Spanlist) bool {
	out := make([]Span, 0, cap(sl.spans))
	ci := 0
	clip := clipto.spans
	for _, s := range sl.spans {
		for ci < len(clip) && clip[ci].Right < s.Left {
			ci++
		}
		for j := ci; j < len(clip) && clip[j].Left <= s.Right; j++ {
			l, r := s.Left, s.Right
			if clip[j].Left > l {
				l = clip[j].Left
			}
			if clip[j].Right < r {
				r = clip[j].Right
			}
			if l <= r {
				if len(out) == cap(out) {
					sl.spans = append(sl.spans[:0], out...)
					return false
				}
				out = append(out, Span{l, r})
			}
		}
	}
	sl.spans = append(sl.spans[:0], out...)
	return sl.hasSpace()
}

// Iterate invokes the callback once per span, left to right.
func (sl *Spanlist) Iterate(callback func(left, right geom.DCoord)) {
	for _, s := range sl.spans {
		callback(s.Left, s.Right)
	}
}

// Intersecting calls black for each span portion within [left,right] and
// white for each gap portion. white may be nil. The xoffset is subtracted
// from stored span coordinates before comparison and callback, undoing a
// separation offset applied when the spanlist was built.
func (sl *Spanlist) Intersecting(black, white func(left, right geom.DCoord),
	left, right, xoffset geom.DCoord) {
	//
	at := left
	for _, s := range sl.spans {
		sleft, sright := s.Left-xoffset, s.Right-xoffset
		if sright < at {
			continue
		}
		if sleft > right {
			break
		}
		if sleft > at {
			if white != nil {
				white(at, sleft-1)
			}
			at = sleft
		}
		r := sright
		if r > right {
			r = right
		}
		if at <= r {
			black(at, r)
			at = r + 1
		}
		if at > right {
			return
		}
	}
	if at <= right && white != nil {
		white(at, right)
	}
}

// skipRun returns the length of the run of identical pixels at x within
// the current blit word: white runs when invert is false, black runs when
// true. The run never extends past the word boundary.
func skipRun(line []Word, x geom.DCoord, invert bool) (run, avail int) {
	word := line[x>>WordShift] << uint(x&WordMask)
	if invert {
		word = ^word
	}
	avail = WordBits - int(x&WordMask)
	run = bits.LeadingZeros64(word)
	if run > avail {
		run = avail
	}
	return run, avail
}

// BitmapSpanCount determines the number of spans in a bitmap line without
// inserting any spans.
func BitmapSpanCount(line []Word, w geom.DCoord) int {
	n := 0
	x := geom.DCoord(0)
	for x < w {
		// Skip white pixels.
		run, avail := skipRun(line, x, false)
		x += geom.DCoord(run)
		if run == avail {
			continue
		}
		if x >= w {
			break
		}
		n++
		// Skip the black run.
		for x < w {
			run, avail = skipRun(line, x, true)
			x += geom.DCoord(run)
			if run < avail {
				break
			}
		}
	}
	return n
}

// FromBitmap encodes a bitmap line into spans. The return value is false
// if the spanlist was too small to hold all spans of the line.
func (sl *Spanlist) FromBitmap(line []Word, w geom.DCoord) bool {
	x := geom.DCoord(0)
	for x < w {
		run, avail := skipRun(line, x, false)
		x += geom.DCoord(run)
		if run == avail {
			continue
		}
		if x >= w {
			break
		}
		start := x
		for x < w {
			run, avail = skipRun(line, x, true)
			x += geom.DCoord(run)
			if run < avail {
				break
			}
		}
		if x > w {
			x = w
		}
		if !sl.hasSpace() {
			return false
		}
		sl.Insert(start, x-1)
	}
	return true
}
