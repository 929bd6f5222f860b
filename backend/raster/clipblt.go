package raster

import "github.com/npillmayer/ripcore/core/geom"

// Complex clip regions prefer a spanlist representation: most clip shapes
// resolve to a handful of spans per line, far smaller than a band bitmap.
// When a line's spans will not fit the per-line budget, the whole clip
// "cops out" to bitmap representation and continues there.

// minClipSpans is the smallest per-line span budget; narrow forms would
// otherwise compute a budget below one span from their line size.
const minClipSpans = 8

// InitComplexClip prepares a form for use as a complex clip region. It
// attempts the spanlist representation with a per-line capacity derived
// from the bitmap line size; if any line of the source bitmap exceeds the
// budget, the form stays a bitmap.
func InitComplexClip(form *Form) bool {
	if form.Type != FormBandBitmap && form.Type != FormCacheBitmap {
		return false
	}
	capacity := SpanlistFit(int(form.L) * WordBytes)
	if capacity < minClipSpans {
		capacity = minClipSpans
	}
	lines := make([]*Spanlist, form.H)
	for y := geom.DCoord(0); y < form.H; y++ {
		line := form.Line(y)
		if BitmapSpanCount(line, form.W) > capacity {
			tracer().Debugf("clip line %d overflows %d spans, keeping bitmap",
				y, capacity)
			return false
		}
		sl := NewSpanlist(capacity)
		sl.FromBitmap(line, form.W)
		lines[y] = sl
	}
	form.Lines = lines
	form.Data = nil
	form.Type = FormCacheRLE
	return true
}

// ClipCopOut converts a spanlist clip form back to bitmap representation.
// Invoked when clip accumulation overflows a line's span capacity; the
// spans accumulated so far are rendered into the bitmap and clipping
// continues on the bitmap.
func ClipCopOut(form *Form) {
	if form.Type != FormCacheRLE {
		return
	}
	l := int32((int64(form.W) + WordMask) >> WordShift)
	data := make([]Word, int(l)*int(form.H))
	for y := geom.DCoord(0); y < form.H; y++ {
		line := data[int(y)*int(l) : (int(y)+1)*int(l)]
		form.Lines[y].Iterate(func(xs, xe geom.DCoord) {
			bitfillWords(line, xs, xe)
		})
	}
	form.Data = data
	form.L = l
	form.Lines = nil
	form.Type = FormBandBitmap
	form.Size = AlignFormSize(len(data) * WordBytes)
	tracer().Debugf("clip form %d×%d copped out to bitmap", form.W, form.H)
}

// ClipAccumulate adds a span to a clip form line. For spanlist
// clips, overflow triggers the cop-out conversion and the operation is
// retried on the bitmap.
func ClipAccumulate(form *Form, y, xs, xe geom.DCoord) {
	if y < 0 || y >= form.H {
		return
	}
	if form.Type == FormCacheRLE {
		if form.Lines[y].Insert(xs, xe) {
			return
		}
		if form.Lines[y].Merge() {
			return
		}
		ClipCopOut(form)
	}
	bitfillWords(form.Line(y), xs, xe)
}
