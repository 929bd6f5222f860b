package raster

import "github.com/npillmayer/ripcore/core/geom"

// fillBits sets or clears widthBits bits starting at startBit within one
// line of blit words. The middle full words are filled eight at a time.
func fillBits(line []Word, startBit, widthBits int64, set bool) {
	if widthBits <= 0 {
		return
	}
	w := int(startBit >> WordShift)
	off := uint(startBit & WordMask)
	// Partial left word.
	if off != 0 {
		mask := AllOnes >> off
		rest := int64(WordBits) - int64(off) - widthBits
		if rest >= 0 {
			// Doesn't cross the word border.
			mask &= AllOnes << uint(rest)
			if set {
				line[w] |= mask
			} else {
				line[w] &^= mask
			}
			return
		}
		if set {
			line[w] |= mask
		} else {
			line[w] &^= mask
		}
		w++
		widthBits = -rest
	}
	full := int(widthBits >> WordShift)
	fill := Word(0)
	if set {
		fill = AllOnes
	}
	for ; full >= 8; full -= 8 {
		line[w] = fill
		line[w+1] = fill
		line[w+2] = fill
		line[w+3] = fill
		line[w+4] = fill
		line[w+5] = fill
		line[w+6] = fill
		line[w+7] = fill
		w += 8
	}
	for ; full > 0; full-- {
		line[w] = fill
		w++
	}
	// Partial right word.
	if rem := uint(widthBits & WordMask); rem > 0 {
		mask := AllOnes << (WordBits - rem)
		if set {
			line[w] |= mask
		} else {
			line[w] &^= mask
		}
	}
}

// spanBits converts span endpoints to (startBit, widthBits) applying the
// separation offset and the bit-depth shift.
func (bc *BlitContext) spanBits(xs, xe geom.DCoord) (int64, int64) {
	start := int64(xs+bc.XSep) << bc.Depth
	width := int64(xe-xs+1) << bc.Depth
	return start, width
}

// BitFill1 sets all pixels on line y from xs to xe.
func BitFill1(bc *BlitContext, y, xs, xe geom.DCoord) {
	line := bc.outLine(y)
	if line == nil {
		return
	}
	start, width := bc.spanBits(xs, xe)
	fillBits(line, start, width, true)
}

// BitFill0 clears all pixels on line y from xs to xe.
func BitFill0(bc *BlitContext, y, xs, xe geom.DCoord) {
	line := bc.outLine(y)
	if line == nil {
		return
	}
	start, width := bc.spanBits(xs, xe)
	fillBits(line, start, width, false)
}

// clampSpan clips a span against the context's clip rectangle. It
// returns false if nothing remains.
func (bc *BlitContext) clampSpan(y geom.DCoord, xs, xe *geom.DCoord) bool {
	if y < bc.Bounds.Y1 || y > bc.Bounds.Y2 {
		return false
	}
	if *xs < bc.Bounds.X1 {
		*xs = bc.Bounds.X1
	}
	if *xe > bc.Bounds.X2 {
		*xe = bc.Bounds.X2
	}
	return *xs <= *xe
}

// BitClipRect1 is the rectangle-clipped variant of BitFill1.
func BitClipRect1(bc *BlitContext, y, xs, xe geom.DCoord) {
	if !bc.clampSpan(y, &xs, &xe) {
		return
	}
	BitFill1(bc, y, xs, xe)
}

// BitClipRect0 is the rectangle-clipped variant of BitFill0.
func BitClipRect0(bc *BlitContext, y, xs, xe geom.DCoord) {
	if !bc.clampSpan(y, &xs, &xe) {
		return
	}
	BitFill0(bc, y, xs, xe)
}

// maskedFill combines the clip form words into a span fill: pixels are
// set (or cleared) only where the clip line has coverage.
func maskedFill(line, clip []Word, startBit, widthBits int64, set bool) {
	if widthBits <= 0 {
		return
	}
	w := int(startBit >> WordShift)
	off := uint(startBit & WordMask)
	endBit := startBit + widthBits - 1
	last := int(endBit >> WordShift)
	fmask := AllOnes >> off
	lmask := AllOnes << uint(WordMask-(endBit&WordMask))
	if w == last {
		mask := fmask & lmask & clip[w]
		if set {
			line[w] |= mask
		} else {
			line[w] &^= mask
		}
		return
	}
	if set {
		line[w] |= fmask & clip[w]
		for i := w + 1; i < last; i++ {
			line[i] |= clip[i]
		}
		line[last] |= lmask & clip[last]
	} else {
		line[w] &^= fmask & clip[w]
		for i := w + 1; i < last; i++ {
			line[i] &^= clip[i]
		}
		line[last] &^= lmask & clip[last]
	}
}

// BitClip1 is the complex-clipped variant of BitFill1. Spanlist clip
// forms iterate their overlapping spans; bitmap clip forms mask the fill.
func BitClip1(bc *BlitContext, y, xs, xe geom.DCoord) {
	if !bc.clampSpan(y, &xs, &xe) {
		return
	}
	if spans := bc.clipSpans(y); spans != nil {
		spans.Intersecting(func(l, r geom.DCoord) {
			BitFill1(bc, y, l, r)
		}, nil, xs, xe, bc.XSep)
		return
	}
	line := bc.outLine(y)
	clip := bc.clipLine(y)
	if line == nil || clip == nil {
		return
	}
	start, width := bc.spanBits(xs, xe)
	maskedFill(line, clip, start, width, true)
}

// BitClip0 is the complex-clipped variant of BitFill0.
func BitClip0(bc *BlitContext, y, xs, xe geom.DCoord) {
	if !bc.clampSpan(y, &xs, &xe) {
		return
	}
	if spans := bc.clipSpans(y); spans != nil {
		spans.Intersecting(func(l, r geom.DCoord) {
			BitFill0(bc, y, l, r)
		}, nil, xs, xe, bc.XSep)
		return
	}
	line := bc.outLine(y)
	clip := bc.clipLine(y)
	if line == nil || clip == nil {
		return
	}
	start, width := bc.spanBits(xs, xe)
	maskedFill(line, clip, start, width, false)
}
