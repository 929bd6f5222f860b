package raster

import "github.com/npillmayer/ripcore/core/geom"

// fetch64 assembles 64 bits of a source line starting at the given bit
// position, zero padded outside the line. Negative positions occur when
// the destination word straddles the left edge of the source.
func fetch64(src []Word, bit int64) Word {
	idx := bit >> WordShift // floor division
	off := uint(bit & WordMask)
	var w Word
	if idx >= 0 && idx < int64(len(src)) {
		w = src[idx] << off
	}
	if off != 0 && idx+1 >= 0 && idx+1 < int64(len(src)) {
		w |= src[idx+1] >> (WordBits - off)
	}
	return w
}

// blitRow composites w source bits beginning at srcBit onto dst beginning
// at dstBit. Three cases fall out of the word alignment: identical
// alignment copies words under first/last masks, a single-word output
// applies one combined mask, and the general case funnels two source
// words per destination word. A non-nil clip line is ANDed in.
func blitRow(dst, src []Word, dstBit, srcBit, w int64, set bool, clip []Word) {
	if w <= 0 {
		return
	}
	first := int(dstBit >> WordShift)
	last := int((dstBit + w - 1) >> WordShift)
	fmask := AllOnes >> uint(dstBit&WordMask)
	lmask := AllOnes << uint(WordMask-((dstBit+w-1)&WordMask))
	aligned := (dstBit & WordMask) == (srcBit & WordMask)
	virtual := srcBit - dstBit + int64(first)<<WordShift
	if last >= len(dst) {
		last = len(dst) - 1
	}
	for i := first; i <= last; i++ {
		mask := AllOnes
		if i == first {
			mask &= fmask
		}
		if i == last {
			mask &= lmask
		}
		if clip != nil {
			if i >= len(clip) {
				break
			}
			mask &= clip[i]
		}
		var chunk Word
		if aligned {
			if si := virtual >> WordShift; si >= 0 && si < int64(len(src)) {
				chunk = src[si]
			}
		} else {
			chunk = fetch64(src, virtual)
		}
		if set {
			dst[i] |= chunk & mask
		} else {
			dst[i] &^= chunk & mask
		}
		virtual += WordBits
	}
}

// charblt is the shared character blit. Clipping is applied according to
// mode: none trusts the caller, rect clips against the context bounds,
// complex additionally masks with the clip form.
func charblt(bc *BlitContext, form *Form, x, y geom.DCoord, mode ClipMode, set bool) {
	w := form.W
	h := form.H
	srcX := geom.DCoord(0)
	srcY := geom.DCoord(0)

	if mode != ClipNone {
		// Right and bottom edges.
		if x > bc.Bounds.X2 || y > bc.Bounds.Y2 {
			return
		}
		if over := x + w - 1 - bc.Bounds.X2; over > 0 {
			w -= over
		}
		if over := y + h - 1 - bc.Bounds.Y2; over > 0 {
			h -= over
		}
		// Left and top edges, advancing the source origin.
		if d := bc.Bounds.X1 - x; d > 0 {
			srcX = d
			w -= d
			x = bc.Bounds.X1
		}
		if d := bc.Bounds.Y1 - y; d > 0 {
			srcY = d
			h -= d
			y = bc.Bounds.Y1
		}
		if w <= 0 || h <= 0 {
			return
		}
	}

	dstBit := int64(x + bc.XSep)
	for row := geom.DCoord(0); row < h; row++ {
		dline := bc.outLine(y + row)
		if dline == nil {
			continue
		}
		var cline []Word
		if mode == ClipComplex {
			if cline = bc.clipLine(y + row); cline == nil {
				continue
			}
		}
		sline := form.Line(srcY + row)
		blitRow(dline, sline, dstBit, int64(srcX), int64(w), set, cline)
	}
}

// FastCharBlt1 composites a glyph bitmap with no clipping. The caller
// guarantees the form falls entirely inside the destination band.
func FastCharBlt1(bc *BlitContext, form *Form, x, y geom.DCoord) {
	charblt(bc, form, x, y, ClipNone, true)
}

// FastCharBlt0 is the white variant of FastCharBlt1.
func FastCharBlt0(bc *BlitContext, form *Form, x, y geom.DCoord) {
	charblt(bc, form, x, y, ClipNone, false)
}

// CharBlt1 composites a glyph bitmap clipped to the context rectangle.
func CharBlt1(bc *BlitContext, form *Form, x, y geom.DCoord) {
	charblt(bc, form, x, y, ClipRect, true)
}

// CharBlt0 is the white variant of CharBlt1.
func CharBlt0(bc *BlitContext, form *Form, x, y geom.DCoord) {
	charblt(bc, form, x, y, ClipRect, false)
}

// CharClip1 composites a glyph bitmap through a complex clip: the clip
// form is ANDed into every destination word.
func CharClip1(bc *BlitContext, form *Form, x, y geom.DCoord) {
	if bc.clipSpans(y) != nil {
		// Spanlist clip: decompose the glyph into spans.
		RLEClipCharBlt(bc, form, x, y, true)
		return
	}
	charblt(bc, form, x, y, ClipComplex, true)
}

// CharClip0 is the white variant of CharClip1.
func CharClip0(bc *BlitContext, form *Form, x, y geom.DCoord) {
	if bc.clipSpans(y) != nil {
		RLEClipCharBlt(bc, form, x, y, false)
		return
	}
	charblt(bc, form, x, y, ClipComplex, false)
}

// RLEClipCharBlt composites a glyph against a spanlist clip by deriving
// spans from each source line and clipping them.
func RLEClipCharBlt(bc *BlitContext, form *Form, x, y geom.DCoord, set bool) {
	fill := BitFill1
	if !set {
		fill = BitFill0
	}
	for row := geom.DCoord(0); row < form.H; row++ {
		dy := y + row
		if dy < bc.Bounds.Y1 || dy > bc.Bounds.Y2 {
			continue
		}
		spans := bc.clipSpans(dy)
		if spans == nil {
			continue
		}
		line := form.Line(row)
		sl := NewSpanlist(BitmapSpanCount(line, form.W))
		sl.FromBitmap(line, form.W)
		sl.Iterate(func(l, r geom.DCoord) {
			xs, xe := x+l, x+r
			if !bc.clampSpan(dy, &xs, &xe) {
				return
			}
			spans.Intersecting(func(cl, cr geom.DCoord) {
				fill(bc, dy, cl, cr)
			}, nil, xs, xe, bc.XSep)
		})
	}
}
