package raster

import "github.com/npillmayer/ripcore/core/geom"

// BlkFill1 paints the inclusive rectangle with ones. The first line is
// filled through the span machinery, subsequent identical lines copy it.
func BlkFill1(bc *BlitContext, ys, ye, xs, xe geom.DCoord) {
	if ys > ye || xs > xe {
		return
	}
	BitFill1(bc, ys, xs, xe)
	first := bc.outLine(ys)
	if first == nil {
		for y := ys + 1; y <= ye; y++ {
			BitFill1(bc, y, xs, xe)
		}
		return
	}
	start, width := bc.spanBits(xs, xe)
	w0 := int(start >> WordShift)
	w1 := int((start + width - 1) >> WordShift)
	for y := ys + 1; y <= ye; y++ {
		line := bc.outLine(y)
		if line == nil {
			continue
		}
		for i := w0; i <= w1; i++ {
			line[i] |= first[i]
		}
	}
}

// BlkFill0 clears the inclusive rectangle.
func BlkFill0(bc *BlitContext, ys, ye, xs, xe geom.DCoord) {
	for y := ys; y <= ye; y++ {
		BitFill0(bc, y, xs, xe)
	}
}

// BlkClipRect1 is the rectangle-clipped variant of BlkFill1.
func BlkClipRect1(bc *BlitContext, ys, ye, xs, xe geom.DCoord) {
	if ys < bc.Bounds.Y1 {
		ys = bc.Bounds.Y1
	}
	if ye > bc.Bounds.Y2 {
		ye = bc.Bounds.Y2
	}
	for y := ys; y <= ye; y++ {
		BitClipRect1(bc, y, xs, xe)
	}
}

// BlkClipRect0 is the rectangle-clipped variant of BlkFill0.
func BlkClipRect0(bc *BlitContext, ys, ye, xs, xe geom.DCoord) {
	if ys < bc.Bounds.Y1 {
		ys = bc.Bounds.Y1
	}
	if ye > bc.Bounds.Y2 {
		ye = bc.Bounds.Y2
	}
	for y := ys; y <= ye; y++ {
		BitClipRect0(bc, y, xs, xe)
	}
}

// BlkClip1 decomposes a complex-clipped block into clipped spans.
func BlkClip1(bc *BlitContext, ys, ye, xs, xe geom.DCoord) {
	for y := ys; y <= ye; y++ {
		BitClip1(bc, y, xs, xe)
	}
}

// BlkClip0 decomposes a complex-clipped block into clipped spans.
func BlkClip0(bc *BlitContext, ys, ye, xs, xe geom.DCoord) {
	for y := ys; y <= ye; y++ {
		BitClip0(bc, y, xs, xe)
	}
}
