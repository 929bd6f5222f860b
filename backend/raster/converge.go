package raster

import "github.com/npillmayer/ripcore/core/geom"

// HalftoneParams describe one replication of a halftone cell, used when
// painting onto a halftoned output. Orthogonal screens index the cell
// with simple modular arithmetic; general (angled) screens walk a
// four-parameter lattice to locate the start position and reflect across
// cell boundaries.
type HalftoneParams struct {
	Form *Form // the cell bitmap, one line per cell row

	XDims, YDims   geom.DCoord // cell dimensions in pixels
	EXDims, EYDims geom.DCoord // extended dimensions for general screens
	R1, R2, R3, R4 geom.DCoord // lattice walk parameters
	PX, PY         geom.DCoord // phase for orthogonal screens

	cx, cy geom.DCoord // cached lattice position for general screens
}

// cellBit reads one pixel of cell row cy at horizontal position cx,
// wrapped to the cell width.
func (ht *HalftoneParams) cellBit(cx, cy geom.DCoord) Word {
	line := ht.Form.Line(cy)
	return (line[cx>>WordShift] >> uint(WordMask-(cx&WordMask))) & 1
}

// loadSpan assembles n destination-aligned blit words from cell row cy,
// starting at cell position cx and wrapping at width w.
func (ht *HalftoneParams) loadSpan(base []Word, cx, cy, w geom.DCoord, n int) {
	line := ht.Form.Line(cy)
	for i := 0; i < n; i++ {
		if cx+WordBits <= w {
			// Whole word available without wrapping.
			base[i] = fetch64(line, int64(cx))
			cx += WordBits
			if cx >= w {
				cx -= w
			}
			continue
		}
		var word Word
		for j := 0; j < WordBits; j++ {
			word = word<<1 | ht.cellBit(cx, cy)
			cx++
			if cx >= w {
				cx = 0
			}
		}
		base[i] = word
	}
}

// LoadOrthogonalSpan preloads n words of the halftone pattern for the
// destination span starting at device position (x, y). Orthogonal-axis
// screens use direct modular indexing into the cell.
func LoadOrthogonalSpan(base []Word, ht *HalftoneParams, x, y geom.DCoord, n int) {
	cx := geom.DCoord(uint32(x+ht.PX) % uint32(ht.XDims))
	cy := geom.DCoord(uint32(y+ht.PY) % uint32(ht.YDims))
	ht.loadSpan(base, cx, cy, ht.XDims, n)
}

// FindGeneralPosition locates the cell position for device (x, y) on a
// general screen. Large jumps in y wrap by the extended cell height;
// small jumps walk the lattice, reflecting in x depending on which side
// of the r1 boundary the walk falls; finally x is wrapped into the
// extended width. The walk position is cached between calls, so repeated
// lookups along a scanline are cheap.
func FindGeneralPosition(ht *HalftoneParams, x, y geom.DCoord) (geom.DCoord, geom.DCoord) {
	cx := x - ht.cx
	cy := y - ht.cy
	if cx >= 0 && cx < ht.EXDims && cy >= 0 && cy < ht.YDims {
		return cx, cy
	}
	for cy >= ht.EYDims {
		cy -= ht.EYDims
	}
	for cy < 0 {
		cy += ht.EYDims
	}
	for cy >= ht.YDims {
		if cx >= ht.R1 {
			cx -= ht.R1
			cy -= ht.R2
		} else {
			cx += ht.R4
			cy -= ht.R3
		}
	}
	for cx >= ht.EXDims {
		cx -= ht.EXDims
	}
	for cx < 0 {
		cx += ht.EXDims
	}
	ht.cx = x - cx
	ht.cy = y - cy
	return cx, cy
}

// LoadGeneralSpan preloads n words of the halftone pattern for a general
// screen, walking the lattice to the start position first.
func LoadGeneralSpan(base []Word, ht *HalftoneParams, x, y geom.DCoord, n int) {
	cx, cy := FindGeneralPosition(ht, x, y)
	ht.loadSpan(base, cx, cy, ht.EXDims, n)
}
