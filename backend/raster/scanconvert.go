package raster

import (
	"image"

	"github.com/npillmayer/arithm"
	"golang.org/x/image/vector"

	"github.com/npillmayer/ripcore/core/geom"
)

// Contour is one closed outline path in device space, produced by a
// charstring interpreter after hinting. Curves arrive pre-flattened or as
// cubic control runs of 3 points per knot.
type Contour struct {
	Knots    []arithm.Pair // on-curve points
	Controls []arithm.Pair // 2 control points per segment, or empty for polygons
}

// ScanConverter rasterizes hinted outlines into 1-bit cache forms. It is
// the seam to the scan-conversion engine: glyph construction hands it the
// filtered outline, and it deposits pixel coverage into a freshly
// allocated form.
type ScanConverter struct {
	// FillRule holds FillRuleWinding or FillRuleEvenOdd. Rasterize does
	// not read it: coverage always comes from vector.Rasterizer's own
	// accumulation, and even-odd filling is not performed.
	FillRule int

	ras *vector.Rasterizer
}

// Fill rules, matching the fontfillrule renderer parameter.
const (
	FillRuleWinding = iota
	FillRuleEvenOdd
)

const coverageThreshold = 0x80

// Rasterize scan-converts the contours into a new bitmap form of
// w × h pixels. Contour coordinates are relative to the form origin.
func (sc *ScanConverter) Rasterize(contours []Contour, w, h geom.DCoord) *Form {
	form := NewBitmap(w, h)
	if form.Type == FormBlank {
		return form
	}
	if sc.ras == nil {
		sc.ras = vector.NewRasterizer(int(w), int(h))
	} else {
		sc.ras.Reset(int(w), int(h))
	}
	for _, c := range contours {
		if len(c.Knots) == 0 {
			continue
		}
		p0 := c.Knots[0]
		sc.ras.MoveTo(float32(p0.X()), float32(p0.Y()))
		for i := 1; i <= len(c.Knots); i++ {
			p := c.Knots[i%len(c.Knots)]
			if len(c.Controls) >= 2*i {
				c1, c2 := c.Controls[2*i-2], c.Controls[2*i-1]
				sc.ras.CubeTo(float32(c1.X()), float32(c1.Y()),
					float32(c2.X()), float32(c2.Y()),
					float32(p.X()), float32(p.Y()))
			} else {
				sc.ras.LineTo(float32(p.X()), float32(p.Y()))
			}
		}
		sc.ras.ClosePath()
	}
	mask := image.NewAlpha(image.Rect(0, 0, int(w), int(h)))
	sc.ras.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	for y := geom.DCoord(0); y < h; y++ {
		row := mask.Pix[int(y)*mask.Stride : int(y)*mask.Stride+int(w)]
		for x, a := range row {
			if a >= coverageThreshold {
				form.SetPixel(geom.DCoord(x), y, true)
			}
		}
	}
	tracer().Debugf("scan-converted %d contours into %d×%d form",
		len(contours), w, h)
	return form
}
