package plotting

import (
	"math"

	"github.com/npillmayer/arithm"

	"github.com/npillmayer/ripcore/backend/raster"
	"github.com/npillmayer/ripcore/core/geom"
)

// pathAccumulator collects the hinted outline in device space: closed
// contours plus the device bounding box, ready for scan conversion.
type pathAccumulator struct {
	matrix   geom.Matrix
	contours []raster.Contour
	current  raster.Contour
	curX     float64
	curY     float64

	minX, minY float64
	maxX, maxY float64
	any        bool

	xwidth, ywidth float64
}

func newPathAccumulator(m geom.Matrix) *pathAccumulator {
	return &pathAccumulator{matrix: m}
}

func (pa *pathAccumulator) grow(x, y float64) {
	if !pa.any {
		pa.minX, pa.maxX = x, x
		pa.minY, pa.maxY = y, y
		pa.any = true
		return
	}
	pa.minX = math.Min(pa.minX, x)
	pa.maxX = math.Max(pa.maxX, x)
	pa.minY = math.Min(pa.minY, y)
	pa.maxY = math.Max(pa.maxY, y)
}

func (pa *pathAccumulator) device(x, y float64) (float64, float64) {
	dx, dy := pa.matrix.Apply(x, y)
	pa.grow(dx, dy)
	return dx, dy
}

func (pa *pathAccumulator) InitChar() error {
	pa.contours = nil
	pa.current = raster.Contour{}
	pa.any = false
	return nil
}

func (pa *pathAccumulator) SetBearing(x, y float64) error {
	return nil
}

func (pa *pathAccumulator) SetWidth(x, y float64) error {
	pa.xwidth, pa.ywidth = x, y
	return nil
}

func (pa *pathAccumulator) flush() {
	if len(pa.current.Knots) > 0 {
		pa.contours = append(pa.contours, pa.current)
		pa.current = raster.Contour{}
	}
}

func (pa *pathAccumulator) MoveTo(x, y float64) error {
	pa.flush()
	dx, dy := pa.device(x, y)
	pa.curX, pa.curY = dx, dy
	pa.current.Knots = append(pa.current.Knots, arithm.P(dx, dy))
	return nil
}

func (pa *pathAccumulator) LineTo(x, y float64) error {
	dx, dy := pa.device(x, y)
	pa.curX, pa.curY = dx, dy
	// Straight segments carry their predecessor's position and their end
	// point as control points, keeping one control pair per segment.
	prev := arithm.P(pa.curX, pa.curY)
	if n := len(pa.current.Knots); n > 0 {
		prev = pa.current.Knots[n-1]
	}
	if len(pa.current.Controls) > 0 {
		pa.current.Controls = append(pa.current.Controls, prev, arithm.P(dx, dy))
	}
	pa.current.Knots = append(pa.current.Knots, arithm.P(dx, dy))
	return nil
}

func (pa *pathAccumulator) CurveTo(curve [6]float64) error {
	c1x, c1y := pa.device(curve[0], curve[1])
	c2x, c2y := pa.device(curve[2], curve[3])
	ex, ey := pa.device(curve[4], curve[5])
	if len(pa.current.Controls) == 0 && len(pa.current.Knots) > 1 {
		// Backfill control pairs for the straight segments so far.
		for i := 1; i < len(pa.current.Knots); i++ {
			pa.current.Controls = append(pa.current.Controls,
				pa.current.Knots[i-1], pa.current.Knots[i])
		}
	}
	pa.current.Controls = append(pa.current.Controls,
		arithm.P(c1x, c1y), arithm.P(c2x, c2y))
	pa.current.Knots = append(pa.current.Knots, arithm.P(ex, ey))
	pa.curX, pa.curY = ex, ey
	return nil
}

func (pa *pathAccumulator) ClosePath() error {
	pa.flush()
	return nil
}

func (pa *pathAccumulator) EndChar(ok bool) error {
	pa.flush()
	return nil
}

// bounds returns the device-space pixel bounds of the accumulated
// outline.
func (pa *pathAccumulator) bounds() (x0, y0, w, h geom.DCoord) {
	if !pa.any {
		return 0, 0, 0, 0
	}
	x0 = geom.DCoord(math.Floor(pa.minX))
	y0 = geom.DCoord(math.Floor(pa.minY))
	x1 := geom.DCoord(math.Ceil(pa.maxX))
	y1 := geom.DCoord(math.Ceil(pa.maxY))
	return x0, y0, x1 - x0, y1 - y0
}

// formContours rebases the contours to the form origin. Device space is
// raster space: y grows downward, so the first raster line is the
// outline top.
func (pa *pathAccumulator) formContours() []raster.Contour {
	x0, y0, _, _ := pa.bounds()
	out := make([]raster.Contour, len(pa.contours))
	for i, c := range pa.contours {
		nc := raster.Contour{
			Knots:    make([]arithm.Pair, len(c.Knots)),
			Controls: make([]arithm.Pair, len(c.Controls)),
		}
		for j, p := range c.Knots {
			nc.Knots[j] = arithm.P(p.X()-float64(x0), p.Y()-float64(y0))
		}
		for j, p := range c.Controls {
			nc.Controls[j] = arithm.P(p.X()-float64(x0), p.Y()-float64(y0))
		}
		out[i] = nc
	}
	return out
}
