package raster

import "github.com/npillmayer/ripcore/core/geom"

// Color is the current marking color of a blit.
type Color uint8

const (
	ColorWhite Color = iota
	ColorBlack
)

// ClipMode selects the clipping variant of a blit function.
type ClipMode uint8

const (
	ClipNone ClipMode = iota
	ClipRect
	ClipComplex
)

// SpanFn paints the inclusive horizontal run xs..xe on line y.
type SpanFn func(bc *BlitContext, y, xs, xe geom.DCoord)

// BlockFn paints the inclusive rectangle (xs..xe, ys..ye).
type BlockFn func(bc *BlitContext, ys, ye, xs, xe geom.DCoord)

// CharFn composites a glyph form at destination (x, y).
type CharFn func(bc *BlitContext, form *Form, x, y geom.DCoord)

// BlitContext carries the state threaded through all blit functions: the
// destination form, the clip form and bounds, separation offsets, the
// bit-depth shift and the marking color.
type BlitContext struct {
	Output *Form
	Clip   *Form     // complex clip form (bitmap or per-line spanlists)
	Bounds geom.Rect // device-space clip rectangle

	XSep, YSep geom.DCoord // separation offsets
	Depth      uint8       // bit-depth shift of the output raster
	Color      Color
	Mode       ClipMode

	Halftone     *HalftoneParams
	HalftoneBase []Word // scratch for one destination-aligned cell span
}

// outLine returns the output form words for device line y, or nil when
// the line falls outside the form.
func (bc *BlitContext) outLine(y geom.DCoord) []Word {
	line := y - bc.Output.HOff + bc.YSep
	if line < 0 || line >= bc.Output.H {
		return nil
	}
	return bc.Output.Line(line)
}

// clipLine returns the complex clip form words for device line y.
func (bc *BlitContext) clipLine(y geom.DCoord) []Word {
	if bc.Clip == nil {
		return nil
	}
	line := y - bc.Clip.HOff + bc.YSep
	if line < 0 || line >= bc.Clip.H {
		return nil
	}
	return bc.Clip.Line(line)
}

// clipSpans returns the clip spanlist for device line y when the clip
// form carries an RLE representation.
func (bc *BlitContext) clipSpans(y geom.DCoord) *Spanlist {
	if bc.Clip == nil || bc.Clip.Type != FormCacheRLE {
		return nil
	}
	line := y - bc.Clip.HOff + bc.YSep
	if line < 0 || line >= bc.Clip.H {
		return nil
	}
	return bc.Clip.Lines[line]
}

// Span function table, indexed by [color][clip-mode].
var spanTable = [2][3]SpanFn{
	ColorWhite: {BitFill0, BitClipRect0, BitClip0},
	ColorBlack: {BitFill1, BitClipRect1, BitClip1},
}

// Block function table, indexed by [color][clip-mode].
var blockTable = [2][3]BlockFn{
	ColorWhite: {BlkFill0, BlkClipRect0, BlkClip0},
	ColorBlack: {BlkFill1, BlkClipRect1, BlkClip1},
}

// Char function table, indexed by [color][clip-mode].
var charTable = [2][3]CharFn{
	ColorWhite: {FastCharBlt0, CharBlt0, CharClip0},
	ColorBlack: {FastCharBlt1, CharBlt1, CharClip1},
}

// DoSpan dispatches a span through the function table.
func (bc *BlitContext) DoSpan(y, xs, xe geom.DCoord) {
	spanTable[bc.Color][bc.Mode](bc, y, xs, xe)
}

// DoBlock dispatches a block through the function table.
func (bc *BlitContext) DoBlock(ys, ye, xs, xe geom.DCoord) {
	blockTable[bc.Color][bc.Mode](bc, ys, ye, xs, xe)
}

// DoChar dispatches a char blit through the function table. RLE source
// forms are decomposed into spans; blank forms are no-ops.
func (bc *BlitContext) DoChar(form *Form, x, y geom.DCoord) {
	switch form.Type {
	case FormBlank:
		return
	case FormCacheRLE:
		RLECharBlt(bc, form, x, y)
	default:
		charTable[bc.Color][bc.Mode](bc, form, x, y)
	}
}

// NextSpan forwards a span unchanged; used as the base of blit stacks.
func NextSpan(bc *BlitContext, y, xs, xe geom.DCoord) {
	bc.DoSpan(y, xs, xe)
}

// IgnoreSpan drops a span.
func IgnoreSpan(bc *BlitContext, y, xs, xe geom.DCoord) {
}

// InvalidSpan is installed in table slots that must never be reached.
func InvalidSpan(bc *BlitContext, y, xs, xe geom.DCoord) {
	panic("invalid span blit function called")
}

// DoImage is the generic image blit fall-through: the source form is
// decomposed into spans which dispatch through the span function table.
// Bitmap and RLE sources are both accepted; callers with word-aligned
// bitmap sources should prefer DoChar.
func (bc *BlitContext) DoImage(form *Form, x, y geom.DCoord) {
	switch form.Type {
	case FormBlank:
		return
	case FormCacheRLE:
		RLECharBlt(bc, form, x, y)
	default:
		for line := geom.DCoord(0); line < form.H; line++ {
			src := form.Line(line)
			sl := NewSpanlist(BitmapSpanCount(src, form.W))
			sl.FromBitmap(src, form.W)
			dy := y + line
			sl.Iterate(func(l, r geom.DCoord) {
				bc.DoSpan(dy, x+l, x+r)
			})
		}
	}
}

// RLECharBlt composites an RLE source form by iterating its spans through
// the span blit for the context's clip mode.
func RLECharBlt(bc *BlitContext, form *Form, x, y geom.DCoord) {
	span := spanTable[bc.Color][bc.Mode]
	for line := geom.DCoord(0); line < form.H; line++ {
		dy := y + line
		form.Lines[line].Iterate(func(l, r geom.DCoord) {
			span(bc, dy, x+l, x+r)
		})
	}
}
