package plotting

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"github.com/npillmayer/ripcore/backend/raster"
	"github.com/npillmayer/ripcore/core"
	"github.com/npillmayer/ripcore/core/font"
	"github.com/npillmayer/ripcore/core/geom"
	"github.com/npillmayer/ripcore/core/glyphcache"
	"github.com/npillmayer/ripcore/core/params"
	"github.com/npillmayer/ripcore/engine/hinting"
)

// boxInterp is a stand-in charstring interpreter drawing a square with
// an advance width of 600 units.
type boxInterp struct {
	runs int
}

func (bi *boxInterp) Run(fi *font.Info, key *font.CharKey,
	builder hinting.CharBuilder) error {
	//
	bi.runs++
	builder.SetBearing(0, 0)
	builder.SetWidth(600, 0)
	builder.HStem(100, 500, false, false, 0)
	builder.MoveTo(100, 100)
	builder.LineTo(500, 100)
	builder.LineTo(500, 500)
	builder.LineTo(100, 500)
	return builder.ClosePath()
}

func newTestPlotter() (*Plotter, *boxInterp, *font.Info) {
	regs := params.NewRenderRegisters()
	cache := glyphcache.New(regs)
	cache.InputPage = 1
	cache.OutputPage = 1
	p := NewPlotter(cache, regs)
	interp := &boxInterp{}
	p.RegisterProvider(font.Type1, &Type1Provider{Interp: interp})

	fi := &font.Info{FID: 42, UniqueID: 1000, Type: font.Type1}
	fi.SetMatrix(geom.NewMatrix(0.05, 0, 0, 0.05, 0, 0)) // 50 units/em at 1000 upem
	fi.Params = font.DictParams{font.ParamFID: 42}
	return p, interp, fi
}

func plotContext(w, h geom.DCoord) *raster.BlitContext {
	out := raster.NewBitmap(w, h)
	out.Type = raster.FormBandBitmap
	return &raster.BlitContext{
		Output: out,
		Bounds: geom.Rect{X1: 0, Y1: 0, X2: w - 1, Y2: h - 1},
		Color:  raster.ColorBlack,
		Mode:   raster.ClipRect,
	}
}

func TestPlotCharColdAndHit(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.plot")
	defer teardown()
	//
	p, interp, fi := newTestPlotter()
	bc := plotContext(64, 64)
	sel := &font.CharSelector{Code: 'A'}

	adv, err := p.PlotChar(fi, sel, DoShow, bc, 20, 30)
	if err != nil {
		t.Fatalf("cold plot failed: %v", err)
	}
	if interp.runs != 1 {
		t.Fatalf("expected one construction, interpreter ran %d times", interp.runs)
	}
	if adv.X != 600*0.05 {
		t.Errorf("expected device advance 30, got %g", adv.X)
	}
	if p.Cache.CurCacheChars != 1 {
		t.Errorf("glyph not deposited in cache")
	}
	// The 20×20 device square must have been composited.
	marked := 0
	for y := geom.DCoord(0); y < 64; y++ {
		for x := geom.DCoord(0); x < 64; x++ {
			marked += bc.Output.Pixel(x, y)
		}
	}
	if marked < 19*19 || marked > 21*21 {
		t.Errorf("expected roughly a 20×20 square on the raster, %d pixels", marked)
	}

	// Second plot: cache hit, no construction.
	if _, err = p.PlotChar(fi, sel, DoShow, bc, 20, 30); err != nil {
		t.Fatalf("hit plot failed: %v", err)
	}
	if interp.runs != 1 {
		t.Errorf("cache hit must not re-run the interpreter")
	}
}

func TestPlotCharStringWidthUncached(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.plot")
	defer teardown()
	//
	p, _, fi := newTestPlotter()
	adv, err := p.PlotChar(fi, &font.CharSelector{Code: 'B'}, DoStringWidth, nil, 0, 0)
	if err != nil {
		t.Fatalf("stringwidth plot failed: %v", err)
	}
	if adv.X != 30 {
		t.Errorf("expected advance 30, got %g", adv.X)
	}
	if p.Cache.CurCacheChars != 0 {
		t.Errorf("stringwidth must not deposit glyphs in the cache")
	}
}

func TestPlotCharUndefinedAndNotdef(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.plot")
	defer teardown()
	//
	p, _, fi := newTestPlotter()
	fi.Type = font.CID0
	p.RegisterProvider(font.CID0, &Type1Provider{Interp: &boxInterp{}})
	undef := func(fi *font.Info, key *font.CharKey) (font.CharType, error) {
		if key.Code == 7 {
			return font.CharUndefined, nil
		}
		return font.CharType1, nil
	}
	font.RegisterMethods(font.CID0, &font.Methods{
		CacheKey:   font.CIDKey,
		LookupChar: undef,
	})

	_, err := p.PlotChar(fi, &font.CharSelector{CID: 7}, DoShow, nil, 0, 0)
	if core.Code(err) != core.EUNDEFINED {
		t.Errorf("expected undefined error, got %v", err)
	}

	called := false
	p.Notdef = func(fi *font.Info, sel *font.CharSelector) (Advance, error) {
		called = true
		return Advance{X: 5}, nil
	}
	adv, err := p.PlotChar(fi, &font.CharSelector{CID: 7}, DoShow, nil, 0, 0)
	if err != nil || !called {
		t.Errorf("notdef mapping not invoked: %v", err)
	}
	if adv.X != 5 {
		t.Errorf("notdef advance not propagated")
	}

	// CID 0 is undefined by definition: no notdef mapping runs.
	called = false
	font.RegisterMethods(font.CID0, &font.Methods{
		CacheKey: font.CIDKey,
		LookupChar: func(fi *font.Info, key *font.CharKey) (font.CharType, error) {
			return font.CharUndefined, nil
		},
	})
	fi.Methods = nil // PlotChar cached the previous table in fi
	_, err = p.PlotChar(fi, &font.CharSelector{CID: 0}, DoShow, nil, 0, 0)
	if core.Code(err) != core.EUNDEFINED || called {
		t.Errorf("CID 0 must surface undefined without notdef mapping")
	}
}

func TestSetCacheDeviceMisuse(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.plot")
	defer teardown()
	//
	p, _, _ := newTestPlotter()
	if err := p.SetCacheDevice(1, 0, 0, 0, 10, 10); core.Code(err) != core.EUNDEFINED {
		t.Errorf("setcachedevice outside construction must be undefined, got %v", err)
	}
	if err := p.SetCharWidth(1, 0); core.Code(err) != core.EUNDEFINED {
		t.Errorf("setcharwidth outside construction must be undefined, got %v", err)
	}
	p.pushContext(&CharContext{Level: CacheLevelUnset})
	if err := p.SetCacheDevice(1, 0, 0, 0, 10, 10); err != nil {
		t.Errorf("first setcachedevice should succeed: %v", err)
	}
	if err := p.SetCacheDevice(1, 0, 0, 0, 10, 10); core.Code(err) != core.EUNDEFINED {
		t.Errorf("second setcachedevice must be undefined, got %v", err)
	}
	p.popContext()
}

func TestMaxFontItemRejection(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.plot")
	defer teardown()
	//
	p, interp, fi := newTestPlotter()
	p.Regs.Push(params.P_MAXFONTITEM, 8) // nothing fits
	bc := plotContext(64, 64)
	_, err := p.PlotChar(fi, &font.CharSelector{Code: 'C'}, DoShow, bc, 10, 30)
	if err != nil {
		t.Fatalf("oversize glyph should still render: %v", err)
	}
	if p.Cache.CurCacheChars != 0 {
		t.Errorf("oversize glyph must not be cached")
	}
	if interp.runs != 1 {
		t.Errorf("construction should have run once")
	}
}

func TestType32MasterAndScaling(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.plot")
	defer teardown()
	//
	p, _, _ := newTestPlotter()
	fi := &font.Info{FID: 77, UniqueID: 7700, Type: font.CID4}
	fi.SetMatrix(geom.Identity())

	// An 8×8 checkerboard master.
	raw := make([]byte, 8)
	for i := range raw {
		if i%2 == 0 {
			raw[i] = 0xAA
		} else {
			raw[i] = 0x55
		}
	}
	master, err := p.AddGlyph(fi, 5, 8, 8, raw, font.WModeHorizontal, [4]float64{10, 0, 0, 0})
	if err != nil {
		t.Fatalf("addglyph failed: %v", err)
	}
	if master.Flags&glyphcache.CharT32Master == 0 {
		t.Fatalf("installed glyph not flagged as master")
	}
	if master.Form.Pixel(0, 0) != 1 || master.Form.Pixel(1, 0) != 0 {
		t.Errorf("unpacked bit order wrong")
	}

	// A doubled scaling derives from the master.
	fi.SetMatrix(geom.NewMatrix(2, 0, 0, 2, 0, 0))
	p.Sel = glyphcache.Selection{}
	entry, err := p.t32Construct(fi, font.CharKey{Code: 5})
	if err != nil {
		t.Fatalf("scaled instance failed: %v", err)
	}
	if entry.Form.W != 16 || entry.Form.H != 16 {
		t.Errorf("expected 16×16 scaled form, got %d×%d", entry.Form.W, entry.Form.H)
	}
	if entry.Form.Pixel(0, 0) != 1 || entry.Form.Pixel(2, 0) != 0 {
		t.Errorf("scaled pixels wrong")
	}
	if entry.AdvanceX != 20 {
		t.Errorf("scaled advance should double, got %g", entry.AdvanceX)
	}

	// Bad dimensions are a range check.
	if _, err := p.AddGlyph(fi, 6, 40000, 8, raw, 0, [4]float64{}); core.Code(err) != core.ERANGECHECK {
		t.Errorf("oversized bitmap must be a range check, got %v", err)
	}
}

func TestObserverOutlineRerun(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.plot")
	defer teardown()
	//
	p, interp, fi := newTestPlotter()
	bc := plotContext(64, 64)
	sel := &font.CharSelector{Code: 'A'}
	if _, err := p.PlotChar(fi, sel, DoShow, bc, 20, 30); err != nil {
		t.Fatal(err)
	}
	obs := &recordingObserver{want: true}
	p.Observer = obs
	if _, err := p.PlotChar(fi, sel, DoShow, bc, 20, 30); err != nil {
		t.Fatal(err)
	}
	if interp.runs != 2 {
		t.Errorf("observer outline demand should re-run construction")
	}
	if len(obs.contours) == 0 {
		t.Errorf("observer did not receive the outline")
	}
	if p.Cache.CurCacheChars != 1 {
		t.Errorf("outline re-run must not disturb the cache")
	}
}

type recordingObserver struct {
	want     bool
	contours []raster.Contour
	ends     int
}

func (o *recordingObserver) BeginChar(fi *font.Info, key font.CharKey) bool {
	return o.want
}

func (o *recordingObserver) Outline(fi *font.Info, key font.CharKey, contours []raster.Contour) {
	o.contours = append(o.contours, contours...)
}

func (o *recordingObserver) EndChar(fi *font.Info, key font.CharKey, ok bool) {
	o.ends++
}
