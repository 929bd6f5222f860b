package plotting

import (
	"github.com/npillmayer/ripcore/backend/raster"
	"github.com/npillmayer/ripcore/core"
	"github.com/npillmayer/ripcore/core/font"
	"github.com/npillmayer/ripcore/core/geom"
	"github.com/npillmayer/ripcore/core/glyphcache"
	"github.com/npillmayer/ripcore/core/params"
	"github.com/npillmayer/ripcore/engine/hinting"
)

// Advance is the device-space advance vector of a plotted glyph.
type Advance struct {
	X, Y float64
}

// OutlineProvider drives a character definition through a char builder:
// the charstring or instruction interpreter of a font format layer.
type OutlineProvider interface {
	Outline(fi *font.Info, key *font.CharKey, builder hinting.CharBuilder) error
}

// NotdefFn maps an undefined character to an alternate rendering; it may
// recursively dispatch into another sub-font.
type NotdefFn func(fi *font.Info, sel *font.CharSelector) (Advance, error)

// Observer receives character events for an external display-list
// visualization subsystem. BeginChar may demand the outline of an
// already-cached glyph; construction is then re-run without touching the
// cache.
type Observer interface {
	BeginChar(fi *font.Info, key font.CharKey) (wantOutline bool)
	Outline(fi *font.Info, key font.CharKey, contours []raster.Contour)
	EndChar(fi *font.Info, key font.CharKey, ok bool)
}

// Plotter is the per-glyph dispatcher. One plotter belongs to one
// interpreter; it owns the lookup selection and the character context
// stack.
type Plotter struct {
	Cache    *glyphcache.Cache
	Regs     *params.RenderRegisters
	Sel      glyphcache.Selection
	Scan     raster.ScanConverter
	Observer Observer
	Notdef   NotdefFn

	providers map[font.Type]OutlineProvider
	contexts  []*CharContext
}

// NewPlotter creates a dispatcher bound to a cache and parameter set.
func NewPlotter(cache *glyphcache.Cache, regs *params.RenderRegisters) *Plotter {
	return &Plotter{
		Cache:     cache,
		Regs:      regs,
		providers: make(map[font.Type]OutlineProvider),
	}
}

// RegisterProvider installs the outline provider for a font type.
func (p *Plotter) RegisterProvider(t font.Type, prov OutlineProvider) {
	p.providers[t] = prov
}

// SetCacheDevice is called back by a construction when the charstring or
// BuildChar procedure declares metrics. Calling it twice, or outside a
// construction, is a misuse surfaced as an undefined error.
func (p *Plotter) SetCacheDevice(wx, wy, llx, lly, urx, ury float64) error {
	ctx := p.Context()
	if ctx == nil || ctx.Level != CacheLevelUnset {
		return core.Error(core.EUNDEFINED, "setcachedevice outside character construction")
	}
	ctx.XWidth, ctx.YWidth = wx, wy
	ctx.Metrics = [4]float64{llx, lly, urx, ury}
	if ctx.Show == DoStringWidth {
		ctx.Level = CacheLevelUncached
	} else {
		ctx.Level = CacheLevelCached
	}
	return nil
}

// SetCharWidth declares metrics without caching.
func (p *Plotter) SetCharWidth(wx, wy float64) error {
	ctx := p.Context()
	if ctx == nil || ctx.Level != CacheLevelUnset {
		return core.Error(core.EUNDEFINED, "setcharwidth outside character construction")
	}
	ctx.XWidth, ctx.YWidth = wx, wy
	ctx.Level = CacheLevelUncached
	return nil
}

// PlotChar plots one glyph: cache lookup, construction on a miss, and
// compositing of the cache form at device position (x, y).
func (p *Plotter) PlotChar(fi *font.Info, sel *font.CharSelector, show ShowType,
	bc *raster.BlitContext, x, y geom.DCoord) (Advance, error) {
	//
	p.Cache.CheckLimits(&p.Sel)

	if !fi.GotMatrix {
		return Advance{}, core.Error(core.EINVALIDFONT, "font matrix not unpacked")
	}
	methods := fi.Methods
	if methods == nil {
		var err error
		if methods, err = font.MethodsFor(fi.Type); err != nil {
			return Advance{}, err
		}
		fi.Methods = methods
	}

	key, err := methods.CacheKey(fi, sel)
	if err != nil {
		return Advance{}, err
	}

	// Lookup, unless further subfont navigation is needed: for CID Type
	// 0/0C the sub-font selection concatenates another matrix, so the
	// current one is incomplete.
	var entry *glyphcache.CharEntry
	if methods.SelectSubfont == nil {
		entry = p.lookup(fi, key, show)
	}

	wantOutline := false
	if p.Observer != nil {
		wantOutline = p.Observer.BeginChar(fi, key)
	}

	if entry == nil || wantOutline {
		// Find the definition and decide the charstring kind.
		chartype := font.CharType(font.CharUndecided)
		if methods.LookupChar != nil {
			if chartype, err = methods.LookupChar(fi, &key); err != nil {
				p.finishObserver(fi, key, false)
				return Advance{}, err
			}
		}
		if chartype == font.CharUndefined {
			// Only CIDs other than 0 run the notdef mapping; CID 0 is
			// undefined by definition.
			if p.Notdef != nil && sel.CID != 0 {
				adv, nerr := p.Notdef(fi, sel)
				p.finishObserver(fi, key, nerr == nil)
				return adv, nerr
			}
			p.finishObserver(fi, key, false)
			return Advance{}, core.Error(core.EUNDEFINED, "glyph has no definition")
		}
		if methods.SelectSubfont != nil {
			saved := *fi
			defer func() { *fi = saved }()
			if err = methods.SelectSubfont(fi, &key); err != nil {
				p.finishObserver(fi, key, false)
				return Advance{}, err
			}
			// With the subfont matrix in place, retry the lookup.
			if entry == nil {
				entry = p.lookup(fi, key, show)
			}
		}
		if entry == nil || wantOutline {
			entry, err = p.construct(fi, methods, key, chartype, show, entry != nil || !p.shouldCache(show))
			if err != nil {
				p.finishObserver(fi, key, false)
				return Advance{}, err
			}
		}
	} else {
		p.Cache.Touch(entry)
	}

	adv := Advance{}
	if entry != nil {
		adv = Advance{X: entry.AdvanceX, Y: entry.AdvanceY}
		if show == DoShow && bc != nil && entry.Form != nil {
			bc.DoChar(entry.Form,
				x+geom.DCoord(entry.XBearing), y+geom.DCoord(entry.YBearing))
		}
	}
	p.finishObserver(fi, key, true)
	p.Cache.CheckLimits(&p.Sel)
	return adv, nil
}

func (p *Plotter) finishObserver(fi *font.Info, key font.CharKey, ok bool) {
	if p.Observer != nil {
		p.Observer.EndChar(fi, key, ok)
	}
}

// lookup runs the staged cache lookup: by FID, by identity, by matrix,
// by glyph bucket. Charpath rendering bypasses the cache.
func (p *Plotter) lookup(fi *font.Info, key font.CharKey, show ShowType) *glyphcache.CharEntry {
	if show == DoCharPath {
		return nil
	}
	if p.Sel.Font == nil && !p.Cache.LookupFID(fi, &p.Sel) {
		p.Cache.LookupFont(fi, &p.Sel)
	}
	if p.Sel.Font == nil {
		return nil
	}
	if p.Sel.Matrix == nil {
		if fi.Type == font.CID4 {
			if !p.Cache.LookupMatrixT32(fi, &p.Sel) {
				return nil
			}
		} else if !p.Cache.LookupMatrix(fi, &p.Sel) {
			return nil
		}
	}
	if fi.Type == font.CID4 {
		return p.Cache.LookupCharWMode(&p.Sel, key)
	}
	return p.Cache.LookupChar(&p.Sel, key)
}

// shouldCache decides whether this show type deposits glyphs in the
// cache.
func (p *Plotter) shouldCache(show ShowType) bool {
	return show == DoShow
}

// construct runs the font-type construction path for one glyph and, if
// caching applies, deposits the finished form in the cache. With
// uncachedOnly set (observer outline re-runs, stringwidth), the cache is
// left untouched.
func (p *Plotter) construct(fi *font.Info, methods *font.Methods, key font.CharKey,
	chartype font.CharType, show ShowType, uncachedOnly bool) (*glyphcache.CharEntry, error) {
	//
	if chartype == font.CharBitmap {
		// Type 32 glyphs unpack directly from their master definition;
		// no outline construction is involved.
		return p.t32Construct(fi, key)
	}
	prov, ok := p.providers[fi.Type]
	if !ok {
		return nil, core.Error(core.EINVALIDFONT, "no outline provider for %s", fi.Type)
	}

	ctx := &CharContext{Key: key, Type: chartype, Show: show}
	p.pushContext(ctx)
	defer p.popContext()

	if methods.BeginChar != nil {
		if err := methods.BeginChar(fi, &key); err != nil {
			return nil, err
		}
	}
	endChar := func(e error) {
		if methods.EndChar != nil {
			if err := methods.EndChar(fi, &key); err != nil && e == nil {
				tracer().Errorf("end char failed: %v", err)
			}
		}
	}

	// Assemble the builder stack: accumulator, wrapped by the hinting
	// filter for charstring-based fonts when hinting is enabled.
	accum := newPathAccumulator(fi.FontMatrix)
	var builder hinting.CharBuilder = hinting.Passthrough(accum)
	hinted := p.Regs.B(params.P_HINTEDFONTS) &&
		(chartype == font.CharType1 || chartype == font.CharType2)
	if hinted {
		filter := hinting.New(accum, p.Regs)
		filter.SetScale(fi.FontMatrix)
		filter.LoadFont(fi.Params)
		builder = filter
	}

	p.Cache.SetBuilding(true)
	err := prov.Outline(fi, &key, builder)
	p.Cache.SetBuilding(false)
	if err != nil {
		ctx.Level = CacheLevelError
		endChar(err)
		return nil, err
	}
	if ctx.Level == CacheLevelUnset {
		// The provider declared no metrics: adopt the accumulated width.
		ctx.XWidth, ctx.YWidth = accum.xwidth, accum.ywidth
		if p.shouldCache(show) {
			ctx.Level = CacheLevelCached
		} else {
			ctx.Level = CacheLevelUncached
		}
	}
	endChar(nil)

	if p.Observer != nil {
		p.Observer.Outline(fi, key, accum.contours)
	}

	// Scan-convert into a fresh form.
	x0, y0, w, h := accum.bounds()
	p.Scan.FillRule = p.Regs.N(params.P_FONTFILLRULE)
	form := p.Scan.Rasterize(accum.formContours(), w, h)

	advX, advY := fi.FontMatrix.TransformDxy(ctx.XWidth, ctx.YWidth)

	cache := ctx.Level == CacheLevelCached && !uncachedOnly &&
		form.Size <= p.Regs.N(params.P_MAXFONTITEM)
	if !cache {
		// Render uncached: composite from a transient entry.
		return &glyphcache.CharEntry{
			Key:      key,
			Form:     form,
			XBearing: float64(x0),
			YBearing: float64(y0),
			AdvanceX: advX,
			AdvanceY: advY,
		}, nil
	}

	// In compression mode, new glyphs are deposited pre-compressed.
	if p.Cache.IsCompressing() && form.Size >= p.Regs.N(params.P_MINFONTCOMPRESS) {
		form.ToRLE(p.compressionRatio(0))
	}

	entry, err := p.Cache.NewChar(fi, &p.Sel, key)
	if err != nil {
		ctx.Level = CacheLevelError
		return nil, err
	}
	entry.XBearing = float64(x0)
	entry.YBearing = float64(y0)
	entry.AdvanceX = advX
	entry.AdvanceY = advY
	p.Cache.AttachForm(entry, form)
	ctx.Entry = entry
	return entry, nil
}

func (p *Plotter) compressionRatio(usage uint32) float64 {
	ratios := p.Regs.FA(params.P_FORCEFONTCOMPRESS)
	if len(ratios) == 0 {
		return 0
	}
	i := int(usage)
	if i >= len(ratios) {
		i = len(ratios) - 1
	}
	return ratios[i]
}
