package plotting

import (
	"bytes"

	hbtt "github.com/benoitkugler/textlayout/fonts/truetype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/npillmayer/ripcore/core"
	"github.com/npillmayer/ripcore/core/font"
	"github.com/npillmayer/ripcore/engine/hinting"
)

// CharstringInterpreter executes a decrypted Type 1/2 charstring,
// feeding outline and hint primitives into the builder. The interpreter
// itself lives in the font format layer.
type CharstringInterpreter interface {
	Run(fi *font.Info, key *font.CharKey, builder hinting.CharBuilder) error
}

// Type1Provider drives Type 1/2 charstrings through an external
// interpreter; the plotter wraps the builder in the hinting filter.
type Type1Provider struct {
	Interp CharstringInterpreter
}

// Outline implements OutlineProvider.
func (t1 *Type1Provider) Outline(fi *font.Info, key *font.CharKey,
	builder hinting.CharBuilder) error {
	//
	if t1.Interp == nil {
		return core.Error(core.EINVALIDFONT, "no charstring interpreter")
	}
	if err := builder.InitChar(); err != nil {
		return err
	}
	if err := t1.Interp.Run(fi, key, builder); err != nil {
		builder.EndChar(false)
		return err
	}
	return builder.EndChar(true)
}

// BuildCharProc is a procedural (Type 3/4) character definition. It may
// recursively dispatch further glyphs through the plotter.
type BuildCharProc func(p *Plotter, fi *font.Info, key *font.CharKey,
	builder hinting.CharBuilder) error

// Type3Provider runs BuildChar procedures.
type Type3Provider struct {
	Plotter *Plotter
	Build   BuildCharProc
}

// Outline implements OutlineProvider.
func (t3 *Type3Provider) Outline(fi *font.Info, key *font.CharKey,
	builder hinting.CharBuilder) error {
	//
	if t3.Build == nil {
		return core.Error(core.EINVALIDFONT, "no BuildChar procedure")
	}
	if err := builder.InitChar(); err != nil {
		return err
	}
	if err := t3.Build(t3.Plotter, fi, key, builder); err != nil {
		builder.EndChar(false)
		return err
	}
	return builder.EndChar(true)
}

// TrueTypeProvider loads glyph outlines from an sfnt font. The face is
// additionally parsed with the textlayout engine, whose representation
// the shaping layer above consumes.
type TrueTypeProvider struct {
	SFNT *sfnt.Font
	Face *hbtt.Font
	buf  sfnt.Buffer
}

// NewTrueTypeProvider parses font data for outline extraction.
func NewTrueTypeProvider(data []byte) (*TrueTypeProvider, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, core.WrapError(err, core.EINVALIDFONT, "cannot parse sfnt data")
	}
	face, err := hbtt.Parse(bytes.NewReader(data), true)
	if err != nil {
		return nil, core.WrapError(err, core.EINVALIDFONT, "cannot parse font tables")
	}
	return &TrueTypeProvider{SFNT: f, Face: face}, nil
}

// GlyphIndex maps a rune to its glyph index.
func (tt *TrueTypeProvider) GlyphIndex(r rune) (int32, error) {
	gi, err := tt.SFNT.GlyphIndex(&tt.buf, r)
	if err != nil {
		return 0, core.WrapError(err, core.EUNDEFINED, "no glyph for %q", r)
	}
	return int32(gi), nil
}

// Outline implements OutlineProvider: the key's integer code is the
// glyph index. Segments arrive in font units; quadratic splines are
// raised to cubics for the builder.
func (tt *TrueTypeProvider) Outline(fi *font.Info, key *font.CharKey,
	builder hinting.CharBuilder) error {
	//
	if key.Code < 0 {
		return core.Error(core.EUNDEFINED, "TrueType glyph without index")
	}
	upem := fixed.I(int(tt.SFNT.UnitsPerEm()))
	segs, err := tt.SFNT.LoadGlyph(&tt.buf, sfnt.GlyphIndex(key.Code), upem, nil)
	if err != nil {
		return core.WrapError(err, core.EUNDEFINED, "cannot load glyph %d", key.Code)
	}
	if err := builder.InitChar(); err != nil {
		return err
	}
	var curX, curY float64
	for _, seg := range segs {
		p0 := fixedPt(seg.Args[0])
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if err := builder.MoveTo(p0[0], p0[1]); err != nil {
				return err
			}
			curX, curY = p0[0], p0[1]
		case sfnt.SegmentOpLineTo:
			if err := builder.LineTo(p0[0], p0[1]); err != nil {
				return err
			}
			curX, curY = p0[0], p0[1]
		case sfnt.SegmentOpQuadTo:
			p1 := fixedPt(seg.Args[1])
			c1x := curX + 2.0/3.0*(p0[0]-curX)
			c1y := curY + 2.0/3.0*(p0[1]-curY)
			c2x := p1[0] + 2.0/3.0*(p0[0]-p1[0])
			c2y := p1[1] + 2.0/3.0*(p0[1]-p1[1])
			if err := builder.CurveTo([6]float64{c1x, c1y, c2x, c2y, p1[0], p1[1]}); err != nil {
				return err
			}
			curX, curY = p1[0], p1[1]
		case sfnt.SegmentOpCubeTo:
			p1 := fixedPt(seg.Args[1])
			p2 := fixedPt(seg.Args[2])
			if err := builder.CurveTo([6]float64{p0[0], p0[1], p1[0], p1[1], p2[0], p2[1]}); err != nil {
				return err
			}
			curX, curY = p2[0], p2[1]
		}
	}
	if err := builder.ClosePath(); err != nil {
		return err
	}
	return builder.EndChar(true)
}

func fixedPt(p fixed.Point26_6) [2]float64 {
	return [2]float64{float64(p.X) / 64.0, float64(p.Y) / 64.0}
}

// --- Default font method tables --------------------------------------------

func lookupByType(chartype font.CharType) func(*font.Info, *font.CharKey) (font.CharType, error) {
	return func(fi *font.Info, key *font.CharKey) (font.CharType, error) {
		return chartype, nil
	}
}

func init() {
	base := func(ct font.CharType) *font.Methods {
		return &font.Methods{
			CacheKey:   font.BaseKey,
			LookupChar: lookupByType(ct),
		}
	}
	cid := func(ct font.CharType) *font.Methods {
		return &font.Methods{
			CacheKey:   font.CIDKey,
			LookupChar: lookupByType(ct),
		}
	}
	font.RegisterMethods(font.Type1, base(font.CharType1))
	font.RegisterMethods(font.Type2, base(font.CharType2))
	font.RegisterMethods(font.Type3, base(font.CharBuildChar))
	font.RegisterMethods(font.Type4, base(font.CharType1))
	font.RegisterMethods(font.TrueType, base(font.CharTrueType))
	font.RegisterMethods(font.PFIN, base(font.CharPFIN))
	font.RegisterMethods(font.CID0, cid(font.CharType1))
	font.RegisterMethods(font.CID0C, cid(font.CharType2))
	font.RegisterMethods(font.CID1, cid(font.CharBuildChar))
	font.RegisterMethods(font.CID2, cid(font.CharTrueType))
	font.RegisterMethods(font.CID4, cid(font.CharBitmap))
}
