package plotting

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"github.com/npillmayer/ripcore/core/font"
	"github.com/npillmayer/ripcore/core/geom"
	"github.com/npillmayer/ripcore/core/locate/resources"
	"github.com/npillmayer/ripcore/engine/hinting"
)

func TestTrueTypeProviderOutline(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.plot")
	defer teardown()
	//
	data, err := resources.LoadFontData("DejaVuSans.ttf")
	if err != nil {
		t.Skipf("no DejaVu Sans installed on this system: %v", err)
	}
	tt, err := NewTrueTypeProvider(data)
	if err != nil {
		t.Fatalf("cannot parse font: %v", err)
	}
	gid, err := tt.GlyphIndex('A')
	if err != nil {
		t.Fatalf("no glyph for 'A': %v", err)
	}

	fi := &font.Info{FID: 1, Type: font.TrueType}
	upem := float64(tt.SFNT.UnitsPerEm())
	fi.SetMatrix(geom.NewMatrix(24/upem, 0, 0, 24/upem, 0, 0))

	accum := newPathAccumulator(fi.FontMatrix)
	key := font.CharKey{Code: gid}
	if err := tt.Outline(fi, &key, hinting.Passthrough(accum)); err != nil {
		t.Fatalf("outline extraction failed: %v", err)
	}
	if len(accum.contours) == 0 {
		t.Fatalf("expected contours for 'A'")
	}
	_, _, w, h := accum.bounds()
	if w <= 0 || h <= 0 || w > 30 || h > 30 {
		t.Errorf("unreasonable glyph bounds %d×%d at 24 ppem", w, h)
	}
}
