package glyphcache

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"github.com/npillmayer/ripcore/backend/raster"
	"github.com/npillmayer/ripcore/core/font"
	"github.com/npillmayer/ripcore/core/geom"
	"github.com/npillmayer/ripcore/core/params"
)

func newTestCache() (*Cache, *params.RenderRegisters) {
	regs := params.NewRenderRegisters()
	c := New(regs)
	c.InputPage = 1
	c.OutputPage = 1
	return c, regs
}

func addGlyph(t *testing.T, c *Cache, fi *font.Info, sel *Selection,
	code int32, w, h geom.DCoord) *CharEntry {
	t.Helper()
	entry, err := c.NewChar(fi, sel, font.CharKey{Code: code, WMode: fi.WMode})
	if err != nil {
		t.Fatalf("cannot insert glyph %d: %v", code, err)
	}
	c.AttachForm(entry, raster.NewBitmap(w, h))
	return entry
}

func TestMakeUseless(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.cache")
	defer teardown()
	//
	c, _ := newTestCache()
	fi := testFontInfo(42, 4200)
	var sel Selection
	addGlyph(t, c, fi, &sel, 65, 8, 8)
	addGlyph(t, c, fi, &sel, 66, 8, 8)

	c.MakeUseless(4200, font.CharKey{Code: 65})

	if e := c.LookupChar(&sel, font.CharKey{Code: 65}); e != nil {
		t.Errorf("glyph made useless must not be matchable")
	}
	if e := c.LookupChar(&sel, font.CharKey{Code: 66}); e == nil {
		t.Errorf("sibling glyph must stay matchable")
	}
	// The glyph now hangs off a sacrificial font with temp UID.
	var sacrificial *FontEntry
	for fptr := c.fonts; fptr != nil; fptr = fptr.next {
		if font.HasTempUID(fptr.UniqueID) {
			sacrificial = fptr
		}
	}
	if sacrificial == nil {
		t.Fatalf("expected a sacrificial font entry with temporary UID")
	}
	if sacrificial.SaveLevel >= 0 {
		t.Errorf("sacrificial font must be purgeable")
	}

	// End of page: the orphan is reclaimed, in-flight glyphs were safe.
	c.PurgeUseless(2)
	bytes, _, _, chars := countedState(c)
	if chars != 1 {
		t.Errorf("expected 1 glyph after purging useless, have %d", chars)
	}
	if bytes != c.CurFontCache {
		t.Errorf("byte accounting out of sync after purge")
	}
}

func TestMakeUselessFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.cache")
	defer teardown()
	//
	c, _ := newTestCache()
	fi := testFontInfo(42, 4200)
	var sel Selection
	addGlyph(t, c, fi, &sel, 65, 8, 8)

	c.MakeUselessFont(4200)
	if c.fonts.UniqueID != font.NoUniqueID || c.fonts.FID != -1 {
		t.Errorf("font not made unmatchable: uid=%d fid=%d",
			c.fonts.UniqueID, c.fonts.FID)
	}
	var sel2 Selection
	if c.LookupFID(fi, &sel2) {
		t.Errorf("useless font must not match by FID")
	}
}

func TestRemoveChars(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.cache")
	defer teardown()
	//
	c, _ := newTestCache()
	fi := testFontInfo(32, 3200)
	fi.Type = font.CID4
	var sel Selection
	for cid := int32(0); cid < 100; cid++ {
		e := addGlyph(t, c, fi, &sel, cid, 4, 4)
		if cid%10 == 0 {
			e.Flags |= CharT32Master
			e.T32 = &T32Data{}
		}
	}
	c.OutputPage = 3 // every glyph is older than the rendering page
	c.RemoveChars(32, 20, 59)

	_, _, _, chars := countedState(c)
	if chars != 60 {
		t.Errorf("expected 60 glyphs after range removal, have %d", chars)
	}
	var sel2 Selection
	c.LookupFID(fi, &sel2)
	c.LookupMatrix(fi, &sel2)
	if c.LookupChar(&sel2, font.CharKey{Code: 30}) != nil {
		t.Errorf("removed master CID 30 still matchable")
	}
	if c.LookupChar(&sel2, font.CharKey{Code: 60}) == nil {
		t.Errorf("CID 60 outside range was removed")
	}
}

func TestRestoreNames(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.cache")
	defer teardown()
	//
	c, _ := newTestCache()
	fi := testFontInfo(1, 100)
	var sel Selection
	e1, err := c.NewChar(fi, &sel, font.CharKey{Code: font.NoCharCode, Name: "alpha"})
	if err != nil {
		t.Fatal(err)
	}
	c.AttachForm(e1, raster.NewBitmap(4, 4))
	e2, err := c.NewChar(fi, &sel, font.CharKey{Code: font.NoCharCode, Name: "beta"})
	if err != nil {
		t.Fatal(err)
	}
	c.AttachForm(e2, raster.NewBitmap(4, 4))

	c.RestoreNames(func(name string) bool { return name == "alpha" })

	if c.LookupChar(&sel, font.CharKey{Code: font.NoCharCode, Name: "alpha"}) != nil {
		t.Errorf("doomed name must be invalidated")
	}
	if c.LookupChar(&sel, font.CharKey{Code: font.NoCharCode, Name: "beta"}) == nil {
		t.Errorf("surviving name must stay matchable")
	}
}

func TestCompressionFallback(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.cache")
	defer teardown()
	//
	c, regs := newTestCache()
	regs.Push(params.P_MAXFONTCACHE, 100)
	regs.Push(params.P_MINFONTCOMPRESS, 0)
	fi := testFontInfo(1, 100)
	var sel Selection
	// A mostly-white glyph compresses extremely well.
	e := addGlyph(t, c, fi, &sel, 65, 512, 8)
	e.Form.SetPixel(5, 5, true)

	// The glyph is on the current page, so purge cannot reclaim it; the
	// cache must fall back to compression.
	c.CheckLimits(nil)
	if !c.IsCompressing() {
		t.Errorf("expected compression mode after fruitless purge")
	}
	if e.Form.Type != raster.FormCacheRLE {
		t.Errorf("expected the glyph form to be RLE compressed")
	}
	bytes, _, _, _ := countedState(c)
	if bytes != c.CurFontCache {
		t.Errorf("accounting out of sync after compression: %d vs %d",
			bytes, c.CurFontCache)
	}
	// A successful purge resets compression mode.
	c.InputPage = 2
	c.OutputPage = 2
	c.PurgeUseless(2)
	if c.IsCompressing() {
		t.Errorf("purge-useless should reset compression mode")
	}
}

func TestSolicitRelease(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.cache")
	defer teardown()
	//
	c, _ := newTestCache()
	if c.Solicit() != nil {
		t.Errorf("empty cache must not offer memory")
	}
	fi := testFontInfo(1, 100)
	var sel Selection
	addGlyph(t, c, fi, &sel, 65, 8, 16)

	offer := c.Solicit()
	if offer == nil || offer.Size != c.CurFontCache {
		t.Fatalf("expected an offer of %d bytes", c.CurFontCache)
	}
	c.SetBuilding(true)
	if c.Solicit() != nil {
		t.Errorf("no offer while building a character")
	}
	c.SetBuilding(false)

	c.InputPage = 2
	c.OutputPage = 2
	handler := c.Handler()
	handler.Release(offer.Size)
	if c.CurFontCache != 0 {
		t.Errorf("release should have purged the old glyph, %d bytes left",
			c.CurFontCache)
	}
}
