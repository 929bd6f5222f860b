package glyphcache

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"

	"github.com/npillmayer/ripcore/backend/raster"
	"github.com/npillmayer/ripcore/core/font"
	"github.com/npillmayer/ripcore/core/geom"
	"github.com/npillmayer/ripcore/core/params"
)

// --- Test Suite Preparation ------------------------------------------------

type CacheTestEnviron struct {
	suite.Suite
	cache *Cache
	regs  *params.RenderRegisters
	sel   Selection
}

// listen for 'go test' command --> run test methods
func TestCacheFunctions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ripcore.cache")
	defer teardown()
	suite.Run(t, new(CacheTestEnviron))
}

// run before each test
func (env *CacheTestEnviron) SetupTest() {
	env.regs = params.NewRenderRegisters()
	env.cache = New(env.regs)
	env.cache.InputPage = 1
	env.cache.OutputPage = 1
	env.sel = Selection{}
}

func testFontInfo(fid, uid int32) *font.Info {
	fi := &font.Info{
		FID:      fid,
		UniqueID: uid,
		Type:     font.Type1,
	}
	fi.SetMatrix(geom.Identity())
	return fi
}

// insertGlyph creates a cached glyph with a form of the given pixel size.
func (env *CacheTestEnviron) insertGlyph(fi *font.Info, sel *Selection,
	code int32, w, h geom.DCoord) *CharEntry {
	//
	key := font.CharKey{Code: code, WMode: fi.WMode}
	entry, err := env.cache.NewChar(fi, sel, key)
	env.Require().NoError(err)
	env.cache.AttachForm(entry, raster.NewBitmap(w, h))
	return entry
}

// countedState walks the whole cache and recomputes the counters.
func countedState(c *Cache) (bytes, fonts, matrices, chars int) {
	for fptr := c.fonts; fptr != nil; fptr = fptr.next {
		fonts++
		for mptr := fptr.matrices; mptr != nil; mptr = mptr.next {
			matrices++
			for i := 0; i < bucketCount; i++ {
				for cptr := mptr.buckets[i]; cptr != nil; cptr = cptr.next {
					chars++
					if cptr.Form != nil {
						bytes += raster.AlignFormSize(cptr.Form.Size)
					}
				}
			}
		}
	}
	return
}

// assertAccounting checks the universal invariant: counters equal the
// actual sums over the cache.
func (env *CacheTestEnviron) assertAccounting() {
	bytes, fonts, matrices, chars := countedState(env.cache)
	env.Equal(bytes, env.cache.CurFontCache, "byte counter out of sync")
	env.Equal(fonts, env.cache.CurCacheFonts, "font counter out of sync")
	env.Equal(matrices, env.cache.CurCacheMatrix, "matrix counter out of sync")
	env.Equal(chars, env.cache.CurCacheChars, "char counter out of sync")
}

// --- Tests -----------------------------------------------------------------

// Scenario: cold cache, single glyph. Lookup misses; insertion produces a
// one-entry cache with counters fonts=1, matrices=1, chars=1.
func (env *CacheTestEnviron) TestColdCacheSingleGlyph() {
	fi := testFontInfo(42, 1000)
	env.False(env.cache.LookupFID(fi, &env.sel), "cold cache should miss on FID")
	env.cache.LookupFont(fi, &env.sel)
	env.Nil(env.sel.Font, "cold cache should not find a font by identity")

	env.insertGlyph(fi, &env.sel, 0x41, 8, 8)

	env.Equal(1, env.cache.CurCacheFonts)
	env.Equal(1, env.cache.CurCacheMatrix)
	env.Equal(1, env.cache.CurCacheChars)
	env.assertAccounting()

	env.True(env.cache.LookupFID(fi, &env.sel))
	env.True(env.cache.LookupMatrix(fi, &env.sel))
	entry := env.cache.LookupChar(&env.sel, font.CharKey{Code: 0x41})
	env.NotNil(entry, "inserted glyph should be found")
}

// Scenario: MRU reordering. Three glyphs in three matrix scales under one
// font; looking up the second moves its matrix to the head of the list.
func (env *CacheTestEnviron) TestMRUReordering() {
	fi := testFontInfo(7, 700)
	scales := []float64{10, 12, 14}
	for i, s := range scales {
		fi.SetMatrix(geom.NewMatrix(s, 0, 0, s, 0, 0))
		env.sel.Matrix = nil
		if i == 0 {
			env.sel.Font = nil
		}
		env.insertGlyph(fi, &env.sel, int32('A'+i), 8, 8)
	}
	// Head is now the most recently inserted scale (14).
	env.Equal(geom.NewMatrix(14, 0, 0, 14, 0, 0), env.sel.Font.matrices.Matrix)

	fi.SetMatrix(geom.NewMatrix(12, 0, 0, 12, 0, 0))
	env.True(env.cache.LookupMatrix(fi, &env.sel))
	env.Equal(geom.NewMatrix(12, 0, 0, 12, 0, 0), env.sel.Font.matrices.Matrix,
		"looked-up matrix should be at the head of the list")
	env.assertAccounting()
}

// The MRU property: after a successful lookup the chain from the head to
// the entry has length 1.
func (env *CacheTestEnviron) TestMRUFontList() {
	for i := int32(1); i <= 3; i++ {
		fi := testFontInfo(i, 1000+i)
		var sel Selection
		env.insertGlyph(fi, &sel, 65, 4, 4)
	}
	fi := testFontInfo(2, 1002)
	env.True(env.cache.LookupFID(fi, &env.sel))
	env.Equal(int32(2), env.cache.fonts.FID, "font 2 should head the MRU list")
}

// Scenario: purge at limit. Ten 8×16 glyphs (128 bytes each) on page 1; advancing to page
// 2 and inserting one more triggers a purge of the old page.
func (env *CacheTestEnviron) TestPurgeAtLimit() {
	env.regs.Push(params.P_MAXFONTCACHE, 1000)
	fi := testFontInfo(42, 1000)
	for i := int32(0); i < 10; i++ {
		env.insertGlyph(fi, &env.sel, i, 8, 16) // 128 bytes each
	}
	env.Equal(1280, env.cache.CurFontCache)

	env.cache.InputPage = 2
	env.cache.OutputPage = 2
	env.insertGlyph(fi, &env.sel, 100, 8, 16)
	env.cache.CheckLimits(nil)

	env.LessOrEqual(env.cache.CurFontCache, 1000,
		"purge should reclaim below the limit")
	env.assertAccounting()
	env.NotNil(env.cache.LookupChar(&env.sel, font.CharKey{Code: 100}),
		"current-page glyph must survive")
}

// Scenario: a Type 32 master survives purging.
func (env *CacheTestEnviron) TestType32MasterPreservation() {
	fi := testFontInfo(32, 3200)
	fi.Type = font.CID4
	master := env.insertGlyph(fi, &env.sel, 5, 16, 16)
	master.Flags |= CharT32Master
	master.T32 = &T32Data{}
	other := env.insertGlyph(fi, &env.sel, 6, 16, 16)
	_ = other

	env.cache.InputPage = 3
	env.cache.OutputPage = 3
	err := env.cache.Clear()
	env.NoError(err)

	env.Equal(1, env.cache.CurCacheChars, "only the master should survive")
	env.assertAccounting()
	found := env.cache.LookupCharT32(&env.sel, font.CharKey{Code: 5})
	env.NotNil(found, "master must be reachable after purge")
	env.Nil(env.cache.LookupCharT32(&env.sel, font.CharKey{Code: 6}),
		"non-master is not a Type 32 master lookup result")
}

// A font entry made restorable can be re-adopted by identity lookup.
func (env *CacheTestEnviron) TestRestoreAndIdentityLookup() {
	fi := testFontInfo(42, 4200)
	env.cache.SaveLevel = 2
	env.insertGlyph(fi, &env.sel, 65, 8, 8)
	env.Equal(int32(2), env.sel.Font.SaveLevel)

	env.cache.Restore(1)
	env.Equal(int32(-1), env.sel.Font.SaveLevel, "restore should demote the entry")

	// A new font dictionary with the same identity picks the entry up.
	fi2 := testFontInfo(43, 4200)
	var sel2 Selection
	sel2.gen = env.cache.gen
	env.cache.LookupFont(fi2, &sel2)
	env.NotNil(sel2.Font, "identity lookup should re-adopt the restored entry")
	env.Equal(int32(43), sel2.Font.FID)
	env.True(env.cache.LookupMatrix(fi2, &sel2))
	env.NotNil(env.cache.LookupChar(&sel2, font.CharKey{Code: 65}))
}

// Writing-mode lookup prefers the exact mode but falls back to the other.
func (env *CacheTestEnviron) TestLookupWMode() {
	fi := testFontInfo(9, 900)
	env.insertGlyph(fi, &env.sel, 77, 4, 4) // wmode 0

	key := font.CharKey{Code: 77, WMode: font.WModeVertical}
	env.Nil(env.cache.LookupChar(&env.sel, key),
		"exact lookup must respect the writing mode")
	fallback := env.cache.LookupCharWMode(&env.sel, key)
	env.NotNil(fallback, "wmode lookup should fall back to the other mode")
	env.Equal(font.WModeHorizontal, fallback.Key.WMode)
}

// Purge monotonicity: lookups never decrease available memory.
func (env *CacheTestEnviron) TestAvailableMemoryMonotonicity() {
	fi := testFontInfo(1, 100)
	env.insertGlyph(fi, &env.sel, 65, 8, 8)
	before := env.cache.AvailableMemory()
	env.cache.LookupFID(fi, &env.sel)
	env.cache.LookupMatrix(fi, &env.sel)
	env.cache.LookupChar(&env.sel, font.CharKey{Code: 65})
	env.Equal(before, env.cache.AvailableMemory(),
		"lookup must not change available memory")
	env.insertGlyph(fi, &env.sel, 66, 8, 8)
	env.Greater(env.cache.AvailableMemory(), before,
		"insertion should increase available memory")
}

// FreeChar unlinks a bucket-head entry and releases its accounting.
func (env *CacheTestEnviron) TestFreeChar() {
	fi := testFontInfo(5, 500)
	entry := env.insertGlyph(fi, &env.sel, 65, 8, 8)
	env.cache.FreeChar(&env.sel, entry)
	env.Equal(0, env.cache.CurCacheChars)
	env.Equal(0, env.cache.CurFontCache)
	env.Nil(env.cache.LookupChar(&env.sel, font.CharKey{Code: 65}))
	env.assertAccounting()
}

// Touch maintains pageno/baseno monotonicity.
func (env *CacheTestEnviron) TestPagenoBaseno() {
	fi := testFontInfo(3, 300)
	entry := env.insertGlyph(fi, &env.sel, 65, 4, 4)
	env.Equal(int32(1), entry.PageNo)
	env.Equal(int32(1), entry.BaseNo)

	env.cache.InputPage = 2
	env.cache.Touch(entry) // used on consecutive page: baseno stays
	env.Equal(int32(2), entry.PageNo)
	env.Equal(int32(1), entry.BaseNo)

	env.cache.InputPage = 5
	env.cache.Touch(entry) // unused on prior page: baseno moves forward
	env.Equal(int32(5), entry.PageNo)
	env.Equal(int32(5), entry.BaseNo)
	env.LessOrEqual(entry.BaseNo, entry.PageNo)
}

// Clearing during a construction is a policy violation.
func (env *CacheTestEnviron) TestClearDuringBuild() {
	env.cache.SetBuilding(true)
	err := env.cache.Clear()
	env.Error(err, "clear during construction must fail hard")
	env.False(env.cache.FlushCache(),
		"operator-level flush must decline during construction")
	env.cache.SetBuilding(false)
	env.NoError(env.cache.Clear())
}
