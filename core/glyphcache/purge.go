package glyphcache

import (
	"github.com/emirpasic/gods/sets/hashset"

	"github.com/npillmayer/ripcore/backend/raster"
	"github.com/npillmayer/ripcore/core"
	"github.com/npillmayer/ripcore/core/font"
	"github.com/npillmayer/ripcore/core/params"
)

// uncharge releases the accounting of one character during a sweep. The
// caller has already unlinked it from the bucket chain.
func (c *Cache) uncharge(cptr *CharEntry) {
	c.CurCacheChars--
	if cptr.Form != nil {
		c.CurFontCache -= raster.AlignFormSize(cptr.Form.Size)
	}
}

// purge removes characters from old pages until the reclaim target is
// met. The outer loop advances a page boundary: within one iteration,
// every character whose page number is at or below the boundary is
// removed, except Type 32 masters. Matrices that become empty are freed,
// then fonts that lose all matrices. The loop terminates when the byte
// counter falls below the target or no boundary advance is possible.
//
// If no characters were reclaimed but the limit is still exceeded,
// compression mode is enabled for subsequent operation.
func (c *Cache) purge(reclaim int, protect *Selection) {
	if c.compressing {
		return // pointless
	}
	level := c.CurFontCache - reclaim
	tracer().Debugf("purge: reclaim %d of %d bytes", reclaim, c.CurFontCache)

	removedchars := 0
	removedfontmatrix := 0
	erasenumber := c.OutputPage

	for c.CurFontCache > level && c.lastPurge < erasenumber {
		// Remember the earliest surviving page for the next iteration.
		nextPurge := erasenumber

		fprev := &c.fonts
	fonts:
		for fptr := *fprev; fptr != nil; fptr = *fprev {
			if protect != nil && protect.Font == fptr {
				// Never purge the font the current graphics state is
				// using; we are between operators, but the lookup
				// pointers must stay alive.
				fprev = &fptr.next
				continue
			}
			mprev := &fptr.matrices
			for mptr := *mprev; mptr != nil; mptr = *mprev {
				if c.CurFontCache <= level {
					break fonts
				}
				anyleft := false
				for i := 0; i < bucketCount; i++ {
					cprev := &mptr.buckets[i]
					for cptr := *cprev; cptr != nil; cptr = *cprev {
						if cptr.PageNo <= c.lastPurge {
							if cptr.Flags&CharT32Master != 0 {
								// The master definition of a Type 32
								// glyph stays until explicitly removed.
								anyleft = true
								cprev = &cptr.next
								continue
							}
							removedchars++
							*cprev = cptr.next
							c.uncharge(cptr)
							continue
						}
						if cptr.PageNo < nextPurge {
							nextPurge = cptr.PageNo
						}
						anyleft = true
						cprev = &cptr.next
					}
				}
				if !anyleft {
					c.CurCacheMatrix--
					removedfontmatrix++
					*mprev = mptr.next
					continue
				}
				mprev = &mptr.next
			}
			if fptr.matrices == nil {
				c.CurCacheFonts--
				removedfontmatrix++
				*fprev = fptr.next
				continue
			}
			fprev = &fptr.next
		}
		if nextPurge <= c.lastPurge {
			break
		}
		c.lastPurge = nextPurge
	}

	tracer().Debugf("purge: removed %d chars, %d fonts/matrices, %d bytes left",
		removedchars, removedfontmatrix, c.CurFontCache)

	if removedfontmatrix > 0 {
		c.invalidateSelections()
	}
	if removedchars > 0 {
		// Characters were reclaimed: resume normal service.
		c.compressing = false
	} else if c.CurFontCache > level {
		if !c.compressing {
			c.Compress()
		}
		c.compressing = true
	}
}

// CheckLimits purges if any counter exceeds its maximum. Purging is
// skipped while a character is being built.
func (c *Cache) CheckLimits(protect *Selection) {
	regs := c.Params
	if (c.CurCacheMatrix > regs.N(params.P_MAXCACHEMATRIX) ||
		c.CurCacheChars > regs.N(params.P_MAXCACHECHARS) ||
		c.CurFontCache > regs.N(params.P_MAXFONTCACHE)) &&
		!c.Building() {
		reclaim := c.CurFontCache - regs.N(params.P_MAXFONTCACHE)
		if reclaim < 1 {
			reclaim = 1
		}
		c.purge(reclaim, protect)
	}
}

// Clear purges the cache unconditionally. Clearing while a glyph
// construction is in progress is a policy violation and fails hard.
//
// Note that glyphs used on the current output page survive.
func (c *Cache) Clear() error {
	if c.Building() {
		return core.Error(core.EVMERROR, "cannot clear font cache during glyph construction")
	}
	c.purge(c.CurFontCache, nil)
	return nil
}

// FlushCache is the operator-level cache flush: it returns false instead
// of failing when a construction is in progress.
func (c *Cache) FlushCache() bool {
	if c.Building() {
		return false
	}
	c.purge(c.CurFontCache, nil)
	return true
}

// --- Useless fonts and glyphs ----------------------------------------------

// MakeUselessFont marks every font entry with the given UniqueID so that
// it cannot be referenced again and will be discarded by the next
// PurgeUseless.
func (c *Cache) MakeUselessFont(uid int32) {
	if uid == font.NoUniqueID {
		return
	}
	for fptr := c.fonts; fptr != nil; fptr = fptr.next {
		if fptr.UniqueID == uid {
			fptr.UniqueID = font.NoUniqueID
			fptr.FID = -1
		}
	}
}

// MakeUseless marks one glyph in all matrix sizes of a font so that it
// becomes unmatchable and is reclaimed by the next purge. The display
// list may still hold references to the glyph, so it cannot be freed
// synchronously; instead it is unlinked from its bucket, its key is
// overwritten with a sentinel, and it is adopted by a sacrificial font
// entry whose save level is already -1.
func (c *Cache) MakeUseless(uid int32, key font.CharKey) {
	if uid == font.NoUniqueID {
		return
	}
	idx := key.Hash()

	// Find an adoptive parent scheduled for purge; created on demand.
	var adoptive *FontEntry
	for adoptive = c.fonts; adoptive != nil && !font.HasTempUID(adoptive.UniqueID); adoptive = adoptive.next {
	}

	for fptr := c.fonts; fptr != nil; fptr = fptr.next {
		if fptr.UniqueID != uid {
			continue
		}
		for mptr := fptr.matrices; mptr != nil; mptr = mptr.next {
			cprev := &mptr.buckets[idx]
			for cptr := *cprev; cptr != nil; cptr = *cprev {
				if !key.Eq(cptr.Key) {
					cprev = &cptr.next
					continue
				}
				// Delink from the real parent and make it unmatchable.
				*cprev = cptr.next
				cptr.Key.Obliterate()

				if adoptive == nil {
					adoptive = &FontEntry{
						FID:       -1,
						UniqueID:  font.TempUID(0),
						SaveLevel: -1,
						matrices:  &MatrixEntry{},
					}
					adoptive.next = c.fonts
					c.fonts = adoptive
					c.CurCacheFonts++
					c.CurCacheMatrix++
				}
				if adoptive.matrices == nil {
					adoptive.matrices = &MatrixEntry{}
					c.CurCacheMatrix++
				}
				// Adopt at the same hash index to spread the load.
				cptr.next = adoptive.matrices.buckets[idx]
				adoptive.matrices.buckets[idx] = cptr
			}
		}
	}
}

// PurgeUseless removes cache references which can never be re-used:
// fonts whose save level is negative and which carry a temporary
// UniqueID or a custom CDevProc. Characters are only freed once their
// page number falls behind the given erase number.
func (c *Cache) PurgeUseless(erasenumber int32) {
	removed := 0
	fprev := &c.fonts
	for fptr := *fprev; fptr != nil; fptr = *fprev {
		if fptr.SaveLevel >= 0 ||
			(!font.HasTempUID(fptr.UniqueID) && fptr.CDevClass != font.CDevCustom) {
			fprev = &fptr.next
			continue
		}
		mprev := &fptr.matrices
		for mptr := *mprev; mptr != nil; mptr = *mprev {
			anyleft := false
			for i := 0; i < bucketCount; i++ {
				cprev := &mptr.buckets[i]
				for cptr := *cprev; cptr != nil; cptr = *cprev {
					if cptr.PageNo < erasenumber {
						*cprev = cptr.next
						c.uncharge(cptr)
						removed++
						continue
					}
					anyleft = true
					cprev = &cptr.next
				}
			}
			if !anyleft {
				*mprev = mptr.next
				c.CurCacheMatrix--
				continue
			}
			mprev = &mptr.next
		}
		if fptr.matrices == nil {
			*fprev = fptr.next
			c.CurCacheFonts--
			continue
		}
		fprev = &fptr.next
	}
	if removed > 0 {
		c.invalidateSelections()
		tracer().Debugf("purged %d useless glyphs", removed)
	}
	c.compressing = false
}

// RemoveChars deletes all characters in a CID range for a specified
// font, including Type 32 master characters. Master data is removed and
// the master flag cleared, so a standard purge can reclaim glyphs still
// referenced by the current page.
func (c *Cache) RemoveChars(fid, firstcid, lastcid int32) {
	if firstcid < 0 || firstcid > lastcid {
		tracer().Errorf("bad CID range %d..%d", firstcid, lastcid)
		return
	}
	fprev := &c.fonts
	var fptr *FontEntry
	for fptr = *fprev; fptr != nil; fptr = *fprev {
		if fptr.FID == fid {
			break
		}
		fprev = &fptr.next
	}
	if fptr == nil {
		return
	}
	removedfontmatrix := 0
	erasenumber := c.OutputPage
	mprev := &fptr.matrices
	for mptr := *mprev; mptr != nil; mptr = *mprev {
		anyleft := false
		// Visiting each hash bucket once covers the whole range.
		looplast := lastcid
		if lastcid-firstcid > bucketCount-1 {
			looplast = firstcid + bucketCount - 1
		}
		for i := firstcid; i <= looplast; i++ {
			cprev := &mptr.buckets[i&(bucketCount-1)]
			for cptr := *cprev; cptr != nil; cptr = *cprev {
				if cptr.Key.Code < firstcid || cptr.Key.Code > lastcid || cptr.Key.Dead() {
					anyleft = true
					cprev = &cptr.next
					continue
				}
				cptr.T32 = nil
				cptr.Flags &^= CharT32Master

				if cptr.PageNo < erasenumber {
					*cprev = cptr.next
					c.uncharge(cptr)
					continue
				}
				anyleft = true
				cprev = &cptr.next
			}
		}
		if !anyleft {
			c.CurCacheMatrix--
			removedfontmatrix++
			*mprev = mptr.next
			continue
		}
		mprev = &mptr.next
	}
	if fptr.matrices == nil {
		c.CurCacheFonts--
		removedfontmatrix++
		*fprev = fptr.next
	}
	if removedfontmatrix > 0 {
		c.invalidateSelections()
	}
}

// UniqueUIDs returns the distinct unique ids present in the cache.
func (c *Cache) UniqueUIDs() []int32 {
	set := hashset.New()
	for fptr := c.fonts; fptr != nil; fptr = fptr.next {
		set.Add(fptr.UniqueID)
	}
	uids := make([]int32, 0, set.Size())
	for _, v := range set.Values() {
		uids = append(uids, v.(int32))
	}
	return uids
}
