package glyphcache

import (
	"github.com/npillmayer/ripcore/backend/raster"
	"github.com/npillmayer/ripcore/core/params"
)

// compressionRatio returns the acceptable RLE-to-bitmap size ratio for a
// glyph, parameterized by its usage count: the first use is compressed
// aggressively, subsequent uses conservatively.
func (c *Cache) compressionRatio(usage uint32) float64 {
	ratios := c.Params.FA(params.P_FORCEFONTCOMPRESS)
	if len(ratios) == 0 {
		return 0
	}
	i := int(usage)
	if i >= len(ratios) {
		i = len(ratios) - 1
	}
	return ratios[i]
}

// Compress walks the cache and converts uncompressed bitmap glyphs to
// the per-line span-list encoding. A glyph is eligible if it is older
// than any rendering page or lives on the current input page (so it
// cannot be simultaneously rendering), is not a Type 32 master, and its
// encoding meets the compression ratio threshold for its usage count.
//
// Compression shares the interpreter's scratch state and must only be
// invoked from the interpreter goroutine between output operations.
func (c *Cache) Compress() int {
	if c.Building() || c.CurFontCache == 0 || c.compressing {
		return 0
	}
	minsize := c.Params.N(params.P_MINFONTCOMPRESS)
	erasenumber := c.OutputPage
	curntnumber := c.InputPage
	compressed := 0

	for fptr := c.fonts; fptr != nil; fptr = fptr.next {
		for mptr := fptr.matrices; mptr != nil; mptr = mptr.next {
			for i := 0; i < bucketCount; i++ {
				for cptr := mptr.buckets[i]; cptr != nil; cptr = cptr.next {
					if cptr.PageNo >= erasenumber && cptr.BaseNo != curntnumber {
						continue
					}
					if cptr.Flags&CharT32Master != 0 {
						// Masters stay as bitmaps; unpacking other
						// scalings reads their pixels directly.
						continue
					}
					form := cptr.Form
					if form == nil || form.Type != raster.FormCacheBitmap {
						continue
					}
					if form.Size < minsize {
						continue
					}
					oldsize := raster.AlignFormSize(form.Size)
					if !form.ToRLE(c.compressionRatio(cptr.Usage)) {
						continue
					}
					c.CurFontCache += raster.AlignFormSize(form.Size) - oldsize
					compressed++
				}
			}
		}
	}
	tracer().Debugf("compressed %d glyph forms, %d bytes cached",
		compressed, c.CurFontCache)
	return compressed
}

// IsCompressing reports whether new cache entries should be compressed:
// set when a purge pass could not reclaim anything.
func (c *Cache) IsCompressing() bool {
	return c.compressing
}
