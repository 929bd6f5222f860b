package glyphcache

import (
	"unsafe"

	"github.com/npillmayer/ripcore/backend/raster"
	"github.com/npillmayer/ripcore/core"
	"github.com/npillmayer/ripcore/core/font"
	"github.com/npillmayer/ripcore/core/geom"
	"github.com/npillmayer/ripcore/core/params"
)

// bucketCount is the number of character hash buckets per matrix entry.
const bucketCount = 32

// CharFlags mark per-glyph properties.
type CharFlags uint8

const (
	CharT32Master  CharFlags = 1 << iota // identity-matrix Type 32 master
	CharBothWModes                       // form serves either writing mode
)

// T32Data holds the master definition of a Type 32 glyph: metrics for
// both writing modes, kept so other scalings can be derived.
type T32Data struct {
	Metrics  [2][4]float64 // per wmode: advance x/y, origin offset x/y
	HasWMode [2]bool
}

// CharEntry is one rendered glyph.
type CharEntry struct {
	Key  font.CharKey
	Form *raster.Form

	XBearing, YBearing float64 // stroke bearing offsets
	AdvanceX, AdvanceY float64 // advance width vector

	Flags  CharFlags
	PageNo int32 // most recent page the glyph was used on
	BaseNo int32 // page the current form first appeared on
	Usage  uint32
	T32    *T32Data

	next   *CharEntry
	matrix *MatrixEntry // identity of owning matrix, for trap comparison
}

// MatrixEntry is one transform applied to a font.
type MatrixEntry struct {
	Matrix  geom.Matrix
	buckets [bucketCount]*CharEntry
	next    *MatrixEntry
}

// FontEntry is a cached font instance.
type FontEntry struct {
	FID         int32
	UniqueID    int32
	Type        font.Type
	PaintType   uint8
	StrokeWidth float32
	CDevClass   font.CDevClass
	SaveLevel   int32 // < 0 marks the entry purgeable

	matrices *MatrixEntry
	next     *FontEntry
}

// Selection is the per-graphics-state lookup state: the font and matrix
// entries found by the staged lookup. A generation stamp invalidates
// selections whose entries a purge may have freed.
type Selection struct {
	Font   *FontEntry
	Matrix *MatrixEntry
	gen    uint32
}

// BuildState tracks whether a glyph construction is in progress. Purging
// and compression are forbidden while building: the display list may
// reference the form under construction.
type BuildState uint8

const (
	BuildIdle BuildState = iota
	BuildInProgress
)

// Cache is the font cache context. All mutation happens on the
// interpreter goroutine; there is no internal locking.
type Cache struct {
	fonts *FontEntry

	Params *params.RenderRegisters

	// Accounting. CurFontCache counts form bytes; the other three count
	// live entries of each level.
	CurFontCache   int
	CurCacheFonts  int
	CurCacheMatrix int
	CurCacheChars  int

	// Page state, advanced by the dispatcher. OutputPage is the erase
	// number of the page being rendered; InputPage the one being
	// interpreted.
	OutputPage int32
	InputPage  int32

	// SaveLevel is the interpreter's current save level, stamped onto new
	// font entries.
	SaveLevel int32

	lastPurge   int32
	compressing bool
	building    BuildState
	gen         uint32
}

// Entry sizes for available-memory accounting.
const (
	fontEntrySize   = int(unsafe.Sizeof(FontEntry{}))
	matrixEntrySize = int(unsafe.Sizeof(MatrixEntry{}))
	charEntrySize   = int(unsafe.Sizeof(CharEntry{}))
)

// New creates an empty cache reading its limits from regs.
func New(regs *params.RenderRegisters) *Cache {
	return &Cache{Params: regs}
}

// SetBuilding flags a glyph construction in progress. While set, purge,
// clear and compression refuse to run.
func (c *Cache) SetBuilding(b bool) {
	if b {
		c.building = BuildInProgress
	} else {
		c.building = BuildIdle
	}
}

// Building reports whether a glyph construction is in progress.
func (c *Cache) Building() bool {
	return c.building == BuildInProgress
}

// validate drops stale lookup pointers after a purge has freed entries.
func (c *Cache) validate(sel *Selection) {
	if sel.gen != c.gen {
		sel.Font = nil
		sel.Matrix = nil
		sel.gen = c.gen
	}
}

// invalidateSelections bumps the generation; every Selection revalidates
// lazily on its next use.
func (c *Cache) invalidateSelections() {
	c.gen++
}

// --- Lookup ----------------------------------------------------------------

// LookupFID sets the lookup font by a straight font-id match. The font
// list is re-linked to be an MRU list. Returns true if found.
func (c *Cache) LookupFID(fi *font.Info, sel *Selection) bool {
	c.validate(sel)
	for fprev := &c.fonts; *fprev != nil; fprev = &(*fprev).next {
		fcptr := *fprev
		if fcptr.FID == fi.FID {
			*fprev = fcptr.next
			fcptr.next = c.fonts
			c.fonts = fcptr
			sel.Font = fcptr
			sel.Matrix = nil
			return true
		}
	}
	return false
}

// LookupFont tries to match the font by identity: UniqueID, font type,
// paint type, stroke width and CDevProc class. Only entries marked
// restorable (negative save level) are eligible: entries still reachable
// from interpreter state keep their own FID match. A match re-links the
// MRU list and re-adopts the entry at the current FID and save level.
//
// As in the original, the return value reports only that lookup is
// complete; a miss is not an error.
func (c *Cache) LookupFont(fi *font.Info, sel *Selection) bool {
	c.validate(sel)
	// Can't match a new font against an old one with metrics overrides.
	if fi.UniqueID == font.NoUniqueID || fi.HasMetrics {
		return true
	}
	if fi.CDevClass == font.CDevCustom {
		return true
	}
	for fprev := &c.fonts; *fprev != nil; fprev = &(*fprev).next {
		fcptr := *fprev
		if fcptr.SaveLevel >= 0 {
			continue
		}
		if fcptr.UniqueID == fi.UniqueID &&
			fcptr.Type == fi.Type &&
			fcptr.PaintType == fi.PaintType &&
			fcptr.StrokeWidth == fi.StrokeWidth &&
			fcptr.CDevClass == fi.CDevClass {
			*fprev = fcptr.next
			fcptr.next = c.fonts
			c.fonts = fcptr

			fcptr.FID = fi.FID
			fcptr.SaveLevel = c.SaveLevel
			sel.Font = fcptr
			sel.Matrix = nil
			return true
		}
	}
	return true
}

// LookupMatrix sets the lookup matrix within the selected font. Matrix
// comparison is bit-exact. The matrix list is re-linked to be an MRU
// list. Returns true if found.
func (c *Cache) LookupMatrix(fi *font.Info, sel *Selection) bool {
	c.validate(sel)
	if sel.Font == nil {
		return false
	}
	for mprev := &sel.Font.matrices; *mprev != nil; mprev = &(*mprev).next {
		amatrix := *mprev
		if amatrix.Matrix.Eq(fi.FontMatrix) {
			*mprev = amatrix.next
			amatrix.next = sel.Font.matrices
			sel.Font.matrices = amatrix
			sel.Matrix = amatrix
			return true
		}
	}
	return false
}

// LookupMatrixT32 is the Type 32 variant of LookupMatrix: translational
// components of the matrix are ignored.
func (c *Cache) LookupMatrixT32(fi *font.Info, sel *Selection) bool {
	c.validate(sel)
	if sel.Font == nil {
		return false
	}
	for mprev := &sel.Font.matrices; *mprev != nil; mprev = &(*mprev).next {
		amatrix := *mprev
		if amatrix.Matrix.EqScale(fi.FontMatrix) {
			*mprev = amatrix.next
			amatrix.next = sel.Font.matrices
			sel.Font.matrices = amatrix
			sel.Matrix = amatrix
			return true
		}
	}
	return false
}

// CurrentMatrix returns the matrix used by the last successful lookup.
func (c *Cache) CurrentMatrix(sel *Selection) *geom.Matrix {
	c.validate(sel)
	if sel.Matrix != nil {
		return &sel.Matrix.Matrix
	}
	return nil
}

// LookupChar looks up a character in the bucket of the selected matrix.
// The writing mode must match exactly. Returns nil if not present.
func (c *Cache) LookupChar(sel *Selection, key font.CharKey) *CharEntry {
	c.validate(sel)
	mptr := sel.Matrix
	if mptr == nil {
		return nil
	}
	for cptr := mptr.buckets[key.Hash()]; cptr != nil; cptr = cptr.next {
		if key.Eq(cptr.Key) && key.WMode == cptr.Key.WMode {
			return cptr
		}
	}
	return nil
}

// LookupCharWMode prefers the cache form for the correct writing mode but
// returns the other writing mode's form if that one is not found.
func (c *Cache) LookupCharWMode(sel *Selection, key font.CharKey) *CharEntry {
	c.validate(sel)
	mptr := sel.Matrix
	if mptr == nil {
		return nil
	}
	var found *CharEntry
	for cptr := mptr.buckets[key.Hash()]; cptr != nil; cptr = cptr.next {
		if key.Eq(cptr.Key) {
			if key.WMode == cptr.Key.WMode {
				return cptr
			}
			found = cptr
		}
	}
	return found
}

// LookupCharT32 finds the master definition of a Type 32 glyph: the
// identity-matrix form flagged as master.
func (c *Cache) LookupCharT32(sel *Selection, key font.CharKey) *CharEntry {
	c.validate(sel)
	if sel.Font == nil {
		return nil
	}
	identity := geom.Identity()
	var mptr *MatrixEntry
	for mptr = sel.Font.matrices; mptr != nil; mptr = mptr.next {
		if mptr.Matrix.Eq(identity) {
			break
		}
	}
	if mptr == nil {
		// No characters defined if the identity matrix is absent.
		return nil
	}
	for cptr := mptr.buckets[key.Hash()]; cptr != nil; cptr = cptr.next {
		if key.Eq(cptr.Key) && cptr.Flags&CharT32Master != 0 {
			return cptr
		}
	}
	return nil
}

// --- Insertion -------------------------------------------------------------

// NewChar creates a new character entry, inserting it into the cache.
// Font and matrix parents are created on demand if the selection has
// none. The entry starts with no form; AttachForm charges the storage.
func (c *Cache) NewChar(fi *font.Info, sel *Selection, key font.CharKey) (*CharEntry, error) {
	c.validate(sel)
	if key.Dead() {
		return nil, core.Error(core.EINVALID, "cache key is unmatchable")
	}

	// Insert new font if necessary.
	if sel.Font == nil {
		fcptr := &FontEntry{
			FID:         fi.FID,
			UniqueID:    fi.UniqueID,
			Type:        fi.Type,
			PaintType:   fi.PaintType,
			StrokeWidth: fi.StrokeWidth,
			CDevClass:   fi.CDevClass,
			SaveLevel:   c.SaveLevel,
		}
		fcptr.next = c.fonts
		c.fonts = fcptr
		sel.Font = fcptr
		c.CurCacheFonts++
	}

	// Insert new matrix if necessary.
	if sel.Matrix == nil {
		newmatrix := &MatrixEntry{Matrix: fi.FontMatrix}
		newmatrix.next = sel.Font.matrices
		sel.Font.matrices = newmatrix
		sel.Matrix = newmatrix
		c.CurCacheMatrix++
	}

	newchar := &CharEntry{
		Key:    key,
		PageNo: c.InputPage,
		BaseNo: c.InputPage,
		matrix: sel.Matrix,
	}
	idx := key.Hash()
	newchar.next = sel.Matrix.buckets[idx]
	sel.Matrix.buckets[idx] = newchar
	c.CurCacheChars++

	return newchar, nil
}

// AttachForm hands a freshly constructed form to a character entry and
// charges the accounting.
func (c *Cache) AttachForm(entry *CharEntry, form *raster.Form) {
	if entry.Form != nil {
		c.CurFontCache -= raster.AlignFormSize(entry.Form.Size)
	}
	entry.Form = form
	if form != nil {
		c.CurFontCache += raster.AlignFormSize(form.Size)
	}
}

// FreeChar removes a character still under construction, when an error
// occurs while filling it. The entry is guaranteed to be the head of its
// bucket chain.
func (c *Cache) FreeChar(sel *Selection, entry *CharEntry) {
	c.validate(sel)
	if entry == nil {
		return
	}
	mptr := sel.Matrix
	if mptr == nil {
		return
	}
	idx := entry.Key.Hash()
	if mptr.buckets[idx] != entry {
		tracer().Errorf("char cache chain out of sync on free")
		return
	}
	mptr.buckets[idx] = entry.next
	c.CurCacheChars--
	if entry.Form != nil {
		c.CurFontCache -= raster.AlignFormSize(entry.Form.Size)
	}
}

// Touch records a cache hit on a glyph for the current page. The base
// page is moved forward when a glyph unused on the previous page is
// referenced again, so the base number tracks the first page of the
// current usage streak.
func (c *Cache) Touch(entry *CharEntry) {
	if entry.PageNo < c.InputPage-1 {
		entry.BaseNo = c.InputPage
	}
	entry.PageNo = c.InputPage
	entry.Usage++
}

// --- Restore ---------------------------------------------------------------

// Restore marks every font entry above the given save level as eligible
// for purging.
func (c *Cache) Restore(slevel int32) {
	for fcptr := c.fonts; fcptr != nil; fcptr = fcptr.next {
		if fcptr.SaveLevel > slevel {
			fcptr.SaveLevel = -1
		}
	}
}

// RestoreNames walks every character entry and invalidates any key whose
// name reference would not survive the restore, as decided by the
// predicate. The glyphs become unreferencable and are purged after they
// are rendered.
func (c *Cache) RestoreNames(doomed func(name string) bool) {
	for fptr := c.fonts; fptr != nil; fptr = fptr.next {
		for mptr := fptr.matrices; mptr != nil; mptr = mptr.next {
			for i := 0; i < bucketCount; i++ {
				for cptr := mptr.buckets[i]; cptr != nil; cptr = cptr.next {
					if cptr.Key.Name != "" && doomed(cptr.Key.Name) {
						cptr.Key.Obliterate()
					}
				}
			}
		}
	}
}

// --- Introspection ---------------------------------------------------------

// ChainsSameMatrix reports whether two characters come from the same
// font and matrix size. It compares the opaque matrix identity only.
func ChainsSameMatrix(c1, c2 *CharEntry) bool {
	return c1.matrix == c2.matrix
}

// UIDs returns the unique ids of all font entries. There may be
// duplicates.
func (c *Cache) UIDs() []int32 {
	var uids []int32
	for fptr := c.fonts; fptr != nil; fptr = fptr.next {
		uids = append(uids, fptr.UniqueID)
	}
	return uids
}

// AvailableMemory reports the total bytes reclaimable by a full purge.
func (c *Cache) AvailableMemory() int {
	avail := c.CurCacheFonts * fontEntrySize
	avail += c.CurCacheMatrix * matrixEntrySize
	avail += c.CurCacheChars * charEntrySize
	avail += c.CurFontCache
	return avail
}

// Status reports the cache accounting: bytes used, byte limit, and the
// three entry counts.
func (c *Cache) Status() (used, max, fonts, matrices, chars int) {
	return c.CurFontCache, c.Params.N(params.P_MAXFONTCACHE),
		c.CurCacheFonts, c.CurCacheMatrix, c.CurCacheChars
}
